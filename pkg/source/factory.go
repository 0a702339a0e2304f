// pkg/source/factory.go
package source

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"sales-etl/pkg/config"
)

// New creates the raw source selected by configuration.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (RawSource, error) {
	switch cfg.Source {
	case config.SourceCSV:
		logger.Info("Creating CSV raw source", zap.String("dir", cfg.RawDir))
		return NewCSVSource(cfg.RawDir, logger), nil

	case config.SourceSnowflake:
		logger.Info("Creating Snowflake raw source")
		src, err := NewSnowflakeSource(ctx, cfg.Snowflake, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Snowflake source: %w", err)
		}
		return src, nil

	default:
		return nil, fmt.Errorf("unknown raw source %q", cfg.Source)
	}
}
