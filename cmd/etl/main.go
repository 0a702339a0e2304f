package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"sales-etl/pkg/audit"
	"sales-etl/pkg/config"
	"sales-etl/pkg/pipeline"
	"sales-etl/pkg/sink"
	"sales-etl/pkg/source"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if cfg.ProcessingDate.IsZero() {
		now := time.Now().UTC()
		cfg.ProcessingDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src, err := source.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open raw source", zap.Error(err))
	}
	defer src.Close()

	var auditStore pipeline.AuditRecorder
	if cfg.AuditDatabaseURL != "" {
		store, err := audit.Open(ctx, cfg.AuditDatabaseURL, logger)
		if err != nil {
			logger.Fatal("Failed to open audit store", zap.Error(err))
		}
		defer store.Close()
		auditStore = store
	}

	csvSink := sink.NewCSVSink(cfg.OutDir, cfg.FactParts, logger)

	p := pipeline.New(cfg, src, csvSink, auditStore, logger)
	metrics, err := p.Run(ctx)
	if err != nil {
		logger.Error("Pipeline run failed", zap.Error(err))
		fmt.Fprint(os.Stderr, metrics.Summary())
		os.Exit(1)
	}

	fmt.Print(metrics.Summary())
}
