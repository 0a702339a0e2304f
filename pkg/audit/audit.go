// Package audit persists per-row cleaning operations to Postgres so that
// every repair made on the way to the warehouse stays queryable after the run.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"sales-etl/pkg/model"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS cleaning_audit (
	id               UUID PRIMARY KEY,
	run_id           UUID NOT NULL,
	dataset          TEXT NOT NULL,
	column_name      TEXT NOT NULL,
	row_key          TEXT NOT NULL,
	original_value   TEXT,
	new_value        TEXT,
	operation        TEXT NOT NULL,
	reason           TEXT NOT NULL,
	applied_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS cleaning_audit_run_idx ON cleaning_audit (run_id);
`

// Store writes cleaning operations into the cleaning_audit table.
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// Open connects to Postgres, verifies the connection and ensures the
// audit table exists.
func Open(ctx context.Context, databaseURL string, logger *zap.Logger) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to audit database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure audit schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Record batch inserts the operations of one run inside a single transaction.
func (s *Store) Record(ctx context.Context, runID string, operations []model.CleaningOperation) (err error) {
	if len(operations) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("Failed to rollback audit transaction",
					zap.Error(rbErr),
					zap.Error(err))
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cleaning_audit
		(id, run_id, dataset, column_name, row_key, original_value, new_value,
		 operation, reason, applied_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, op := range operations {
		_, err = stmt.ExecContext(ctx,
			op.ID,
			runID,
			op.Dataset,
			op.Column,
			op.RowKey,
			toNullableString(op.OriginalValue),
			toNullableString(op.NewValue),
			op.Operation,
			op.Reason,
			op.AppliedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert cleaning operation: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Recorded cleaning operations",
		zap.String("run_id", runID),
		zap.Int("count", len(operations)))
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func toNullableString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
