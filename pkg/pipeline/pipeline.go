// Package pipeline orchestrates one end-to-end run: extract the raw
// datasets, clean them in dependency order, build the star schema, verify
// it and commit it to the sink. A failure at any stage aborts the run and
// leaves previous output untouched.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"sales-etl/pkg/cleaner"
	"sales-etl/pkg/config"
	"sales-etl/pkg/model"
	"sales-etl/pkg/sink"
	"sales-etl/pkg/source"
	"sales-etl/pkg/star"
)

// AuditRecorder persists the cleaning operations of a run. Nil disables
// auditing.
type AuditRecorder interface {
	Record(ctx context.Context, runID string, operations []model.CleaningOperation) error
}

// Pipeline wires a raw source, the cleaners, the star builder and a sink
// into a single run.
type Pipeline struct {
	cfg    *config.Config
	source source.RawSource
	sink   sink.Sink
	audit  AuditRecorder
	logger *zap.Logger
}

func New(cfg *config.Config, src source.RawSource, snk sink.Sink, audit AuditRecorder, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		source: src,
		sink:   snk,
		audit:  audit,
		logger: logger,
	}
}

// Run executes the pipeline once. The returned metrics are valid whether or
// not the run succeeded; on failure they record what was reached.
func (p *Pipeline) Run(ctx context.Context) (*RunMetrics, error) {
	metrics := NewRunMetrics(p.logger)
	processingDate := truncateToDate(p.cfg.ProcessingDate)

	p.logger.Info("Starting pipeline run",
		zap.String("run_id", metrics.RunID),
		zap.String("source", p.cfg.Source),
		zap.Time("processing_date", processingDate))

	rawCustomers, rawProducts, rawSales, err := p.extract(ctx, metrics)
	if err != nil {
		metrics.RecordError(CategorySource)
		return metrics, stageError("extract", CategorySource, err)
	}

	// Customers and products clean independently; sales depends on both
	// surviving key sets for orphan removal.
	start := time.Now()
	customers, customerReport := cleaner.NewCustomerCleaner(p.logger).Clean(rawCustomers)
	metrics.RecordCleaningStage(customerReport, time.Since(start))

	start = time.Now()
	products, productReport := cleaner.NewProductCleaner(p.logger).Clean(rawProducts)
	metrics.RecordCleaningStage(productReport, time.Since(start))

	start = time.Now()
	sales, salesReport := cleaner.NewSalesCleaner(processingDate, p.logger).Clean(rawSales, customers, products)
	metrics.RecordCleaningStage(salesReport, time.Since(start))

	start = time.Now()
	schema, err := star.NewBuilder(p.cfg.WorkerPoolSize, p.logger).Build(customers, products, sales)
	if err != nil {
		metrics.RecordError(CategoryBuild)
		return metrics, stageError("build", CategoryBuild, err)
	}
	metrics.RecordStage("build_star", len(sales), len(schema.FactSales), time.Since(start))

	if err := NewVerifier(processingDate, p.logger).Verify(schema); err != nil {
		metrics.RecordError(CategoryVerification)
		return metrics, stageError("verify", CategoryVerification, err)
	}

	if p.audit != nil {
		operations := collectOperations(customerReport, productReport, salesReport)
		if err := p.audit.Record(ctx, metrics.RunID, operations); err != nil {
			metrics.RecordError(CategoryAudit)
			return metrics, stageError("audit", CategoryAudit, err)
		}
	}

	start = time.Now()
	if err := p.sink.Write(ctx, schema); err != nil {
		metrics.RecordError(CategorySink)
		return metrics, stageError("sink", CategorySink, err)
	}
	metrics.RecordStage("write_output", len(schema.FactSales), len(schema.FactSales), time.Since(start))

	metrics.Finish(len(schema.FactSales))
	metrics.LogSummary()
	return metrics, nil
}

func (p *Pipeline) extract(ctx context.Context, metrics *RunMetrics) (
	[]model.RawCustomer, []model.RawProduct, []model.RawSale, error,
) {
	start := time.Now()

	customers, err := p.source.Customers(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	products, err := p.source.Products(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	sales, err := p.source.Sales(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	total := len(customers) + len(products) + len(sales)
	metrics.RecordStage("extract", total, total, time.Since(start))
	return customers, products, sales, nil
}

func collectOperations(reports ...*cleaner.Report) []model.CleaningOperation {
	var operations []model.CleaningOperation
	for _, r := range reports {
		operations = append(operations, r.Ops...)
	}
	return operations
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
