package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sales-etl/pkg/config"
	"sales-etl/pkg/model"
	"sales-etl/pkg/sink"
)

type memSource struct {
	customers []model.RawCustomer
	products  []model.RawProduct
	sales     []model.RawSale
	err       error
}

func (m *memSource) Customers(context.Context) ([]model.RawCustomer, error) {
	return m.customers, m.err
}

func (m *memSource) Products(context.Context) ([]model.RawProduct, error) {
	return m.products, m.err
}

func (m *memSource) Sales(context.Context) ([]model.RawSale, error) {
	return m.sales, m.err
}

func (m *memSource) Close() error { return nil }

type failingSink struct{}

func (failingSink) Write(context.Context, *model.StarSchema) error {
	return errors.New("disk full")
}

type capturingAudit struct {
	runID string
	ops   []model.CleaningOperation
}

func (a *capturingAudit) Record(_ context.Context, runID string, ops []model.CleaningOperation) error {
	a.runID = runID
	a.ops = ops
	return nil
}

func strp(s string) *string { return &s }

func datep(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// sampleSource carries one defect of each kind alongside healthy rows.
func sampleSource() *memSource {
	return &memSource{
		customers: []model.RawCustomer{
			{CustomerID: 1, Name: "Ana Soto", Email: strp("ana@example.com"), Country: "Mexico",
				RegistrationDate: time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC), Segment: "Premium",
				Phone: strp("555-0100"), City: strp("Puebla")},
			{CustomerID: 2, Name: "Ben Okafor", Email: strp("not-an-email"), Country: "Nigeria",
				RegistrationDate: time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC), Segment: "Standard"},
			{CustomerID: 3, Name: "Caro Diaz", Email: strp("caro@example.com"), Country: "Chile",
				RegistrationDate: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), Segment: "Standard"},
		},
		products: []model.RawProduct{
			{ProductID: 101, ProductName: "Mouse", Category: "Electronics",
				UnitPrice: decimal.RequireFromString("19.99"), Supplier: strp("Logi"),
				StockQuantity: 40, Rating: 4.2},
			{ProductID: 102, ProductName: "Broken", Category: "Electronics",
				UnitPrice: decimal.Zero, Supplier: strp("Acme"), StockQuantity: 5, Rating: 3.0},
		},
		sales: []model.RawSale{
			{SaleID: 1001, CustomerID: 1, ProductID: 101, Date: datep(2024, 5, 2), Quantity: 3,
				DiscountPercent: 15, PaymentMethod: "Credit Card", Status: "Completed", Seq: 0},
			{SaleID: 1001, CustomerID: 1, ProductID: 101, Date: datep(2024, 5, 3), Quantity: 1,
				DiscountPercent: 0, PaymentMethod: "Cash", Status: "Completed", Seq: 1},
			{SaleID: 1002, CustomerID: 9999, ProductID: 101, Date: datep(2024, 5, 4), Quantity: 2,
				DiscountPercent: 0, PaymentMethod: "Cash", Status: "Completed", Seq: 2},
			{SaleID: 1003, CustomerID: 3, ProductID: 102, Date: datep(2024, 5, 5), Quantity: 2,
				DiscountPercent: 130, PaymentMethod: "Cash", Status: "Completed", Seq: 3},
			{SaleID: 1004, CustomerID: 3, ProductID: 101, Date: datep(2025, 1, 1), Quantity: 2,
				DiscountPercent: 0, PaymentMethod: "Cash", Status: "Completed", Seq: 4},
		},
	}
}

func testConfig(outDir string) *config.Config {
	return &config.Config{
		Source:         config.SourceCSV,
		OutDir:         outDir,
		FactParts:      2,
		ProcessingDate: time.Date(2024, 10, 11, 0, 0, 0, 0, time.UTC),
		WorkerPoolSize: 2,
	}
}

func runOnce(t *testing.T, outDir string, audit AuditRecorder) *RunMetrics {
	t.Helper()
	cfg := testConfig(outDir)
	p := New(cfg, sampleSource(), sink.NewCSVSink(outDir, cfg.FactParts, zap.NewNop()), audit, zap.NewNop())

	metrics, err := p.Run(context.Background())
	require.NoError(t, err)
	return metrics
}

func TestPipelineRunEndToEnd(t *testing.T) {
	outDir := t.TempDir()
	audit := &capturingAudit{}
	metrics := runOnce(t, outDir, audit)

	// Customer 2 has an invalid email, product 102 a zero price. Of the five
	// sales only 1001 (deduplicated to the earlier date) survives: 1002 is an
	// orphan, 1003 references the dropped product, 1004 is future-dated.
	assert.Equal(t, 1, metrics.FactRows)

	for _, table := range []string{sink.DimCustomerTable, sink.DimProductTable, sink.FactSalesTable} {
		_, err := os.Stat(filepath.Join(outDir, table, "part-00000.csv"))
		assert.NoError(t, err, table)
	}

	assert.Equal(t, metrics.RunID, audit.runID)
	assert.NotEmpty(t, audit.ops)
}

func TestPipelineRunsAreDeterministic(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	runOnce(t, dirA, nil)
	runOnce(t, dirB, nil)

	for _, table := range []string{sink.DimCustomerTable, sink.DimProductTable, sink.FactSalesTable} {
		entries, err := os.ReadDir(filepath.Join(dirA, table))
		require.NoError(t, err)
		for _, e := range entries {
			a, err := os.ReadFile(filepath.Join(dirA, table, e.Name()))
			require.NoError(t, err)
			b, err := os.ReadFile(filepath.Join(dirB, table, e.Name()))
			require.NoError(t, err)
			assert.Equal(t, a, b, "%s/%s differs between runs", table, e.Name())
		}
	}
}

func TestPipelineSourceFailureAbortsBeforeOutput(t *testing.T) {
	outDir := t.TempDir()
	cfg := testConfig(outDir)
	src := &memSource{err: errors.New("connection refused")}
	p := New(cfg, src, sink.NewCSVSink(outDir, cfg.FactParts, zap.NewNop()), nil, zap.NewNop())

	_, err := p.Run(context.Background())
	require.Error(t, err)

	var serr *StageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, CategorySource, serr.Category)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no output written on extract failure")
}

func TestPipelineSinkFailureIsCategorized(t *testing.T) {
	cfg := testConfig(t.TempDir())
	p := New(cfg, sampleSource(), failingSink{}, nil, zap.NewNop())

	_, err := p.Run(context.Background())
	require.Error(t, err)

	var serr *StageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, CategorySink, serr.Category)
}

func TestPipelineStageMetricsCoverEveryStage(t *testing.T) {
	metrics := runOnce(t, t.TempDir(), nil)

	stages := make([]string, 0, len(metrics.Stages))
	for _, s := range metrics.Stages {
		stages = append(stages, s.Stage)
	}
	assert.Equal(t, []string{
		"extract", "clean_customers", "clean_products", "clean_sales",
		"build_star", "write_output",
	}, stages)

	summary := metrics.Summary()
	assert.Contains(t, summary, metrics.RunID)
	assert.Contains(t, summary, "clean_sales")
}
