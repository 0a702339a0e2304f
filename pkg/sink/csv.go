// pkg/sink/csv.go
package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"sales-etl/pkg/model"
)

// Output table directory names.
const (
	DimCustomerTable = "dim_customer"
	DimProductTable  = "dim_product"
	FactSalesTable   = "fact_sales"
)

// CSVSink writes the star schema as delimited files with header rows.
// The dimensions are written as a single part each; the fact table is split
// across up to factParts part files. Everything is staged in a scratch
// directory and swapped into place only once all three tables are complete,
// so a failed run never commits partial output.
type CSVSink struct {
	dir       string
	factParts int
	logger    *zap.Logger
}

// NewCSVSink creates a sink writing under dir.
func NewCSVSink(dir string, factParts int, logger *zap.Logger) *CSVSink {
	return &CSVSink{
		dir:       dir,
		factParts: factParts,
		logger:    logger,
	}
}

// Write stages and commits the three output tables.
func (s *CSVSink) Write(ctx context.Context, schema *model.StarSchema) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	staging, err := os.MkdirTemp(s.dir, ".staging-")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	if err := s.writeDimCustomer(ctx, staging, schema.DimCustomers); err != nil {
		return err
	}
	if err := s.writeDimProduct(ctx, staging, schema.DimProducts); err != nil {
		return err
	}
	if err := s.writeFactSales(ctx, staging, schema.FactSales); err != nil {
		return err
	}

	// Commit: swap each staged table directory into place.
	for _, table := range []string{DimCustomerTable, DimProductTable, FactSalesTable} {
		target := filepath.Join(s.dir, table)
		if err := os.RemoveAll(target); err != nil {
			return fmt.Errorf("failed to replace %s: %w", table, err)
		}
		if err := os.Rename(filepath.Join(staging, table), target); err != nil {
			return fmt.Errorf("failed to commit %s: %w", table, err)
		}
	}

	s.logger.Info("Committed star schema",
		zap.String("dir", s.dir),
		zap.Int("dimCustomers", len(schema.DimCustomers)),
		zap.Int("dimProducts", len(schema.DimProducts)),
		zap.Int("factSales", len(schema.FactSales)))
	return nil
}

func (s *CSVSink) writeDimCustomer(ctx context.Context, staging string, rows []model.DimCustomer) error {
	header := []string{"customer_id", "name", "email", "country", "registration_date", "segment", "city"}
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			strconv.FormatInt(r.CustomerID, 10),
			r.Name,
			r.Email,
			r.Country,
			formatDate(r.RegistrationDate),
			r.Segment,
			r.City,
		})
	}
	return writePart(ctx, filepath.Join(staging, DimCustomerTable), 0, header, records)
}

func (s *CSVSink) writeDimProduct(ctx context.Context, staging string, rows []model.DimProduct) error {
	header := []string{"product_id", "product_name", "category", "unit_price", "supplier", "rating"}
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			strconv.FormatInt(r.ProductID, 10),
			r.ProductName,
			r.Category,
			r.UnitPrice.String(),
			r.Supplier,
			formatFloat(r.Rating),
		})
	}
	return writePart(ctx, filepath.Join(staging, DimProductTable), 0, header, records)
}

func (s *CSVSink) writeFactSales(ctx context.Context, staging string, rows []model.FactSale) error {
	header := []string{
		"sale_id", "customer_id", "product_id", "sale_date", "quantity", "unit_price",
		"discount_percent", "amount_before_discount", "discount_amount", "total_amount",
		"payment_method", "status",
	}

	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			strconv.FormatInt(r.SaleID, 10),
			strconv.FormatInt(r.CustomerID, 10),
			strconv.FormatInt(r.ProductID, 10),
			formatDate(r.SaleDate),
			strconv.Itoa(r.Quantity),
			r.UnitPrice.String(),
			strconv.Itoa(r.DiscountPercent),
			r.AmountBeforeDiscount.String(),
			r.DiscountAmount.String(),
			r.TotalAmount.String(),
			r.PaymentMethod,
			r.Status,
		})
	}

	dir := filepath.Join(staging, FactSalesTable)

	// Contiguous chunks keep part contents deterministic for a given input.
	parts := s.factParts
	if parts <= 0 {
		parts = 1
	}
	chunk := (len(records) + parts - 1) / parts
	if chunk == 0 {
		// No fact rows at all: still write one header-only part.
		return writePart(ctx, dir, 0, header, nil)
	}

	part := 0
	for start := 0; start < len(records); start += chunk {
		end := start + chunk
		if end > len(records) {
			end = len(records)
		}
		if err := writePart(ctx, dir, part, header, records[start:end]); err != nil {
			return err
		}
		part++
	}

	return nil
}

// writePart writes one part file with its header under the table directory.
func writePart(ctx context.Context, tableDir string, part int, header []string, records [][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(tableDir, 0o755); err != nil {
		return fmt.Errorf("failed to create table directory %s: %w", tableDir, err)
	}

	path := filepath.Join(tableDir, fmt.Sprintf("part-%05d.csv", part))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", path, err)
	}
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return f.Close()
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
