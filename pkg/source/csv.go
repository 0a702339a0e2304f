// pkg/source/csv.go
package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"sales-etl/pkg/model"
)

// CSVSource reads the three raw datasets from delimited files with a header
// row, the layout the upstream generator writes.
type CSVSource struct {
	dir    string
	logger *zap.Logger
}

// NewCSVSource creates a CSV source rooted at dir. The directory must hold
// customers.csv, products.csv and sales.csv.
func NewCSVSource(dir string, logger *zap.Logger) *CSVSource {
	return &CSVSource{
		dir:    dir,
		logger: logger,
	}
}

// Customers loads and types the raw customer dataset.
func (s *CSVSource) Customers(ctx context.Context) ([]model.RawCustomer, error) {
	records, err := s.readTable(ctx, "customers.csv", customerColumns)
	if err != nil {
		return nil, err
	}

	customers := make([]model.RawCustomer, 0, len(records))
	for i, rec := range records {
		customerID, err := parseInt("customer_id", rec[0])
		if err != nil {
			return nil, rowError("customers", i, err)
		}
		regDate, err := parseDate("registration_date", rec[4])
		if err != nil {
			return nil, rowError("customers", i, err)
		}

		customers = append(customers, model.RawCustomer{
			CustomerID:       customerID,
			Name:             rec[1],
			Email:            nullableString(rec[2]),
			Country:          rec[3],
			RegistrationDate: regDate,
			Segment:          rec[5],
			Phone:            nullableString(rec[6]),
			City:             nullableString(rec[7]),
		})
	}

	s.logger.Info("Loaded raw customers",
		zap.String("file", "customers.csv"),
		zap.Int("rows", len(customers)))
	return customers, nil
}

// Products loads and types the raw product dataset.
func (s *CSVSource) Products(ctx context.Context) ([]model.RawProduct, error) {
	records, err := s.readTable(ctx, "products.csv", productColumns)
	if err != nil {
		return nil, err
	}

	products := make([]model.RawProduct, 0, len(records))
	for i, rec := range records {
		productID, err := parseInt("product_id", rec[0])
		if err != nil {
			return nil, rowError("products", i, err)
		}
		unitPrice, err := parseDecimal("unit_price", rec[3])
		if err != nil {
			return nil, rowError("products", i, err)
		}
		stock, err := parseInt("stock_quantity", rec[5])
		if err != nil {
			return nil, rowError("products", i, err)
		}
		weight, err := nullableFloat("weight_kg", rec[6])
		if err != nil {
			return nil, rowError("products", i, err)
		}
		rating, err := parseFloat("rating", rec[7])
		if err != nil {
			return nil, rowError("products", i, err)
		}

		products = append(products, model.RawProduct{
			ProductID:     productID,
			ProductName:   rec[1],
			Category:      rec[2],
			UnitPrice:     unitPrice,
			Supplier:      nullableString(rec[4]),
			StockQuantity: int(stock),
			WeightKg:      weight,
			Rating:        rating,
		})
	}

	s.logger.Info("Loaded raw products",
		zap.String("file", "products.csv"),
		zap.Int("rows", len(products)))
	return products, nil
}

// Sales loads and types the raw sales dataset. Each row is tagged with its
// ingestion sequence number in file order.
func (s *CSVSource) Sales(ctx context.Context) ([]model.RawSale, error) {
	records, err := s.readTable(ctx, "sales.csv", saleColumns)
	if err != nil {
		return nil, err
	}

	sales := make([]model.RawSale, 0, len(records))
	for i, rec := range records {
		saleID, err := parseInt("sale_id", rec[0])
		if err != nil {
			return nil, rowError("sales", i, err)
		}
		customerID, err := parseInt("customer_id", rec[1])
		if err != nil {
			return nil, rowError("sales", i, err)
		}
		productID, err := parseInt("product_id", rec[2])
		if err != nil {
			return nil, rowError("sales", i, err)
		}
		date, err := nullableDate("date", rec[3])
		if err != nil {
			return nil, rowError("sales", i, err)
		}
		quantity, err := parseInt("quantity", rec[4])
		if err != nil {
			return nil, rowError("sales", i, err)
		}
		discount, err := parseInt("discount_percent", rec[5])
		if err != nil {
			return nil, rowError("sales", i, err)
		}

		sales = append(sales, model.RawSale{
			SaleID:          saleID,
			CustomerID:      customerID,
			ProductID:       productID,
			Date:            date,
			Quantity:        int(quantity),
			DiscountPercent: int(discount),
			PaymentMethod:   rec[6],
			Status:          rec[7],
			Seq:             int64(i),
		})
	}

	s.logger.Info("Loaded raw sales",
		zap.String("file", "sales.csv"),
		zap.Int("rows", len(sales)))
	return sales, nil
}

// Close is a no-op for file-backed sources.
func (s *CSVSource) Close() error {
	return nil
}

// readTable opens a raw file, validates its header against the expected
// column set and returns the data records.
func (s *CSVSource) readTable(ctx context.Context, name string, wantColumns []string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.dir, name)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open raw input %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = len(wantColumns)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", name, err)
	}
	if err := validateHeader(name, header, wantColumns); err != nil {
		return nil, err
	}

	records := make([][]string, 0)
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

// validateHeader enforces the fixed column→type mapping at ingestion so a
// drifted schema fails the run instead of being silently inferred.
func validateHeader(name string, got, want []string) error {
	if len(got) != len(want) {
		return fmt.Errorf("%w: %s has %d columns, want %d", ErrSchemaMismatch, name, len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("%w: %s column %d is %q, want %q", ErrSchemaMismatch, name, i, got[i], want[i])
		}
	}
	return nil
}

func rowError(dataset string, row int, err error) error {
	// Row numbers are 1-based and skip the header, matching what a user
	// sees in the file.
	return fmt.Errorf("%s row %d: %w", dataset, row+2, err)
}
