// pkg/source/source.go
package source

import (
	"context"
	"errors"

	"sales-etl/pkg/model"
)

// RawSource loads the three raw datasets with a fixed, explicit schema.
// Implementations never repair data; every defect the generator injects is
// passed through for the cleaning stages to handle. A load error is always
// structural (missing input, schema mismatch, unreadable cell) and aborts
// the run.
type RawSource interface {
	Customers(ctx context.Context) ([]model.RawCustomer, error)
	Products(ctx context.Context) ([]model.RawProduct, error)
	Sales(ctx context.Context) ([]model.RawSale, error)
	Close() error
}

// ErrSchemaMismatch marks a raw input whose column set does not match the
// expected schema. Wrapped errors carry the dataset and column detail.
var ErrSchemaMismatch = errors.New("raw schema mismatch")

// Expected header columns for each raw dataset, in file order.
var (
	customerColumns = []string{
		"customer_id", "name", "email", "country",
		"registration_date", "segment", "phone", "city",
	}
	productColumns = []string{
		"product_id", "product_name", "category", "unit_price",
		"supplier", "stock_quantity", "weight_kg", "rating",
	}
	saleColumns = []string{
		"sale_id", "customer_id", "product_id", "date",
		"quantity", "discount_percent", "payment_method", "status",
	}
)
