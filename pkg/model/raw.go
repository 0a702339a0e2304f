// pkg/model/raw.go
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawCustomer is a customer row exactly as emitted by the upstream generator.
// The generator injects missing emails/phones/cities, malformed emails and
// duplicate emails, so none of those invariants hold before cleaning.
type RawCustomer struct {
	CustomerID       int64
	Name             string
	Email            *string
	Country          string
	RegistrationDate time.Time
	Segment          string
	Phone            *string
	City             *string
}

// RawProduct is a product row before cleaning. unit_price may be zero or
// negative, stock_quantity may be negative, weight_kg may be missing and
// rating may fall outside [0,5].
type RawProduct struct {
	ProductID     int64
	ProductName   string
	Category      string
	UnitPrice     decimal.Decimal
	Supplier      *string
	StockQuantity int
	WeightKg      *float64
	Rating        float64
}

// RawSale is a sales transaction before cleaning. sale_id may repeat,
// customer_id/product_id may be orphaned, date may be missing or in the
// future, quantity may be non-positive and discount_percent may exceed 100.
type RawSale struct {
	SaleID          int64
	CustomerID      int64
	ProductID       int64
	Date            *time.Time
	Quantity        int
	DiscountPercent int
	PaymentMethod   string
	Status          string

	// Seq is the ingestion sequence number assigned by the source when the
	// row is loaded. It is the deterministic tie-break when duplicate
	// sale_ids share the same date, and is never written to any output.
	Seq int64
}
