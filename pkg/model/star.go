// pkg/model/star.go
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CleanCustomer is a customer row after validation and deduplication.
// Email is present, well formed and unique; phone and city carry the
// "Unknown" sentinel where the raw row had no value.
type CleanCustomer struct {
	CustomerID       int64
	Name             string
	Email            string
	Country          string
	RegistrationDate time.Time
	Segment          string
	Phone            string
	City             string
}

// CleanProduct is a product row after validation, repair and imputation.
// StockQuantity and WeightKg are operational fields retained only as
// intermediate state; the dimension projection drops them.
type CleanProduct struct {
	ProductID     int64
	ProductName   string
	Category      string
	UnitPrice     decimal.Decimal
	Supplier      string
	StockQuantity int
	WeightKg      *float64
	Rating        float64
}

// CleanSale is a sales row with all referential and range invariants
// satisfied; the derived metrics are computed later by the star builder.
type CleanSale struct {
	SaleID          int64
	CustomerID      int64
	ProductID       int64
	Date            time.Time
	Quantity        int
	DiscountPercent int
	PaymentMethod   string
	Status          string
	Seq             int64
}

// DimCustomer is the analytical customer dimension. Phone is deliberately
// excluded: it is kept on CleanCustomer for completeness but carries no
// analytical value.
type DimCustomer struct {
	CustomerID       int64
	Name             string
	Email            string
	Country          string
	RegistrationDate time.Time
	Segment          string
	City             string
}

// DimProduct is the analytical product dimension. stock_quantity and
// weight_kg are operational attributes and are excluded from the projection.
type DimProduct struct {
	ProductID   int64
	ProductName string
	Category    string
	UnitPrice   decimal.Decimal
	Supplier    string
	Rating      float64
}

// FactSale is one row of the fact table, with derived financial metrics.
// TotalAmount equals AmountBeforeDiscount minus DiscountAmount exactly.
type FactSale struct {
	SaleID               int64
	CustomerID           int64
	ProductID            int64
	SaleDate             time.Time
	Quantity             int
	UnitPrice            decimal.Decimal
	DiscountPercent      int
	AmountBeforeDiscount decimal.Decimal
	DiscountAmount       decimal.Decimal
	TotalAmount          decimal.Decimal
	PaymentMethod        string
	Status               string
}

// StarSchema bundles the three output tables of a pipeline run.
type StarSchema struct {
	DimCustomers []DimCustomer
	DimProducts  []DimProduct
	FactSales    []FactSale
}
