// pkg/star/builder.go
//
// Package star projects the cleaned tables into the final star schema:
// two dimension projections and the fact table with derived financial
// metrics. Everything here is pure projection, join and arithmetic; both
// upstream dependencies are already finalized when Build runs.
package star

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"sales-etl/pkg/dataset"
	"sales-etl/pkg/model"
)

// Builder assembles the star schema from the cleaned tables.
type Builder struct {
	workers int
	logger  *zap.Logger
}

// NewBuilder creates a star-schema builder. workers bounds the goroutines
// used for the row-independent fact metrics; 0 or 1 runs serially.
func NewBuilder(workers int, logger *zap.Logger) *Builder {
	return &Builder{
		workers: workers,
		logger:  logger,
	}
}

// Build produces DimCustomer, DimProduct and FactSale. The fact rows take
// unit_price from the product table keyed by product_id; the sales cleaner
// already guarantees every product_id resolves, which makes this lookup
// equivalent to the inner join it replaces. A miss can therefore only mean
// the stage ordering was violated, and that is a structural error.
func (b *Builder) Build(
	customers []model.CleanCustomer,
	products []model.CleanProduct,
	sales []model.CleanSale,
) (*model.StarSchema, error) {
	dimCustomers := dataset.Map(customers, func(c model.CleanCustomer) model.DimCustomer {
		return model.DimCustomer{
			CustomerID:       c.CustomerID,
			Name:             c.Name,
			Email:            c.Email,
			Country:          c.Country,
			RegistrationDate: c.RegistrationDate,
			Segment:          c.Segment,
			City:             c.City,
		}
	})

	// The operational fields (stock_quantity, weight_kg) stop here: they
	// served the cleaning stage and are excluded from the projection.
	dimProducts := dataset.Map(products, func(p model.CleanProduct) model.DimProduct {
		return model.DimProduct{
			ProductID:   p.ProductID,
			ProductName: p.ProductName,
			Category:    p.Category,
			UnitPrice:   p.UnitPrice,
			Supplier:    p.Supplier,
			Rating:      p.Rating,
		}
	})

	prices := make(map[int64]decimal.Decimal, len(products))
	for _, p := range products {
		prices[p.ProductID] = p.UnitPrice
	}
	for _, s := range sales {
		if _, ok := prices[s.ProductID]; !ok {
			return nil, fmt.Errorf("sale %d references product %d with no cleaned product row", s.SaleID, s.ProductID)
		}
	}

	factSales := dataset.ParallelMap(sales, b.workers, func(s model.CleanSale) model.FactSale {
		unitPrice := prices[s.ProductID]

		amountBeforeDiscount := unitPrice.Mul(decimal.NewFromInt(int64(s.Quantity)))
		// discount_percent/100 as an exact decimal, so the metric identity
		// total = amount - discount holds without rounding.
		discountAmount := amountBeforeDiscount.Mul(decimal.New(int64(s.DiscountPercent), -2))
		totalAmount := amountBeforeDiscount.Sub(discountAmount)

		return model.FactSale{
			SaleID:               s.SaleID,
			CustomerID:           s.CustomerID,
			ProductID:            s.ProductID,
			SaleDate:             s.Date,
			Quantity:             s.Quantity,
			UnitPrice:            unitPrice,
			DiscountPercent:      s.DiscountPercent,
			AmountBeforeDiscount: amountBeforeDiscount,
			DiscountAmount:       discountAmount,
			TotalAmount:          totalAmount,
			PaymentMethod:        s.PaymentMethod,
			Status:               s.Status,
		}
	})

	b.logger.Info("Built star schema",
		zap.Int("dimCustomers", len(dimCustomers)),
		zap.Int("dimProducts", len(dimProducts)),
		zap.Int("factSales", len(factSales)))

	return &model.StarSchema{
		DimCustomers: dimCustomers,
		DimProducts:  dimProducts,
		FactSales:    factSales,
	}, nil
}
