package star

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sales-etl/pkg/model"
)

func cleanCustomer() model.CleanCustomer {
	return model.CleanCustomer{
		CustomerID:       1,
		Name:             "Ana Soto",
		Email:            "ana@example.com",
		Country:          "Mexico",
		RegistrationDate: time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC),
		Segment:          "Premium",
		Phone:            "555-0100",
		City:             "Puebla",
	}
}

func cleanProduct(id int64, price string) model.CleanProduct {
	w := 0.8
	return model.CleanProduct{
		ProductID:     id,
		ProductName:   "Sony Camera",
		Category:      "Electronics",
		UnitPrice:     decimal.RequireFromString(price),
		Supplier:      "Sony",
		StockQuantity: 25,
		WeightKg:      &w,
		Rating:        4.5,
	}
}

func cleanSale(id, productID int64, quantity, discount int) model.CleanSale {
	return model.CleanSale{
		SaleID:          id,
		CustomerID:      1,
		ProductID:       productID,
		Date:            time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Quantity:        quantity,
		DiscountPercent: discount,
		PaymentMethod:   "Credit Card",
		Status:          "Completed",
	}
}

func TestBuildComputesDerivedMetricsExactly(t *testing.T) {
	b := NewBuilder(0, zap.NewNop())

	schema, err := b.Build(
		[]model.CleanCustomer{cleanCustomer()},
		[]model.CleanProduct{cleanProduct(101, "19.99")},
		[]model.CleanSale{cleanSale(1001, 101, 3, 15)},
	)
	require.NoError(t, err)
	require.Len(t, schema.FactSales, 1)

	fact := schema.FactSales[0]
	assert.True(t, fact.AmountBeforeDiscount.Equal(decimal.RequireFromString("59.97")))
	assert.True(t, fact.DiscountAmount.Equal(decimal.RequireFromString("8.9955")))
	assert.True(t, fact.TotalAmount.Equal(decimal.RequireFromString("50.9745")))

	// The identity must hold exactly, not within a float tolerance.
	assert.True(t, fact.TotalAmount.Equal(fact.AmountBeforeDiscount.Sub(fact.DiscountAmount)))
	assert.True(t, fact.DiscountAmount.Equal(
		fact.AmountBeforeDiscount.Mul(decimal.New(int64(fact.DiscountPercent), -2))))
}

func TestBuildZeroDiscount(t *testing.T) {
	b := NewBuilder(0, zap.NewNop())

	schema, err := b.Build(
		[]model.CleanCustomer{cleanCustomer()},
		[]model.CleanProduct{cleanProduct(101, "25.00")},
		[]model.CleanSale{cleanSale(1001, 101, 2, 0)},
	)
	require.NoError(t, err)

	fact := schema.FactSales[0]
	assert.True(t, fact.DiscountAmount.IsZero())
	assert.True(t, fact.TotalAmount.Equal(fact.AmountBeforeDiscount))
}

func TestBuildFullDiscount(t *testing.T) {
	b := NewBuilder(0, zap.NewNop())

	schema, err := b.Build(
		[]model.CleanCustomer{cleanCustomer()},
		[]model.CleanProduct{cleanProduct(101, "25.00")},
		[]model.CleanSale{cleanSale(1001, 101, 2, 100)},
	)
	require.NoError(t, err)

	fact := schema.FactSales[0]
	assert.True(t, fact.DiscountAmount.Equal(fact.AmountBeforeDiscount))
	assert.True(t, fact.TotalAmount.IsZero())
}

func TestBuildProjectsDimensions(t *testing.T) {
	b := NewBuilder(0, zap.NewNop())

	schema, err := b.Build(
		[]model.CleanCustomer{cleanCustomer()},
		[]model.CleanProduct{cleanProduct(101, "19.99")},
		nil,
	)
	require.NoError(t, err)

	require.Len(t, schema.DimCustomers, 1)
	dim := schema.DimCustomers[0]
	assert.Equal(t, "ana@example.com", dim.Email)
	assert.Equal(t, "Puebla", dim.City)

	require.Len(t, schema.DimProducts, 1)
	prod := schema.DimProducts[0]
	assert.Equal(t, "Sony", prod.Supplier)
	assert.Equal(t, 4.5, prod.Rating)
}

func TestBuildRenamesDateToSaleDate(t *testing.T) {
	b := NewBuilder(0, zap.NewNop())

	sale := cleanSale(1001, 101, 1, 0)
	schema, err := b.Build(
		[]model.CleanCustomer{cleanCustomer()},
		[]model.CleanProduct{cleanProduct(101, "19.99")},
		[]model.CleanSale{sale},
	)
	require.NoError(t, err)
	assert.Equal(t, sale.Date, schema.FactSales[0].SaleDate)
}

func TestBuildUnresolvableProductIsStructural(t *testing.T) {
	b := NewBuilder(0, zap.NewNop())

	_, err := b.Build(
		[]model.CleanCustomer{cleanCustomer()},
		[]model.CleanProduct{cleanProduct(101, "19.99")},
		[]model.CleanSale{cleanSale(1001, 999, 1, 0)},
	)
	require.Error(t, err)
}

func TestBuildParallelMatchesSerial(t *testing.T) {
	products := []model.CleanProduct{cleanProduct(101, "19.99"), cleanProduct(102, "5.50")}

	sales := make([]model.CleanSale, 200)
	for i := range sales {
		productID := int64(101 + i%2)
		sales[i] = cleanSale(int64(1001+i), productID, 1+i%5, i%101)
	}

	serial, err := NewBuilder(0, zap.NewNop()).Build(nil, products, sales)
	require.NoError(t, err)
	parallel, err := NewBuilder(8, zap.NewNop()).Build(nil, products, sales)
	require.NoError(t, err)

	assert.Equal(t, serial.FactSales, parallel.FactSales)
}
