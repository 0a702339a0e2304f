package sink

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sales-etl/pkg/model"
)

func sampleSchema(factRows int) *model.StarSchema {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	schema := &model.StarSchema{
		DimCustomers: []model.DimCustomer{{
			CustomerID:       1,
			Name:             "Ana Soto",
			Email:            "ana@example.com",
			Country:          "Mexico",
			RegistrationDate: time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC),
			Segment:          "Premium",
			City:             "Puebla",
		}},
		DimProducts: []model.DimProduct{{
			ProductID:   101,
			ProductName: "Sony Camera",
			Category:    "Electronics",
			UnitPrice:   decimal.RequireFromString("499.99"),
			Supplier:    "Sony",
			Rating:      4.5,
		}},
	}

	for i := 0; i < factRows; i++ {
		price := decimal.RequireFromString("10.00")
		amount := price.Mul(decimal.NewFromInt(2))
		schema.FactSales = append(schema.FactSales, model.FactSale{
			SaleID:               int64(1001 + i),
			CustomerID:           1,
			ProductID:            101,
			SaleDate:             date,
			Quantity:             2,
			UnitPrice:            price,
			DiscountPercent:      0,
			AmountBeforeDiscount: amount,
			DiscountAmount:       decimal.Zero,
			TotalAmount:          amount,
			PaymentMethod:        "Cash",
			Status:               "Completed",
		})
	}

	return schema
}

func readPart(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestCSVSinkWritesAllTables(t *testing.T) {
	dir := t.TempDir()
	s := NewCSVSink(dir, 1, zap.NewNop())

	require.NoError(t, s.Write(context.Background(), sampleSchema(2)))

	customers := readPart(t, filepath.Join(dir, DimCustomerTable, "part-00000.csv"))
	require.Len(t, customers, 2)
	assert.Equal(t, []string{"customer_id", "name", "email", "country", "registration_date", "segment", "city"}, customers[0])
	assert.Equal(t, []string{"1", "Ana Soto", "ana@example.com", "Mexico", "2023-04-01", "Premium", "Puebla"}, customers[1])

	products := readPart(t, filepath.Join(dir, DimProductTable, "part-00000.csv"))
	require.Len(t, products, 2)
	assert.Equal(t, []string{"101", "Sony Camera", "Electronics", "499.99", "Sony", "4.5"}, products[1])

	facts := readPart(t, filepath.Join(dir, FactSalesTable, "part-00000.csv"))
	require.Len(t, facts, 3)
	assert.Equal(t, "sale_date", facts[0][3], "date column is renamed in the fact output")
}

func TestCSVSinkSplitsFactTable(t *testing.T) {
	dir := t.TempDir()
	s := NewCSVSink(dir, 4, zap.NewNop())

	require.NoError(t, s.Write(context.Background(), sampleSchema(10)))

	entries, err := os.ReadDir(filepath.Join(dir, FactSalesTable))
	require.NoError(t, err)
	require.Len(t, entries, 4)

	total := 0
	for _, e := range entries {
		records := readPart(t, filepath.Join(dir, FactSalesTable, e.Name()))
		require.GreaterOrEqual(t, len(records), 1)
		total += len(records) - 1 // minus header
	}
	assert.Equal(t, 10, total, "no row lost or duplicated across parts")
}

func TestCSVSinkEmptyFactStillWritesHeader(t *testing.T) {
	dir := t.TempDir()
	s := NewCSVSink(dir, 4, zap.NewNop())

	require.NoError(t, s.Write(context.Background(), sampleSchema(0)))

	records := readPart(t, filepath.Join(dir, FactSalesTable, "part-00000.csv"))
	require.Len(t, records, 1)
}

func TestCSVSinkReplacesPreviousRun(t *testing.T) {
	dir := t.TempDir()
	s := NewCSVSink(dir, 2, zap.NewNop())

	require.NoError(t, s.Write(context.Background(), sampleSchema(8)))
	require.NoError(t, s.Write(context.Background(), sampleSchema(1)))

	entries, err := os.ReadDir(filepath.Join(dir, FactSalesTable))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "stale parts from the previous run are gone")
}

func TestCSVSinkLeavesNoStagingBehind(t *testing.T) {
	dir := t.TempDir()
	s := NewCSVSink(dir, 1, zap.NewNop())

	require.NoError(t, s.Write(context.Background(), sampleSchema(1)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".staging-")
	}
}
