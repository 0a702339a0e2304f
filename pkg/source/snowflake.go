// pkg/source/snowflake.go
package source

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	_ "github.com/snowflakedb/gosnowflake"
	"go.uber.org/zap"

	"sales-etl/pkg/config"
	"sales-etl/pkg/model"
)

// SnowflakeSource reads the three raw tables from a Snowflake staging
// database. The tables mirror the CSV layout column for column.
type SnowflakeSource struct {
	db     *sqlx.DB
	cfg    *config.SnowflakeConfig
	logger *zap.Logger
}

// NewSnowflakeSource opens and verifies a Snowflake connection.
func NewSnowflakeSource(ctx context.Context, cfg *config.SnowflakeConfig, logger *zap.Logger) (*SnowflakeSource, error) {
	logger.Info("Connecting to Snowflake",
		zap.String("account", cfg.Account),
		zap.String("database", cfg.Database),
		zap.String("schema", cfg.Schema),
		zap.String("warehouse", cfg.Warehouse))

	dsn, err := cfg.DSN()
	if err != nil {
		return nil, fmt.Errorf("failed to build Snowflake DSN: %w", err)
	}

	db, err := sqlx.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Snowflake connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to Snowflake: %w", err)
	}

	return &SnowflakeSource{
		db:     db,
		cfg:    cfg,
		logger: logger,
	}, nil
}

type snowCustomerRow struct {
	CustomerID       int64          `db:"CUSTOMER_ID"`
	Name             string         `db:"NAME"`
	Email            sql.NullString `db:"EMAIL"`
	Country          string         `db:"COUNTRY"`
	RegistrationDate time.Time      `db:"REGISTRATION_DATE"`
	Segment          string         `db:"SEGMENT"`
	Phone            sql.NullString `db:"PHONE"`
	City             sql.NullString `db:"CITY"`
}

type snowProductRow struct {
	ProductID     int64           `db:"PRODUCT_ID"`
	ProductName   string          `db:"PRODUCT_NAME"`
	Category      string          `db:"CATEGORY"`
	UnitPrice     string          `db:"UNIT_PRICE"`
	Supplier      sql.NullString  `db:"SUPPLIER"`
	StockQuantity int64           `db:"STOCK_QUANTITY"`
	WeightKg      sql.NullFloat64 `db:"WEIGHT_KG"`
	Rating        float64         `db:"RATING"`
}

type snowSaleRow struct {
	SaleID          int64        `db:"SALE_ID"`
	CustomerID      int64        `db:"CUSTOMER_ID"`
	ProductID       int64        `db:"PRODUCT_ID"`
	Date            sql.NullTime `db:"DATE"`
	Quantity        int64        `db:"QUANTITY"`
	DiscountPercent int64        `db:"DISCOUNT_PERCENT"`
	PaymentMethod   string       `db:"PAYMENT_METHOD"`
	Status          string       `db:"STATUS"`
}

// Customers loads the raw customer table.
func (s *SnowflakeSource) Customers(ctx context.Context) ([]model.RawCustomer, error) {
	query := fmt.Sprintf(`
		SELECT CUSTOMER_ID, NAME, EMAIL, COUNTRY, REGISTRATION_DATE, SEGMENT, PHONE, CITY
		FROM %s.CUSTOMERS`, s.cfg.Schema)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	var rows []snowCustomerRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to load customers from Snowflake: %w", err)
	}

	customers := make([]model.RawCustomer, 0, len(rows))
	for _, r := range rows {
		customers = append(customers, model.RawCustomer{
			CustomerID:       r.CustomerID,
			Name:             r.Name,
			Email:            nullStringPtr(r.Email),
			Country:          r.Country,
			RegistrationDate: r.RegistrationDate,
			Segment:          r.Segment,
			Phone:            nullStringPtr(r.Phone),
			City:             nullStringPtr(r.City),
		})
	}

	s.logger.Info("Loaded raw customers", zap.String("table", "CUSTOMERS"), zap.Int("rows", len(customers)))
	return customers, nil
}

// Products loads the raw product table.
func (s *SnowflakeSource) Products(ctx context.Context) ([]model.RawProduct, error) {
	// UNIT_PRICE comes back as text to keep decimal precision intact.
	query := fmt.Sprintf(`
		SELECT PRODUCT_ID, PRODUCT_NAME, CATEGORY, TO_VARCHAR(UNIT_PRICE) AS UNIT_PRICE,
		       SUPPLIER, STOCK_QUANTITY, WEIGHT_KG, RATING
		FROM %s.PRODUCTS`, s.cfg.Schema)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	var rows []snowProductRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to load products from Snowflake: %w", err)
	}

	products := make([]model.RawProduct, 0, len(rows))
	for _, r := range rows {
		unitPrice, err := decimal.NewFromString(r.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("product %d: cannot parse unit_price %q: %w", r.ProductID, r.UnitPrice, err)
		}

		var weight *float64
		if r.WeightKg.Valid {
			w := r.WeightKg.Float64
			weight = &w
		}

		products = append(products, model.RawProduct{
			ProductID:     r.ProductID,
			ProductName:   r.ProductName,
			Category:      r.Category,
			UnitPrice:     unitPrice,
			Supplier:      nullStringPtr(r.Supplier),
			StockQuantity: int(r.StockQuantity),
			WeightKg:      weight,
			Rating:        r.Rating,
		})
	}

	s.logger.Info("Loaded raw products", zap.String("table", "PRODUCTS"), zap.Int("rows", len(products)))
	return products, nil
}

// Sales loads the raw sales table. Ordering by SALE_ID, DATE fixes the
// ingestion sequence so repeated runs assign the same tie-break order.
func (s *SnowflakeSource) Sales(ctx context.Context) ([]model.RawSale, error) {
	query := fmt.Sprintf(`
		SELECT SALE_ID, CUSTOMER_ID, PRODUCT_ID, DATE, QUANTITY,
		       DISCOUNT_PERCENT, PAYMENT_METHOD, STATUS
		FROM %s.SALES
		ORDER BY SALE_ID, DATE NULLS FIRST`, s.cfg.Schema)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	var rows []snowSaleRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to load sales from Snowflake: %w", err)
	}

	sales := make([]model.RawSale, 0, len(rows))
	for i, r := range rows {
		var date *time.Time
		if r.Date.Valid {
			d := r.Date.Time
			date = &d
		}

		sales = append(sales, model.RawSale{
			SaleID:          r.SaleID,
			CustomerID:      r.CustomerID,
			ProductID:       r.ProductID,
			Date:            date,
			Quantity:        int(r.Quantity),
			DiscountPercent: int(r.DiscountPercent),
			PaymentMethod:   r.PaymentMethod,
			Status:          r.Status,
			Seq:             int64(i),
		})
	}

	s.logger.Info("Loaded raw sales", zap.String("table", "SALES"), zap.Int("rows", len(sales)))
	return sales, nil
}

// Close releases the connection pool.
func (s *SnowflakeSource) Close() error {
	return s.db.Close()
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	v := ns.String
	return &v
}
