package pipeline

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"sales-etl/pkg/cleaner"
	"sales-etl/pkg/model"
)

// maxReportedIssues caps the issues carried in a verification failure, so a
// systematically broken build does not produce an unreadable error.
const maxReportedIssues = 20

// Verifier re-checks the invariants the cleaners and the builder are supposed
// to guarantee, on the fully built star schema, before anything is written.
type Verifier struct {
	processingDate time.Time
	logger         *zap.Logger
}

func NewVerifier(processingDate time.Time, logger *zap.Logger) *Verifier {
	return &Verifier{
		processingDate: processingDate,
		logger:         logger,
	}
}

// VerificationError carries every invariant violation found in one pass.
type VerificationError struct {
	Issues []string
}

func (e *VerificationError) Error() string {
	if len(e.Issues) == 1 {
		return "verification failed: " + e.Issues[0]
	}
	return fmt.Sprintf("verification failed with %d issues, first: %s", len(e.Issues), e.Issues[0])
}

// Verify checks the schema and returns a VerificationError listing every
// violation found, or nil when all checks pass.
func (v *Verifier) Verify(schema *model.StarSchema) error {
	var issues []string
	add := func(format string, args ...any) {
		if len(issues) < maxReportedIssues {
			issues = append(issues, fmt.Sprintf(format, args...))
		}
	}

	customerIDs := v.checkDimCustomers(schema.DimCustomers, add)
	productIDs := v.checkDimProducts(schema.DimProducts, add)
	v.checkFactSales(schema.FactSales, customerIDs, productIDs, add)

	if len(issues) > 0 {
		v.logger.Error("Output verification failed",
			zap.Int("issues", len(issues)),
			zap.String("first", issues[0]))
		return &VerificationError{Issues: issues}
	}

	v.logger.Info("Output verification passed",
		zap.Int("dim_customers", len(schema.DimCustomers)),
		zap.Int("dim_products", len(schema.DimProducts)),
		zap.Int("fact_sales", len(schema.FactSales)))
	return nil
}

func (v *Verifier) checkDimCustomers(rows []model.DimCustomer, add func(string, ...any)) map[int64]struct{} {
	ids := make(map[int64]struct{}, len(rows))
	emails := make(map[string]struct{}, len(rows))

	for _, c := range rows {
		if _, dup := ids[c.CustomerID]; dup {
			add("dim_customer: duplicate customer_id %d", c.CustomerID)
		}
		ids[c.CustomerID] = struct{}{}

		if !cleaner.ValidEmail(c.Email) {
			add("dim_customer %d: invalid email %q", c.CustomerID, c.Email)
		}
		if _, dup := emails[c.Email]; dup {
			add("dim_customer %d: duplicate email %q", c.CustomerID, c.Email)
		}
		emails[c.Email] = struct{}{}

		if c.City == "" {
			add("dim_customer %d: empty city", c.CustomerID)
		}
	}
	return ids
}

func (v *Verifier) checkDimProducts(rows []model.DimProduct, add func(string, ...any)) map[int64]struct{} {
	ids := make(map[int64]struct{}, len(rows))

	for _, p := range rows {
		if _, dup := ids[p.ProductID]; dup {
			add("dim_product: duplicate product_id %d", p.ProductID)
		}
		ids[p.ProductID] = struct{}{}

		if p.UnitPrice.Sign() <= 0 {
			add("dim_product %d: non-positive unit_price %s", p.ProductID, p.UnitPrice)
		}
		if p.Rating < 0 || p.Rating > 5 {
			add("dim_product %d: rating %g out of range", p.ProductID, p.Rating)
		}
		if p.Supplier == "" {
			add("dim_product %d: empty supplier", p.ProductID)
		}
	}
	return ids
}

func (v *Verifier) checkFactSales(
	rows []model.FactSale,
	customerIDs, productIDs map[int64]struct{},
	add func(string, ...any),
) {
	saleIDs := make(map[int64]struct{}, len(rows))

	for _, f := range rows {
		if _, dup := saleIDs[f.SaleID]; dup {
			add("fact_sales: duplicate sale_id %d", f.SaleID)
		}
		saleIDs[f.SaleID] = struct{}{}

		if _, ok := customerIDs[f.CustomerID]; !ok {
			add("fact_sales %d: customer_id %d not in dim_customer", f.SaleID, f.CustomerID)
		}
		if _, ok := productIDs[f.ProductID]; !ok {
			add("fact_sales %d: product_id %d not in dim_product", f.SaleID, f.ProductID)
		}

		if f.Quantity <= 0 {
			add("fact_sales %d: non-positive quantity %d", f.SaleID, f.Quantity)
		}
		if f.DiscountPercent < 0 || f.DiscountPercent > 100 {
			add("fact_sales %d: discount_percent %d out of range", f.SaleID, f.DiscountPercent)
		}
		if f.SaleDate.After(v.processingDate) {
			add("fact_sales %d: sale_date %s after processing date", f.SaleID, f.SaleDate.Format("2006-01-02"))
		}

		wantBefore := f.UnitPrice.Mul(decimal.NewFromInt(int64(f.Quantity)))
		if !f.AmountBeforeDiscount.Equal(wantBefore) {
			add("fact_sales %d: amount_before_discount %s, want %s", f.SaleID, f.AmountBeforeDiscount, wantBefore)
		}
		wantDiscount := wantBefore.Mul(decimal.New(int64(f.DiscountPercent), -2))
		if !f.DiscountAmount.Equal(wantDiscount) {
			add("fact_sales %d: discount_amount %s, want %s", f.SaleID, f.DiscountAmount, wantDiscount)
		}
		if !f.TotalAmount.Equal(f.AmountBeforeDiscount.Sub(f.DiscountAmount)) {
			add("fact_sales %d: total_amount %s does not equal amount_before_discount minus discount_amount",
				f.SaleID, f.TotalAmount)
		}
	}
}
