// pkg/cleaner/product.go
package cleaner

import (
	"strconv"

	"go.uber.org/zap"

	"sales-etl/pkg/dataset"
	"sales-etl/pkg/model"
)

// ProductCleaner validates, repairs and imputes the product dimension.
// Unlike the customer rules these are not all row-independent: weight
// imputation needs a full pass over each category before any row can be
// finalized, so cleaning runs in two phases around that aggregation barrier.
type ProductCleaner struct {
	logger *zap.Logger
}

// NewProductCleaner creates a product cleaner.
func NewProductCleaner(logger *zap.Logger) *ProductCleaner {
	return &ProductCleaner{logger: logger}
}

// Clean applies the product rules in order: drop non-positive prices, clamp
// negative stock to zero, fill missing supplier, impute missing weight with
// the category median, and clamp rating to [0,5]. Stock and weight survive
// on the cleaned row as intermediate state only; the dimension projection
// excludes them.
func (c *ProductCleaner) Clean(rows []model.RawProduct) ([]model.CleanProduct, *Report) {
	rep := newReport("products")
	rep.RowsIn = len(rows)

	// Zero and negative prices are both invalid; this is a drop, not a clamp.
	priced := dataset.Filter(rows, func(r model.RawProduct) bool {
		if r.UnitPrice.Sign() <= 0 {
			price := r.UnitPrice.String()
			rep.drop("unit_price", intKey(r.ProductID), &price, "non_positive_price")
			return false
		}
		return true
	})

	cleaned := dataset.Map(priced, func(r model.RawProduct) model.CleanProduct {
		out := model.CleanProduct{
			ProductID:     r.ProductID,
			ProductName:   r.ProductName,
			Category:      r.Category,
			UnitPrice:     r.UnitPrice,
			Supplier:      UnknownSentinel,
			StockQuantity: r.StockQuantity,
			Rating:        r.Rating,
		}

		// Negative stock is treated as an inventory correction, not a
		// reason to lose the product.
		if r.StockQuantity < 0 {
			orig := strconv.Itoa(r.StockQuantity)
			rep.repair(model.OpClamp, "stock_quantity", intKey(r.ProductID), &orig, "0", "negative_stock")
			out.StockQuantity = 0
		}

		if r.Supplier != nil {
			out.Supplier = *r.Supplier
		} else {
			rep.repair(model.OpFill, "supplier", intKey(r.ProductID), nil, UnknownSentinel, "missing_supplier")
		}

		if r.WeightKg != nil {
			w := *r.WeightKg
			out.WeightKg = &w
		}

		return out
	})

	// Aggregation barrier: per-category medians over the rows that already
	// carry a weight, computed on the price/stock-cleaned population.
	medians := weightMedians(cleaned)
	for i := range cleaned {
		if cleaned[i].WeightKg != nil {
			continue
		}
		median, ok := medians[cleaned[i].Category]
		if !ok {
			// Category with no known weights at all: the value stays null.
			continue
		}
		w := median
		cleaned[i].WeightKg = &w
		rep.repair(model.OpImpute, "weight_kg", intKey(cleaned[i].ProductID), nil,
			strconv.FormatFloat(median, 'f', -1, 64), "missing_weight_category_median")
	}

	for i := range cleaned {
		r := &cleaned[i]
		if r.Rating > 5 || r.Rating < 0 {
			orig := strconv.FormatFloat(r.Rating, 'f', -1, 64)
			if r.Rating > 5 {
				r.Rating = 5
			} else {
				r.Rating = 0
			}
			rep.repair(model.OpClamp, "rating", intKey(r.ProductID), &orig,
				strconv.FormatFloat(r.Rating, 'f', -1, 64), "rating_out_of_range")
		}
	}

	rep.RowsOut = len(cleaned)
	c.logger.Info("Cleaned products",
		zap.Int("rowsIn", rep.RowsIn),
		zap.Int("rowsOut", rep.RowsOut),
		zap.Int("dropped", rep.Dropped),
		zap.Int("repaired", rep.Repaired))

	return cleaned, rep
}

// weightMedians aggregates the non-null weights per category into a small
// lookup table for the row-wise substitution pass.
func weightMedians(rows []model.CleanProduct) map[string]float64 {
	groups := dataset.GroupBy(rows, func(r model.CleanProduct) string { return r.Category })

	medians := make(map[string]float64, len(groups))
	for category, members := range groups {
		weights := make([]float64, 0, len(members))
		for _, m := range members {
			if m.WeightKg != nil {
				weights = append(weights, *m.WeightKg)
			}
		}
		if median, ok := dataset.Median(weights); ok {
			medians[category] = median
		}
	}

	return medians
}
