// pkg/cleaner/sales.go
package cleaner

import (
	"strconv"
	"time"

	"go.uber.org/zap"

	"sales-etl/pkg/dataset"
	"sales-etl/pkg/model"
)

// SalesCleaner validates the sales fact source and enforces referential
// integrity against the already-cleaned dimensions. It must run only after
// both dimension cleaners have completed; the membership joins in rules 4-5
// are checked against their finalized outputs.
//
// The processing date is injected rather than read from the wall clock so
// that a run is deterministic and "future date" means the same thing on
// every re-run.
type SalesCleaner struct {
	processingDate time.Time
	logger         *zap.Logger
}

// NewSalesCleaner creates a sales cleaner pinned to the given processing date.
func NewSalesCleaner(processingDate time.Time, logger *zap.Logger) *SalesCleaner {
	return &SalesCleaner{
		processingDate: truncateToDate(processingDate),
		logger:         logger,
	}
}

// Clean applies the sales rules in order: drop null dates, normalize dates,
// drop future dates, drop orphaned customer and product keys, drop
// non-positive quantities, clamp discount_percent to [0,100], and
// deduplicate by sale_id keeping the earliest date. Date ties are broken by
// the smallest ingestion sequence number.
func (c *SalesCleaner) Clean(
	rows []model.RawSale,
	customers []model.CleanCustomer,
	products []model.CleanProduct,
) ([]model.CleanSale, *Report) {
	rep := newReport("sales")
	rep.RowsIn = len(rows)

	customerIDs := make(map[int64]struct{}, len(customers))
	for _, cust := range customers {
		customerIDs[cust.CustomerID] = struct{}{}
	}
	productIDs := make(map[int64]struct{}, len(products))
	for _, p := range products {
		productIDs[p.ProductID] = struct{}{}
	}

	dated := dataset.Filter(rows, func(r model.RawSale) bool {
		if r.Date == nil {
			rep.drop("date", intKey(r.SaleID), nil, "missing_date")
			return false
		}
		return true
	})

	normalized := dataset.Map(dated, func(r model.RawSale) model.CleanSale {
		return model.CleanSale{
			SaleID:          r.SaleID,
			CustomerID:      r.CustomerID,
			ProductID:       r.ProductID,
			Date:            truncateToDate(*r.Date),
			Quantity:        r.Quantity,
			DiscountPercent: r.DiscountPercent,
			PaymentMethod:   r.PaymentMethod,
			Status:          r.Status,
			Seq:             r.Seq,
		}
	})

	current := dataset.Filter(normalized, func(r model.CleanSale) bool {
		if r.Date.After(c.processingDate) {
			date := r.Date.Format("2006-01-02")
			rep.drop("date", intKey(r.SaleID), &date, "future_date")
			return false
		}
		return true
	})

	// Orphan removal: a fact row must resolve against both dimensions.
	resolved := dataset.Filter(current, func(r model.CleanSale) bool {
		if _, ok := customerIDs[r.CustomerID]; !ok {
			rep.drop("customer_id", intKey(r.SaleID), strPtr(intKey(r.CustomerID)), "orphaned_customer")
			return false
		}
		if _, ok := productIDs[r.ProductID]; !ok {
			rep.drop("product_id", intKey(r.SaleID), strPtr(intKey(r.ProductID)), "orphaned_product")
			return false
		}
		return true
	})

	positive := dataset.Filter(resolved, func(r model.CleanSale) bool {
		if r.Quantity <= 0 {
			rep.drop("quantity", intKey(r.SaleID), strPtr(strconv.Itoa(r.Quantity)), "non_positive_quantity")
			return false
		}
		return true
	})

	for i := range positive {
		r := &positive[i]
		if r.DiscountPercent > 100 || r.DiscountPercent < 0 {
			orig := strconv.Itoa(r.DiscountPercent)
			if r.DiscountPercent > 100 {
				r.DiscountPercent = 100
			} else {
				r.DiscountPercent = 0
			}
			rep.repair(model.OpClamp, "discount_percent", intKey(r.SaleID), &orig,
				strconv.Itoa(r.DiscountPercent), "discount_out_of_range")
		}
	}

	deduped, removed := dataset.DeduplicateBy(positive,
		func(r model.CleanSale) int64 { return r.SaleID },
		func(a, b model.CleanSale) bool {
			if !a.Date.Equal(b.Date) {
				return a.Date.Before(b.Date)
			}
			// Equal dates: fall back to ingestion order so the survivor
			// does not depend on incidental storage order.
			return a.Seq < b.Seq
		})
	for _, r := range removed {
		rep.dedupe("sale_id", intKey(r.SaleID), strPtr(r.Date.Format("2006-01-02")), "duplicate_sale_id")
	}

	rep.RowsOut = len(deduped)
	c.logger.Info("Cleaned sales",
		zap.Int("rowsIn", rep.RowsIn),
		zap.Int("rowsOut", rep.RowsOut),
		zap.Int("dropped", rep.Dropped),
		zap.Int("repaired", rep.Repaired),
		zap.String("processingDate", c.processingDate.Format("2006-01-02")))

	return deduped, rep
}
