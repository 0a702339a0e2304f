// pkg/cleaner/customer.go
package cleaner

import (
	"go.uber.org/zap"

	"sales-etl/pkg/dataset"
	"sales-etl/pkg/model"
)

// CustomerCleaner validates and deduplicates the customer dimension.
// It only filters and repairs; no rows are ever added.
type CustomerCleaner struct {
	logger *zap.Logger
}

// NewCustomerCleaner creates a customer cleaner.
func NewCustomerCleaner(logger *zap.Logger) *CustomerCleaner {
	return &CustomerCleaner{logger: logger}
}

// Clean applies the customer rules in order: drop null emails, drop
// malformed emails, deduplicate by email keeping the smallest customer_id,
// fill missing phone/city with the Unknown sentinel, and normalize the
// registration date.
func (c *CustomerCleaner) Clean(rows []model.RawCustomer) ([]model.CleanCustomer, *Report) {
	rep := newReport("customers")
	rep.RowsIn = len(rows)

	withEmail := dataset.Filter(rows, func(r model.RawCustomer) bool {
		if r.Email == nil {
			rep.drop("email", intKey(r.CustomerID), nil, "missing_email")
			return false
		}
		return true
	})

	validEmail := dataset.Filter(withEmail, func(r model.RawCustomer) bool {
		if !emailPattern.MatchString(*r.Email) {
			rep.drop("email", intKey(r.CustomerID), r.Email, "invalid_email_format")
			return false
		}
		return true
	})

	// Keep the smallest customer_id per email. The tie-break is load-bearing:
	// it makes repeated runs produce identical survivors.
	deduped, removed := dataset.DeduplicateBy(validEmail,
		func(r model.RawCustomer) string { return *r.Email },
		func(a, b model.RawCustomer) bool { return a.CustomerID < b.CustomerID })
	for _, r := range removed {
		rep.dedupe("email", intKey(r.CustomerID), r.Email, "duplicate_email")
	}

	cleaned := dataset.Map(deduped, func(r model.RawCustomer) model.CleanCustomer {
		out := model.CleanCustomer{
			CustomerID:       r.CustomerID,
			Name:             r.Name,
			Email:            *r.Email,
			Country:          r.Country,
			RegistrationDate: truncateToDate(r.RegistrationDate),
			Segment:          r.Segment,
			Phone:            UnknownSentinel,
			City:             UnknownSentinel,
		}

		if r.Phone != nil {
			out.Phone = *r.Phone
		} else {
			rep.repair(model.OpFill, "phone", intKey(r.CustomerID), nil, UnknownSentinel, "missing_phone")
		}
		if r.City != nil {
			out.City = *r.City
		} else {
			rep.repair(model.OpFill, "city", intKey(r.CustomerID), nil, UnknownSentinel, "missing_city")
		}

		return out
	})

	rep.RowsOut = len(cleaned)
	c.logger.Info("Cleaned customers",
		zap.Int("rowsIn", rep.RowsIn),
		zap.Int("rowsOut", rep.RowsOut),
		zap.Int("dropped", rep.Dropped),
		zap.Int("repaired", rep.Repaired))

	return cleaned, rep
}
