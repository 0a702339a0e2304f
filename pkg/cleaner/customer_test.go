package cleaner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sales-etl/pkg/model"
)

func strp(s string) *string { return &s }

func rawCustomer(id int64, email *string) model.RawCustomer {
	return model.RawCustomer{
		CustomerID:       id,
		Name:             "Test Customer",
		Email:            email,
		Country:          "Mexico",
		RegistrationDate: time.Date(2023, 6, 1, 13, 45, 0, 0, time.UTC),
		Segment:          "Standard",
		Phone:            strp("555-0100"),
		City:             strp("Puebla"),
	}
}

func TestCustomerCleanerDropsMissingAndInvalidEmails(t *testing.T) {
	c := NewCustomerCleaner(zap.NewNop())

	tests := []struct {
		name  string
		email *string
		keep  bool
	}{
		{name: "valid", email: strp("ana@example.com"), keep: true},
		{name: "missing", email: nil, keep: false},
		{name: "no tld", email: strp("ana@invalid"), keep: false},
		{name: "no at sign", email: strp("ana.example.com"), keep: false},
		{name: "one letter tld", email: strp("ana@example.c"), keep: false},
		{name: "plus and dots in local part", email: strp("ana.soto+shop@mail.example.com"), keep: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleaned, rep := c.Clean([]model.RawCustomer{rawCustomer(1, tt.email)})
			if tt.keep {
				require.Len(t, cleaned, 1)
				assert.Equal(t, 0, rep.Dropped)
			} else {
				assert.Empty(t, cleaned)
				assert.Equal(t, 1, rep.Dropped)
			}
		})
	}
}

func TestCustomerCleanerDeduplicatesByEmailKeepingSmallestID(t *testing.T) {
	c := NewCustomerCleaner(zap.NewNop())

	rows := []model.RawCustomer{
		rawCustomer(9, strp("shared@example.com")),
		rawCustomer(5, strp("shared@example.com")),
		rawCustomer(7, strp("other@example.com")),
	}

	cleaned, rep := c.Clean(rows)
	require.Len(t, cleaned, 2)
	assert.Equal(t, int64(5), cleaned[0].CustomerID, "smallest customer_id wins the duplicate email")
	assert.Equal(t, int64(7), cleaned[1].CustomerID)
	assert.Equal(t, 1, rep.Dropped)
}

func TestCustomerCleanerFillsSentinelsAndNormalizesDate(t *testing.T) {
	c := NewCustomerCleaner(zap.NewNop())

	row := rawCustomer(1, strp("ana@example.com"))
	row.Phone = nil
	row.City = nil

	cleaned, rep := c.Clean([]model.RawCustomer{row})
	require.Len(t, cleaned, 1)

	got := cleaned[0]
	assert.Equal(t, UnknownSentinel, got.Phone)
	assert.Equal(t, UnknownSentinel, got.City)
	assert.Equal(t, 2, rep.Repaired)

	assert.Equal(t, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), got.RegistrationDate,
		"registration date loses its time-of-day component")
}

// Scenario from the pipeline contract: two duplicates of a@x.com plus a
// missing email leave exactly the row with the smallest id.
func TestCustomerCleanerEndToEndScenario(t *testing.T) {
	c := NewCustomerCleaner(zap.NewNop())

	rows := []model.RawCustomer{
		rawCustomer(1, strp("a@x.com")),
		rawCustomer(2, strp("a@x.com")),
		rawCustomer(3, nil),
	}

	cleaned, rep := c.Clean(rows)
	require.Len(t, cleaned, 1)
	assert.Equal(t, int64(1), cleaned[0].CustomerID)
	assert.Equal(t, "a@x.com", cleaned[0].Email)
	assert.Equal(t, 3, rep.RowsIn)
	assert.Equal(t, 1, rep.RowsOut)
	assert.Equal(t, 2, rep.Dropped)
}

func TestCustomerCleanerDoesNotMutateInput(t *testing.T) {
	c := NewCustomerCleaner(zap.NewNop())

	row := rawCustomer(1, strp("ana@example.com"))
	row.Phone = nil
	rows := []model.RawCustomer{row}

	_, _ = c.Clean(rows)
	assert.Nil(t, rows[0].Phone, "raw input must stay untouched")
}
