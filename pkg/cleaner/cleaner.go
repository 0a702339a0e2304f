// pkg/cleaner/cleaner.go
//
// Package cleaner implements the per-entity validation, repair and
// deduplication rules. Each cleaner consumes an immutable raw table and
// produces a new table plus a Report of everything it dropped or repaired.
// Data-quality defects are never errors here; they are resolved by the
// deterministic drop/clamp/fill/impute rules and surfaced as counts.
package cleaner

import (
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"

	"sales-etl/pkg/model"
)

// UnknownSentinel replaces missing phone, city and supplier values.
const UnknownSentinel = "Unknown"

// emailPattern accepts local@domain.tld: alphanumeric/._%+- local part,
// dotted domain, TLD of at least two letters.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidEmail reports whether s matches the email rule used when cleaning
// customers. Exposed so output verification applies the same rule.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Report summarizes a single cleaning stage: before/after row counts and
// the individual operations applied, for the orchestrator's run report and
// the optional audit store.
type Report struct {
	Dataset  string
	RowsIn   int
	RowsOut  int
	Dropped  int
	Repaired int
	Ops      []model.CleaningOperation
}

func newReport(dataset string) *Report {
	return &Report{Dataset: dataset}
}

func (r *Report) drop(column, rowKey string, original *string, reason string) {
	r.Dropped++
	r.addOp(model.OpDrop, column, rowKey, original, nil, reason)
}

func (r *Report) dedupe(column, rowKey string, original *string, reason string) {
	r.Dropped++
	r.addOp(model.OpDedupe, column, rowKey, original, nil, reason)
}

func (r *Report) repair(kind, column, rowKey string, original *string, newValue, reason string) {
	r.Repaired++
	r.addOp(kind, column, rowKey, original, &newValue, reason)
}

func (r *Report) addOp(kind, column, rowKey string, original, newValue *string, reason string) {
	r.Ops = append(r.Ops, model.CleaningOperation{
		ID:            uuid.New().String(),
		Dataset:       r.Dataset,
		Column:        column,
		RowKey:        rowKey,
		OriginalValue: original,
		NewValue:      newValue,
		Operation:     kind,
		Reason:        reason,
		AppliedAt:     time.Now().UTC(),
	})
}

// Helpers shared by the cleaners.

func intKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

func strPtr(s string) *string {
	return &s
}

// truncateToDate normalizes a timestamp to a pure date (midnight UTC).
func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
