// pkg/model/cleaning.go
package model

import (
	"time"
)

// CleaningOperation records a single repair or removal applied while
// cleaning one of the raw datasets. Operations are reported as aggregate
// counts and, when an audit store is configured, persisted for inspection.
type CleaningOperation struct {
	ID            string    // Audit record UUID
	Dataset       string    // Source dataset: customers, products or sales
	Column        string    // Column that triggered the operation
	RowKey        string    // Primary key of the affected row
	OriginalValue *string   // Value before the operation (nil for missing)
	NewValue      *string   // Value after the operation (nil when dropped)
	Operation     string    // Kind of operation: drop, clamp, fill, impute, dedupe
	Reason        string    // Why the operation was applied (e.g. invalid_email_format)
	AppliedAt     time.Time // When the operation was applied
}

// Operation kinds.
const (
	OpDrop   = "drop"   // Row removed entirely
	OpClamp  = "clamp"  // Out-of-range value replaced with the nearest bound
	OpFill   = "fill"   // Missing value replaced with a sentinel
	OpImpute = "impute" // Missing value replaced with a derived statistic
	OpDedupe = "dedupe" // Duplicate row removed in favour of a surviving one
)
