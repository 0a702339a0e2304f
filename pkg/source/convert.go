// pkg/source/convert.go
package source

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Typed cell parsing for delimited inputs. The raw schema is fixed and
// explicit; a cell that cannot be parsed as its declared type is a
// structural failure, never a data-quality defect.

func parseInt(column, cell string) (int64, error) {
	cleaned := strings.TrimSpace(cell)
	if cleaned == "" {
		return 0, fmt.Errorf("column %s: empty value where integer required", column)
	}

	value, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: cannot parse %q as integer: %w", column, cell, err)
	}
	return value, nil
}

func parseFloat(column, cell string) (float64, error) {
	cleaned := strings.TrimSpace(cell)
	if cleaned == "" {
		return 0, fmt.Errorf("column %s: empty value where number required", column)
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: cannot parse %q as number: %w", column, cell, err)
	}
	return value, nil
}

func parseDecimal(column, cell string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(cell)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("column %s: empty value where decimal required", column)
	}

	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("column %s: cannot parse %q as decimal: %w", column, cell, err)
	}
	return value, nil
}

// dateFormats are tried in order when parsing date cells. The generator
// emits plain dates but timestamps show up when inputs come from other
// engines, so the common ones are accepted and truncated later.
var dateFormats = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseDate(column, cell string) (time.Time, error) {
	cleaned := strings.TrimSpace(cell)
	if cleaned == "" {
		return time.Time{}, fmt.Errorf("column %s: empty value where date required", column)
	}

	for _, format := range dateFormats {
		if t, err := time.Parse(format, cleaned); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("column %s: cannot parse %q as date", column, cell)
}

// Nullable variants: an empty cell is a null, anything else must parse.

func nullableString(cell string) *string {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	s := cell
	return &s
}

func nullableFloat(column, cell string) (*float64, error) {
	if strings.TrimSpace(cell) == "" {
		return nil, nil
	}
	value, err := parseFloat(column, cell)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func nullableDate(column, cell string) (*time.Time, error) {
	if strings.TrimSpace(cell) == "" {
		return nil, nil
	}
	value, err := parseDate(column, cell)
	if err != nil {
		return nil, err
	}
	return &value, nil
}
