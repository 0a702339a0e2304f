// pkg/sink/sink.go
package sink

import (
	"context"

	"sales-etl/pkg/model"
)

// Sink delivers a fully built star schema to its destination. Writes are
// all-or-nothing: a failed write must leave any previous output untouched
// and never expose a partially written table.
type Sink interface {
	Write(ctx context.Context, schema *model.StarSchema) error
}
