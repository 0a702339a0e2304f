// pkg/dataset/dataset.go
//
// Package dataset provides the small set of tabular operations the cleaning
// stages are written against: filter, project (map), group-aggregate,
// keyed deduplication and median. Inputs are never mutated; every operation
// returns a fresh slice so each stage consumes a finalized predecessor.
package dataset

import (
	"sort"
	"sync"
)

// Filter returns the rows for which keep is true, preserving input order.
func Filter[T any](rows []T, keep func(T) bool) []T {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if keep(row) {
			out = append(out, row)
		}
	}
	return out
}

// Map applies fn to every row and returns the results in input order.
func Map[T, U any](rows []T, fn func(T) U) []U {
	out := make([]U, len(rows))
	for i, row := range rows {
		out[i] = fn(row)
	}
	return out
}

// ParallelMap applies fn across up to workers goroutines. Output order
// matches input order, so the result is identical to Map. Row functions
// must be independent of each other; rules with cross-row state (grouping,
// deduplication, joins) must not go through here.
func ParallelMap[T, U any](rows []T, workers int, fn func(T) U) []U {
	if workers <= 1 || len(rows) < workers*2 {
		return Map(rows, fn)
	}

	out := make([]U, len(rows))
	chunk := (len(rows) + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < len(rows); start += chunk {
		end := start + chunk
		if end > len(rows) {
			end = len(rows)
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				out[i] = fn(rows[i])
			}
		}(start, end)
	}
	wg.Wait()

	return out
}

// GroupBy partitions rows by key. Slice order within each group follows
// input order.
func GroupBy[T any, K comparable](rows []T, key func(T) K) map[K][]T {
	groups := make(map[K][]T)
	for _, row := range rows {
		k := key(row)
		groups[k] = append(groups[k], row)
	}
	return groups
}

// DeduplicateBy keeps exactly one row per key: the row ranked first by the
// less function. The survivors are returned in order of first appearance of
// their key; the second return value holds every discarded row. The ranking
// must be a total order over duplicates or the result is not deterministic.
func DeduplicateBy[T any, K comparable](rows []T, key func(T) K, less func(a, b T) bool) (kept, removed []T) {
	index := make(map[K]int, len(rows))
	kept = make([]T, 0, len(rows))

	for _, row := range rows {
		k := key(row)
		at, seen := index[k]
		if !seen {
			index[k] = len(kept)
			kept = append(kept, row)
			continue
		}
		if less(row, kept[at]) {
			removed = append(removed, kept[at])
			kept[at] = row
		} else {
			removed = append(removed, row)
		}
	}

	return kept, removed
}

// Median returns the median of vals. For an even count it is the mean of
// the two middle values. ok is false when vals is empty.
func Median(vals []float64) (median float64, ok bool) {
	if len(vals) == 0 {
		return 0, false
	}

	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid], true
	}
	return (sorted[mid-1] + sorted[mid]) / 2, true
}
