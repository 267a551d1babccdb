package engine

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// ============================================================================
// FILTERS — Dimension-Based Filtering via RecordView
// ============================================================================
// Single-pass filter: checks ALL dimension constraints per record in one loop.
// Returns a SubView (index list into parent) — zero data copy.
//
// Matching is NFC-normalised and case-folded so "zeitkomponente" and a
// decomposed "Regionale Zusammenhänge" hit the same rows.
// ============================================================================

// Filters define which records to include.
// Keys are dimension names, values the allowed values.
// OR within a dimension, AND across dimensions. A dimension that is absent
// from the map is unrestricted; a dimension present with no values matches nothing.
type Filters struct {
	Dimensions map[string][]string `json:"dimensions"`
}

// IsEmpty returns true if no dimension is restricted.
func (f Filters) IsEmpty() bool {
	return len(f.Dimensions) == 0
}

// ApplyFilters returns a view of records matching all dimension filters.
func ApplyFilters(view RecordView, filters Filters) RecordView {
	if filters.IsEmpty() {
		return view
	}
	return newSubView(view, MatchIndices(view, filters))
}

// MatchIndices returns the row indices of view that pass every filter,
// in view order.
func MatchIndices(view RecordView, filters Filters) []int {
	n := view.Len()
	indices := make([]int, 0, n)

	// Pre-build folded lookup sets for each dimension filter
	sets := make(map[string]map[string]bool, len(filters.Dimensions))
	for dim, allowed := range filters.Dimensions {
		sets[dim] = foldSet(allowed)
	}

	for i := 0; i < n; i++ {
		pass := true
		for dim, set := range sets {
			if !set[Fold(view.Dimension(i, dim))] {
				pass = false
				break
			}
		}
		if pass {
			indices = append(indices, i)
		}
	}
	return indices
}

// Fold normalises an identifier for comparison.
func Fold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

// foldSet converts a string slice to a folded lookup set.
func foldSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	caser := cases.Fold()
	for _, item := range items {
		set[caser.String(norm.NFC.String(item))] = true
	}
	return set
}
