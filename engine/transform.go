package engine

import (
	"github.com/spektr-org/priomatrix/dataset"
)

// ============================================================================
// TRANSFORM — principle records → plottable points
// ============================================================================
// Pipeline:
//   1. Filter records by category and principle name → index list
//   2. Resolve selected sources against the rating keys (folded)
//   3. Emit points per mode
//
// Output order follows record order, then selected-source order.
// A pair counts only when both relevance and urgency are present; records
// with no contributing source are skipped without error.
// ============================================================================

// LabelFunc maps a source id to its display name.
type LabelFunc func(sourceID string) string

// Transform turns principle records into points for the given selection.
// labels may be nil, in which case source ids are used as labels.
func Transform(records []dataset.Principle, sel Selection, labels LabelFunc) []Point {
	if labels == nil {
		labels = func(id string) string { return id }
	}

	filters := Filters{Dimensions: map[string][]string{
		DimCategory: sel.Categories,
		DimName:     sel.Principles,
	}}
	indices := MatchIndices(NewPrincipleView(records), filters)
	if len(indices) == 0 {
		return nil
	}

	sources := resolveSources(records, sel.Sources)
	if len(sources) == 0 {
		return nil
	}

	var points []Point
	for _, idx := range indices {
		rec := records[idx]
		if sel.Mode == ModeAggregate {
			if p, ok := aggregatePoint(rec, sources, labels); ok {
				points = append(points, p)
			}
			continue
		}
		points = append(points, rawPoints(rec, sources, labels)...)
	}
	return points
}

// TransformCatalog runs Transform over a catalog with its display names.
func TransformCatalog(cat *dataset.Catalog, sel Selection) []Point {
	return Transform(cat.Principles(), sel, cat.DisplayName)
}

func rawPoints(rec dataset.Principle, sources []string, labels LabelFunc) []Point {
	var out []Point
	for _, src := range sources {
		rel, urg, ok := rec.Rating(src)
		if !ok {
			continue
		}
		out = append(out, Point{
			Name:      rec.Name,
			Category:  rec.Category,
			Relevance: rel,
			Urgency:   urg,
			Sources:   []string{labels(src)},
			Count:     1,
		})
	}
	return out
}

func aggregatePoint(rec dataset.Principle, sources []string, labels LabelFunc) (Point, bool) {
	var relSum, urgSum float64
	var contributing []string
	for _, src := range sources {
		rel, urg, ok := rec.Rating(src)
		if !ok {
			continue
		}
		relSum += rel
		urgSum += urg
		contributing = append(contributing, labels(src))
	}
	n := len(contributing)
	if n == 0 {
		return Point{}, false
	}
	return Point{
		Name:      rec.Name,
		Category:  rec.Category,
		Relevance: relSum / float64(n),
		Urgency:   urgSum / float64(n),
		Sources:   contributing,
		Count:     n,
	}, true
}

// resolveSources maps the selected ids onto the spelling used in the rating
// maps, keeping selection order and dropping duplicates. Ids no record
// knows are kept as-is; they simply never match.
func resolveSources(records []dataset.Principle, selected []string) []string {
	known := make(map[string]string)
	for _, rec := range records {
		for id := range rec.Ratings {
			known[Fold(id)] = id
		}
	}

	seen := make(map[string]bool, len(selected))
	out := make([]string, 0, len(selected))
	for _, s := range selected {
		id, ok := known[Fold(s)]
		if !ok {
			id = s
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
