package engine

import "sort"

// ============================================================================
// STATISTICS — per-category spread and per-principle consistency
// ============================================================================
// Standard deviations are sample deviations (n-1). A group with a single
// point has deviation 0.
// ============================================================================

// CategoryStat summarises the points of one category.
type CategoryStat struct {
	Category      string  `json:"category"`
	Count         int     `json:"count"`
	RelevanceMean float64 `json:"relevanceMean"`
	RelevanceStd  float64 `json:"relevanceStd"`
	UrgencyMean   float64 `json:"urgencyMean"`
	UrgencyStd    float64 `json:"urgencyStd"`
}

// CategoryStatistics groups points by category in first-appearance order.
func CategoryStatistics(points []Point) []CategoryStat {
	view := NewPointView(points)
	if view.Len() == 0 {
		return nil
	}

	groups := GroupAndAggregate(view, DimCategory, MeasureRelevance, "avg")
	stats := make([]CategoryStat, 0, len(groups))
	for _, g := range groups {
		stats = append(stats, CategoryStat{
			Category:      g.Key,
			Count:         g.Count,
			RelevanceMean: g.Value,
			RelevanceStd:  StdMeasure(g.View, MeasureRelevance),
			UrgencyMean:   AvgMeasure(g.View, MeasureUrgency),
			UrgencyStd:    StdMeasure(g.View, MeasureUrgency),
		})
	}
	return stats
}

// ConsistencyScore measures how much sources disagree on one principle.
// Lower is more consistent.
type ConsistencyScore struct {
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Sources      int     `json:"sources"` // distinct contributing sources
	RelevanceStd float64 `json:"relevanceStd"`
	UrgencyStd   float64 `json:"urgencyStd"`
	Score        float64 `json:"score"` // mean of the two deviations
}

// Consistency scores each principle rated by more than one distinct source.
// It expects raw (one source per point) input. Principles with a single
// source are left out, not scored as zero. Output is ascending by score;
// ties keep first-appearance order.
func Consistency(raw []Point) []ConsistencyScore {
	view := NewPointView(raw)
	if view.Len() == 0 {
		return nil
	}

	var scores []ConsistencyScore
	for _, g := range groupBySingle(view, DimName) {
		n := distinctSources(g.View)
		if n < 2 {
			continue
		}
		relStd := StdMeasure(g.View, MeasureRelevance)
		urgStd := StdMeasure(g.View, MeasureUrgency)
		scores = append(scores, ConsistencyScore{
			Name:         g.Key,
			Category:     g.View.Dimension(0, DimCategory),
			Sources:      n,
			RelevanceStd: relStd,
			UrgencyStd:   urgStd,
			Score:        (relStd + urgStd) / 2,
		})
	}

	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score < scores[j].Score })
	return scores
}

func distinctSources(group RecordView) int {
	seen := make(map[string]bool)
	for i := 0; i < group.Len(); i++ {
		for _, s := range SplitSourceLabel(group.Dimension(i, DimSource)) {
			seen[s] = true
		}
	}
	return len(seen)
}
