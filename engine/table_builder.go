package engine

import (
	"fmt"
)

// ============================================================================
// TABLE BUILDER — Produces TableData from points and derived views
// ============================================================================
// Numeric cells are rounded to two decimals. Column keys match the CSV
// artifact where the two overlap.
// ============================================================================

func text(key, label string) Column {
	return Column{Key: key, Label: label, Type: "text", Align: "left"}
}

func number(key, label string) Column {
	return Column{Key: key, Label: label, Type: "number", Align: "right"}
}

func fmt2(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// ============================================================================
// POINTS TABLE — Row per point
// ============================================================================

// BuildPointsTable lists every point with its source label and quadrant.
func BuildPointsTable(points []Point) *TableData {
	t := &TableData{
		Title: "Data",
		Columns: []Column{
			text(DimName, "Name"),
			text(DimCategory, "Category"),
			number(MeasureRelevance, "Relevance"),
			number(MeasureUrgency, "Urgency"),
			text(DimSource, "Source"),
			text(DimQuadrant, "Quadrant"),
		},
		Rows: make([][]string, 0, len(points)),
	}
	if len(points) == 0 {
		return t
	}

	view := NewPointView(points)
	for _, p := range points {
		t.Rows = append(t.Rows, []string{
			p.Name,
			p.Category,
			fmt2(p.Relevance),
			fmt2(p.Urgency),
			p.SourceLabel(),
			QuadrantLabel(QuadrantOf(p)),
		})
	}
	t.Summary = &Summary{
		Label: fmt.Sprintf("Mean (%d points)", len(points)),
		Values: map[string]string{
			MeasureRelevance: fmt2(AvgMeasure(view, MeasureRelevance)),
			MeasureUrgency:   fmt2(AvgMeasure(view, MeasureUrgency)),
		},
	}
	return t
}

// ============================================================================
// RANKING TABLES
// ============================================================================

// BuildRankingTable renders one side of a Ranking.
func BuildRankingTable(title string, ranked []RankedPoint) *TableData {
	t := &TableData{
		Title: title,
		Columns: []Column{
			number("rank", "Rank"),
			text(DimName, "Name"),
			text(DimCategory, "Category"),
			number(MeasureRelevance, "Relevance"),
			number(MeasureUrgency, "Urgency"),
			number(MeasureScore, "Priority Score"),
		},
		Rows: make([][]string, 0, len(ranked)),
	}
	for _, r := range ranked {
		t.Rows = append(t.Rows, []string{
			fmt.Sprintf("%d", r.Rank),
			r.Name,
			r.Category,
			fmt2(r.Relevance),
			fmt2(r.Urgency),
			fmt2(r.Score),
		})
	}
	return t
}

// ============================================================================
// STATISTICS TABLES
// ============================================================================

// BuildCategoryTable renders per-category statistics.
func BuildCategoryTable(stats []CategoryStat) *TableData {
	t := &TableData{
		Title: "Category Analysis",
		Columns: []Column{
			text(DimCategory, "Category"),
			number("relevance_mean", "Relevance Mean"),
			number("relevance_std", "Relevance Std"),
			number("count", "Count"),
			number("urgency_mean", "Urgency Mean"),
			number("urgency_std", "Urgency Std"),
		},
		Rows: make([][]string, 0, len(stats)),
	}
	var total int
	for _, s := range stats {
		t.Rows = append(t.Rows, []string{
			s.Category,
			fmt2(s.RelevanceMean),
			fmt2(s.RelevanceStd),
			fmt.Sprintf("%d", s.Count),
			fmt2(s.UrgencyMean),
			fmt2(s.UrgencyStd),
		})
		total += s.Count
	}
	if len(stats) > 0 {
		t.Summary = &Summary{
			Label:  "Total",
			Values: map[string]string{"count": fmt.Sprintf("%d", total)},
		}
	}
	return t
}

// BuildConsistencyTable renders consistency scores, most consistent first.
func BuildConsistencyTable(scores []ConsistencyScore) *TableData {
	t := &TableData{
		Title: "Source Consistency",
		Columns: []Column{
			text(DimName, "Name"),
			text(DimCategory, "Category"),
			number("sources", "Sources"),
			number("relevance_std", "Relevance Std"),
			number("urgency_std", "Urgency Std"),
			number("score", "Consistency Score"),
		},
		Rows: make([][]string, 0, len(scores)),
	}
	for _, s := range scores {
		t.Rows = append(t.Rows, []string{
			s.Name,
			s.Category,
			fmt.Sprintf("%d", s.Sources),
			fmt2(s.RelevanceStd),
			fmt2(s.UrgencyStd),
			fmt2(s.Score),
		})
	}
	return t
}
