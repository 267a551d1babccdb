package engine

import (
	"fmt"
	"regexp"
	"strings"
)

// ============================================================================
// TEXT BUILDER — Summary metrics and reply text
// ============================================================================

// EmptyReply is shown when a selection produces no points.
const EmptyReply = "No data for the current selection. Adjust the selected sources, categories or principles."

// Summarize computes the headline metrics. selectedCategories is the number
// of categories in the selection, reported as-is.
func Summarize(points []Point, selectedCategories int) *SummaryData {
	view := NewPointView(points)
	s := &SummaryData{
		Points:        view.Len(),
		RelevanceMean: AvgMeasure(view, MeasureRelevance),
		UrgencyMean:   AvgMeasure(view, MeasureUrgency),
		Categories:    selectedCategories,
		Quadrants: map[Quadrant]int{
			QuadrantHighPriority: 0,
			QuadrantUrgent:       0,
			QuadrantStrategic:    0,
			QuadrantLowPriority:  0,
		},
	}
	for _, g := range GroupAndAggregate(view, DimQuadrant, "", "count") {
		s.Quadrants[Quadrant(g.Key)] = g.Count
	}
	return s
}

// ============================================================================
// PLACEHOLDER RESOLUTION
// ============================================================================

// ResolvePlaceholders substitutes computed values into the reply template.
// Supported: {count} {categories} {relevance_mean} {urgency_mean}
// {top_name} {top_score} {bottom_name} {bottom_score} {high_priority}
// {urgent} {strategic} {low_priority}. Placeholders without a value are
// removed.
func ResolvePlaceholders(template string, summary *SummaryData, ranking *Ranking) string {
	if template == "" || summary == nil {
		return ""
	}

	replacements := map[string]string{
		"{count}":          fmt.Sprintf("%d", summary.Points),
		"{categories}":     fmt.Sprintf("%d", summary.Categories),
		"{relevance_mean}": fmt.Sprintf("%.1f", summary.RelevanceMean),
		"{urgency_mean}":   fmt.Sprintf("%.1f", summary.UrgencyMean),
	}
	for q, n := range summary.Quadrants {
		replacements["{"+string(q)+"}"] = fmt.Sprintf("%d", n)
	}

	if ranking != nil && len(ranking.Top) > 0 {
		top := ranking.Top[0]
		replacements["{top_name}"] = top.Name
		replacements["{top_score}"] = FormatNumber(RoundTo2(top.Score))
	}
	if ranking != nil && len(ranking.Bottom) > 0 {
		bottom := ranking.Bottom[0]
		replacements["{bottom_name}"] = bottom.Name
		replacements["{bottom_score}"] = FormatNumber(RoundTo2(bottom.Score))
	}

	result := template
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	// Safety net: strip unresolved placeholders
	return stripUnresolvedPlaceholders(result)
}

var placeholderRegex = regexp.MustCompile(`\{[a-z_]+\}`)

func stripUnresolvedPlaceholders(text string) string {
	cleaned := placeholderRegex.ReplaceAllString(text, "")
	cleaned = strings.ReplaceAll(cleaned, "()", "")
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	cleaned = strings.TrimRight(cleaned, " :—-–")
	if cleaned == "" {
		return text
	}
	return cleaned
}
