package engine

import (
	"fmt"

	"github.com/spektr-org/priomatrix/dataset"
)

// ============================================================================
// CHART BUILDER — Produces ChartConfig from points and histograms
// ============================================================================
// The matrix is a scatter chart with one series per category, fixed 0-10
// axes and four shaded quadrant regions. Histograms are stacked bar charts
// with one series per category.
// ============================================================================

// Palette maps a category name to a "#RRGGBB" colour.
type Palette map[string]string

// ColorFor returns the category colour or dataset.FallbackColor.
func (p Palette) ColorFor(category string) string {
	if c, ok := p[category]; ok && c != "" {
		return c
	}
	return dataset.FallbackColor
}

// quadrantRegions are drawn beneath the points. Fills are "#RRGGBBAA".
var quadrantRegions = []Region{
	{Key: QuadrantUrgent, X0: 0, X1: 5, Y0: 5, Y1: 10, Fill: "#FF00001A"},
	{Key: QuadrantHighPriority, X0: 5, X1: 10, Y0: 5, Y1: 10, Fill: "#FF000033"},
	{Key: QuadrantLowPriority, X0: 0, X1: 5, Y0: 0, Y1: 5, Fill: "#FFFF001A"},
	{Key: QuadrantStrategic, X0: 5, X1: 10, Y0: 0, Y1: 5, Fill: "#00FF001A"},
}

// QuadrantLabel is the display label of a quadrant.
func QuadrantLabel(q Quadrant) string {
	switch q {
	case QuadrantHighPriority:
		return "High Priority"
	case QuadrantUrgent:
		return "Urgent"
	case QuadrantStrategic:
		return "Strategic"
	case QuadrantLowPriority:
		return "Low Priority"
	}
	return string(q)
}

// Regions returns the four quadrant regions with labels.
func Regions() []Region {
	out := make([]Region, len(quadrantRegions))
	for i, r := range quadrantRegions {
		r.Label = QuadrantLabel(r.Key)
		out[i] = r
	}
	return out
}

// BaseMarkerSize is the marker size of a single-source point.
const BaseMarkerSize = 12

// MarkerSize grows with the number of contributing sources.
func MarkerSize(count int) int {
	if count < 1 {
		count = 1
	}
	return BaseMarkerSize + 2*(count-1)
}

// BuildMatrix produces the scatter ChartConfig. Returns nil for no points.
func BuildMatrix(points []Point, palette Palette, title string) *ChartConfig {
	if len(points) == 0 {
		return nil
	}

	scale := &AxisRange{Min: ScaleMin, Max: ScaleMax, Step: 1}
	config := &ChartConfig{
		ChartType:  "scatter",
		Title:      title,
		XAxis:      LabelForDimension(MeasureRelevance),
		YAxis:      LabelForDimension(MeasureUrgency),
		XRange:     scale,
		YRange:     scale,
		Regions:    Regions(),
		ShowLegend: true,
		ShowGrid:   true,
	}

	for _, g := range groupBySingle(NewPointView(points), DimCategory) {
		sub := g.View.(*SubView)
		data := make([]ChartPoint, 0, sub.Len())
		for _, idx := range sub.indices {
			p := points[idx]
			data = append(data, ChartPoint{
				Label: p.Name,
				Value: RoundTo2(p.Score()),
				X:     RoundTo2(p.Relevance),
				Y:     RoundTo2(p.Urgency),
				Size:  MarkerSize(p.Count),
				Hover: hoverText(p),
			})
		}
		color := palette.ColorFor(g.Key)
		config.Series = append(config.Series, ChartSeries{Name: g.Key, Data: data, Color: color})
		config.Colors = append(config.Colors, color)
	}
	return config
}

func hoverText(p Point) string {
	return fmt.Sprintf("%s\nSource: %s\nRelevance: %s\nUrgency: %s",
		p.Name, p.SourceLabel(), FormatNumber(RoundTo2(p.Relevance)), FormatNumber(RoundTo2(p.Urgency)))
}

// BuildHistogramChart produces a stacked bar ChartConfig. Every category
// series carries one entry per bin, zero counts included.
func BuildHistogramChart(h Histogram, palette Palette) *ChartConfig {
	if len(h.Bins) == 0 {
		return nil
	}

	config := &ChartConfig{
		ChartType:  "stacked_bar",
		Title:      fmt.Sprintf("%s distribution", LabelForDimension(h.Measure)),
		XAxis:      LabelForDimension(h.Measure),
		YAxis:      "Count",
		XRange: &AxisRange{
			Min:  h.Bins[0].Lo,
			Max:  h.Bins[len(h.Bins)-1].Hi,
			Step: RoundTo2(h.Bins[0].Hi - h.Bins[0].Lo),
		},
		ShowLegend: true,
		ShowGrid:   true,
	}

	for _, cat := range h.Categories {
		data := make([]ChartPoint, 0, len(h.Bins))
		for _, b := range h.Bins {
			data = append(data, ChartPoint{
				Label: b.Label(),
				Value: float64(b.ByCategory[cat]),
				X:     b.Lo,
			})
		}
		color := palette.ColorFor(cat)
		config.Series = append(config.Series, ChartSeries{Name: cat, Data: data, Color: color})
		config.Colors = append(config.Colors, color)
	}
	return config
}
