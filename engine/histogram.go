package engine

import (
	"fmt"
	"math"
)

// ============================================================================
// HISTOGRAM — fixed-width bins over the rating scale
// ============================================================================
// Bins cover [ScaleMin, ScaleMax] in equal steps. Each bin is half-open
// [lo, hi) except the last, which also holds ScaleMax. Counts are split by
// category in first-appearance order.
// ============================================================================

const (
	ScaleMin = 0.0
	ScaleMax = 10.0

	DefaultHistogramBins = 10
)

// HistogramBin is one interval of a histogram.
type HistogramBin struct {
	Lo         float64        `json:"lo"`
	Hi         float64        `json:"hi"`
	Total      int            `json:"total"`
	ByCategory map[string]int `json:"byCategory"`
}

// Label renders the interval, e.g. "2-3".
func (b HistogramBin) Label() string {
	return fmt.Sprintf("%s-%s", FormatNumber(b.Lo), FormatNumber(b.Hi))
}

// Histogram is the distribution of one measure.
type Histogram struct {
	Measure    string         `json:"measure"`
	Categories []string       `json:"categories"`
	Bins       []HistogramBin `json:"bins"`
}

// BuildHistogram bins a measure (MeasureRelevance or MeasureUrgency) of the
// given points. bins <= 0 uses DefaultHistogramBins.
func BuildHistogram(points []Point, measure string, bins int) Histogram {
	if bins <= 0 {
		bins = DefaultHistogramBins
	}
	width := (ScaleMax - ScaleMin) / float64(bins)

	h := Histogram{Measure: measure, Bins: make([]HistogramBin, bins)}
	for i := range h.Bins {
		h.Bins[i] = HistogramBin{
			Lo:         RoundTo2(ScaleMin + float64(i)*width),
			Hi:         RoundTo2(ScaleMin + float64(i+1)*width),
			ByCategory: make(map[string]int),
		}
	}

	view := NewPointView(points)
	h.Categories = UniqueValues(view, DimCategory)
	for i := 0; i < view.Len(); i++ {
		b := binIndex(view.Measure(i, measure), width, bins)
		h.Bins[b].Total++
		h.Bins[b].ByCategory[view.Dimension(i, DimCategory)]++
	}
	return h
}

func binIndex(v, width float64, bins int) int {
	i := int(math.Floor((v - ScaleMin) / width))
	switch {
	case i < 0:
		return 0
	case i >= bins:
		return bins - 1
	}
	return i
}
