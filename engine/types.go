package engine

import "strings"

// ============================================================================
// PRIOMATRIX ENGINE TYPES
// ============================================================================
// Selection (what the user picked) → Point (what gets plotted) → Result
// (render-ready chart/table/text output).
//
// The engine never mutates the catalog. All computation is local.
// ============================================================================

// ============================================================================
// SELECTION — Contract between the caller and the engine
// ============================================================================

// Mode selects raw points or one mean point per principle.
type Mode string

const (
	ModeRaw       Mode = "raw"
	ModeAggregate Mode = "aggregate"
)

// Selection is the per-request configuration driving a recompute.
// An empty list selects nothing; it does not mean "all".
type Selection struct {
	Sources    []string `json:"sources" yaml:"sources"`       // source ids, e.g. ["workshop", "I1"]
	Categories []string `json:"categories" yaml:"categories"` // category names
	Principles []string `json:"principles" yaml:"principles"` // principle names
	Mode       Mode     `json:"mode" yaml:"mode"`
}

// ============================================================================
// POINT — One plottable dot in the matrix
// ============================================================================

// SourceSeparator joins multiple source labels in text output.
const SourceSeparator = "; "

// Point is a transformed (relevance, urgency) pair.
// Raw mode: one per (principle, source). Aggregate mode: one mean per principle.
type Point struct {
	Name      string   `json:"name"`
	Category  string   `json:"category"`
	Relevance float64  `json:"relevance"`
	Urgency   float64  `json:"urgency"`
	Sources   []string `json:"sources"` // display names of contributing sources
	Count     int      `json:"count"`   // contributing sources, drives marker size
}

// Score is the priority score: relevance × urgency.
func (p Point) Score() float64 {
	return p.Relevance * p.Urgency
}

// SourceLabel joins the contributing source labels.
func (p Point) SourceLabel() string {
	return strings.Join(p.Sources, SourceSeparator)
}

// SplitSourceLabel is the inverse of SourceLabel.
func SplitSourceLabel(label string) []string {
	if strings.TrimSpace(label) == "" {
		return nil
	}
	parts := strings.Split(label, strings.TrimSpace(SourceSeparator))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ============================================================================
// QUADRANTS
// ============================================================================

// QuadrantSplit is the boundary on both axes.
const QuadrantSplit = 5.0

// Quadrant names one of the four matrix regions.
type Quadrant string

const (
	QuadrantHighPriority Quadrant = "high_priority" // relevance ≥ 5, urgency ≥ 5
	QuadrantUrgent       Quadrant = "urgent"        // relevance < 5, urgency ≥ 5
	QuadrantStrategic    Quadrant = "strategic"     // relevance ≥ 5, urgency < 5
	QuadrantLowPriority  Quadrant = "low_priority"  // relevance < 5, urgency < 5
)

// QuadrantOf classifies a point.
func QuadrantOf(p Point) Quadrant {
	switch {
	case p.Relevance >= QuadrantSplit && p.Urgency >= QuadrantSplit:
		return QuadrantHighPriority
	case p.Urgency >= QuadrantSplit:
		return QuadrantUrgent
	case p.Relevance >= QuadrantSplit:
		return QuadrantStrategic
	default:
		return QuadrantLowPriority
	}
}

// ============================================================================
// RESULT — Render-ready output
// ============================================================================

// Result is the engine's render-ready output for one selection.
type Result struct {
	Success bool   `json:"success"`
	Empty   bool   `json:"empty"`
	Mode    Mode   `json:"mode"`
	Reply   string `json:"reply"`
	Title   string `json:"title"`

	Summary *SummaryData `json:"summary,omitempty"`
	Points  []Point      `json:"points"`

	Matrix     *ChartConfig  `json:"matrix,omitempty"`
	Histograms []ChartConfig `json:"histograms,omitempty"`

	Ranking     *Ranking           `json:"ranking,omitempty"`
	Categories  []CategoryStat     `json:"categories,omitempty"`
	Consistency []ConsistencyScore `json:"consistency,omitempty"`

	Tables map[string]*TableData `json:"tables,omitempty"` // keyed by Table* constants

	Selection *Selection `json:"selection,omitempty"`
}

// Keys into Result.Tables.
const (
	TablePoints      = "points"
	TableTop         = "top"
	TableBottom      = "bottom"
	TableCategories  = "categories"
	TableConsistency = "consistency"
)

// SummaryData holds the headline metrics shown above the matrix.
type SummaryData struct {
	Points        int     `json:"points"`
	RelevanceMean float64 `json:"relevanceMean"`
	UrgencyMean   float64 `json:"urgencyMean"`
	Categories    int     `json:"categories"` // selected categories, not categories with points

	Quadrants map[Quadrant]int `json:"quadrants"`
}

// ============================================================================
// CHART TYPES
// ============================================================================

// ChartConfig defines how to render a chart.
type ChartConfig struct {
	ChartType  string        `json:"chartType"` // "scatter", "stacked_bar"
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	XRange     *AxisRange    `json:"xRange,omitempty"`
	YRange     *AxisRange    `json:"yRange,omitempty"`
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors,omitempty"`
	Regions    []Region      `json:"regions,omitempty"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`
}

// AxisRange is a fixed numeric axis.
type AxisRange struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartPoint is a bar (Label/Value) or a scatter dot (X/Y/Size).
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Size  int     `json:"size,omitempty"`
	Hover string  `json:"hover,omitempty"`
}

// Region is a shaded, labelled background rectangle.
type Region struct {
	Key   Quadrant `json:"key"`
	Label string   `json:"label"`
	X0    float64  `json:"x0"`
	X1    float64  `json:"x1"`
	Y0    float64  `json:"y0"`
	Y1    float64  `json:"y1"`
	Fill  string   `json:"fill"`
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData defines how to render a table.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number"
	Align string `json:"align"` // "left", "center", "right"
}

// Summary provides totals or aggregations for a table.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}
