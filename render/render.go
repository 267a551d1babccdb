// Package render draws engine chart configurations as PNG or SVG images
// with go-chart. Only the data mapping matters here; colours and sizes come
// from the ChartConfig.
package render

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/spektr-org/priomatrix/engine"
)

// Format is an output image format.
type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrChartType         = errors.New("unexpected chart type")
	ErrNoData            = errors.New("nothing to draw")
)

// ParseFormat accepts "png" or "svg" in any case.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case PNG, "":
		return PNG, nil
	case SVG:
		return SVG, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// ContentType is the MIME type of the format.
func (f Format) ContentType() string {
	if f == SVG {
		return "image/svg+xml"
	}
	return "image/png"
}

func (f Format) provider() (chart.RendererProvider, error) {
	switch f {
	case PNG:
		return chart.PNG, nil
	case SVG:
		return chart.SVG, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(f))
}

// Default canvas size.
const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

// Option adjusts rendering.
type Option func(*options)

type options struct {
	width, height int
}

// WithSize sets the canvas size in pixels. Non-positive values keep the default.
func WithSize(width, height int) Option {
	return func(o *options) {
		if width > 0 {
			o.width = width
		}
		if height > 0 {
			o.height = height
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{width: DefaultWidth, height: DefaultHeight}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ============================================================================
// MATRIX — scatter with quadrant shading
// ============================================================================

// Matrix draws a "scatter" ChartConfig.
func Matrix(cfg *engine.ChartConfig, format Format, w io.Writer, opts ...Option) error {
	if cfg == nil || len(cfg.Series) == 0 {
		return ErrNoData
	}
	if cfg.ChartType != "scatter" {
		return fmt.Errorf("%w: %q, want scatter", ErrChartType, cfg.ChartType)
	}
	provider, err := format.provider()
	if err != nil {
		return err
	}
	o := applyOptions(opts)

	points := make([]chart.Series, 0, len(cfg.Series))
	for _, s := range cfg.Series {
		if len(s.Data) == 0 {
			continue
		}
		points = append(points, scatterSeries(s))
	}
	if len(points) == 0 {
		return ErrNoData
	}

	series := []chart.Series{regionSeries{regions: cfg.Regions}}
	series = append(series, points...)
	if labels := regionLabels(cfg.Regions); labels != nil {
		series = append(series, *labels)
	}

	ch := chart.Chart{
		Title:      cfg.Title,
		Width:      o.width,
		Height:     o.height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 160, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:  cfg.XAxis,
			Range: axisRange(cfg.XRange),
			Ticks: axisTicks(cfg.XRange),
		},
		YAxis: chart.YAxis{
			Name:  cfg.YAxis,
			Range: axisRange(cfg.YRange),
			Ticks: axisTicks(cfg.YRange),
		},
		Series: series,
	}
	if cfg.ShowGrid {
		ch.XAxis.GridMajorStyle = gridStyle()
		ch.YAxis.GridMajorStyle = gridStyle()
		ch.XAxis.GridLines = gridLines(cfg.XRange)
		ch.YAxis.GridLines = gridLines(cfg.YRange)
	}
	if cfg.ShowLegend {
		// The legend lists categories only, not shading or labels.
		legendSrc := ch
		legendSrc.Series = points
		ch.Elements = []chart.Renderable{chart.LegendLeft(&legendSrc)}
	}

	if err := ch.Render(provider, w); err != nil {
		return fmt.Errorf("render matrix: %w", err)
	}
	return nil
}

func scatterSeries(s engine.ChartSeries) chart.ContinuousSeries {
	xs := make([]float64, len(s.Data))
	ys := make([]float64, len(s.Data))
	sizes := make([]float64, len(s.Data))
	for i, p := range s.Data {
		xs[i], ys[i] = p.X, p.Y
		size := p.Size
		if size <= 0 {
			size = engine.BaseMarkerSize
		}
		sizes[i] = float64(size) / 2 // go-chart dot width is a radius
	}
	col := parseColor(s.Color).WithAlpha(204)
	return chart.ContinuousSeries{
		Name:    s.Name,
		XValues: xs,
		YValues: ys,
		Style: chart.Style{
			StrokeWidth: chart.Disabled,
			DotColor:    col,
			DotWidth:    engine.BaseMarkerSize / 2,
			DotWidthProvider: func(_, _ chart.Range, index int, _, _ float64) float64 {
				return sizes[index]
			},
		},
	}
}

// regionSeries shades rectangles beneath the points. It carries no values,
// so it never influences the axis ranges.
type regionSeries struct {
	regions []engine.Region
}

func (regionSeries) GetName() string           { return "" }
func (regionSeries) GetStyle() chart.Style     { return chart.Style{} }
func (regionSeries) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }
func (regionSeries) Validate() error           { return nil }

func (rs regionSeries) Render(r chart.Renderer, canvas chart.Box, xr, yr chart.Range, _ chart.Style) {
	for _, reg := range rs.regions {
		fillRect(r,
			canvas.Left+xr.Translate(reg.X0), canvas.Bottom-yr.Translate(reg.Y0),
			canvas.Left+xr.Translate(reg.X1), canvas.Bottom-yr.Translate(reg.Y1),
			parseColor(reg.Fill))
	}
}

func regionLabels(regions []engine.Region) *chart.AnnotationSeries {
	if len(regions) == 0 {
		return nil
	}
	a := &chart.AnnotationSeries{
		Style: chart.Style{
			FontColor:   drawing.ColorFromHex("808080"),
			FillColor:   drawing.ColorWhite.WithAlpha(204),
			StrokeColor: drawing.ColorTransparent,
		},
	}
	for _, reg := range regions {
		a.Annotations = append(a.Annotations, chart.Value2{
			XValue: (reg.X0 + reg.X1) / 2,
			YValue: (reg.Y0 + reg.Y1) / 2,
			Label:  reg.Label,
		})
	}
	return a
}

// ============================================================================
// HISTOGRAM — stacked bars
// ============================================================================

// Histogram draws a "stacked_bar" ChartConfig: one bar per bin, one stack
// segment per category series, heights in absolute counts.
func Histogram(cfg *engine.ChartConfig, format Format, w io.Writer, opts ...Option) error {
	if cfg == nil || len(cfg.Series) == 0 || len(cfg.Series[0].Data) == 0 {
		return ErrNoData
	}
	if cfg.ChartType != "stacked_bar" {
		return fmt.Errorf("%w: %q, want stacked_bar", ErrChartType, cfg.ChartType)
	}
	provider, err := format.provider()
	if err != nil {
		return err
	}
	o := applyOptions(opts)

	bars := stackedBars{series: cfg.Series, bins: len(cfg.Series[0].Data)}
	xr := cfg.XRange
	if xr == nil {
		xr = &engine.AxisRange{Min: engine.ScaleMin, Max: engine.ScaleMax}
	}
	bars.lo, bars.width = xr.Min, (xr.Max-xr.Min)/float64(bars.bins)

	top := bars.maxTotal()
	if top == 0 {
		return ErrNoData
	}
	step := math.Max(1, math.Ceil(top/10))
	yr := &engine.AxisRange{Min: 0, Max: step * math.Ceil(top/step), Step: step}

	xTicks := make([]chart.Tick, 0, bars.bins+1)
	for i := 0; i <= bars.bins; i++ {
		v := bars.lo + float64(i)*bars.width
		xTicks = append(xTicks, chart.Tick{Value: v, Label: engine.FormatNumber(engine.RoundTo2(v))})
	}

	legend := make([]chart.Series, 0, len(cfg.Series))
	for _, s := range cfg.Series {
		col := parseColor(s.Color)
		legend = append(legend, chart.ContinuousSeries{
			Name:  s.Name,
			Style: chart.Style{StrokeColor: col, FillColor: col, StrokeWidth: 4},
		})
	}

	ch := chart.Chart{
		Title:      cfg.Title,
		Width:      o.width,
		Height:     o.height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 160, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:  cfg.XAxis,
			Range: &chart.ContinuousRange{Min: xr.Min, Max: xr.Max},
			Ticks: xTicks,
		},
		YAxis: chart.YAxis{
			Name:  cfg.YAxis,
			Range: axisRange(yr),
			Ticks: axisTicks(yr),
		},
		Series: []chart.Series{bars},
	}
	if cfg.ShowGrid {
		ch.YAxis.GridMajorStyle = gridStyle()
		ch.YAxis.GridLines = gridLines(yr)
	}
	if cfg.ShowLegend {
		legendSrc := ch
		legendSrc.Series = legend
		ch.Elements = []chart.Renderable{chart.LegendLeft(&legendSrc)}
	}

	if err := ch.Render(provider, w); err != nil {
		return fmt.Errorf("render histogram: %w", err)
	}
	return nil
}

// stackedBars draws one column per bin, segments bottom-up in series order.
type stackedBars struct {
	series    []engine.ChartSeries
	bins      int
	lo, width float64
}

func (b stackedBars) maxTotal() float64 {
	var top float64
	for i := 0; i < b.bins; i++ {
		var total float64
		for _, s := range b.series {
			if i < len(s.Data) {
				total += s.Data[i].Value
			}
		}
		top = math.Max(top, total)
	}
	return top
}

func (stackedBars) GetName() string           { return "" }
func (stackedBars) GetStyle() chart.Style     { return chart.Style{} }
func (stackedBars) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }
func (stackedBars) Validate() error           { return nil }

func (b stackedBars) Render(r chart.Renderer, canvas chart.Box, xr, yr chart.Range, _ chart.Style) {
	for i := 0; i < b.bins; i++ {
		x0 := canvas.Left + xr.Translate(b.lo+float64(i)*b.width) + 1
		x1 := canvas.Left + xr.Translate(b.lo+float64(i+1)*b.width) - 1
		var base float64
		for _, s := range b.series {
			if i >= len(s.Data) || s.Data[i].Value <= 0 {
				continue
			}
			y0 := canvas.Bottom - yr.Translate(base)
			base += s.Data[i].Value
			y1 := canvas.Bottom - yr.Translate(base)
			fillRect(r, x0, y0, x1, y1, parseColor(s.Color))
		}
	}
}

// ============================================================================
// HELPERS
// ============================================================================

func axisRange(r *engine.AxisRange) *chart.ContinuousRange {
	if r == nil {
		return nil
	}
	return &chart.ContinuousRange{Min: r.Min, Max: r.Max}
}

func axisTicks(r *engine.AxisRange) []chart.Tick {
	if r == nil || r.Step <= 0 {
		return nil
	}
	var ticks []chart.Tick
	for v := r.Min; v <= r.Max+r.Step/2; v += r.Step {
		ticks = append(ticks, chart.Tick{Value: v, Label: engine.FormatNumber(engine.RoundTo2(v))})
	}
	return ticks
}

func gridLines(r *engine.AxisRange) []chart.GridLine {
	var lines []chart.GridLine
	for _, t := range axisTicks(r) {
		lines = append(lines, chart.GridLine{Value: t.Value})
	}
	return lines
}

func gridStyle() chart.Style {
	return chart.Style{StrokeColor: drawing.ColorFromHex("D3D3D3"), StrokeWidth: 1}
}

func fillRect(r chart.Renderer, x0, y0, x1, y1 int, col drawing.Color) {
	r.SetFillColor(col)
	r.SetStrokeWidth(0)
	r.SetStrokeColor(drawing.ColorTransparent)
	r.MoveTo(x0, y0)
	r.LineTo(x1, y0)
	r.LineTo(x1, y1)
	r.LineTo(x0, y1)
	r.Close()
	r.Fill()
}

// parseColor reads "#RRGGBB" or "#RRGGBBAA". Anything else is grey.
func parseColor(hex string) drawing.Color {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	switch len(hex) {
	case 6:
		return drawing.ColorFromHex(hex)
	case 8:
		a, err := strconv.ParseUint(hex[6:], 16, 8)
		if err != nil {
			break
		}
		return drawing.ColorFromHex(hex[:6]).WithAlpha(uint8(a))
	}
	return drawing.ColorFromHex("999999")
}
