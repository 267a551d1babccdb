package engine

import "github.com/spektr-org/priomatrix/dataset"

// ============================================================================
// RECORD VIEW — Zero-Copy Data Access Interface
// ============================================================================
// Filters, grouping and statistics read rows through this interface.
//
// Implementations:
//   DomainView[T]  — reads typed structs via accessor functions (zero-copy)
//   SubView        — filtered subset (indices into parent, zero-copy)
//
// Two adapters are registered once at init: principles (for filtering the
// catalog) and points (for grouping the transformed view).
// ============================================================================

// RecordView provides indexed access to a dataset.
type RecordView interface {
	Len() int
	Dimension(index int, key string) string
	Measure(index int, key string) float64
	DimensionKeys() []string // available dimension keys
	MeasureKeys() []string   // available measure keys
}

// Dimension and measure keys exposed by the built-in adapters.
const (
	DimName     = "name"
	DimCategory = "category"
	DimSource   = "source"
	DimQuadrant = "quadrant"

	MeasureRelevance = "relevance"
	MeasureUrgency   = "urgency"
	MeasureScore     = "priority_score"
)

var principleAdapter = NewDomainAdapter[dataset.Principle]().
	Dimension(DimName, func(p dataset.Principle) string { return p.Name }).
	Dimension(DimCategory, func(p dataset.Principle) string { return p.Category })

var pointAdapter = NewDomainAdapter[Point]().
	Dimension(DimName, func(p Point) string { return p.Name }).
	Dimension(DimCategory, func(p Point) string { return p.Category }).
	Dimension(DimSource, func(p Point) string { return p.SourceLabel() }).
	Dimension(DimQuadrant, func(p Point) string { return string(QuadrantOf(p)) }).
	Measure(MeasureRelevance, func(p Point) float64 { return p.Relevance }).
	Measure(MeasureUrgency, func(p Point) float64 { return p.Urgency }).
	Measure(MeasureScore, func(p Point) float64 { return p.Score() })

// NewPrincipleView exposes principle records by name and category.
func NewPrincipleView(records []dataset.Principle) RecordView {
	return principleAdapter.Bind(records)
}

// NewPointView exposes transformed points to the grouping machinery.
func NewPointView(points []Point) RecordView {
	return pointAdapter.Bind(points)
}

// ============================================================================
// SUB VIEW — filtered subset (zero-copy)
// ============================================================================

// SubView is a filtered subset of a parent RecordView.
// Holds indices into the parent — no data copy.
type SubView struct {
	parent  RecordView
	indices []int
}

func newSubView(parent RecordView, indices []int) RecordView {
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) Dimension(i int, key string) string {
	if i < 0 || i >= len(v.indices) {
		return ""
	}
	return v.parent.Dimension(v.indices[i], key)
}

func (v *SubView) Measure(i int, key string) float64 {
	if i < 0 || i >= len(v.indices) {
		return 0
	}
	return v.parent.Measure(v.indices[i], key)
}

func (v *SubView) DimensionKeys() []string { return v.parent.DimensionKeys() }
func (v *SubView) MeasureKeys() []string   { return v.parent.MeasureKeys() }

// ============================================================================
// DOMAIN ADAPTER — Zero-copy typed struct access
// ============================================================================
//
// Usage:
//
//	adapter := engine.NewDomainAdapter[Point]().
//	    Dimension("category", func(p Point) string { return p.Category }).
//	    Measure("relevance", func(p Point) float64 { return p.Relevance })
//
//	view := adapter.Bind(points)
//
// ============================================================================

// DomainAdapter builds a RecordView from typed structs.
// Declare once, bind many times.
type DomainAdapter[T any] struct {
	dimOrder []string
	mesOrder []string
	dims     map[string]func(T) string
	meas     map[string]func(T) float64
}

// NewDomainAdapter creates a new adapter for type T.
func NewDomainAdapter[T any]() *DomainAdapter[T] {
	return &DomainAdapter[T]{
		dims: make(map[string]func(T) string),
		meas: make(map[string]func(T) float64),
	}
}

// Dimension registers a dimension accessor.
func (a *DomainAdapter[T]) Dimension(key string, fn func(T) string) *DomainAdapter[T] {
	if _, exists := a.dims[key]; !exists {
		a.dimOrder = append(a.dimOrder, key)
	}
	a.dims[key] = fn
	return a
}

// Measure registers a measure accessor.
func (a *DomainAdapter[T]) Measure(key string, fn func(T) float64) *DomainAdapter[T] {
	if _, exists := a.meas[key]; !exists {
		a.mesOrder = append(a.mesOrder, key)
	}
	a.meas[key] = fn
	return a
}

// Bind creates a RecordView from a data slice. Zero-copy — holds reference.
func (a *DomainAdapter[T]) Bind(data []T) RecordView {
	return &DomainView[T]{
		data:     data,
		dims:     a.dims,
		meas:     a.meas,
		dimKeys:  a.dimOrder,
		measKeys: a.mesOrder,
	}
}

// DomainView reads typed struct fields via registered accessor functions.
type DomainView[T any] struct {
	data     []T
	dims     map[string]func(T) string
	meas     map[string]func(T) float64
	dimKeys  []string
	measKeys []string
}

func (v *DomainView[T]) Len() int { return len(v.data) }

func (v *DomainView[T]) Dimension(i int, key string) string {
	if i < 0 || i >= len(v.data) {
		return ""
	}
	if fn, ok := v.dims[key]; ok {
		return fn(v.data[i])
	}
	return ""
}

func (v *DomainView[T]) Measure(i int, key string) float64 {
	if i < 0 || i >= len(v.data) {
		return 0
	}
	if fn, ok := v.meas[key]; ok {
		return fn(v.data[i])
	}
	return 0
}

func (v *DomainView[T]) DimensionKeys() []string { return v.dimKeys }
func (v *DomainView[T]) MeasureKeys() []string   { return v.measKeys }
