package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"

	"github.com/spektr-org/priomatrix/dataset"
)

// ── Helpers ─────────────────────────────────────────────────────────────────

func ptr(v float64) *float64 { return &v }

func testCatalog(t *testing.T) *dataset.Catalog {
	t.Helper()
	return dataset.Default()
}

func selectionFor(cat *dataset.Catalog, mode Mode, sources ...string) Selection {
	return Selection{
		Sources:    sources,
		Categories: cat.CategoryNames(),
		Principles: cat.PrincipleNames(),
		Mode:       mode,
	}
}

// subset picks the elements of items whose bit is set in mask.
func subset(items []string, mask int) []string {
	var out []string
	for i, it := range items {
		if mask&(1<<i) != 0 {
			out = append(out, it)
		}
	}
	return out
}

func pointsNamed(points []Point, name string) []Point {
	var out []Point
	for _, p := range points {
		if p.Name == name {
			out = append(out, p)
		}
	}
	return out
}

// ============================================================================
// 1. WORKED EXAMPLES
// ============================================================================

func TestTransformUsabilityAggregate(t *testing.T) {
	cat := testCatalog(t)
	sel := selectionFor(cat, ModeAggregate, "workshop", "I1", "I2", "I4")
	sel.Principles = []string{"Usability"}

	points := TransformCatalog(cat, sel)
	require.Len(t, points, 1)

	p := points[0]
	assert.Equal(t, "Usability", p.Name)
	assert.Equal(t, "User Interface", p.Category)
	assert.InDelta(t, 9.0, p.Relevance, 1e-9)
	assert.InDelta(t, 8.5, p.Urgency, 1e-9)
	assert.Equal(t, 4, p.Count)
	assert.Equal(t, []string{"Workshop", "Interview 1", "Interview 2", "Interview 4"}, p.Sources)
}

func TestTransformUsabilityRaw(t *testing.T) {
	cat := testCatalog(t)
	sel := selectionFor(cat, ModeRaw, "workshop", "I1", "I2", "I4")
	sel.Principles = []string{"Usability"}

	points := TransformCatalog(cat, sel)
	want := []Point{
		{Name: "Usability", Category: "User Interface", Relevance: 9, Urgency: 9, Sources: []string{"Workshop"}, Count: 1},
		{Name: "Usability", Category: "User Interface", Relevance: 9, Urgency: 8, Sources: []string{"Interview 1"}, Count: 1},
		{Name: "Usability", Category: "User Interface", Relevance: 9, Urgency: 8, Sources: []string{"Interview 2"}, Count: 1},
		{Name: "Usability", Category: "User Interface", Relevance: 9, Urgency: 9, Sources: []string{"Interview 4"}, Count: 1},
	}
	if diff := cmp.Diff(want, points); diff != "" {
		t.Errorf("raw points mismatch (-want +got):\n%s", diff)
	}
}

func TestTransformRecordWithoutSelectedSources(t *testing.T) {
	cat := testCatalog(t)
	for _, mode := range []Mode{ModeRaw, ModeAggregate} {
		sel := selectionFor(cat, mode, "I1", "I2", "I3")
		sel.Principles = []string{"Regionale Zusammenhänge"}
		assert.Empty(t, TransformCatalog(cat, sel), "mode %s", mode)
	}
}

func TestTransformExcludingMonitoring(t *testing.T) {
	cat := testCatalog(t)
	sel := DefaultSelection(cat)
	sel.Categories = []string{}
	for _, c := range cat.CategoryNames() {
		if c != "Monitoring" {
			sel.Categories = append(sel.Categories, c)
		}
	}

	for _, mode := range []Mode{ModeRaw, ModeAggregate} {
		sel.Mode = mode
		points := TransformCatalog(cat, sel)
		require.NotEmpty(t, points)
		for _, name := range []string{"Dokumentation", "Monitoring", "Reporting"} {
			assert.Empty(t, pointsNamed(points, name), "%s in mode %s", name, mode)
		}
	}
}

func TestTransformDefaultSelectionCounts(t *testing.T) {
	cat := testCatalog(t)
	sel := DefaultSelection(cat)

	assert.Len(t, TransformCatalog(cat, sel), 122)

	sel.Mode = ModeAggregate
	assert.Len(t, TransformCatalog(cat, sel), 27)
}

func TestTransformEmptyListsSelectNothing(t *testing.T) {
	cat := testCatalog(t)
	base := DefaultSelection(cat)

	noSources := base
	noSources.Sources = nil
	assert.Empty(t, TransformCatalog(cat, noSources))

	noCategories := base
	noCategories.Categories = []string{}
	assert.Empty(t, TransformCatalog(cat, noCategories))

	noPrinciples := base
	noPrinciples.Principles = nil
	assert.Empty(t, TransformCatalog(cat, noPrinciples))
}

func TestTransformFoldsIdentifiers(t *testing.T) {
	cat := testCatalog(t)
	sel := Selection{
		Sources:    []string{"WORKSHOP"},
		Categories: []string{"fallbasiert"},
		Principles: []string{norm.NFD.String("regionale zusammenhänge")},
		Mode:       ModeRaw,
	}
	points := TransformCatalog(cat, sel)
	require.Len(t, points, 1)
	assert.Equal(t, "Regionale Zusammenhänge", points[0].Name)
	assert.Equal(t, []string{"Workshop"}, points[0].Sources)
}

func TestTransformSkipsHalfPresentRatings(t *testing.T) {
	records := []dataset.Principle{{
		Name:     "Partial",
		Category: "C",
		Ratings: map[string]dataset.Rating{
			"a": {Relevance: ptr(4), Urgency: ptr(6)},
			"b": {Relevance: ptr(8)},
			"c": {Urgency: ptr(2)},
		},
	}}
	sel := Selection{Sources: []string{"a", "b", "c"}, Categories: []string{"C"}, Principles: []string{"Partial"}}

	raw := Transform(records, sel, nil)
	require.Len(t, raw, 1)
	assert.Equal(t, []string{"a"}, raw[0].Sources)

	sel.Mode = ModeAggregate
	agg := Transform(records, sel, nil)
	require.Len(t, agg, 1)
	assert.Equal(t, 1, agg[0].Count)
	assert.InDelta(t, 4.0, agg[0].Relevance, 1e-9)
}

func TestTransformKeepsRecordOrder(t *testing.T) {
	cat := testCatalog(t)
	sel := DefaultSelection(cat)
	sel.Mode = ModeAggregate

	points := TransformCatalog(cat, sel)
	names := make([]string, len(points))
	for i, p := range points {
		names[i] = p.Name
	}
	assert.Equal(t, cat.PrincipleNames(), names)
}

// ============================================================================
// 2. PROPERTIES
// ============================================================================

func TestTransformProperties(t *testing.T) {
	cat := testCatalog(t)
	records := cat.Principles()
	sourceIDs := cat.SourceIDs()
	categories := cat.CategoryNames()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("raw point count equals present selected pairs", prop.ForAll(
		func(srcMask, catMask int) bool {
			sel := Selection{
				Sources:    subset(sourceIDs, srcMask),
				Categories: subset(categories, catMask),
				Principles: cat.PrincipleNames(),
				Mode:       ModeRaw,
			}
			points := Transform(records, sel, cat.DisplayName)
			for _, rec := range records {
				if !contains(sel.Categories, rec.Category) {
					if len(pointsNamed(points, rec.Name)) != 0 {
						return false
					}
					continue
				}
				want := 0
				for _, s := range sel.Sources {
					if _, _, ok := rec.Rating(s); ok {
						want++
					}
				}
				if len(pointsNamed(points, rec.Name)) != want {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 1<<len(sourceIDs)-1),
		gen.IntRange(0, 1<<len(categories)-1),
	))

	properties.Property("aggregate mean stays within contributing min and max", prop.ForAll(
		func(srcMask int) bool {
			sel := selectionFor(cat, ModeAggregate, subset(sourceIDs, srcMask)...)
			for _, p := range Transform(records, sel, cat.DisplayName) {
				var rels []float64
				for _, s := range sel.Sources {
					for _, rec := range records {
						if rec.Name != p.Name {
							continue
						}
						if rel, _, ok := rec.Rating(s); ok {
							rels = append(rels, rel)
						}
					}
				}
				if len(rels) != p.Count || len(rels) == 0 {
					return false
				}
				lo, hi, sum := rels[0], rels[0], 0.0
				for _, r := range rels {
					lo, hi, sum = min(lo, r), max(hi, r), sum+r
				}
				mean := sum / float64(len(rels))
				if p.Relevance < lo-1e-9 || p.Relevance > hi+1e-9 || abs(p.Relevance-mean) > 1e-9 {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 1<<len(sourceIDs)-1),
	))

	properties.Property("transform is idempotent", prop.ForAll(
		func(srcMask, catMask int, aggregate bool) bool {
			mode := ModeRaw
			if aggregate {
				mode = ModeAggregate
			}
			sel := Selection{
				Sources:    subset(sourceIDs, srcMask),
				Categories: subset(categories, catMask),
				Principles: cat.PrincipleNames(),
				Mode:       mode,
			}
			return cmp.Equal(Transform(records, sel, cat.DisplayName), Transform(records, sel, cat.DisplayName))
		},
		gen.IntRange(0, 1<<len(sourceIDs)-1),
		gen.IntRange(0, 1<<len(categories)-1),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func contains(items []string, s string) bool {
	for _, it := range items {
		if it == s {
			return true
		}
	}
	return false
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
