package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// CATEGORY STATISTICS
// ============================================================================

func TestCategoryStatistics(t *testing.T) {
	points := []Point{
		{Name: "a", Category: "X", Relevance: 2, Urgency: 4},
		{Name: "b", Category: "Y", Relevance: 7, Urgency: 7},
		{Name: "c", Category: "X", Relevance: 4, Urgency: 8},
		{Name: "d", Category: "X", Relevance: 6, Urgency: 6},
	}

	stats := CategoryStatistics(points)
	require.Len(t, stats, 2)

	x := stats[0]
	assert.Equal(t, "X", x.Category)
	assert.Equal(t, 3, x.Count)
	assert.InDelta(t, 4.0, x.RelevanceMean, 1e-9)
	assert.InDelta(t, 2.0, x.RelevanceStd, 1e-9)
	assert.InDelta(t, 6.0, x.UrgencyMean, 1e-9)
	assert.InDelta(t, 2.0, x.UrgencyStd, 1e-9)

	y := stats[1]
	assert.Equal(t, "Y", y.Category)
	assert.Equal(t, 1, y.Count)
	assert.Zero(t, y.RelevanceStd)
	assert.Zero(t, y.UrgencyStd)
}

func TestCategoryStatisticsEmpty(t *testing.T) {
	assert.Nil(t, CategoryStatistics(nil))
}

// ============================================================================
// CONSISTENCY
// ============================================================================

func TestConsistency(t *testing.T) {
	raw := []Point{
		{Name: "steady", Category: "X", Relevance: 5, Urgency: 5, Sources: []string{"A"}, Count: 1},
		{Name: "spread", Category: "Y", Relevance: 1, Urgency: 9, Sources: []string{"A"}, Count: 1},
		{Name: "steady", Category: "X", Relevance: 5, Urgency: 5, Sources: []string{"B"}, Count: 1},
		{Name: "alone", Category: "X", Relevance: 3, Urgency: 3, Sources: []string{"A"}, Count: 1},
		{Name: "spread", Category: "Y", Relevance: 9, Urgency: 1, Sources: []string{"B"}, Count: 1},
	}

	scores := Consistency(raw)
	require.Len(t, scores, 2)

	assert.Equal(t, "steady", scores[0].Name)
	assert.Equal(t, 2, scores[0].Sources)
	assert.Zero(t, scores[0].Score)

	assert.Equal(t, "spread", scores[1].Name)
	assert.Equal(t, "Y", scores[1].Category)
	want := math.Sqrt(32)
	assert.InDelta(t, want, scores[1].RelevanceStd, 1e-9)
	assert.InDelta(t, want, scores[1].UrgencyStd, 1e-9)
	assert.InDelta(t, want, scores[1].Score, 1e-9)
}

func TestConsistencyExcludesSingleSource(t *testing.T) {
	raw := []Point{
		{Name: "dup", Category: "X", Relevance: 1, Urgency: 1, Sources: []string{"A"}, Count: 1},
		{Name: "dup", Category: "X", Relevance: 9, Urgency: 9, Sources: []string{"A"}, Count: 1},
	}
	assert.Empty(t, Consistency(raw))
}

func TestConsistencyOnCatalog(t *testing.T) {
	cat := testCatalog(t)
	scores := Consistency(TransformCatalog(cat, DefaultSelection(cat)))

	assert.Len(t, scores, 25)
	for i := 1; i < len(scores); i++ {
		assert.LessOrEqual(t, scores[i-1].Score, scores[i].Score)
	}
	for _, s := range scores {
		assert.NotEqual(t, "Regionale Zusammenhänge", s.Name)
		assert.NotEqual(t, "Zeitkomponente", s.Name)
		assert.GreaterOrEqual(t, s.Sources, 2)
	}
}

func TestSplitSourceLabel(t *testing.T) {
	p := Point{Sources: []string{"Workshop", "Interview 1"}}
	assert.Equal(t, "Workshop; Interview 1", p.SourceLabel())
	assert.Equal(t, p.Sources, SplitSourceLabel(p.SourceLabel()))
	assert.Nil(t, SplitSourceLabel("  "))
}
