package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	require.NotNil(t, c)

	assert.Equal(t, 27, c.Len())
	assert.Equal(t, []string{"workshop", "I1", "I2", "I3", "I4", "I5", "I6"}, c.SourceIDs())
	assert.Equal(t, []string{"workshop", "I1", "I2", "I3", "I4"}, c.DefaultSources())
	assert.Equal(t, []string{
		"Umsetzung", "User Interface", "Interaktion", "Monitoring",
		"Systembeschreibung/Systemarchitektur", "Fallbasiert",
	}, c.CategoryNames())

	assert.Equal(t, "Interview 3", c.DisplayName("I3"))
	assert.Equal(t, "I9", c.DisplayName("I9"))
	assert.Equal(t, "#96CEB4", c.ColorFor("Monitoring"))
	assert.Equal(t, FallbackColor, c.ColorFor("Unbekannt"))
}

func TestDefaultCatalogIsStable(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestPrincipleRatings(t *testing.T) {
	byName := map[string]Principle{}
	for _, p := range Default().Principles() {
		byName[p.Name] = p
	}

	usability, ok := byName["Usability"]
	require.True(t, ok)
	assert.Equal(t, "User Interface", usability.Category)

	rel, urg, ok := usability.Rating("I1")
	require.True(t, ok)
	assert.Equal(t, 9.0, rel)
	assert.Equal(t, 8.0, urg)

	_, _, ok = usability.Rating("I5")
	assert.False(t, ok, "I5 did not rate Usability")

	style := byName["Explanation Style"]
	_, urg, ok = style.Rating("workshop")
	require.True(t, ok)
	assert.Equal(t, 7.5, urg)

	regional := byName["Regionale Zusammenhänge"]
	assert.Len(t, regional.Ratings, 1)
}

func TestPrinciplesReturnsCopies(t *testing.T) {
	c := Default()
	ps := c.Principles()
	ps[0].Name = "mutated"
	delete(ps[0].Ratings, "workshop")

	fresh := c.Principles()
	assert.Equal(t, "Arbeitsablaufintegration", fresh[0].Name)
	_, _, ok := fresh[0].Rating("workshop")
	assert.True(t, ok)
}

func TestEmbeddedRatingsWithinScale(t *testing.T) {
	for _, p := range Default().Principles() {
		for src, r := range p.Ratings {
			rel, urg, ok := r.Pair()
			if !ok {
				continue
			}
			assert.True(t, rel >= 0 && rel <= 10, "%s/%s relevance %v", p.Name, src, rel)
			assert.True(t, urg >= 0 && urg <= 10, "%s/%s urgency %v", p.Name, src, urg)
		}
	}
}

const validDoc = `
sources:
  - {id: workshop, label: Workshop, default: true}
  - {id: I1, label: Interview 1}
categories:
  - {name: A, color: "#112233"}
principles:
  - name: One
    category: A
    ratings:
      workshop: {relevance: 4, urgency: 6}
      I1: {relevance: 5}
`

func TestParseValidDocument(t *testing.T) {
	c, err := Parse([]byte(validDoc))
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	p := c.Principles()[0]
	_, _, ok := p.Rating("I1")
	assert.False(t, ok, "half-present rating is not a pair")
	rel, urg, ok := p.Rating("workshop")
	require.True(t, ok)
	assert.Equal(t, 4.0, rel)
	assert.Equal(t, 6.0, urg)
}

func TestParseRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "principles: [::"},
		{"empty", ""},
		{"out of range", strings.Replace(validDoc, "relevance: 4", "relevance: 11", 1)},
		{"negative", strings.Replace(validDoc, "urgency: 6", "urgency: -1", 1)},
		{"bad colour", strings.Replace(validDoc, "#112233", "red", 1)},
		{"unknown field", strings.Replace(validDoc, "category: A", "category: A\n    weight: 3", 1)},
		{"unknown category", strings.Replace(validDoc, "category: A", "category: B", 1)},
		{"unknown source", strings.Replace(validDoc, "I1: {relevance: 5}", "I7: {relevance: 5}", 1)},
		{"duplicate principle", validDoc + "  - {name: One, category: A, ratings: {}}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidDataset)
		})
	}
}

func TestLoadEmbeddedYAML(t *testing.T) {
	c, err := Load(strings.NewReader(string(EmbeddedYAML())))
	require.NoError(t, err)
	assert.Equal(t, Default().PrincipleNames(), c.PrincipleNames())
}

func TestNewRejectsOutOfScale(t *testing.T) {
	v := 10.5
	_, err := New(
		[]SourceMeta{{ID: "workshop"}},
		[]CategoryMeta{{Name: "A"}},
		[]Principle{{Name: "X", Category: "A", Ratings: map[string]Rating{"workshop": {Relevance: &v, Urgency: &v}}}},
	)
	assert.ErrorIs(t, err, ErrInvalidDataset)
}
