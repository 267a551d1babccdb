package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeRaw, false},
		{"raw", ModeRaw, false},
		{" Points ", ModeRaw, false},
		{"aggregate", ModeAggregate, false},
		{"MEAN", ModeAggregate, false},
		{"avg", ModeAggregate, false},
		{"median", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultSelection(t *testing.T) {
	cat := testCatalog(t)
	sel := DefaultSelection(cat)

	assert.Equal(t, []string{"workshop", "I1", "I2", "I3", "I4"}, sel.Sources)
	assert.Len(t, sel.Categories, 6)
	assert.Len(t, sel.Principles, 27)
	assert.Equal(t, ModeRaw, sel.Mode)
}

func TestNormalizeSelection(t *testing.T) {
	cat := testCatalog(t)
	sel, err := NormalizeSelection(cat, Selection{
		Sources:    []string{"i2", "Workshop", "I2", " "},
		Categories: []string{"monitoring", "UMSETZUNG"},
		Principles: []string{"usability"},
		Mode:       "mean",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"workshop", "I2"}, sel.Sources)
	assert.Equal(t, []string{"Umsetzung", "Monitoring"}, sel.Categories)
	assert.Equal(t, []string{"Usability"}, sel.Principles)
	assert.Equal(t, ModeAggregate, sel.Mode)
}

func TestNormalizeSelectionKeepsEmptyLists(t *testing.T) {
	cat := testCatalog(t)
	sel, err := NormalizeSelection(cat, Selection{})
	require.NoError(t, err)
	assert.Empty(t, sel.Sources)
	assert.Empty(t, sel.Categories)
	assert.Empty(t, sel.Principles)
}

func TestNormalizeSelectionRejectsUnknown(t *testing.T) {
	cat := testCatalog(t)

	_, err := NormalizeSelection(cat, Selection{Sources: []string{"I9"}})
	assert.ErrorIs(t, err, ErrUnknownSource)
	assert.Contains(t, err.Error(), "I9")

	_, err = NormalizeSelection(cat, Selection{Categories: []string{"Nope"}})
	assert.ErrorIs(t, err, ErrUnknownCategory)

	_, err = NormalizeSelection(cat, Selection{Principles: []string{"Nope"}})
	assert.ErrorIs(t, err, ErrUnknownPrinciple)

	_, err = NormalizeSelection(cat, Selection{Mode: "bogus"})
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"workshop", "I1"}, SplitList(" workshop, I1 ,,"))
	assert.Nil(t, SplitList(""))
}

func TestApplyFilters(t *testing.T) {
	points := []Point{
		{Name: "a", Category: "X"},
		{Name: "b", Category: "Y"},
		{Name: "c", Category: "x"},
	}
	view := NewPointView(points)

	assert.Equal(t, 3, ApplyFilters(view, Filters{}).Len())

	onlyX := ApplyFilters(view, Filters{Dimensions: map[string][]string{DimCategory: {"X"}}})
	require.Equal(t, 2, onlyX.Len())
	assert.Equal(t, "a", onlyX.Dimension(0, DimName))
	assert.Equal(t, "c", onlyX.Dimension(1, DimName))

	none := ApplyFilters(view, Filters{Dimensions: map[string][]string{DimCategory: {}}})
	assert.Equal(t, 0, none.Len())
}
