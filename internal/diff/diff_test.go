package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"g2-yoyodex/internal/model"
)

func TestDiffWhitespaceIsNotAChange(t *testing.T) {
	prev := []model.Record{{"model": "A", "colorway": "X", "width": "10"}}
	next := []model.Record{{"model": "A", "colorway": "X", "width": "10 "}}

	res := Diff(prev, next)
	assert.False(t, res.Changed())
	assert.Empty(t, res.Modified)
}

func TestDiffReportsOneAddition(t *testing.T) {
	prev := []model.Record{{"model": "A", "colorway": "X"}}
	next := []model.Record{{"model": "A", "colorway": "X"}, {"model": "B", "colorway": "Y"}}

	res := Diff(prev, next)
	require.Len(t, res.Added, 1)
	assert.Equal(t, "b|y", res.Added[0].Key)
	assert.Empty(t, res.Removed)
	assert.Empty(t, res.Modified)
}

func TestDiffRemovedAndModified(t *testing.T) {
	prev := []model.Record{
		{"model": "A", "colorway": "X", "quantity": "100"},
		{"model": "B", "colorway": "Y"},
	}
	next := []model.Record{
		{"model": "A", "colorway": " X ", "quantity": float64(117)},
	}

	res := Diff(prev, next)
	require.Len(t, res.Removed, 1)
	assert.Equal(t, "b|y", res.Removed[0].Key)
	require.Len(t, res.Modified, 1)
	assert.Equal(t, []string{"quantity"}, res.Modified[0].Fields)
	assert.Contains(t, res.Summary(), "0 added, 1 removed, 1 modified")
}

func TestDiffCaseChangeIsAModification(t *testing.T) {
	prev := []model.Record{{"model": "Loadout", "colorway": "Emperor"}}
	next := []model.Record{{"model": "loadout", "colorway": "Emperor"}}

	res := Diff(prev, next)
	assert.Empty(t, res.Added)
	assert.Empty(t, res.Removed)
	require.Len(t, res.Modified, 1)
	assert.Equal(t, []string{"model"}, res.Modified[0].Fields)
}

func TestDiffBlankLikeValuesAreEqual(t *testing.T) {
	blanks := []any{nil, "", "  ", "null", "undefined", []any{}, []any{""}}
	for _, a := range blanks {
		for _, b := range blanks {
			ra := model.Record{"model": "A", "colorway": "X", "notes": a}
			rb := model.Record{"model": "A", "colorway": "X", "notes": b}
			assert.True(t, Equal(ra, rb), "%#v vs %#v", a, b)
		}
		missing := model.Record{"model": "A", "colorway": "X"}
		assert.True(t, Equal(missing, model.Record{"model": "A", "colorway": "X", "notes": a}))
	}
}

func TestDiffNumericVsString(t *testing.T) {
	a := model.Record{"model": "A", "colorway": "X", "quantity": "117"}
	b := model.Record{"model": "A", "colorway": "X", "quantity": float64(117)}
	assert.True(t, Equal(a, b))
}

func TestDiffDuplicatesSeparatedByImage(t *testing.T) {
	prev := []model.Record{
		{"model": "A", "colorway": "X", "image_url": "1.jpg"},
		{"model": "A", "colorway": "X", "image_url": "2.jpg"},
	}
	next := []model.Record{
		{"model": "A", "colorway": "X", "image_url": "1.jpg"},
		{"model": "A", "colorway": "X", "image_url": "2.jpg", "quantity": "5"},
	}

	res := Diff(prev, next)
	require.Len(t, res.Modified, 1)
	assert.Equal(t, "a|x|2.jpg", res.Modified[0].Key)
}

func TestDiffReorderedDuplicatesAreUnchanged(t *testing.T) {
	a := model.Record{"model": "A", "colorway": "X", "image_url": "1.jpg", "quantity": "10"}
	b := model.Record{"model": "A", "colorway": "X", "image_url": "2.jpg", "quantity": "20"}

	res := Diff([]model.Record{a, b}, []model.Record{b, a})
	assert.False(t, res.Changed(), res.Summary())
}

func TestDiffIdenticalDuplicatesUseCounter(t *testing.T) {
	r := model.Record{"model": "A", "colorway": "X", "image_url": "1.jpg"}

	res := Diff([]model.Record{r}, []model.Record{r, r})
	require.Len(t, res.Added, 1)
	assert.Equal(t, "a|x|1.jpg#2", res.Added[0].Key)
	assert.Empty(t, res.Removed)
	assert.Empty(t, res.Modified)
}

func TestDiffArrayOrderMatters(t *testing.T) {
	a := model.Record{"model": "A", "colorway": "X", "type": []any{"Metal", "Collab"}}
	b := model.Record{"model": "A", "colorway": "X", "type": []any{"Collab", "Metal"}}
	assert.False(t, Equal(a, b))
}

func TestSummaryNoChanges(t *testing.T) {
	assert.Equal(t, "no changes", Result{}.Summary())
}
