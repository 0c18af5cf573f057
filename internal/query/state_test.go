package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func apply(t *testing.T, s State, actions ...Action) State {
	t.Helper()
	for _, a := range actions {
		var err error
		s, err = s.Apply(a)
		require.NoError(t, err)
	}
	return s
}

func TestMutationsResetPage(t *testing.T) {
	base := NewState(12)
	base.Page = 4

	for _, a := range []Action{
		{Type: ActionSearch, Value: "brass"},
		{Type: ActionSelectFacet, Facet: FacetModel, Value: "Loadout"},
		{Type: ActionToggleView, Value: "owned"},
		{Type: ActionSort, Value: "model"},
		{Type: ActionPageSize, PageSize: 16},
		{Type: ActionClear},
	} {
		next := apply(t, base, a)
		assert.Equal(t, 1, next.Page, string(a.Type))
	}

	assert.Equal(t, 7, apply(t, base, Action{Type: ActionPage, Page: 7}).Page)
	assert.Equal(t, 5, apply(t, base, Action{Type: ActionLoadMore}).Page)
}

func TestPageSizeUnchangedKeepsPage(t *testing.T) {
	s := NewState(12)
	s.Page = 3
	assert.Equal(t, 3, apply(t, s, Action{Type: ActionPageSize, PageSize: 12}).Page)
}

func TestToggleViewsAreExclusive(t *testing.T) {
	s := apply(t, NewState(12),
		Action{Type: ActionToggleView, Value: "wishlist"},
		Action{Type: ActionSearch, Value: "brass"},
		Action{Type: ActionSelectFacet, Facet: FacetModel, Value: "Loadout"},
		Action{Type: ActionSelectFacet, Facet: FacetColorway, Value: "Cove"},
		Action{Type: ActionToggleView, Value: "owned"},
	)

	assert.Equal(t, ViewOwned, s.View)
	assert.Empty(t, s.SearchText)
	assert.Empty(t, s.SelectedFacets)

	s = apply(t, s, Action{Type: ActionToggleView, Value: "owned"})
	assert.Equal(t, ViewAll, s.View)
}

func TestClearingOneFacetKeepsTheOther(t *testing.T) {
	s := apply(t, NewState(12),
		Action{Type: ActionSelectFacet, Facet: FacetModel, Value: "Loadout"},
		Action{Type: ActionSelectFacet, Facet: FacetColorway, Value: "Cove"},
		Action{Type: ActionSelectFacet, Facet: FacetModel, Value: "All"},
	)

	assert.Equal(t, "", s.Selected(FacetModel))
	assert.Equal(t, "Cove", s.Selected(FacetColorway))
}

func TestSortToggle(t *testing.T) {
	s := NewState(12)
	assert.Equal(t, SortDate, s.SortKey)
	assert.True(t, s.SortDescending)

	s = apply(t, s, Action{Type: ActionSort, Value: "date"})
	assert.False(t, s.SortDescending, "same key flips direction")

	s = apply(t, s, Action{Type: ActionSort, Value: "model"})
	assert.Equal(t, SortModel, s.SortKey)
	assert.False(t, s.SortDescending)

	desc := true
	s = apply(t, s, Action{Type: ActionSort, Value: "model", Descending: &desc})
	assert.True(t, s.SortDescending)
}

func TestClearRestoresInitialState(t *testing.T) {
	s := apply(t, NewState(8),
		Action{Type: ActionSearch, Value: "x"},
		Action{Type: ActionSelectFacet, Facet: FacetType, Value: "Metal"},
		Action{Type: ActionSort, Value: "model"},
		Action{Type: ActionClear},
	)
	assert.Equal(t, NewState(8), s)
}

func TestApplyDoesNotAliasFacets(t *testing.T) {
	s := apply(t, NewState(12), Action{Type: ActionSelectFacet, Facet: FacetModel, Value: "A"})
	next := apply(t, s, Action{Type: ActionSelectFacet, Facet: FacetModel, Value: "B"})

	assert.Equal(t, "A", s.Selected(FacetModel))
	assert.Equal(t, "B", next.Selected(FacetModel))
}

func TestInvalidActions(t *testing.T) {
	s := NewState(12)

	_, err := s.Apply(Action{Type: "dance"})
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = s.Apply(Action{Type: ActionSelectFacet, Facet: "price", Value: "1"})
	assert.ErrorIs(t, err, ErrInvalidAction)

	_, err = s.Apply(Action{Type: ActionToggleView, Value: "favourites"})
	assert.ErrorIs(t, err, ErrInvalidAction)

	_, err = s.Apply(Action{Type: ActionSort, Value: "price"})
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestPageSizeForWidth(t *testing.T) {
	tests := []struct {
		px   int
		want int
	}{
		{0, DefaultPageSize},
		{375, 4},
		{700, 8},
		{1024, 12},
		{1920, 16},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PageSizeForWidth(tt.px), "width %d", tt.px)
	}
}

func TestApplyNeverLeavesInvalidState(t *testing.T) {
	types := []ActionType{
		ActionSearch, ActionSelectFacet, ActionToggleView, ActionSort,
		ActionPage, ActionLoadMore, ActionPageSize, ActionClear,
	}
	rapid.Check(t, func(t *rapid.T) {
		st := NewState(rapid.IntRange(-2, 30).Draw(t, "size"))
		steps := rapid.IntRange(1, 25).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			a := Action{
				Type:     rapid.SampledFrom(types).Draw(t, "type"),
				Facet:    rapid.SampledFrom(Facets).Draw(t, "facet"),
				Value:    rapid.SampledFrom([]string{"", "all", "owned", "wishlist", "date", "model", "Loadout"}).Draw(t, "value"),
				Page:     rapid.IntRange(-3, 10).Draw(t, "page"),
				PageSize: rapid.IntRange(-3, 40).Draw(t, "pageSize"),
			}
			before := st
			next, err := st.Apply(a)
			if err != nil {
				continue
			}
			if next.Page < 1 || next.PageSize < 1 {
				t.Fatalf("invalid state %+v after %+v", next, a)
			}
			if next.SortKey != SortDate && next.SortKey != SortModel {
				t.Fatalf("sort key %q after %+v", next.SortKey, a)
			}
			resets := a.Type != ActionPage && a.Type != ActionLoadMore &&
				!(a.Type == ActionPageSize && next.PageSize == before.PageSize)
			if resets && next.Page != 1 {
				t.Fatalf("%s left page at %d", a.Type, next.Page)
			}
			st = next
		}
	})
}
