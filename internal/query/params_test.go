package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromParamsEmpty(t *testing.T) {
	st, err := FromParams(Params{}, 12)
	require.NoError(t, err)
	assert.Equal(t, NewState(12), st)
}

func TestFromParams(t *testing.T) {
	st, err := FromParams(Params{
		Search:   "brass",
		Facets:   map[Facet]string{FacetModel: "Loadout", FacetType: "Metal"},
		View:     "owned",
		Sort:     "model",
		Page:     3,
		PageSize: 8,
	}, 12)
	require.NoError(t, err)

	assert.Equal(t, "brass", st.SearchText)
	assert.Equal(t, "Loadout", st.Selected(FacetModel))
	assert.Equal(t, "Metal", st.Selected(FacetType))
	assert.Equal(t, ViewOwned, st.View)
	assert.Equal(t, SortModel, st.SortKey)
	assert.False(t, st.SortDescending)
	assert.Equal(t, 3, st.Page)
	assert.Equal(t, 8, st.PageSize)
}

func TestFromParamsSortDirection(t *testing.T) {
	st, err := FromParams(Params{Sort: "date"}, 12)
	require.NoError(t, err)
	assert.True(t, st.SortDescending, "date keeps newest first instead of toggling")

	asc := false
	st, err = FromParams(Params{Descending: &asc}, 12)
	require.NoError(t, err)
	assert.Equal(t, SortDate, st.SortKey)
	assert.False(t, st.SortDescending)
}

func TestFromParamsRejectsUnknownValues(t *testing.T) {
	_, err := FromParams(Params{View: "stolen"}, 12)
	assert.ErrorIs(t, err, ErrInvalidAction)

	_, err = FromParams(Params{Sort: "price"}, 12)
	assert.ErrorIs(t, err, ErrInvalidAction)
}
