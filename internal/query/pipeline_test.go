package query

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"g2-yoyodex/internal/model"
)

func item(id, modelName, colorway string, types ...string) model.CatalogItem {
	return model.CatalogItem{Identity: id, Model: modelName, Colorway: colorway, Types: types}
}

func dated(it model.CatalogItem, raw string, tm *time.Time) model.CatalogItem {
	it.ReleaseDate = &model.ReleaseDate{Raw: raw, Time: tm}
	return it
}

func at(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func identities(items []model.CatalogItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Identity
	}
	return out
}

func TestSearchIsAndOfTermsOrOfFields(t *testing.T) {
	data := []model.CatalogItem{
		item("1", "Brass Elite", "Emperor"),
		item("2", "Brass Elite", "Cove"),
	}
	st := NewState(12)
	st.SearchText = "brass emperor"

	res := Run(data, st, nil)
	assert.Equal(t, []string{"1"}, identities(res.Items))
	assert.Equal(t, 1, res.Total)
}

func TestSearchMatchesTypeAndDescription(t *testing.T) {
	desc := "Machined in Detroit"
	withDesc := item("2", "Other", "Blue")
	withDesc.Description = &desc
	data := []model.CatalogItem{item("1", "A", "X", "Bimetal"), withDesc}

	st := NewState(12)
	st.SearchText = "  BIMETAL "
	assert.Equal(t, []string{"1"}, identities(Run(data, st, nil).Items))

	st.SearchText = "detroit"
	assert.Equal(t, []string{"2"}, identities(Run(data, st, nil).Items))
}

func TestFacetNarrowing(t *testing.T) {
	data := []model.CatalogItem{
		item("1", "Loadout", "Emperor"),
		item("2", "Loadout", "Cove"),
		item("3", "Loadout", "Emperor"),
		item("4", "Shutter", "Black"),
		item("5", "Shutter", "Emperor"),
	}
	st := NewState(12)
	st.SelectedFacets = map[Facet]string{FacetModel: "Loadout"}

	res := Run(data, st, nil)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, map[string]int{"Emperor": 2, "Cove": 1}, res.FacetCounts[FacetColorway])

	sum := 0
	for _, n := range res.FacetCounts[FacetColorway] {
		sum += n
	}
	assert.Equal(t, res.Total, sum)

	// the selected facet keeps its siblings
	assert.Equal(t, map[string]int{"Loadout": 3, "Shutter": 2}, res.FacetCounts[FacetModel])
}

func TestFacetsCombine(t *testing.T) {
	data := []model.CatalogItem{
		item("1", "Loadout", "Emperor"),
		item("2", "Loadout", "Cove"),
		item("3", "Shutter", "Emperor"),
	}
	st := NewState(12)
	st.SelectedFacets = map[Facet]string{FacetModel: "loadout", FacetColorway: " EMPEROR "}

	res := Run(data, st, nil)
	assert.Equal(t, []string{"1"}, identities(res.Items))
	assert.Equal(t, map[string]int{"Loadout": 1, "Shutter": 1}, res.FacetCounts[FacetModel])
}

func TestTypeFacet(t *testing.T) {
	data := []model.CatalogItem{
		item("1", "A", "X", "Metal", "Collab"),
		item("2", "B", "Y", "Plastic"),
	}
	st := NewState(12)
	st.SelectedFacets = map[Facet]string{FacetType: "collab"}

	res := Run(data, st, nil)
	assert.Equal(t, []string{"1"}, identities(res.Items))
	assert.Equal(t, map[string]int{"Metal": 1, "Collab": 1, "Plastic": 1}, res.FacetCounts[FacetType])
}

func TestAnnotationViews(t *testing.T) {
	data := []model.CatalogItem{item("1", "A", "X"), item("2", "B", "Y"), item("3", "C", "Z")}
	ann := map[string]model.Annotation{
		"1": {ItemIdentity: "1", Wishlist: true},
		"2": {ItemIdentity: "2", Owned: true, Wishlist: true},
	}

	st := NewState(12)
	st.View = ViewWishlist
	assert.Equal(t, []string{"1", "2"}, identities(Run(data, st, ann).Items))

	st.View = ViewOwned
	assert.Equal(t, []string{"2"}, identities(Run(data, st, ann).Items))

	st.View = ViewOwned
	assert.Empty(t, Run(data, st, nil).Items)
}

func TestSortByDate(t *testing.T) {
	data := []model.CatalogItem{
		dated(item("old", "A", "X"), "March 3 2019", at(2019, 3, 3)),
		dated(item("unknown", "B", "Y"), "someday", nil),
		item("missing", "C", "Z"),
		dated(item("new", "D", "W"), "2023-01-05", at(2023, 1, 5)),
	}

	st := NewState(12)
	assert.Equal(t, []string{"new", "old", "unknown", "missing"}, identities(Run(data, st, nil).Items))

	st.SortDescending = false
	assert.Equal(t, []string{"unknown", "missing", "old", "new"}, identities(Run(data, st, nil).Items))
}

func TestSortByModelIsStableAndCaseInsensitive(t *testing.T) {
	data := []model.CatalogItem{
		item("1", "beta", "X"),
		item("2", "Alpha", "X"),
		item("3", "Beta", "Y"),
		item("4", "alpha", "Y"),
	}
	st := NewState(12)
	st.SortKey = SortModel
	st.SortDescending = false

	assert.Equal(t, []string{"2", "4", "1", "3"}, identities(Run(data, st, nil).Items))
}

func TestPagination(t *testing.T) {
	data := make([]model.CatalogItem, 30)
	for i := range data {
		data[i] = item(fmt.Sprintf("%02d", i), "M", fmt.Sprintf("c%02d", i))
	}
	st := NewState(12)
	st.Page = 3

	res := Run(data, st, nil)
	require.Len(t, res.Items, 6)
	assert.Equal(t, "24", res.Items[0].Identity)
	assert.Equal(t, "29", res.Items[5].Identity)
	assert.Equal(t, 3, res.Pages)
	assert.False(t, res.HasMore)

	st.Page = 0
	res = Run(data, st, nil)
	assert.Equal(t, 1, res.Page)
	assert.True(t, res.HasMore)

	st.Page = 9
	res = Run(data, st, nil)
	assert.Empty(t, res.Items)
	assert.Equal(t, 30, res.Total)
}

func TestRunDoesNotMutateInput(t *testing.T) {
	data := []model.CatalogItem{item("b", "B", "X"), item("a", "A", "X")}
	st := NewState(12)
	st.SortKey = SortModel
	st.SortDescending = false

	_ = Run(data, st, nil)
	assert.Equal(t, []string{"b", "a"}, identities(data))
}

func TestPaginationPartitionsResults(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 60).Draw(t, "n")
		size := rapid.IntRange(1, 20).Draw(t, "size")
		data := make([]model.CatalogItem, n)
		for i := range data {
			data[i] = item(fmt.Sprint(i), "M", fmt.Sprint(i))
		}

		st := NewState(size)
		first := Run(data, st, nil)
		seen := 0
		for p := 1; p <= first.Pages; p++ {
			st.Page = p
			res := Run(data, st, nil)
			for j, it := range res.Items {
				if it.Identity != fmt.Sprint(seen+j) {
					t.Fatalf("page %d item %d: got %s", p, j, it.Identity)
				}
			}
			seen += len(res.Items)
		}
		if seen != n {
			t.Fatalf("pages covered %d of %d items", seen, n)
		}
	})
}

func TestFacetCountsSumToSubtotal(t *testing.T) {
	models := []string{"Loadout", "Shutter", "Gnarly"}
	colors := []string{"Black", "Emperor", "Cove"}
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 40).Draw(t, "n")
		data := make([]model.CatalogItem, n)
		for i := range data {
			data[i] = item(fmt.Sprint(i),
				rapid.SampledFrom(models).Draw(t, "model"),
				rapid.SampledFrom(colors).Draw(t, "colorway"))
		}
		st := NewState(12)
		st.SelectedFacets = map[Facet]string{FacetModel: rapid.SampledFrom(models).Draw(t, "selected")}

		res := Run(data, st, nil)
		sum := 0
		for _, c := range res.FacetCounts[FacetColorway] {
			sum += c
		}
		if sum != res.Total {
			t.Fatalf("colorway counts sum to %d, subtotal is %d", sum, res.Total)
		}
	})
}

func TestOptionsAreSorted(t *testing.T) {
	res := Result{FacetCounts: map[Facet]map[string]int{FacetModel: {"beta": 1, "Alpha": 2}}}
	assert.Equal(t, []FacetOption{{"Alpha", 2}, {"beta", 1}}, res.Options(FacetModel))
}
