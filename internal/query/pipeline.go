// Package query filters, searches, sorts and paginates the catalog.
package query

import (
	"sort"
	"strings"

	"g2-yoyodex/internal/model"
)

// FacetOption is one value of a facet with the number of matching items.
type FacetOption struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Result is the output of one pipeline run.
type Result struct {
	Items       []model.CatalogItem     `json:"items"`
	Total       int                     `json:"total"`
	Page        int                     `json:"page"`
	PageSize    int                     `json:"page_size"`
	Pages       int                     `json:"pages"`
	HasMore     bool                    `json:"has_more"`
	FacetCounts map[Facet]map[string]int `json:"facet_counts"`
}

// Options returns the options of f ordered by value.
func (r Result) Options(f Facet) []FacetOption {
	counts := r.FacetCounts[f]
	out := make([]FacetOption, 0, len(counts))
	for v, n := range counts {
		out = append(out, FacetOption{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		li, lj := strings.ToLower(out[i].Value), strings.ToLower(out[j].Value)
		if li != lj {
			return li < lj
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// Run applies st to dataset. It does not modify its inputs and its output
// depends only on them. ann may be nil.
func Run(dataset []model.CatalogItem, st State, ann map[string]model.Annotation) Result {
	f := newFilter(st, ann)

	matched := make([]model.CatalogItem, 0, len(dataset))
	for _, it := range dataset {
		if f.match(it, "") {
			matched = append(matched, it)
		}
	}

	sortItems(matched, st.SortKey, st.SortDescending)

	res := paginate(matched, st.Page, st.PageSize)
	res.FacetCounts = facetCounts(dataset, f)
	return res
}

type filter struct {
	facets map[Facet]string // lowercased
	view   View
	terms  []string
	ann    map[string]model.Annotation
}

func newFilter(st State, ann map[string]model.Annotation) *filter {
	f := &filter{
		facets: make(map[Facet]string, len(st.SelectedFacets)),
		view:   st.View,
		terms:  strings.Fields(strings.ToLower(st.SearchText)),
		ann:    ann,
	}
	for k, v := range st.SelectedFacets {
		if v = strings.TrimSpace(v); v != "" && !strings.EqualFold(v, "all") {
			f.facets[k] = strings.ToLower(v)
		}
	}
	return f
}

// match reports whether it passes every filter, ignoring the selection of
// facet skip.
func (f *filter) match(it model.CatalogItem, skip Facet) bool {
	for facet, want := range f.facets {
		if facet == skip {
			continue
		}
		if !hasFacetValue(it, facet, want) {
			return false
		}
	}
	if !f.matchView(it) {
		return false
	}
	return f.matchSearch(it)
}

func (f *filter) matchView(it model.CatalogItem) bool {
	switch f.view {
	case ViewWishlist:
		return f.ann[it.Identity].Wishlist
	case ViewOwned:
		return f.ann[it.Identity].Owned
	}
	return true
}

// matchSearch requires every term to occur in at least one field.
func (f *filter) matchSearch(it model.CatalogItem) bool {
	if len(f.terms) == 0 {
		return true
	}
	fields := searchFields(it)
	for _, term := range f.terms {
		found := false
		for _, field := range fields {
			if strings.Contains(field, term) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func searchFields(it model.CatalogItem) []string {
	fields := make([]string, 0, 3+len(it.Types))
	fields = append(fields, strings.ToLower(it.Model), strings.ToLower(it.Colorway))
	for _, t := range it.Types {
		fields = append(fields, strings.ToLower(t))
	}
	if it.Description != nil {
		fields = append(fields, strings.ToLower(*it.Description))
	}
	return fields
}

func facetValues(it model.CatalogItem, f Facet) []string {
	switch f {
	case FacetModel:
		return []string{it.Model}
	case FacetColorway:
		return []string{it.Colorway}
	case FacetType:
		return it.Types
	}
	return nil
}

func hasFacetValue(it model.CatalogItem, f Facet, want string) bool {
	for _, v := range facetValues(it, f) {
		if strings.ToLower(strings.TrimSpace(v)) == want {
			return true
		}
	}
	return false
}

func sortItems(items []model.CatalogItem, key SortKey, desc bool) {
	less := func(a, b model.CatalogItem) bool {
		if key == SortModel {
			return strings.ToLower(a.Model) < strings.ToLower(b.Model)
		}
		return a.ReleaseDate.SortTime().Before(b.ReleaseDate.SortTime())
	}
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

func paginate(items []model.CatalogItem, page, size int) Result {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}

	total := len(items)
	res := Result{
		Total:    total,
		Page:     page,
		PageSize: size,
		Pages:    (total + size - 1) / size,
		Items:    []model.CatalogItem{},
	}

	start := (page - 1) * size
	if start >= total {
		return res
	}
	end := start + size
	if end > total {
		end = total
	}
	res.Items = items[start:end]
	res.HasMore = end < total
	return res
}

// facetCounts counts each facet's values over the items that pass every
// other filter, so a selected value never hides its own siblings.
func facetCounts(dataset []model.CatalogItem, f *filter) map[Facet]map[string]int {
	out := make(map[Facet]map[string]int, len(Facets))
	for _, facet := range Facets {
		counts := make(map[string]int)
		display := make(map[string]string)
		for _, it := range dataset {
			if !f.match(it, facet) {
				continue
			}
			seen := make(map[string]bool)
			for _, v := range facetValues(it, facet) {
				v = strings.TrimSpace(v)
				k := strings.ToLower(v)
				if v == "" || seen[k] {
					continue
				}
				seen[k] = true
				if _, ok := display[k]; !ok {
					display[k] = v
				}
				counts[display[k]]++
			}
		}
		out[facet] = counts
	}
	return out
}
