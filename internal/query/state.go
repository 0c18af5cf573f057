package query

import (
	"errors"
	"fmt"
	"strings"
)

// Facet is a filterable dimension of the catalog.
type Facet string

const (
	FacetModel    Facet = "model"
	FacetColorway Facet = "colorway"
	FacetType     Facet = "type"
)

// Facets lists every facet in display order. Model and colorway are the
// primary, mutually narrowing facets.
var Facets = []Facet{FacetModel, FacetColorway, FacetType}

// Valid reports whether f is a known facet.
func (f Facet) Valid() bool {
	return f == FacetModel || f == FacetColorway || f == FacetType
}

// View restricts the catalog to annotated items.
type View string

const (
	ViewAll      View = ""
	ViewWishlist View = "wishlist"
	ViewOwned    View = "owned"
)

// SortKey selects the ordering of results.
type SortKey string

const (
	SortDate  SortKey = "date"
	SortModel SortKey = "model"
)

// DefaultPageSize is used when no positive page size is given.
const DefaultPageSize = 12

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrInvalidAction = errors.New("invalid action")
)

// State is the per-viewer query state. It changes only through Apply.
type State struct {
	SearchText     string           `json:"search_text"`
	SelectedFacets map[Facet]string `json:"selected_facets,omitempty"`
	View           View             `json:"view"`
	SortKey        SortKey          `json:"sort_key"`
	SortDescending bool             `json:"sort_descending"`
	Page           int              `json:"page"`
	PageSize       int              `json:"page_size"`
}

// NewState returns the initial state: newest first, page 1.
func NewState(pageSize int) State {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return State{
		SortKey:        SortDate,
		SortDescending: true,
		Page:           1,
		PageSize:       pageSize,
	}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := s
	if s.SelectedFacets != nil {
		out.SelectedFacets = make(map[Facet]string, len(s.SelectedFacets))
		for k, v := range s.SelectedFacets {
			out.SelectedFacets[k] = v
		}
	}
	return out
}

// Selected returns the selected value of f, or "".
func (s State) Selected(f Facet) string {
	return s.SelectedFacets[f]
}

// ActionType names a user action.
type ActionType string

const (
	ActionSearch      ActionType = "search"
	ActionSelectFacet ActionType = "select_facet"
	ActionToggleView  ActionType = "toggle_view"
	ActionSort        ActionType = "sort"
	ActionPage        ActionType = "page"
	ActionLoadMore    ActionType = "load_more"
	ActionPageSize    ActionType = "page_size"
	ActionClear       ActionType = "clear"
)

// Action is one user interaction. Which fields matter depends on Type.
type Action struct {
	Type       ActionType `json:"type"`
	Facet      Facet      `json:"facet,omitempty"`
	Value      string     `json:"value,omitempty"`
	Descending *bool      `json:"descending,omitempty"`
	Page       int        `json:"page,omitempty"`
	PageSize   int        `json:"page_size,omitempty"`
}

// Apply returns the state after a. Every action except pagination resets
// the page to 1. s is not modified.
func (s State) Apply(a Action) (State, error) {
	next := s.Clone()
	if next.PageSize <= 0 {
		next.PageSize = DefaultPageSize
	}

	switch a.Type {
	case ActionSearch:
		next.SearchText = a.Value
		next.Page = 1

	case ActionSelectFacet:
		if !a.Facet.Valid() {
			return s, fmt.Errorf("%w: facet %q", ErrInvalidAction, a.Facet)
		}
		v := strings.TrimSpace(a.Value)
		// Clearing one facet leaves the others selected.
		if v == "" || strings.EqualFold(v, "all") {
			delete(next.SelectedFacets, a.Facet)
		} else {
			if next.SelectedFacets == nil {
				next.SelectedFacets = make(map[Facet]string)
			}
			next.SelectedFacets[a.Facet] = v
		}
		next.Page = 1

	case ActionToggleView:
		v := View(strings.ToLower(strings.TrimSpace(a.Value)))
		switch v {
		case ViewAll, "all":
			next.View = ViewAll
		case ViewWishlist, ViewOwned:
			if s.View == v {
				next.View = ViewAll
			} else {
				next.View = v
				next.SearchText = ""
				next.SelectedFacets = nil
			}
		default:
			return s, fmt.Errorf("%w: view %q", ErrInvalidAction, a.Value)
		}
		next.Page = 1

	case ActionSort:
		key := SortKey(strings.ToLower(strings.TrimSpace(a.Value)))
		if key == "" {
			key = s.SortKey
		}
		if key != SortDate && key != SortModel {
			return s, fmt.Errorf("%w: sort key %q", ErrInvalidAction, a.Value)
		}
		switch {
		case a.Descending != nil:
			next.SortDescending = *a.Descending
		case key == s.SortKey:
			next.SortDescending = !s.SortDescending
		default:
			next.SortDescending = key == SortDate
		}
		next.SortKey = key
		next.Page = 1

	case ActionPage:
		next.Page = a.Page
		if next.Page < 1 {
			next.Page = 1
		}

	case ActionLoadMore:
		if next.Page < 1 {
			next.Page = 1
		}
		next.Page++

	case ActionPageSize:
		size := a.PageSize
		if size <= 0 {
			size = DefaultPageSize
		}
		if size != next.PageSize {
			next.PageSize = size
			next.Page = 1
		}

	case ActionClear:
		next = NewState(next.PageSize)

	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
	}

	return next, nil
}

// PageSizeForWidth maps a viewport width in pixels to a page size that
// fills whole grid rows: 1 to 4 columns, four rows each.
func PageSizeForWidth(px int) int {
	const rows = 4
	switch {
	case px <= 0:
		return DefaultPageSize
	case px < 576:
		return 1 * rows
	case px < 768:
		return 2 * rows
	case px < 1200:
		return 3 * rows
	default:
		return 4 * rows
	}
}
