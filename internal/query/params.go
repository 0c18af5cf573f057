package query

import "strings"

// Params is a flat, stateless description of a query, as sent by a URL or
// command-line flags.
type Params struct {
	Search     string
	Facets     map[Facet]string
	View       string
	Sort       string
	Descending *bool
	Page       int
	PageSize   int
}

// FromParams replays p as actions on a fresh state, so a stateless query
// lands exactly where the same clicks would. A sort key without an explicit
// direction gets its natural one instead of toggling.
func FromParams(p Params, defaultPageSize int) (State, error) {
	size := p.PageSize
	if size <= 0 {
		size = defaultPageSize
	}

	actions := []Action{{Type: ActionPageSize, PageSize: size}}
	if v := strings.TrimSpace(p.View); v != "" {
		actions = append(actions, Action{Type: ActionToggleView, Value: v})
	}
	if v := strings.TrimSpace(p.Search); v != "" {
		actions = append(actions, Action{Type: ActionSearch, Value: v})
	}
	for _, f := range Facets {
		if v := strings.TrimSpace(p.Facets[f]); v != "" {
			actions = append(actions, Action{Type: ActionSelectFacet, Facet: f, Value: v})
		}
	}
	if v := strings.TrimSpace(p.Sort); v != "" || p.Descending != nil {
		desc := p.Descending
		if desc == nil {
			d := SortKey(strings.ToLower(v)) == SortDate
			desc = &d
		}
		actions = append(actions, Action{Type: ActionSort, Value: v, Descending: desc})
	}
	if p.Page > 0 {
		actions = append(actions, Action{Type: ActionPage, Page: p.Page})
	}

	st := NewState(defaultPageSize)
	for _, a := range actions {
		next, err := st.Apply(a)
		if err != nil {
			return State{}, err
		}
		st = next
	}
	return st, nil
}
