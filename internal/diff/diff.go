// Package diff compares two dataset snapshots record by record.
package diff

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"g2-yoyodex/internal/model"
)

// Change describes one record that differs between snapshots.
type Change struct {
	Key    string       `json:"key"`
	Record model.Record `json:"record"`
	Fields []string     `json:"fields,omitempty"` // modified only
}

// Result classifies the records of the next snapshot against the previous one.
type Result struct {
	Added    []Change `json:"added"`
	Removed  []Change `json:"removed"`
	Modified []Change `json:"modified"`
}

// Changed reports whether anything was added, removed or modified.
func (r Result) Changed() bool {
	return len(r.Added)+len(r.Removed)+len(r.Modified) > 0
}

// Summary renders the result for logs and diagnostics.
func (r Result) Summary() string {
	if !r.Changed() {
		return "no changes"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d added, %d removed, %d modified", len(r.Added), len(r.Removed), len(r.Modified))

	const maxListed = 5
	list := func(label string, changes []Change) {
		for i, c := range changes {
			if i == maxListed {
				fmt.Fprintf(&b, "; ... %d more %s", len(changes)-maxListed, label)
				return
			}
			fmt.Fprintf(&b, "; %s %s", label, c.Key)
			if len(c.Fields) > 0 {
				fmt.Fprintf(&b, " (%s)", strings.Join(c.Fields, ", "))
			}
		}
	}
	list("added", r.Added)
	list("removed", r.Removed)
	list("modified", r.Modified)
	return b.String()
}

// Diff compares prev and next. Records are matched on model and colorway,
// not on any assigned identity.
func Diff(prev, next []model.Record) Result {
	split := repeated(prev, next)
	prevKeys := keyed(prev, split)
	nextKeys := keyed(next, split)

	var res Result
	for _, k := range nextKeys.order {
		n := nextKeys.records[k]
		p, ok := prevKeys.records[k]
		if !ok {
			res.Added = append(res.Added, Change{Key: k, Record: n})
			continue
		}
		if fields := changedFields(p, n); len(fields) > 0 {
			res.Modified = append(res.Modified, Change{Key: k, Record: n, Fields: fields})
		}
	}
	for _, k := range prevKeys.order {
		if _, ok := nextKeys.records[k]; !ok {
			res.Removed = append(res.Removed, Change{Key: k, Record: prevKeys.records[k]})
		}
	}
	return res
}

// Equal reports whether two records carry the same information.
func Equal(a, b model.Record) bool {
	return len(changedFields(a, b)) == 0
}

type keyedSet struct {
	order   []string
	records map[string]model.Record
}

// repeated returns the model|colorway keys that occur more than once in
// either snapshot.
func repeated(snapshots ...[]model.Record) map[string]bool {
	out := make(map[string]bool)
	for _, recs := range snapshots {
		seen := make(map[string]bool, len(recs))
		for _, r := range recs {
			k := Key(r)
			if seen[k] {
				out[k] = true
			}
			seen[k] = true
		}
	}
	return out
}

// keyed indexes records by model|colorway. Every member of a repeated group
// is keyed by its image URL as well, then by an occurrence counter if that
// still repeats.
func keyed(recs []model.Record, split map[string]bool) keyedSet {
	set := keyedSet{records: make(map[string]model.Record, len(recs))}
	counts := make(map[string]int)
	for _, r := range recs {
		k := Key(r)
		if split[k] {
			k += "|" + canonical(r.First("image_url", "image"))
		}
		counts[k]++
		if n := counts[k]; n > 1 {
			k += "#" + strconv.Itoa(n)
		}
		set.order = append(set.order, k)
		set.records[k] = r
	}
	return set
}

// Key is the composite match key of a record.
func Key(r model.Record) string {
	return canonical(r.String("model")) + "|" + canonical(r.String("colorway"))
}

func canonical(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func changedFields(a, b model.Record) []string {
	var fields []string
	for k, av := range a {
		if normalizeValue(av) != normalizeValue(b[k]) {
			fields = append(fields, k)
		}
	}
	for k, bv := range b {
		if _, ok := a[k]; ok {
			continue
		}
		if normalizeValue(bv) != absent {
			fields = append(fields, k)
		}
	}
	sort.Strings(fields)
	return fields
}

const absent = "\x00absent"

// normalizeValue folds blank-like values into one absent marker and renders
// everything else as a trimmed string, so "117" equals 117.
func normalizeValue(v any) string {
	switch t := v.(type) {
	case nil:
		return absent
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s := normalizeValue(e); s != absent {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return absent
		}
		return "[" + strings.Join(parts, "\x1f") + "]"
	case []string:
		anys := make([]any, len(t))
		for i, s := range t {
			anys[i] = s
		}
		return normalizeValue(anys)
	}

	s := model.ScalarString(v)
	switch strings.ToLower(s) {
	case "", "null", "undefined":
		return absent
	}
	return s
}
