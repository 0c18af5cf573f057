package normalize

import (
	"strings"

	"g2-yoyodex/internal/model"
)

// Clean turns a decoded JSON payload into canonical records for a resource.
// A payload that is not an array degrades to an empty dataset; elements that
// are not objects, or lack the fields the resource requires, are dropped.
func (n *Normalizer) Clean(payload any, resource model.Resource) []model.Record {
	rows, ok := payload.([]any)
	if !ok {
		if payload != nil {
			n.log.Warn("payload is not an array, treating as empty", "resource", resource)
		}
		return []model.Record{}
	}

	out := make([]model.Record, 0, len(rows))
	for i, row := range rows {
		obj, ok := row.(map[string]any)
		if !ok {
			n.log.Warn("dropping non-object row", "resource", resource, "row", i+1)
			continue
		}
		rec := cleanRecord(obj)
		if !validFor(rec, resource) {
			n.log.Warn("dropping invalid row", "resource", resource, "row", i+1,
				"model", rec.String("model"), "colorway", rec.String("colorway"))
			continue
		}
		out = append(out, rec)
	}
	return out
}

func validFor(rec model.Record, resource model.Resource) bool {
	if rec.String("model") == "" {
		return false
	}
	if resource == model.ResourceItems && rec.String("colorway") == "" {
		return false
	}
	return true
}

func cleanRecord(obj map[string]any) model.Record {
	rec := make(model.Record, len(obj))
	for k, v := range obj {
		key := canonicalKey(k)
		if key == "" {
			continue
		}
		val, ok := cleanValue(v)
		if !ok {
			continue
		}
		rec[key] = val
	}
	return rec
}

// canonicalKey lowercases a header and joins its words with underscores,
// so "Release Date", "release-date" and "release_date" collapse together.
func canonicalKey(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	return strings.Join(strings.FieldsFunc(k, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '\t'
	}), "_")
}

func cleanValue(v any) (any, bool) {
	switch t := v.(type) {
	case nil, bool, float64:
		return t, true
	case string:
		return strings.TrimSpace(t), true
	case []any:
		out := make([]any, 0, len(t))
		for _, e := range t {
			switch s := e.(type) {
			case string:
				out = append(out, strings.TrimSpace(s))
			case float64, bool:
				out = append(out, s)
			}
		}
		return out, true
	default:
		return nil, false
	}
}
