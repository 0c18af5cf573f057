// Package normalize validates raw catalog rows and joins specifications onto items.
package normalize

import (
	"strconv"
	"strings"

	"g2-yoyodex/internal/logger"
	"g2-yoyodex/internal/model"
)

// DefaultPlaceholderImage is used when an item carries no image.
const DefaultPlaceholderImage = "assets/placeholder.jpg"

// Normalizer cleans remote payloads and produces CatalogItems.
type Normalizer struct {
	placeholder string
	log         *logger.Logger
}

// New creates a normalizer. An empty placeholder selects DefaultPlaceholderImage.
func New(placeholder string, log *logger.Logger) *Normalizer {
	if placeholder == "" {
		placeholder = DefaultPlaceholderImage
	}
	return &Normalizer{
		placeholder: placeholder,
		log:         logger.OrNop(log).Component("normalize"),
	}
}

// Placeholder returns the image reference used for items without one.
func (n *Normalizer) Placeholder() string {
	return n.placeholder
}

// Normalize joins specs onto items and returns one CatalogItem per valid row,
// in input order. Output depends only on the inputs.
func (n *Normalizer) Normalize(items, specs []model.Record) []model.CatalogItem {
	index := make(map[string]model.Record, len(specs))
	for _, spec := range specs {
		key := JoinKey(spec.String("model"))
		if key == "" {
			continue
		}
		if _, dup := index[key]; !dup {
			index[key] = spec
		}
	}

	pairs := make([][2]string, 0, len(items))
	for _, raw := range items {
		if m, c := raw.String("model"), raw.String("colorway"); m != "" && c != "" {
			pairs = append(pairs, [2]string{m, c})
		}
	}

	ids := newIdentities(pairs)
	out := make([]model.CatalogItem, 0, len(items))
	for i, raw := range items {
		modelName := raw.String("model")
		colorway := raw.String("colorway")
		if modelName == "" || colorway == "" {
			n.log.Warn("skipping item without model or colorway", "row", i+1)
			continue
		}

		merged := merge(index[JoinKey(modelName)], raw)
		out = append(out, model.CatalogItem{
			Identity:         ids.next(modelName, colorway),
			Model:            modelName,
			Colorway:         colorway,
			Types:            splitList(merged["type"], isTypeSeparator),
			ReleaseDate:      releaseDate(merged),
			Quantity:         optionalInt(merged, "quantity", "qty"),
			GlitchQuantity:   optionalInt(merged, "glitch_quantity", "glitch_qty", "glitches"),
			ImageURL:         n.imageURL(merged),
			AdditionalImages: splitList(merged["additional_images"], isComma),
			Description:      optional(merged, "description"),
			Specs:            specFields(merged),
		})
	}
	return out
}

// merge lays the item over its spec row. A blank item value does not erase
// the spec's value for the same field.
func merge(spec, item model.Record) model.Record {
	out := make(model.Record, len(spec)+len(item))
	for k, v := range spec {
		out[k] = v
	}
	for k, v := range item {
		if IsBlank(v) {
			if _, ok := out[k]; ok {
				continue
			}
		}
		out[k] = v
	}
	return out
}

func (n *Normalizer) imageURL(r model.Record) string {
	if v := r.First("image_url", "image", "img"); !IsPlaceholder(v) {
		return v
	}
	return n.placeholder
}

// SpecsOf extracts the specification fields of a single record.
func SpecsOf(r model.Record) model.SpecFields {
	return specFields(r)
}

func specFields(r model.Record) model.SpecFields {
	return model.SpecFields{
		Diameter:    optional(r, "diameter", "dia"),
		Width:       optional(r, "width", "wid"),
		Weight:      optional(r, "weight", "wt"),
		Composition: composition(r),
		Response:    optional(r, "response", "pads", "response_system"),
		Bearing:     optional(r, "bearing"),
		Axle:        optional(r, "axle"),
		Finish:      optional(r, "finish"),
		Status:      optional(r, "status"),
		Source:      optional(r, "source"),
	}
}

// composition prefers an explicit value, then "body with rims rims".
func composition(r model.Record) *string {
	if v := optional(r, "composition", "material"); v != nil {
		return v
	}
	body := optional(r, "body")
	if body == nil {
		return nil
	}
	if rims := optional(r, "rims"); rims != nil {
		s := *body + " with " + *rims + " rims"
		return &s
	}
	return body
}

func releaseDate(r model.Record) *model.ReleaseDate {
	raw := r.First("release_date", "released", "date")
	if IsPlaceholder(raw) {
		return nil
	}
	d := &model.ReleaseDate{Raw: raw}
	if t, ok := ParseDate(raw); ok {
		d.Time = &t
	}
	return d
}

func optional(r model.Record, keys ...string) *string {
	for _, k := range keys {
		if v := r.String(k); !IsPlaceholder(v) {
			return &v
		}
	}
	return nil
}

func optionalInt(r model.Record, keys ...string) *int {
	for _, k := range keys {
		s := strings.ReplaceAll(r.String(k), ",", "")
		if IsPlaceholder(s) {
			continue
		}
		if i, err := strconv.Atoi(s); err == nil {
			return &i
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int(f)) {
			i := int(f)
			return &i
		}
	}
	return nil
}

func isComma(r rune) bool { return r == ',' }

func isTypeSeparator(r rune) bool {
	return r == ',' || r == '/' || r == ';' || r == '|'
}

// splitList accepts either a delimited string or an array and returns the
// distinct non-placeholder entries in order.
func splitList(v any, sep func(rune) bool) []string {
	var parts []string
	switch t := v.(type) {
	case string:
		parts = strings.FieldsFunc(t, sep)
	case []any:
		for _, e := range t {
			parts = append(parts, model.ScalarString(e))
		}
	}

	out := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if IsPlaceholder(p) || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// IsPlaceholder reports whether s means "no value" in the source sheets.
func IsPlaceholder(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "n/a", "-", "null", "undefined":
		return true
	}
	return false
}

// IsBlank reports whether a raw value carries no information.
func IsBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return IsPlaceholder(t)
	case []any:
		return len(t) == 0
	}
	return false
}
