package service

import (
	"strings"

	"g2-yoyodex/internal/model"
)

// DisplayField is one labelled value ready for presentation.
type DisplayField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type specLine struct {
	label string
	unit  string
	get   func(model.SpecFields) *string
}

var specLines = []specLine{
	{"Composition", "", func(s model.SpecFields) *string { return s.Composition }},
	{"Diameter", "mm", func(s model.SpecFields) *string { return s.Diameter }},
	{"Width", "mm", func(s model.SpecFields) *string { return s.Width }},
	{"Weight", "g", func(s model.SpecFields) *string { return s.Weight }},
	{"Response", "", func(s model.SpecFields) *string { return s.Response }},
	{"Bearing", "", func(s model.SpecFields) *string { return s.Bearing }},
	{"Axle", "mm", func(s model.SpecFields) *string { return s.Axle }},
	{"Finish", "", func(s model.SpecFields) *string { return s.Finish }},
	{"Status", "", func(s model.SpecFields) *string { return s.Status }},
	{"Source", "", func(s model.SpecFields) *string { return s.Source }},
}

// DisplaySpecs renders the known specifications of an item; absent fields
// are left out.
func DisplaySpecs(it model.CatalogItem) []DisplayField {
	out := make([]DisplayField, 0, len(specLines)+1)
	for _, l := range specLines {
		if v := withUnit(l.get(it.Specs), l.unit); v != "" {
			out = append(out, DisplayField{Label: l.label, Value: v})
		}
	}
	if it.ReleaseDate != nil {
		out = append(out, DisplayField{Label: "Released", Value: FormatRelease(it.ReleaseDate)})
	}
	return out
}

// FormatRelease renders a release date as "January 2006". An unparsed date
// keeps its original text; a missing one is "Unknown".
func FormatRelease(d *model.ReleaseDate) string {
	switch {
	case d == nil || strings.TrimSpace(d.Raw) == "" && d.Time == nil:
		return "Unknown"
	case d.Time != nil:
		return d.Time.Format("January 2006")
	default:
		return d.Raw
	}
}

// withUnit appends unit unless the value already carries it.
func withUnit(v *string, unit string) string {
	if v == nil {
		return ""
	}
	s := strings.TrimSpace(*v)
	if s == "" || unit == "" || strings.Contains(strings.ToLower(s), unit) {
		return s
	}
	return s + " " + unit
}

// SpecRow is one line of a side-by-side comparison.
type SpecRow struct {
	Label  string   `json:"label"`
	Values []string `json:"values"`
}

// SpecTable compares up to MaxCompare models.
type SpecTable struct {
	Models []string  `json:"models"`
	Rows   []SpecRow `json:"rows"`
}

func buildSpecTable(names []string, specs []model.SpecFields, released []*model.ReleaseDate) SpecTable {
	t := SpecTable{Models: names}
	for _, l := range specLines {
		row := SpecRow{Label: l.label, Values: make([]string, len(specs))}
		for i, s := range specs {
			row.Values[i] = orDash(withUnit(l.get(s), l.unit))
		}
		t.Rows = append(t.Rows, row)
	}

	row := SpecRow{Label: "Released", Values: make([]string, len(released))}
	for i, d := range released {
		if d == nil {
			row.Values[i] = "-"
			continue
		}
		row.Values[i] = FormatRelease(d)
	}
	t.Rows = append(t.Rows, row)
	return t
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
