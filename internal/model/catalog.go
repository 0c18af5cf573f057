package model

import "time"

// CatalogItem is one collectible variant: a model in a specific colorway,
// with the model's technical specifications merged in.
type CatalogItem struct {
	Identity         string       `json:"identity"`
	Model            string       `json:"model"`
	Colorway         string       `json:"colorway"`
	Types            []string     `json:"type"`
	ReleaseDate      *ReleaseDate `json:"release_date,omitempty"`
	Quantity         *int         `json:"quantity,omitempty"`
	GlitchQuantity   *int         `json:"glitch_quantity,omitempty"`
	ImageURL         string       `json:"image_url"`
	AdditionalImages []string     `json:"additional_images"`
	Description      *string      `json:"description,omitempty"`
	Specs            SpecFields   `json:"specs"`
}

// SpecFields are the optional technical specifications of a model.
type SpecFields struct {
	Diameter    *string `json:"diameter,omitempty"`
	Width       *string `json:"width,omitempty"`
	Weight      *string `json:"weight,omitempty"`
	Composition *string `json:"composition,omitempty"`
	Response    *string `json:"response,omitempty"`
	Bearing     *string `json:"bearing,omitempty"`
	Axle        *string `json:"axle,omitempty"`
	Finish      *string `json:"finish,omitempty"`
	Status      *string `json:"status,omitempty"`
	Source      *string `json:"source,omitempty"`
}

// Empty reports whether no specification is known.
func (s SpecFields) Empty() bool {
	return s.Diameter == nil && s.Width == nil && s.Weight == nil && s.Composition == nil &&
		s.Response == nil && s.Bearing == nil && s.Axle == nil && s.Finish == nil &&
		s.Status == nil && s.Source == nil
}

// ReleaseDate keeps the original text alongside the parse attempt.
type ReleaseDate struct {
	Raw  string     `json:"raw"`
	Time *time.Time `json:"time,omitempty"`
}

// SortTime returns the parsed time, or the Unix epoch when unknown.
func (d *ReleaseDate) SortTime() time.Time {
	if d == nil || d.Time == nil {
		return time.Unix(0, 0).UTC()
	}
	return *d.Time
}

// Known reports whether the date parsed.
func (d *ReleaseDate) Known() bool {
	return d != nil && d.Time != nil
}
