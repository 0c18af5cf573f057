package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"g2-yoyodex/internal/model"
)

func str(s string) *string { return &s }

func TestDisplaySpecs(t *testing.T) {
	released := time.Date(2021, 3, 3, 0, 0, 0, 0, time.UTC)
	it := model.CatalogItem{
		Specs: model.SpecFields{
			Diameter:    str("56"),
			Width:       str("44mm"),
			Weight:      str("65.2"),
			Composition: str("6061 with Steel rims"),
		},
		ReleaseDate: &model.ReleaseDate{Raw: "March 3 2021", Time: &released},
	}

	assert.Equal(t, []DisplayField{
		{"Composition", "6061 with Steel rims"},
		{"Diameter", "56 mm"},
		{"Width", "44mm"},
		{"Weight", "65.2 g"},
		{"Released", "March 2021"},
	}, DisplaySpecs(it))
}

func TestFormatRelease(t *testing.T) {
	assert.Equal(t, "Unknown", FormatRelease(nil))
	assert.Equal(t, "Unknown", FormatRelease(&model.ReleaseDate{}))
	assert.Equal(t, "Summer 2019", FormatRelease(&model.ReleaseDate{Raw: "Summer 2019"}))
}
