package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"g2-yoyodex/internal/model"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestCleanDropsMalformedRows(t *testing.T) {
	n := New("", nil)
	payload := decode(t, `[
		{"Model": " Loadout ", "Colorway": "Emperor", "Release Date": "March 3 2021"},
		{"model": "Loadout", "colorway": "   "},
		{"colorway": "Cove"},
		"not an object",
		42,
		{"model": "Brass Elite", "colorway": "Cove", "nested": {"x": 1}}
	]`)

	recs := n.Clean(payload, model.ResourceItems)
	require.Len(t, recs, 2)
	assert.Equal(t, "Loadout", recs[0]["model"])
	assert.Equal(t, "March 3 2021", recs[0]["release_date"])
	_, hasNested := recs[1]["nested"]
	assert.False(t, hasNested)
}

func TestCleanNonArrayIsEmpty(t *testing.T) {
	n := New("", nil)
	recs := n.Clean(decode(t, `{"error": "quota exceeded"}`), model.ResourceItems)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestCleanSpecsOnlyNeedModel(t *testing.T) {
	n := New("", nil)
	recs := n.Clean(decode(t, `[{"model": "Loadout", "dia": "56"}, {"dia": "50"}]`), model.ResourceSpecs)
	require.Len(t, recs, 1)
	assert.Equal(t, "56", recs[0].String("dia"))
}

func TestNormalizeInvalidRowExclusion(t *testing.T) {
	n := New("", nil)
	items := []model.Record{
		{"model": "Loadout", "colorway": "Emperor"},
		{"colorway": "Cove"},
		{"model": "Loadout", "colorway": ""},
		{"model": "Loadout", "colorway": "   "},
		{"model": "Brass Elite", "colorway": "Cove"},
	}

	out := n.Normalize(items, nil)
	assert.Len(t, out, len(items)-3)
}

func TestNormalizeMergePrecedence(t *testing.T) {
	n := New("", nil)
	items := []model.Record{{"model": "Loadout", "colorway": "Emperor", "width": "44.5"}}
	specs := []model.Record{{"model": "  loadout ", "width": "44", "dia": "56", "wt": "64.5"}}

	out := n.Normalize(items, specs)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].Specs.Width)
	assert.Equal(t, "44.5", *out[0].Specs.Width)
	require.NotNil(t, out[0].Specs.Diameter)
	assert.Equal(t, "56", *out[0].Specs.Diameter)
	assert.Equal(t, "64.5", *out[0].Specs.Weight)
}

func TestNormalizeBlankItemValueKeepsSpec(t *testing.T) {
	n := New("", nil)
	items := []model.Record{{"model": "Loadout", "colorway": "Emperor", "width": ""}}
	specs := []model.Record{{"model": "Loadout", "width": "44"}}

	out := n.Normalize(items, specs)
	require.NotNil(t, out[0].Specs.Width)
	assert.Equal(t, "44", *out[0].Specs.Width)
}

func TestNormalizeFields(t *testing.T) {
	n := New("assets/none.png", nil)
	items := []model.Record{{
		"model":             "Brass Elite",
		"colorway":          "Emperor",
		"type":              "Brass / Limited, Brass",
		"release_date":      "not a date",
		"quantity":          float64(117),
		"glitch_quantity":   "N/A",
		"additional_images": "a.jpg, b.jpg,,",
		"description":       "-",
	}}
	specs := []model.Record{{"model": "Brass Elite", "body": "Brass", "rims": "Steel", "pads": "Slim"}}

	out := n.Normalize(items, specs)
	require.Len(t, out, 1)
	it := out[0]

	assert.Equal(t, "brass-elite--emperor", it.Identity)
	assert.Equal(t, []string{"Brass", "Limited"}, it.Types)
	require.NotNil(t, it.ReleaseDate)
	assert.Equal(t, "not a date", it.ReleaseDate.Raw)
	assert.False(t, it.ReleaseDate.Known())
	assert.Equal(t, int64(0), it.ReleaseDate.SortTime().Unix())
	require.NotNil(t, it.Quantity)
	assert.Equal(t, 117, *it.Quantity)
	assert.Nil(t, it.GlitchQuantity)
	assert.Equal(t, "assets/none.png", it.ImageURL)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, it.AdditionalImages)
	assert.Nil(t, it.Description)
	require.NotNil(t, it.Specs.Composition)
	assert.Equal(t, "Brass with Steel rims", *it.Specs.Composition)
	assert.Equal(t, "Slim", *it.Specs.Response)
}

func TestNormalizeTypeArray(t *testing.T) {
	n := New("", nil)
	out := n.Normalize([]model.Record{{"model": "A", "colorway": "B", "type": []any{"Metal", " Collab ", ""}}}, nil)
	assert.Equal(t, []string{"Metal", "Collab"}, out[0].Types)
}

func TestNormalizeRepeatedPairDisambiguates(t *testing.T) {
	n := New("", nil)
	items := []model.Record{
		{"model": "Loadout", "colorway": "Emperor", "image_url": "1.jpg"},
		{"model": "loadout", "colorway": "EMPEROR", "image_url": "2.jpg"},
		{"model": "Loadout", "colorway": "Emperor 2"},
	}

	out := n.Normalize(items, nil)
	require.Len(t, out, 3)
	assert.Equal(t, "loadout--emperor", out[0].Identity)
	assert.Equal(t, "loadout--emperor--2", out[1].Identity)
	assert.Equal(t, "loadout--emperor-2", out[2].Identity)
}

func TestNormalizeSlugCollisionIgnoresRowOrder(t *testing.T) {
	n := New("", nil)
	spaced := model.Record{"model": "Loadout", "colorway": "Blue Moon"}
	dashed := model.Record{"model": "Loadout", "colorway": "Blue-Moon"}

	byColorway := func(out []model.CatalogItem) map[string]string {
		ids := make(map[string]string, len(out))
		for _, it := range out {
			ids[it.Colorway] = it.Identity
		}
		return ids
	}

	first := byColorway(n.Normalize([]model.Record{spaced, dashed}, nil))
	second := byColorway(n.Normalize([]model.Record{dashed, spaced}, nil))

	assert.Equal(t, first, second)
	assert.NotEqual(t, first["Blue Moon"], first["Blue-Moon"])
	assert.Equal(t, "loadout--blue-moon", first["Blue Moon"])
	assert.Regexp(t, `^loadout--blue-moon--x[0-9a-f]{8}$`, first["Blue-Moon"])
}

func TestNormalizeRepeatOfCollidingPairKeepsBase(t *testing.T) {
	n := New("", nil)
	out := n.Normalize([]model.Record{
		{"model": "Loadout", "colorway": "Blue-Moon"},
		{"model": "Loadout", "colorway": "Blue Moon"},
		{"model": "Loadout", "colorway": "blue-moon"},
	}, nil)

	require.Len(t, out, 3)
	assert.Equal(t, "loadout--blue-moon", out[1].Identity)
	assert.Equal(t, out[0].Identity+"--2", out[2].Identity)
}

func TestNormalizeDeterministic(t *testing.T) {
	field := rapid.SampledFrom([]string{"", " ", "Loadout", "Brass Elite", "Emperor", "Cove", "N/A", "Wolf "})
	value := rapid.SampledFrom([]any{"", "44", " 44 ", float64(56), nil, "N/A", "March 3 2021", "2020-01-02"})

	rapid.Check(t, func(t *rapid.T) {
		count := rapid.IntRange(0, 20).Draw(t, "count")
		items := make([]model.Record, count)
		for i := range items {
			items[i] = model.Record{
				"model":        field.Draw(t, "model"),
				"colorway":     field.Draw(t, "colorway"),
				"width":        value.Draw(t, "width"),
				"release_date": value.Draw(t, "date"),
			}
		}
		specs := []model.Record{
			{"model": field.Draw(t, "spec_model"), "width": value.Draw(t, "spec_width")},
		}

		n := New("", nil)
		first := n.Normalize(items, specs)
		second := n.Normalize(items, specs)

		if len(first) != len(second) {
			t.Fatalf("length differs: %d vs %d", len(first), len(second))
		}
		seen := make(map[string]bool, len(first))
		for i := range first {
			a, _ := json.Marshal(first[i])
			b, _ := json.Marshal(second[i])
			if string(a) != string(b) {
				t.Fatalf("item %d differs:\n%s\n%s", i, a, b)
			}
			if seen[first[i].Identity] {
				t.Fatalf("duplicate identity %q", first[i].Identity)
			}
			seen[first[i].Identity] = true
		}
	})
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		raw  string
		ok   bool
		want string
	}{
		{"2021-03-03", true, "2021-03-03"},
		{"March 3 2021", true, "2021-03-03"},
		{"March 3, 2021", true, "2021-03-03"},
		{"Mar 3 2021", true, "2021-03-03"},
		{"March 3rd 2021", true, "2021-03-03"},
		{"  March   3  2021 ", true, "2021-03-03"},
		{"March 2021", true, "2021-03-01"},
		{"2021-03-03T10:00:00Z", true, "2021-03-03"},
		{"soon", false, ""},
		{"", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseDate(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.Format("2006-01-02"))
			}
		})
	}
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "brass-elite", Slug("  Brass   Elite "))
	assert.Equal(t, "ti-wolf-2-0", Slug("Ti Wolf 2.0"))
	assert.Equal(t, "", Slug("  --  "))
}
