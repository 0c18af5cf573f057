// Package caption extracts catalog fields from release announcement captions
// so they can be entered into the items sheet.
package caption

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"g2-yoyodex/internal/model"
	"g2-yoyodex/internal/normalize"
)

// DateFormat is how release dates are written to the sheet.
const DateFormat = "January 2, 2006"

// Result is what a caption revealed. Empty fields were not found.
type Result struct {
	Caption     string `json:"caption"`
	Model       string `json:"model,omitempty"`
	Colorway    string `json:"colorway,omitempty"`
	Quantity    *int   `json:"quantity,omitempty"`
	ReleaseDate string `json:"release_date,omitempty"`
	Glitch      bool   `json:"glitch"`
	Prototype   bool   `json:"prototype"`
}

// Record renders r as an items sheet row.
func (r Result) Record() model.Record {
	types := "Production"
	if r.Prototype {
		types = "Prototype"
	}
	if r.Glitch {
		types += ", Glitch"
	}

	rec := model.Record{
		"model":       TitleCase(r.Model),
		"colorway":    TitleCase(r.Colorway),
		"type":        types,
		"description": r.Caption,
	}
	if r.ReleaseDate != "" {
		rec["release_date"] = r.ReleaseDate
	}
	if r.Quantity != nil {
		rec["quantity"] = *r.Quantity
	}
	return rec
}

// Parser matches captions against lists of known names.
type Parser struct {
	models    []string
	colorways []string
	quantity  []*regexp.Regexp
}

// NewParser creates a parser over the given names. Matching is case
// insensitive and prefers the longest name, so "banshee gt" beats "banshee".
func NewParser(models, colorways []string) *Parser {
	p := &Parser{}
	for _, pat := range quantityPatterns {
		p.quantity = append(p.quantity, regexp.MustCompile(`(?i)`+pat))
	}
	p.Learn(models, colorways)
	return p
}

// DefaultParser uses KnownModels and KnownColorways.
func DefaultParser() *Parser {
	return NewParser(KnownModels, KnownColorways)
}

// Learn adds names the parser should recognise.
func (p *Parser) Learn(models, colorways []string) {
	p.models = mergeNames(p.models, models)
	p.colorways = mergeNames(p.colorways, colorways)
}

func mergeNames(have, add []string) []string {
	seen := make(map[string]bool, len(have)+len(add))
	out := make([]string, 0, len(have)+len(add))
	for _, n := range append(append([]string(nil), have...), add...) {
		n = fold(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}

// ParseAll parses every non-blank caption.
func (p *Parser) ParseAll(captions []string) []Result {
	out := make([]Result, 0, len(captions))
	for _, c := range captions {
		if strings.TrimSpace(c) == "" {
			continue
		}
		out = append(out, p.Parse(c))
	}
	return out
}

// Parse extracts what it can from one caption. Captions usually read
// "Model - Colorway - date", so the parts around dashes are searched first.
func (p *Parser) Parse(text string) Result {
	text = strings.TrimSpace(text)
	res := Result{Caption: text}

	parts := strings.Split(text, "-")
	whole := fold(text)

	res.Model = findName(p.models, fold(parts[0]), whole)
	if res.Model == "" {
		res.Model = p.modelFromHashtags(text)
	}
	if res.Model != "" {
		second := ""
		if len(parts) > 1 {
			second = fold(parts[1])
		}
		res.Colorway = findName(p.colorways, second, whole)
	}

	res.Quantity = p.findQuantity(text)
	res.ReleaseDate = findDate(text)

	lower := strings.ToLower(text)
	for _, m := range glitchMarkers {
		if strings.Contains(lower, m) {
			res.Glitch = true
			break
		}
	}
	res.Prototype = strings.Contains(lower, "proto")
	return res
}

// findName returns the first name that occurs as whole words in one of the
// haystacks, searched in order.
func findName(names []string, haystacks ...string) string {
	for _, h := range haystacks {
		if h == "" {
			continue
		}
		padded := " " + h + " "
		for _, n := range names {
			if strings.Contains(padded, " "+n+" ") {
				return n
			}
		}
	}
	return ""
}

// modelFromHashtags recognises tags such as #g2wolf.
func (p *Parser) modelFromHashtags(text string) string {
	for _, f := range strings.Fields(strings.ToLower(text)) {
		tag, ok := strings.CutPrefix(f, "#g2")
		if !ok {
			continue
		}
		tag = strings.TrimFunc(tag, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		for _, n := range p.models {
			if strings.ReplaceAll(n, " ", "") == tag {
				return n
			}
		}
	}
	return ""
}

func (p *Parser) findQuantity(text string) *int {
	for _, re := range p.quantity {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil {
			return &n
		}
	}
	return nil
}

var (
	numericDate = regexp.MustCompile(`\b(\d{1,2})([./])(\d{1,2})([./])(\d{2,4})\b`)
	wordDate    = regexp.MustCompile(`\b([A-Za-z]+ \d{1,2}(?:st|nd|rd|th)?,? \d{4})\b`)
)

// findDate returns the first recognisable date as DateFormat, or "".
// Numeric dates are month first.
func findDate(text string) string {
	for _, m := range numericDate.FindAllStringSubmatch(text, -1) {
		if m[2] != m[4] {
			continue
		}
		year := "2006"
		if len(m[5]) == 2 {
			year = "06"
		} else if len(m[5]) != 4 {
			continue
		}
		layout := "1" + m[2] + "2" + m[2] + year
		if t, err := time.Parse(layout, m[1]+m[2]+m[3]+m[4]+m[5]); err == nil {
			return t.Format(DateFormat)
		}
	}
	for _, m := range wordDate.FindAllStringSubmatch(text, -1) {
		if t, ok := normalize.ParseDate(m[1]); ok {
			return t.Format(DateFormat)
		}
	}
	return ""
}

// fold lowercases s and reduces punctuation to single spaces. Dots survive
// so names such as "2.0" still match.
func fold(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	fields := strings.Fields(s)
	for i, f := range fields {
		fields[i] = strings.Trim(f, ".")
	}
	return strings.Join(strings.Fields(strings.Join(fields, " ")), " ")
}

// TitleCase capitalises the first letter of every word and lowercases the rest.
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
