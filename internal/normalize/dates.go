package normalize

import (
	"strings"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"January 2 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"January 2006",
	"Jan 2006",
	"1/2/2006",
	"2006/01/02",
	"2006",
}

// ParseDate tries the known release date formats. It never fails loudly:
// unparseable input reports ok=false.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.Join(strings.Fields(raw), " ")
	if s == "" {
		return time.Time{}, false
	}
	s = stripOrdinal(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// stripOrdinal turns "March 3rd 2021" into "March 3 2021".
func stripOrdinal(s string) string {
	parts := strings.Split(s, " ")
	for i, p := range parts {
		p = strings.TrimSuffix(p, ",")
		if len(p) < 3 || p[0] < '0' || p[0] > '9' {
			continue
		}
		for _, suf := range []string{"st", "nd", "rd", "th"} {
			if strings.HasSuffix(strings.ToLower(p), suf) {
				trimmed := p[:len(p)-2]
				if strings.HasSuffix(parts[i], ",") {
					trimmed += ","
				}
				parts[i] = trimmed
				break
			}
		}
	}
	return strings.Join(parts, " ")
}
