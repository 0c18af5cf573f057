package normalize

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// Slug lowercases s and joins its alphanumeric runs with dashes.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}

// JoinKey is the case and whitespace insensitive key used to match specs to items.
func JoinKey(modelName string) string {
	return strings.ToLower(strings.Join(strings.Fields(modelName), " "))
}

// PairKey is the canonical (model, colorway) pair. Rows with the same pair
// are repeats of one item.
func PairKey(modelName, colorway string) string {
	return JoinKey(modelName) + "|" + JoinKey(colorway)
}

// identities hands out deterministic identities for one normalization pass.
type identities struct {
	bases map[string]string // pair key -> base identity
	seen  map[string]int    // pair key -> rows handed out
}

// newIdentities assigns a base identity to every pair in pairs. When distinct
// pairs share a slug, the lowest pair key keeps the plain slug and the others
// get a hash of their pair key, so the result does not depend on row order.
func newIdentities(pairs [][2]string) *identities {
	bySlug := make(map[string][]string)
	ids := &identities{
		bases: make(map[string]string, len(pairs)),
		seen:  make(map[string]int, len(pairs)),
	}
	for _, p := range pairs {
		key := PairKey(p[0], p[1])
		if _, ok := ids.bases[key]; ok {
			continue
		}
		slug := Slug(p[0]) + "--" + Slug(p[1])
		ids.bases[key] = slug
		bySlug[slug] = append(bySlug[slug], key)
	}
	for slug, keys := range bySlug {
		if len(keys) < 2 {
			continue
		}
		sort.Strings(keys)
		for _, key := range keys[1:] {
			ids.bases[key] = fmt.Sprintf("%s--x%08x", slug, uint32(xxhash.Sum64String(key)))
		}
	}
	return ids
}

// next returns the base identity of the pair, suffixed with --n for its n-th
// repeat. Slugs never contain a double dash, so suffixed identities cannot
// collide with plain ones.
func (ids *identities) next(modelName, colorway string) string {
	key := PairKey(modelName, colorway)
	base, ok := ids.bases[key]
	if !ok {
		base = Slug(modelName) + "--" + Slug(colorway)
		ids.bases[key] = base
	}
	ids.seen[key]++
	if n := ids.seen[key]; n > 1 {
		return base + "--" + strconv.Itoa(n)
	}
	return base
}
