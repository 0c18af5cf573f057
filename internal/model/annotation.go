package model

// Flag is a user-owned boolean tag on an item.
type Flag string

const (
	FlagWishlist Flag = "wishlist"
	FlagOwned    Flag = "owned"
)

// Flags lists every supported annotation flag.
var Flags = []Flag{FlagWishlist, FlagOwned}

// Valid reports whether f is a known flag.
func (f Flag) Valid() bool {
	return f == FlagWishlist || f == FlagOwned
}

// Annotation holds the flags a user set on one item. Absence means both false.
type Annotation struct {
	ItemIdentity string `json:"item_identity"`
	Wishlist     bool   `json:"wishlist"`
	Owned        bool   `json:"owned"`
}

// Has reports whether the given flag is set.
func (a Annotation) Has(f Flag) bool {
	switch f {
	case FlagWishlist:
		return a.Wishlist
	case FlagOwned:
		return a.Owned
	}
	return false
}

// AnnotationCounts summarises how many items carry each flag.
type AnnotationCounts struct {
	Wishlist int `json:"wishlist"`
	Owned    int `json:"owned"`
}
