package model

// Resource names one remote dataset.
type Resource string

const (
	ResourceItems Resource = "items"
	ResourceSpecs Resource = "specs"
)

// Resources lists every dataset the catalog syncs.
var Resources = []Resource{ResourceItems, ResourceSpecs}

func (r Resource) String() string { return string(r) }

// Valid reports whether r is a known resource.
func (r Resource) Valid() bool {
	return r == ResourceItems || r == ResourceSpecs
}
