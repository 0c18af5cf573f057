package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"g2-yoyodex/internal/annotation"
	"g2-yoyodex/internal/logger"
	"g2-yoyodex/internal/model"
	"g2-yoyodex/internal/normalize"
	"g2-yoyodex/internal/query"
)

// MaxCompare is the most models CompareSpecs accepts.
const MaxCompare = 3

var (
	ErrItemNotFound  = errors.New("item not found")
	ErrModelNotFound = errors.New("model not found")
	ErrTooManyModels = fmt.Errorf("at most %d models can be compared", MaxCompare)
)

// CatalogStats summarises the loaded catalog.
type CatalogStats struct {
	Items     int       `json:"items"`
	Specs     int       `json:"specs"`
	Models    int       `json:"models"`
	Revision  uint64    `json:"revision"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// ModelOption is one entry of the model picker.
type ModelOption struct {
	Model     string `json:"model"`
	Group     string `json:"group"`
	Colorways int    `json:"colorways"`
}

// Catalog is the application state shared by every viewer: the latest raw
// datasets and the merged items built from them.
type Catalog struct {
	normalizer  *normalize.Normalizer
	annotations *annotation.Store
	log         *logger.Logger
	now         func() time.Time

	mu        sync.RWMutex
	items     []model.Record
	specs     []model.Record
	merged    []model.CatalogItem
	byID      map[string]int
	specIndex map[string]model.Record
	revision  uint64
	updatedAt time.Time
}

// NewCatalog creates an empty catalog.
func NewCatalog(n *normalize.Normalizer, ann *annotation.Store, log *logger.Logger) *Catalog {
	return &Catalog{
		normalizer:  n,
		annotations: ann,
		log:         logger.OrNop(log).Component("catalog"),
		now:         time.Now,
		byID:        map[string]int{},
		specIndex:   map[string]model.Record{},
	}
}

// OnData replaces one dataset and rebuilds the merged items. Specs may
// arrive before or after items.
func (c *Catalog) OnData(resource model.Resource, records []model.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch resource {
	case model.ResourceItems:
		c.items = records
	case model.ResourceSpecs:
		c.specs = records
		c.specIndex = make(map[string]model.Record, len(records))
		for _, r := range records {
			k := normalize.JoinKey(r.String("model"))
			if _, dup := c.specIndex[k]; k != "" && !dup {
				c.specIndex[k] = r
			}
		}
	default:
		c.log.Warn("ignoring unknown resource", "resource", resource)
		return
	}

	c.merged = c.normalizer.Normalize(c.items, c.specs)
	c.byID = make(map[string]int, len(c.merged))
	for i, it := range c.merged {
		c.byID[it.Identity] = i
	}
	c.revision++
	c.updatedAt = c.now()

	c.log.Info("catalog rebuilt", "resource", resource, "items", len(c.merged), "revision", c.revision)
}

// Items returns the merged items. The slice must not be modified.
func (c *Catalog) Items() []model.CatalogItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.merged
}

// Revision increases every time the merged items change.
func (c *Catalog) Revision() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.revision
}

// Stats summarises the catalog.
func (c *Catalog) Stats() CatalogStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	models := make(map[string]bool)
	for _, it := range c.merged {
		models[normalize.JoinKey(it.Model)] = true
	}
	return CatalogStats{
		Items:     len(c.merged),
		Specs:     len(c.specs),
		Models:    len(models),
		Revision:  c.revision,
		UpdatedAt: c.updatedAt,
	}
}

// RunQuery runs the query pipeline over the current items.
func (c *Catalog) RunQuery(ctx context.Context, st query.State) (query.Result, error) {
	ann, err := c.annotations.All(ctx)
	if err != nil {
		return query.Result{}, fmt.Errorf("load annotations: %w", err)
	}
	return query.Run(c.Items(), st, ann), nil
}

// Item returns one item by identity.
func (c *Catalog) Item(identity string) (model.CatalogItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.byID[identity]
	if !ok {
		return model.CatalogItem{}, fmt.Errorf("%w: %s", ErrItemNotFound, identity)
	}
	return c.merged[i], nil
}

// Annotation returns the flags of one item.
func (c *Catalog) Annotation(ctx context.Context, identity string) (model.Annotation, error) {
	if _, err := c.Item(identity); err != nil {
		return model.Annotation{}, err
	}
	return c.annotations.Get(ctx, identity)
}

// ToggleAnnotation flips a flag and returns the new annotation and counts.
func (c *Catalog) ToggleAnnotation(ctx context.Context, identity string, flag model.Flag) (model.Annotation, model.AnnotationCounts, error) {
	if _, err := c.Item(identity); err != nil {
		return model.Annotation{}, model.AnnotationCounts{}, err
	}
	a, err := c.annotations.Toggle(ctx, identity, flag)
	if err != nil {
		return model.Annotation{}, model.AnnotationCounts{}, err
	}
	counts, err := c.annotations.Counts(ctx)
	return a, counts, err
}

// SetAnnotation sets or clears a flag and returns the new annotation and counts.
func (c *Catalog) SetAnnotation(ctx context.Context, identity string, flag model.Flag, on bool) (model.Annotation, model.AnnotationCounts, error) {
	if _, err := c.Item(identity); err != nil {
		return model.Annotation{}, model.AnnotationCounts{}, err
	}
	a, err := c.annotations.Set(ctx, identity, flag, on)
	if err != nil {
		return model.Annotation{}, model.AnnotationCounts{}, err
	}
	counts, err := c.annotations.Counts(ctx)
	return a, counts, err
}

// AnnotationCounts reports how many items carry each flag.
func (c *Catalog) AnnotationCounts(ctx context.Context) (model.AnnotationCounts, error) {
	return c.annotations.Counts(ctx)
}

// Models lists the models known to the spec table, falling back to item
// models when no specs are loaded. Models are grouped by the part of their
// sort key before the first underscore.
func (c *Catalog) Models() []ModelOption {
	c.mu.RLock()
	defer c.mu.RUnlock()

	colorways := make(map[string]int)
	for _, it := range c.merged {
		colorways[normalize.JoinKey(it.Model)]++
	}

	type keyed struct {
		ModelOption
		sortKey string
	}
	var opts []keyed
	seen := make(map[string]bool)
	add := func(name, sortKey string) {
		k := normalize.JoinKey(name)
		if k == "" || seen[k] {
			return
		}
		seen[k] = true
		if sortKey == "" {
			sortKey = name
		}
		group := sortKey
		if i := strings.Index(group, "_"); i >= 0 {
			group = group[:i]
		}
		opts = append(opts, keyed{
			ModelOption: ModelOption{Model: name, Group: strings.TrimSpace(group), Colorways: colorways[k]},
			sortKey:     strings.ToLower(sortKey),
		})
	}

	for _, r := range c.specs {
		add(r.String("model"), r.String("sort_key"))
	}
	if len(c.specs) == 0 {
		for _, it := range c.merged {
			add(it.Model, "")
		}
	}

	sort.SliceStable(opts, func(i, j int) bool {
		if opts[i].sortKey != opts[j].sortKey {
			return opts[i].sortKey < opts[j].sortKey
		}
		return strings.ToLower(opts[i].Model) < strings.ToLower(opts[j].Model)
	})

	out := make([]ModelOption, len(opts))
	for i, o := range opts {
		out[i] = o.ModelOption
	}
	return out
}

// CompareSpecs lays the specifications of up to MaxCompare models side by side.
func (c *Catalog) CompareSpecs(models ...string) (SpecTable, error) {
	if len(models) > MaxCompare {
		return SpecTable{}, ErrTooManyModels
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(models))
	specs := make([]model.SpecFields, 0, len(models))
	released := make([]*model.ReleaseDate, 0, len(models))
	for _, m := range models {
		k := normalize.JoinKey(m)
		if rec, ok := c.specIndex[k]; ok {
			names = append(names, rec.String("model"))
			specs = append(specs, normalize.SpecsOf(rec))
			released = append(released, specRelease(rec))
			continue
		}
		it, ok := c.firstItemOf(k)
		if !ok {
			return SpecTable{}, fmt.Errorf("%w: %s", ErrModelNotFound, m)
		}
		names = append(names, it.Model)
		specs = append(specs, it.Specs)
		released = append(released, it.ReleaseDate)
	}
	return buildSpecTable(names, specs, released), nil
}

func (c *Catalog) firstItemOf(joinKey string) (model.CatalogItem, bool) {
	for _, it := range c.merged {
		if normalize.JoinKey(it.Model) == joinKey {
			return it, true
		}
	}
	return model.CatalogItem{}, false
}

func specRelease(rec model.Record) *model.ReleaseDate {
	raw := rec.First("released", "release_date", "date")
	if normalize.IsPlaceholder(raw) {
		return nil
	}
	d := &model.ReleaseDate{Raw: raw}
	if t, ok := normalize.ParseDate(raw); ok {
		d.Time = &t
	}
	return d
}
