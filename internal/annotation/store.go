// Package annotation persists per-item user flags (wishlist, owned).
//
// Flags live outside the versioned dataset namespace and never expire, so a
// schema bump that invalidates cached data keeps every annotation.
package annotation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"g2-yoyodex/internal/cache"
	"g2-yoyodex/internal/logger"
	"g2-yoyodex/internal/model"
)

// ErrUnknownFlag is returned for a flag other than wishlist or owned.
var ErrUnknownFlag = errors.New("unknown annotation flag")

// Store keeps one key per set flag: <app>:annotation:<flag>:<identity>.
// Presence means true; clearing a flag deletes its key.
type Store struct {
	store  cache.Store
	prefix string
	log    *logger.Logger
}

// NewStore creates an annotation store for app.
func NewStore(store cache.Store, app string, log *logger.Logger) *Store {
	return &Store{
		store:  store,
		prefix: app + ":annotation:",
		log:    logger.OrNop(log).Component("annotation"),
	}
}

func (s *Store) key(flag model.Flag, identity string) string {
	return s.prefix + string(flag) + ":" + identity
}

// Get returns the annotation of one item.
func (s *Store) Get(ctx context.Context, identity string) (model.Annotation, error) {
	a := model.Annotation{ItemIdentity: identity}
	for _, f := range model.Flags {
		ok, err := s.store.Exists(ctx, s.key(f, identity))
		if err != nil {
			return a, fmt.Errorf("read %s flag: %w", f, err)
		}
		setFlag(&a, f, ok)
	}
	return a, nil
}

// Set sets or clears a flag and returns the resulting annotation.
func (s *Store) Set(ctx context.Context, identity string, flag model.Flag, on bool) (model.Annotation, error) {
	if !flag.Valid() {
		return model.Annotation{}, fmt.Errorf("%w: %q", ErrUnknownFlag, flag)
	}

	key := s.key(flag, identity)
	var err error
	if on {
		err = s.store.Set(ctx, key, []byte("1"), 0)
	} else {
		err = s.store.Delete(ctx, key)
	}
	if err != nil {
		return model.Annotation{}, fmt.Errorf("write %s flag: %w", flag, err)
	}

	s.log.Debug("annotation updated", "item", identity, "flag", flag, "on", on)
	return s.Get(ctx, identity)
}

// Toggle flips a flag.
func (s *Store) Toggle(ctx context.Context, identity string, flag model.Flag) (model.Annotation, error) {
	if !flag.Valid() {
		return model.Annotation{}, fmt.Errorf("%w: %q", ErrUnknownFlag, flag)
	}
	ok, err := s.store.Exists(ctx, s.key(flag, identity))
	if err != nil {
		return model.Annotation{}, fmt.Errorf("read %s flag: %w", flag, err)
	}
	return s.Set(ctx, identity, flag, !ok)
}

// All returns every annotated item keyed by identity.
func (s *Store) All(ctx context.Context) (map[string]model.Annotation, error) {
	out := make(map[string]model.Annotation)
	for _, f := range model.Flags {
		ids, err := s.identities(ctx, f)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			a := out[id]
			a.ItemIdentity = id
			setFlag(&a, f, true)
			out[id] = a
		}
	}
	return out, nil
}

// Counts reports how many items carry each flag.
func (s *Store) Counts(ctx context.Context) (model.AnnotationCounts, error) {
	var c model.AnnotationCounts
	wish, err := s.identities(ctx, model.FlagWishlist)
	if err != nil {
		return c, err
	}
	owned, err := s.identities(ctx, model.FlagOwned)
	if err != nil {
		return c, err
	}
	c.Wishlist, c.Owned = len(wish), len(owned)
	return c, nil
}

func (s *Store) identities(ctx context.Context, flag model.Flag) ([]string, error) {
	prefix := s.prefix + string(flag) + ":"
	keys, err := s.store.Keys(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list %s flags: %w", flag, err)
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, prefix))
	}
	return ids, nil
}

func setFlag(a *model.Annotation, f model.Flag, on bool) {
	switch f {
	case model.FlagWishlist:
		a.Wishlist = on
	case model.FlagOwned:
		a.Owned = on
	}
}
