// Package syncer keeps the local datasets fresh: it serves the cached copy
// first, then revalidates against the remote source in the background.
package syncer

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"g2-yoyodex/internal/cache"
	"g2-yoyodex/internal/logger"
	"g2-yoyodex/internal/model"
)

// Fetcher downloads and sanitizes one resource.
type Fetcher interface {
	Fetch(ctx context.Context, resource model.Resource) ([]model.Record, error)
}

// Cache is the persistent dataset cache.
type Cache interface {
	Get(ctx context.Context, resource model.Resource) (*model.CacheEntry, bool)
	Set(ctx context.Context, resource model.Resource, data []model.Record) (cache.SetResult, error)
}

// DataFunc receives a dataset whenever it becomes available or changes.
type DataFunc func(resource model.Resource, data []model.Record)

// TransitionFunc observes state changes.
type TransitionFunc func(resource model.Resource, from, to State)

// Engine runs the stale-while-revalidate cycle for every resource.
type Engine struct {
	fetcher Fetcher
	cache   Cache
	onData  DataFunc
	onState TransitionFunc
	tracer  trace.Tracer
	log     *logger.Logger
	now     func() time.Time

	runMu sync.Mutex // one refresh at a time

	mu         sync.RWMutex
	status     map[model.Resource]*ResourceStatus
	refreshing bool
	unsaved    map[model.Resource]bool // delivered data is newer than the cache
}

// Option configures an Engine.
type Option func(*Engine)

// WithTransitionHook registers fn to observe every state transition.
func WithTransitionHook(fn TransitionFunc) Option {
	return func(e *Engine) { e.onState = fn }
}

// WithClock replaces the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine. onData may be nil.
func New(fetcher Fetcher, c Cache, onData DataFunc, log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		fetcher: fetcher,
		cache:   c,
		onData:  onData,
		tracer:  otel.Tracer("g2-yoyodex/syncer"),
		log:     logger.OrNop(log).Component("syncer"),
		now:     time.Now,
		status:  make(map[model.Resource]*ResourceStatus, len(model.Resources)),
		unsaved: make(map[model.Resource]bool, len(model.Resources)),
	}
	for _, r := range model.Resources {
		e.status[r] = &ResourceStatus{Resource: r, State: StateEmpty}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Refresh runs one cycle for every resource in parallel. Failures are
// recorded in Status and never returned; previously delivered data stays.
func (e *Engine) Refresh(ctx context.Context) {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	e.mu.Lock()
	e.refreshing = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.refreshing = false
		e.mu.Unlock()
	}()

	g, gctx := errgroup.WithContext(ctx)
	for _, r := range model.Resources {
		r := r
		g.Go(func() error {
			e.refreshResource(gctx, r)
			return nil
		})
	}
	_ = g.Wait()
}

func (e *Engine) refreshResource(ctx context.Context, r model.Resource) {
	ctx, span := e.tracer.Start(ctx, "syncer.refresh",
		trace.WithAttributes(attribute.String("resource", r.String())),
	)
	defer span.End()

	e.transition(r, StateEmpty, nil)

	if entry, hit := e.cache.Get(ctx, r); hit {
		e.transition(r, StateCacheHit, func(s *ResourceStatus) {
			s.HasData = true
			s.FromCache = true
			s.Records = len(entry.Data)
		})
		span.AddEvent("cache_hit", trace.WithAttributes(attribute.Int("records", len(entry.Data))))
		if e.isUnsaved(r) {
			e.log.Debug("skipping cached copy older than delivered data", "resource", r)
		} else {
			e.deliver(r, entry.Data)
		}
	} else {
		e.transition(r, StateCacheMiss, nil)
		span.AddEvent("cache_miss")
	}

	e.transition(r, StateRefreshing, func(s *ResourceStatus) {
		s.LastAttempt = e.now()
		s.Refreshes++
	})

	data, err := e.fetcher.Fetch(ctx, r)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		e.log.Warn("fetch failed, keeping last good data", "resource", r, "error", err)
		e.transition(r, StateSettled, func(s *ResourceStatus) {
			s.LastError = err.Error()
		})
		return
	}

	res, err := e.cache.Set(ctx, r, data)
	if err != nil {
		// The fetched data is still good; only persistence failed.
		span.RecordError(err)
		e.log.Error("cache write failed", "resource", r, "error", err)
	}
	wasUnsaved := e.setUnsaved(r, err != nil)

	if res.Written || err != nil || wasUnsaved {
		e.transition(r, StateUpdated, func(s *ResourceStatus) {
			s.HasData = true
			s.FromCache = false
			s.Records = len(data)
			s.LastSuccess = e.now()
			s.LastUpdate = s.LastSuccess
			s.LastChanges = res.Diff.Summary()
			s.LastError = ""
			if err != nil {
				s.LastError = err.Error()
			}
		})
		span.SetAttributes(attribute.Bool("updated", true), attribute.Int("records", len(data)))
		e.deliver(r, data)
	} else {
		e.transition(r, StateUnchanged, func(s *ResourceStatus) {
			s.HasData = true
			s.LastSuccess = e.now()
			s.LastError = ""
		})
		span.SetAttributes(attribute.Bool("updated", false))
	}

	e.transition(r, StateSettled, nil)
}

func (e *Engine) isUnsaved(r model.Resource) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.unsaved[r]
}

// setUnsaved records whether the cache lags behind the delivered data and
// returns the previous value.
func (e *Engine) setUnsaved(r model.Resource, v bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	prev := e.unsaved[r]
	e.unsaved[r] = v
	return prev
}

func (e *Engine) deliver(r model.Resource, data []model.Record) {
	if e.onData != nil {
		e.onData(r, data)
	}
}

// transition moves r to state, applying mutate under the lock.
func (e *Engine) transition(r model.Resource, to State, mutate func(*ResourceStatus)) {
	e.mu.Lock()
	s := e.status[r]
	from := s.State
	s.State = to
	if mutate != nil {
		mutate(s)
	}
	e.mu.Unlock()

	e.log.Debug("state", "resource", r, "from", from, "to", to)
	if e.onState != nil {
		e.onState(r, from, to)
	}
}

// Status returns a snapshot of every resource.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()

	st := Status{Refreshing: e.refreshing}
	for _, r := range model.Resources {
		st.Resources = append(st.Resources, *e.status[r])
	}
	st.LoadFailed = e.loadFailedLocked()
	return st
}

// LoadFailed reports that the catalog has nothing to show: the items
// resource has no data and its last attempt failed.
func (e *Engine) LoadFailed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loadFailedLocked()
}

func (e *Engine) loadFailedLocked() bool {
	s := e.status[model.ResourceItems]
	return !s.HasData && s.State == StateSettled && s.LastError != ""
}

// Ready reports whether items have been delivered at least once.
func (e *Engine) Ready() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status[model.ResourceItems].HasData
}

// Run refreshes immediately and then every interval until ctx is done.
// An interval of zero refreshes once.
func (e *Engine) Run(ctx context.Context, interval time.Duration) {
	e.Refresh(ctx)
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.log.Info("periodic refresh started", "interval", interval)
	for {
		select {
		case <-ticker.C:
			e.Refresh(ctx)
		case <-ctx.Done():
			e.log.Info("periodic refresh stopped")
			return
		}
	}
}
