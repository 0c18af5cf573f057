package service

import (
	"context"
	"sync"
	"time"

	"g2-yoyodex/internal/logger"
)

// Sweeper removes stale entries and reports how many it dropped.
type Sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// SweepFunc adapts a function to Sweeper.
type SweepFunc func(ctx context.Context) (int64, error)

func (f SweepFunc) Sweep(ctx context.Context) (int64, error) { return f(ctx) }

// CleanupConfig holds configuration for the cleanup scheduler.
type CleanupConfig struct {
	// Interval is how often the cleanup runs. Default: 10 minutes
	Interval time.Duration

	// InitialDelay postpones the first run after Start. Default: 1 minute
	InitialDelay time.Duration
}

// DefaultCleanupConfig returns default cleanup configuration.
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		Interval:     10 * time.Minute,
		InitialDelay: 1 * time.Minute,
	}
}

// CleanupScheduler periodically sweeps expired sessions and stale dataset
// entries out of storage.
type CleanupScheduler struct {
	sweepers  map[string]Sweeper
	config    CleanupConfig
	log       *logger.Logger
	ticker    *time.Ticker
	stopCh    chan struct{}
	stopOnce  sync.Once
	isRunning bool
	mu        sync.Mutex
}

// NewCleanupScheduler creates a new cleanup scheduler.
func NewCleanupScheduler(sweepers map[string]Sweeper, config CleanupConfig, log *logger.Logger) *CleanupScheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultCleanupConfig().Interval
	}
	if config.InitialDelay < 0 {
		config.InitialDelay = 0
	}

	return &CleanupScheduler{
		sweepers: sweepers,
		config:   config,
		log:      logger.OrNop(log).Component("cleanup"),
		stopCh:   make(chan struct{}),
	}
}

// Start begins the cleanup scheduler.
func (s *CleanupScheduler) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.ticker = time.NewTicker(s.config.Interval)
	s.mu.Unlock()

	s.log.Info("started", "interval", s.config.Interval)

	go func() {
		select {
		case <-time.After(s.config.InitialDelay):
			s.runCleanup()
		case <-s.stopCh:
		}
	}()

	go s.run()
}

// run is the main cleanup loop.
func (s *CleanupScheduler) run() {
	for {
		select {
		case <-s.ticker.C:
			s.runCleanup()
		case <-s.stopCh:
			s.log.Info("stopped")
			return
		}
	}
}

func (s *CleanupScheduler) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := s.RunNow(ctx); err != nil {
		s.log.Error("cleanup failed", "error", err)
	}
}

// RunNow sweeps every target immediately and returns the removed counts.
// A failing target does not stop the others; the first error is returned.
func (s *CleanupScheduler) RunNow(ctx context.Context) (map[string]int64, error) {
	removed := make(map[string]int64, len(s.sweepers))
	var firstErr error
	for name, sw := range s.sweepers {
		n, err := sw.Sweep(ctx)
		if err != nil {
			s.log.Warn("sweep failed", "target", name, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		removed[name] = n
		if n > 0 {
			s.log.Info("swept", "target", name, "removed", n)
		}
	}
	return removed, firstErr
}

// Stop stops the cleanup scheduler.
func (s *CleanupScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
		s.isRunning = false
	})
}
