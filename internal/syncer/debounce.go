package syncer

import (
	"sync"
	"time"
)

// DefaultDebounce is the window used when none is configured.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer coalesces rapid triggers: fn runs once, window after the last
// Trigger.
type Debouncer struct {
	mu      sync.Mutex
	window  time.Duration
	fn      func()
	timer   *time.Timer
	gen     uint64
	stopped bool
	fired   int
}

// NewDebouncer creates a debouncer around fn.
func NewDebouncer(window time.Duration, fn func()) *Debouncer {
	if window <= 0 {
		window = DefaultDebounce
	}
	return &Debouncer{window: window, fn: fn}
}

// Trigger schedules fn, cancelling any run scheduled earlier. It does
// nothing after Stop.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.window, func() { d.run(gen) })
}

// run executes fn unless a later Trigger or Stop superseded the timer,
// which covers timers that had already fired when they were stopped.
func (d *Debouncer) run(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.fired++
	d.mu.Unlock()
	d.fn()
}

// Fired returns how many times fn has run.
func (d *Debouncer) Fired() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fired
}

// Stop cancels a pending run and ignores later triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
