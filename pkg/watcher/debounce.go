package watcher

import (
	"sync"
	"time"
)

// DefaultDebounceDuration is the quiet period applied to filesystem events
// before a change notification fires. Editors and atomic-save tools produce
// bursts of events for one logical save.
const DefaultDebounceDuration = 250 * time.Millisecond

// Debouncer coalesces rapid triggers into one callback on the trailing edge.
// Every Trigger restarts the quiet period. Safe for concurrent use.
type Debouncer struct {
	mu       sync.Mutex
	duration time.Duration
	timer    *time.Timer
}

// NewDebouncer creates a debouncer with the given quiet period. A zero or
// negative duration fires callbacks almost immediately but still coalesces
// triggers that land before the timer goroutine runs.
func NewDebouncer(d time.Duration) *Debouncer {
	return &Debouncer{duration: d}
}

// Trigger schedules fn to run after the quiet period. A pending callback is
// replaced, so only the last fn of a burst runs.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, fn)
}

// Cancel drops any pending callback.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
