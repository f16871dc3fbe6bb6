// Package scheduler implements the debounced, single-flight asynchronous
// compute scheduler: dirty marks are coalesced behind a quiet window, one
// compute run executes off the caller's goroutine at a time, and results are
// committed only when their run ID is still current.
package scheduler

import (
	"sort"
	"time"

	"github.com/ampdesk/ampdesk/pkg/section"
)

// DefaultWindow is the debounce window used when none is configured.
const DefaultWindow = 200 * time.Millisecond

// Core is the pure debounce state machine: a set of dirty sections, the
// timestamp of the last mark, and the configured quiet window.
//
// Core is not safe for concurrent use. It is owned by a single consumer (the
// Scheduler's actor goroutine) and takes explicit timestamps so that tests
// can drive it deterministically.
type Core struct {
	window   time.Duration
	dirty    map[section.Section]struct{}
	lastMark time.Time
}

// NewCore creates a Core with the given debounce window. A non-positive
// window falls back to DefaultWindow.
func NewCore(window time.Duration) *Core {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Core{
		window: window,
		dirty:  make(map[section.Section]struct{}),
	}
}

// Window returns the configured debounce window.
func (c *Core) Window() time.Duration {
	return c.window
}

// MarkDirty inserts sec into the dirty set and stamps now as the last mark.
// Always succeeds; every new mark resets the quiet-time clock.
func (c *Core) MarkDirty(sec section.Section, now time.Time) {
	c.dirty[sec] = struct{}{}
	c.lastMark = now
}

// ShouldRun reports whether a run is eligible: the dirty set is non-empty and
// at least the window has elapsed since the last mark. The boundary is
// inclusive. Before any mark it is always false.
func (c *Core) ShouldRun(now time.Time) bool {
	if len(c.dirty) == 0 {
		return false
	}
	return now.Sub(c.lastMark) >= c.window
}

// PopDirty atomically returns and clears the dirty set, sorted for
// deterministic downstream iteration. Popping an empty set returns an empty
// slice, not an error; anything marked after PopDirty begins a new cycle.
func (c *Core) PopDirty() []section.Section {
	out := make([]section.Section, 0, len(c.dirty))
	for sec := range c.dirty {
		out = append(out, sec)
	}
	clear(c.dirty)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// HasDirty is a non-destructive peek, used to decide whether to reschedule
// immediately after a run completes.
func (c *Core) HasDirty() bool {
	return len(c.dirty) > 0
}

// IsStale reports whether a completed run's result must be discarded. Any
// mismatch is stale, not just "less than": run IDs are never reused and never
// regress, so inequality on either side means a different run is current.
func IsStale(currentID, resultID uint64) bool {
	return resultID != currentID
}
