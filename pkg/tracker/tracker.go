// Package tracker holds the centralized unsaved-changes state for a project.
//
// The tracker is UI-agnostic and best-effort. Its suspend depth doubles as
// the reentrancy guard for the reactive core: while an orchestration pass
// holds a suspension, dirty marks fired as a side effect of refresh actions
// are suppressed, which is what prevents recompute feedback loops.
package tracker

import (
	"strings"
	"sync"
)

// DirtyTracker records whether the project has unsaved changes.
// All methods are safe for concurrent use.
type DirtyTracker struct {
	mu           sync.Mutex
	dirty        bool
	suspendDepth int
	lastSummary  string
}

// New creates a tracker with the given initial dirty state.
func New(initialDirty bool) *DirtyTracker {
	return &DirtyTracker{dirty: initialDirty}
}

// IsDirty reports whether unsaved changes exist.
func (t *DirtyTracker) IsDirty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dirty
}

// Suspended reports whether dirty-marking is currently suppressed.
func (t *DirtyTracker) Suspended() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.suspendDepth > 0
}

// MarkDirty records a change. A no-op while suspended; always succeeds
// otherwise. Reason and keys are folded into a human-readable summary for
// title bars and logs.
func (t *DirtyTracker) MarkDirty(reason string, keys ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.suspendDepth > 0 {
		return
	}
	t.dirty = true

	parts := make([]string, 0, 2)
	if reason != "" {
		parts = append(parts, reason)
	}
	if len(keys) > 0 {
		parts = append(parts, strings.Join(keys, ","))
	}
	t.lastSummary = strings.Join(parts, " | ")
}

// ClearDirty resets the tracker after a save.
func (t *DirtyTracker) ClearDirty() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dirty = false
	t.lastSummary = ""
}

// SyncFromModel mirrors an externally computed dirty state. Ignored while
// suspended unless force is set.
func (t *DirtyTracker) SyncFromModel(dirty, force bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.suspendDepth > 0 && !force {
		return
	}
	t.dirty = dirty
	if !dirty {
		t.lastSummary = ""
	}
}

// LastChangeSummary returns the summary recorded by the most recent mark.
func (t *DirtyTracker) LastChangeSummary() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastSummary
}

// Suspend increments the suspension depth. Each Suspend must be paired with
// a Resume; prefer SuspendTracking which guarantees the pairing.
func (t *DirtyTracker) Suspend() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.suspendDepth++
}

// Resume decrements the suspension depth. Resuming below zero is a no-op.
func (t *DirtyTracker) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.suspendDepth > 0 {
		t.suspendDepth--
	}
}

// SuspendTracking runs fn with dirty-marking suppressed. The suspension is
// released on every exit path, including a panic in fn.
func (t *DirtyTracker) SuspendTracking(fn func()) {
	t.Suspend()
	defer t.Resume()
	fn()
}
