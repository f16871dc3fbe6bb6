package tracker

import "testing"

func TestDirtyTracker_MarkAndClear(t *testing.T) {
	tr := New(false)
	if tr.IsDirty() {
		t.Fatal("new tracker should be clean")
	}

	tr.MarkDirty("edit", "dc_load")
	if !tr.IsDirty() {
		t.Fatal("expected dirty after mark")
	}
	if got := tr.LastChangeSummary(); got != "edit | dc_load" {
		t.Errorf("summary = %q", got)
	}

	tr.ClearDirty()
	if tr.IsDirty() {
		t.Error("expected clean after clear")
	}
	if tr.LastChangeSummary() != "" {
		t.Error("summary should be cleared")
	}
}

func TestDirtyTracker_SuspendSuppressesMarks(t *testing.T) {
	tr := New(false)

	tr.Suspend()
	tr.MarkDirty("refresh side effect")
	if tr.IsDirty() {
		t.Error("mark while suspended must be a no-op")
	}
	tr.Resume()

	// Identical mark succeeds once the guard is released.
	tr.MarkDirty("refresh side effect")
	if !tr.IsDirty() {
		t.Error("mark after resume must succeed")
	}
}

func TestDirtyTracker_NestedSuspension(t *testing.T) {
	tr := New(false)
	tr.Suspend()
	tr.Suspend()
	tr.Resume()
	if !tr.Suspended() {
		t.Error("still one suspension deep")
	}
	tr.Resume()
	if tr.Suspended() {
		t.Error("fully resumed")
	}
	// Resume below zero is harmless.
	tr.Resume()
	tr.MarkDirty("x")
	if !tr.IsDirty() {
		t.Error("tracker must work after extra resume")
	}
}

func TestDirtyTracker_SuspendTrackingRestoresOnPanic(t *testing.T) {
	tr := New(false)

	func() {
		defer func() { _ = recover() }()
		tr.SuspendTracking(func() {
			panic("refresh blew up")
		})
	}()

	if tr.Suspended() {
		t.Fatal("suspension leaked across a panicking pass")
	}
}

func TestDirtyTracker_SyncFromModel(t *testing.T) {
	tr := New(true)
	tr.Suspend()
	tr.SyncFromModel(false, false)
	if !tr.IsDirty() {
		t.Error("sync while suspended without force must be ignored")
	}
	tr.SyncFromModel(false, true)
	if tr.IsDirty() {
		t.Error("forced sync must apply while suspended")
	}
	tr.Resume()
}
