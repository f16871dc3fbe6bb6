package bus

import (
	"time"

	"github.com/ampdesk/ampdesk/pkg/section"
)

// InputChanged signals that user-editable input data in a section changed.
// Fields optionally names the touched fields.
type InputChanged struct {
	Section section.Section
	Fields  []string
}

// MetadataChanged signals a change to section metadata that does not require
// a full recompute on its own (labels, descriptions).
type MetadataChanged struct {
	Section section.Section
	Fields  []string
}

// ModelChanged signals that the model for a section was replaced or mutated
// programmatically rather than by direct user input.
type ModelChanged struct {
	Section section.Section
	Reason  string
}

// ProjectLoaded signals that the whole project model was replaced.
type ProjectLoaded struct {
	Path string
}

// ComputeStarted is published when the scheduler dispatches a compute run.
// UI spinners key off this.
type ComputeStarted struct {
	Section section.Section
	Reason  string
	RunID   uint64
	At      time.Time
}

// Computed is published after a compute result was committed. Stale results
// never produce this event.
type Computed struct {
	Section section.Section
	Reason  string
	RunID   uint64
	At      time.Time
}
