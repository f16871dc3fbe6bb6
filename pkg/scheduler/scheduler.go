package scheduler

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ampdesk/ampdesk/pkg/bus"
	appdebug "github.com/ampdesk/ampdesk/pkg/debug"
	"github.com/ampdesk/ampdesk/pkg/metrics"
	"github.com/ampdesk/ampdesk/pkg/section"
	"github.com/ampdesk/ampdesk/pkg/tracker"
)

// Run describes one dispatched computation. Created at dispatch, consumed
// exactly once at completion, then discarded.
type Run struct {
	// ID strictly increases by one per dispatch within a scheduler instance.
	ID uint64
	// Reason records what triggered the run ("auto", "manual", ...).
	Reason string
	// Sections is the drained dirty set for this cycle.
	Sections []section.Section
	// Snapshot is the immutable input captured on the scheduler goroutine.
	// Workers read it and nothing else.
	Snapshot any
}

// Config wires a Scheduler to its collaborators.
type Config struct {
	// Domain is the compute section this scheduler owns. Every mark, whatever
	// section it names, is work for this domain: upstream edits invalidate the
	// derived results, so a run recomputes Domain and labels its lifecycle
	// events with it.
	Domain section.Section
	// Window is the debounce window. Zero means DefaultWindow.
	Window time.Duration
	// Bus receives ComputeStarted / Computed events. Optional.
	Bus *bus.Bus
	// Tracker suppresses MarkDirty while suspended (reentrancy guard).
	// Optional.
	Tracker *tracker.DirtyTracker
	// Dispatcher executes workloads off the scheduler goroutine.
	// Defaults to GoDispatcher.
	Dispatcher Dispatcher
	// Snapshot captures an immutable input for a run. Runs on the scheduler
	// goroutine, so it may read model state without locking against workers.
	// Optional; nil means runs carry a nil snapshot.
	Snapshot func(sections []section.Section) any
	// Workload is the expensive computation. Runs on a dispatcher worker and
	// must be a pure function of the run's snapshot.
	Workload func(run Run) (any, error)
	// Commit stores an accepted result. Runs on the scheduler goroutine,
	// before the Computed event is published. Optional.
	Commit func(run Run, result any)
}

type mark struct {
	sec    section.Section
	force  bool
	reason string
}

type completion struct {
	run    Run
	result any
	err    error
}

// Stats is a snapshot of scheduler counters.
type Stats struct {
	Dispatched uint64
	Committed  uint64
	Discarded  uint64
	Failed     uint64
}

// Scheduler owns one debounce Core, a monotonic run-id counter, and a worker
// dispatcher. All mutable scheduling state lives on a single actor goroutine;
// public methods communicate with it through channels and never block on the
// computation itself.
//
// There is no true cancellation: a dispatched workload always runs to
// completion on its worker, and supersession is enforced by discarding stale
// results at commit time.
type Scheduler struct {
	cfg Config

	marks       chan mark
	completions chan completion
	stop        chan struct{}
	done        chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once

	currentID  atomic.Uint64
	dispatched atomic.Uint64
	committed  atomic.Uint64
	discarded  atomic.Uint64
	failed     atomic.Uint64
}

// New creates a Scheduler. Config.Workload is mandatory.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Workload == nil {
		return nil, errors.New("scheduler: Config.Workload is required")
	}
	if !cfg.Domain.Valid() {
		cfg.Domain = section.SectionDCLoad
	}
	if cfg.Dispatcher == nil {
		cfg.Dispatcher = GoDispatcher{}
	}
	return &Scheduler{
		cfg:         cfg,
		marks:       make(chan mark, 64),
		completions: make(chan completion, 8),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}, nil
}

// Start launches the actor goroutine. Idempotent.
func (s *Scheduler) Start() {
	s.startOnce.Do(func() {
		go s.loop()
	})
}

// Stop shuts the actor down and waits briefly for it to exit. In-flight
// workloads keep running on their workers; their completions are dropped.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
		appdebug.LogEvent("scheduler", "shutdown_timeout", nil)
	}
}

// MarkDirty records that sec changed and (re)starts the debounce clock.
// Suppressed while the shared DirtyTracker is suspended, which is what keeps
// refresh side effects from re-triggering computation.
func (s *Scheduler) MarkDirty(sec section.Section) {
	if s.cfg.Tracker != nil && s.cfg.Tracker.Suspended() {
		appdebug.Log("scheduler: mark %s suppressed (ui refreshing)", sec)
		return
	}
	select {
	case s.marks <- mark{sec: sec}:
	case <-s.stop:
	}
}

// ForceCompute marks sec dirty and dispatches immediately, bypassing the
// debounce wait and the single-flight gate. Used for explicit user-triggered
// recompute; the run-id check is what keeps a raced scheduled run harmless.
func (s *Scheduler) ForceCompute(sec section.Section, reason string) {
	if reason == "" {
		reason = "manual"
	}
	select {
	case s.marks <- mark{sec: sec, force: true, reason: reason}:
	case <-s.stop:
	}
}

// CurrentRunID returns the most recently dispatched run id.
func (s *Scheduler) CurrentRunID() uint64 {
	return s.currentID.Load()
}

// Stats returns a snapshot of run counters.
func (s *Scheduler) Stats() Stats {
	return Stats{
		Dispatched: s.dispatched.Load(),
		Committed:  s.committed.Load(),
		Discarded:  s.discarded.Load(),
		Failed:     s.failed.Load(),
	}
}

// Done is closed when the actor goroutine has exited.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

func (s *Scheduler) loop() {
	defer close(s.done)
	defer func() {
		if r := recover(); r != nil {
			appdebug.LogEvent("scheduler", "loop_panic", map[string]any{
				"panic": fmt.Sprintf("%v", r),
				"stack": string(debug.Stack()),
			})
		}
	}()

	core := NewCore(s.cfg.Window)
	timer := time.NewTimer(time.Hour)
	stopTimer(timer)
	defer timer.Stop()

	computing := false
	rerun := false

	for {
		select {
		case <-s.stop:
			return

		case m := <-s.marks:
			core.MarkDirty(m.sec, time.Now())
			if m.force {
				s.dispatch(core, m.reason, &computing)
			} else if !computing {
				resetTimer(timer, core.Window())
			}

		case <-timer.C:
			if computing {
				// Single-flight: never run two scheduled computations at
				// once. Remember that work is owed.
				rerun = true
				continue
			}
			if !core.ShouldRun(time.Now()) {
				if core.HasDirty() {
					resetTimer(timer, core.Window())
				}
				continue
			}
			s.dispatch(core, "auto", &computing)

		case c := <-s.completions:
			s.complete(core, c, timer, &computing, &rerun)
		}
	}
}

// dispatch drains the dirty set and submits one run. A non-empty drain always
// dispatches: marks are never consumed without running. Runs on the actor
// goroutine.
func (s *Scheduler) dispatch(core *Core, reason string, computing *bool) {
	dirty := core.PopDirty()
	if len(dirty) == 0 {
		return
	}

	id := s.currentID.Add(1)
	run := Run{ID: id, Reason: reason, Sections: dirty}
	if s.cfg.Snapshot != nil {
		done := metrics.Timer(metrics.SnapshotBuild)
		run.Snapshot = s.cfg.Snapshot(dirty)
		done()
	}

	s.dispatched.Add(1)
	*computing = true
	appdebug.Log("scheduler: compute start id=%d reason=%s", id, reason)
	if s.cfg.Bus != nil {
		s.cfg.Bus.Publish(bus.ComputeStarted{
			Section: s.cfg.Domain,
			Reason:  reason,
			RunID:   id,
			At:      time.Now(),
		})
	}

	s.cfg.Dispatcher.Submit(func() {
		defer metrics.Timer(metrics.ComputeRun)()
		result, err := s.runWorkload(run)
		select {
		case s.completions <- completion{run: run, result: result, err: err}:
		case <-s.stop:
		}
	})
}

// runWorkload isolates workload panics so a crashing computation surfaces as
// a compute failure, not a dead worker.
func (s *Scheduler) runWorkload(run Run) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("workload panic: %v\n%s", r, debug.Stack())
		}
	}()
	return s.cfg.Workload(run)
}

// complete applies one worker completion. Runs on the actor goroutine.
func (s *Scheduler) complete(core *Core, c completion, timer *time.Timer, computing, rerun *bool) {
	if IsStale(s.currentID.Load(), c.run.ID) {
		// A newer run was dispatched meanwhile (a forced compute raced this
		// one). The newer run still owns the computing flag; drop this
		// result without touching any state.
		s.discarded.Add(1)
		appdebug.Log("scheduler: discarding stale result id=%d current=%d", c.run.ID, s.currentID.Load())
		return
	}

	if c.err != nil {
		s.failed.Add(1)
		appdebug.LogEvent("scheduler", "compute_error", map[string]any{
			"run_id": c.run.ID,
			"error":  c.err.Error(),
		})
	} else {
		if s.cfg.Commit != nil {
			s.cfg.Commit(c.run, c.result)
		}
		s.committed.Add(1)
		if s.cfg.Bus != nil {
			s.cfg.Bus.Publish(bus.Computed{
				Section: s.cfg.Domain,
				Reason:  c.run.Reason,
				RunID:   c.run.ID,
				At:      time.Now(),
			})
		}
	}

	*computing = false
	if *rerun || core.HasDirty() {
		*rerun = false
		resetTimer(timer, core.Window())
	}
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	stopTimer(t)
	t.Reset(d)
}
