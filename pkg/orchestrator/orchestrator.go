// Package orchestrator executes the section dependency graph.
//
// One place owns the mapping from graph actions to callables so screens never
// grow cross-refresh wiring between themselves. Every pass is best-effort: a
// failing recalc, validator, or refresh action is recorded and logged, and
// never escapes to the caller.
package orchestrator

import (
	"fmt"

	"github.com/ampdesk/ampdesk/pkg/bus"
	"github.com/ampdesk/ampdesk/pkg/debug"
	"github.com/ampdesk/ampdesk/pkg/metrics"
	"github.com/ampdesk/ampdesk/pkg/section"
	"github.com/ampdesk/ampdesk/pkg/tracker"
)

// RecalcFunc recomputes derived values for one section.
type RecalcFunc func() error

// RefreshFunc re-renders one UI target from current model state.
type RefreshFunc func() error

// Result is the outcome of one guarded action invocation.
type Result struct {
	Label string
	Err   error
}

// Config wires an Orchestrator to its collaborators.
type Config struct {
	// Graph routes a changed section to its actions. Nil means the default
	// graph.
	Graph section.Graph
	// Recalc actions keyed by section. A section without an action is a
	// valid no-op.
	Recalc map[section.Section]RecalcFunc
	// Refresh actions keyed by target. A target without an action is a
	// valid no-op.
	Refresh map[section.RefreshTarget]RefreshFunc
	// Validator receives one batched call per pass. Optional.
	Validator section.Validator
	// Tracker is suspended for the duration of every pass so refresh side
	// effects cannot re-mark sections dirty. Optional but strongly
	// recommended in real wiring.
	Tracker *tracker.DirtyTracker
	// Bus, when set, is subscribed for ModelChanged and MetadataChanged
	// (refresh-only passes) and ProjectLoaded events.
	Bus *bus.Bus
	// Strict makes invalid enum inputs panic instead of being dropped or
	// coerced. Meant for development builds; see debug.Enabled.
	Strict bool
}

// Orchestrator walks the section graph: recalc, then one batched validate,
// then refresh, in that order, for every change notification.
type Orchestrator struct {
	cfg Config
}

// New validates the graph and subscribes to the bus when one is configured.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Graph == nil {
		cfg.Graph = section.DefaultGraph()
	}
	if err := cfg.Graph.Validate(); err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}

	o := &Orchestrator{cfg: cfg}
	if cfg.Bus != nil {
		bus.Subscribe(cfg.Bus, func(ev bus.ModelChanged) {
			o.OnSectionViewed(ev.Section)
		})
		bus.Subscribe(cfg.Bus, func(ev bus.MetadataChanged) {
			// Labels and descriptions need saving and re-rendering, never a
			// recompute.
			if o.cfg.Tracker != nil {
				o.cfg.Tracker.MarkDirty("metadata", ev.Fields...)
			}
			o.OnSectionViewed(ev.Section)
		})
		bus.Subscribe(cfg.Bus, func(bus.ProjectLoaded) {
			o.OnProjectLoaded()
		})
	}
	return o, nil
}

// OnSectionChanged handles a data change in sec: recalc, validate, refresh.
// Unregistered sections are valid no-ops, not errors. Nothing panicking or
// failing inside the pass escapes this method (except the strict-mode type
// fault, which is a programming error and meant to fail fast).
func (o *Orchestrator) OnSectionChanged(sec section.Section) {
	sec, ok := o.normSection(sec)
	if !ok {
		return
	}
	spec, ok := o.cfg.Graph[sec]
	if !ok {
		return
	}
	o.runSpec(sec, spec, true)
}

// OnSectionChangedName is the string-keyed entry point for callers outside
// the enum's package (scripting hooks, config-driven wiring). Strict mode
// rejects unknown names loudly; otherwise they are dropped.
func (o *Orchestrator) OnSectionChangedName(name string) {
	sec, ok := section.ParseSection(name)
	if !ok {
		if o.cfg.Strict {
			panic(fmt.Sprintf("orchestrator: unknown section %q", name))
		}
		return
	}
	o.OnSectionChanged(sec)
}

// OnSectionViewed handles a view activation (tab change). Only the declared
// refresh actions run; viewing a screen must never trigger recomputation or
// validation. Only changing data does.
func (o *Orchestrator) OnSectionViewed(sec section.Section) {
	sec, ok := o.normSection(sec)
	if !ok {
		return
	}
	spec, ok := o.cfg.Graph[sec]
	if !ok {
		return
	}
	o.runSpec(sec, section.Spec{Refresh: spec.Refresh}, false)
}

// OnProjectLoaded runs the synthetic whole-model-replaced spec through the
// standard three-phase path.
func (o *Orchestrator) OnProjectLoaded() {
	spec, ok := o.cfg.Graph[section.SectionProjectLoaded]
	if !ok {
		return
	}
	o.runSpec(section.SectionProjectLoaded, spec, true)
}

// runSpec executes one pass under the reentrancy guard. The guard is
// restored on every exit path, including a panic below.
func (o *Orchestrator) runSpec(sec section.Section, spec section.Spec, full bool) {
	defer metrics.Span(metrics.OrchestrationPass, "pass "+sec.String())()
	if o.cfg.Tracker != nil {
		o.cfg.Tracker.Suspend()
		defer o.cfg.Tracker.Resume()
	}

	var failures []Result

	if full {
		for _, target := range spec.Recalc {
			target, ok := o.normSection(target)
			if !ok {
				continue
			}
			fn := o.cfg.Recalc[target]
			if fn == nil {
				continue
			}
			if res := safeCall("recalc "+target.String(), metrics.RecalcAction, fn); res.Err != nil {
				failures = append(failures, res)
			}
		}

		if len(spec.Validate) > 0 && o.cfg.Validator != nil {
			targets := make([]section.Section, 0, len(spec.Validate))
			for _, v := range spec.Validate {
				if v, ok := o.normSection(v); ok {
					targets = append(targets, v)
				}
			}
			res := safeCall("validate "+sec.String(), metrics.ValidatePass, func() error {
				o.cfg.Validator.ValidateSections(targets)
				return nil
			})
			if res.Err != nil {
				failures = append(failures, res)
			}
		}
	}

	for _, target := range spec.Refresh {
		target, ok := o.normRefresh(target)
		if !ok {
			continue
		}
		fn := o.cfg.Refresh[target]
		if fn == nil {
			continue
		}
		if res := safeCall("refresh "+target.String(), metrics.RefreshAction, fn); res.Err != nil {
			failures = append(failures, res)
		}
	}

	if len(failures) > 0 {
		lines := make([]string, len(failures))
		for i, f := range failures {
			lines[i] = fmt.Sprintf("%s: %v", f.Label, f.Err)
		}
		debug.LogEvent("orchestrator", "pass_failures", map[string]any{
			"section":  sec.String(),
			"failures": lines,
		})
	}
}

// normSection applies the dual normalization contract: strict builds fail
// fast on values outside the enumeration, release builds silently drop them.
func (o *Orchestrator) normSection(sec section.Section) (section.Section, bool) {
	if sec.Valid() {
		return sec, true
	}
	if o.cfg.Strict {
		panic(fmt.Sprintf("orchestrator: invalid section value %d", int(sec)))
	}
	return sec, false
}

func (o *Orchestrator) normRefresh(r section.RefreshTarget) (section.RefreshTarget, bool) {
	if r.Valid() {
		return r, true
	}
	if o.cfg.Strict {
		panic(fmt.Sprintf("orchestrator: invalid refresh target value %d", int(r)))
	}
	return r, false
}

// safeCall runs one action behind the failure barrier: panics become errors,
// slow actions are logged, and the caller decides what to do with the Result.
func safeCall(label string, m *metrics.TimingMetric, fn func() error) (res Result) {
	res.Label = label
	defer metrics.Span(m, label)()
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("panic: %v", r)
		}
	}()
	res.Err = fn()
	return res
}
