// Package validation runs registered per-section validators and keeps the
// latest findings for the UI to display.
//
// Validators are plain functions. A validator that panics is isolated: the
// crash is converted into a synthetic VALIDATOR_CRASH issue for its section so
// the loss of coverage stays visible instead of disappearing into a log.
package validation

import (
	"fmt"
	"sync"

	"github.com/ampdesk/ampdesk/pkg/debug"
	"github.com/ampdesk/ampdesk/pkg/section"
)

// Func validates one section against current model state.
type Func func() []section.Issue

type registered struct {
	name string
	fn   Func
}

// Service implements section.Validator over a registry of per-section
// validator functions. Safe for concurrent use.
type Service struct {
	mu         sync.Mutex
	validators map[section.Section][]registered
	last       map[section.Section][]section.Issue
}

// NewService creates an empty validation service.
func NewService() *Service {
	return &Service{
		validators: make(map[section.Section][]registered),
		last:       make(map[section.Section][]section.Issue),
	}
}

// Register adds a named validator for sec. Multiple validators per section
// run in registration order and their findings are concatenated.
func (s *Service) Register(sec section.Section, name string, fn Func) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.validators[sec] = append(s.validators[sec], registered{name: name, fn: fn})
}

// ValidateSections validates the given sections in one batch and returns the
// per-section findings. Duplicate section entries are validated once. Results
// are also retained for LastIssues.
func (s *Service) ValidateSections(sections []section.Section) map[section.Section][]section.Issue {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[section.Section][]section.Issue)
	seen := make(map[section.Section]bool, len(sections))
	for _, sec := range sections {
		if seen[sec] {
			continue
		}
		seen[sec] = true

		issues := s.runLocked(sec)
		out[sec] = issues
		s.last[sec] = issues
	}
	return out
}

// runLocked executes every validator registered for sec, shielding the pass
// from individual panics.
func (s *Service) runLocked(sec section.Section) []section.Issue {
	var issues []section.Issue
	for _, v := range s.validators[sec] {
		found, crashed := runOne(sec, v)
		if crashed != nil {
			issues = append(issues, *crashed)
			continue
		}
		issues = append(issues, found...)
	}
	return dedup(issues)
}

func runOne(sec section.Section, v registered) (found []section.Issue, crashed *section.Issue) {
	defer func() {
		if r := recover(); r != nil {
			debug.LogEvent("validation", "validator_crash", map[string]any{
				"section":   sec.String(),
				"validator": v.name,
				"panic":     fmt.Sprint(r),
			})
			// A crashed validator means lost coverage, not a proven data
			// error, so the synthetic issue is a warning.
			crashed = &section.Issue{
				Code:     section.CodeValidatorCrash,
				Message:  fmt.Sprintf("validator %q crashed: %v", v.name, r),
				Severity: section.SeverityWarning,
				Context:  sec.String(),
			}
		}
	}()
	return v.fn(), nil
}

// dedup drops issues identical in code, message, severity, and context,
// keeping first occurrence order.
func dedup(issues []section.Issue) []section.Issue {
	if len(issues) < 2 {
		return issues
	}
	seen := make(map[section.Issue]bool, len(issues))
	out := issues[:0]
	for _, is := range issues {
		if seen[is] {
			continue
		}
		seen[is] = true
		out = append(out, is)
	}
	return out
}

// LastIssues returns the findings recorded by the most recent validation of
// sec, or nil if it was never validated.
func (s *Service) LastIssues(sec section.Section) []section.Issue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]section.Issue(nil), s.last[sec]...)
}

// AllIssues returns a copy of every retained finding, keyed by section.
// Sections whose last validation was clean are omitted.
func (s *Service) AllIssues() map[section.Section][]section.Issue {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[section.Section][]section.Issue, len(s.last))
	for sec, issues := range s.last {
		if len(issues) == 0 {
			continue
		}
		out[sec] = append([]section.Issue(nil), issues...)
	}
	return out
}

// HasErrors reports whether any retained finding is severity error.
func (s *Service) HasErrors() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, issues := range s.last {
		for _, is := range issues {
			if is.Severity == section.SeverityError {
				return true
			}
		}
	}
	return false
}
