package validation

import (
	"testing"

	"github.com/ampdesk/ampdesk/pkg/section"
)

func TestService_RunsValidatorsInRegistrationOrder(t *testing.T) {
	s := NewService()
	s.Register(section.SectionDCLoad, "first", func() []section.Issue {
		return []section.Issue{{Code: "A", Message: "a", Severity: section.SeverityWarning}}
	})
	s.Register(section.SectionDCLoad, "second", func() []section.Issue {
		return []section.Issue{{Code: "B", Message: "b", Severity: section.SeverityError}}
	})

	out := s.ValidateSections([]section.Section{section.SectionDCLoad})
	issues := out[section.SectionDCLoad]
	if len(issues) != 2 || issues[0].Code != "A" || issues[1].Code != "B" {
		t.Fatalf("issues = %v", issues)
	}
}

func TestService_DuplicateSectionsValidateOnce(t *testing.T) {
	s := NewService()
	calls := 0
	s.Register(section.SectionSite, "counter", func() []section.Issue {
		calls++
		return nil
	})

	s.ValidateSections([]section.Section{section.SectionSite, section.SectionSite})
	if calls != 1 {
		t.Errorf("validator ran %d times, want 1", calls)
	}
}

func TestService_PanicBecomesValidatorCrashIssue(t *testing.T) {
	s := NewService()
	s.Register(section.SectionCabinet, "crasher", func() []section.Issue {
		panic("bad input")
	})
	s.Register(section.SectionCabinet, "survivor", func() []section.Issue {
		return []section.Issue{{Code: "OK", Message: "still ran"}}
	})

	out := s.ValidateSections([]section.Section{section.SectionCabinet})
	issues := out[section.SectionCabinet]
	if len(issues) != 2 {
		t.Fatalf("issues = %v, want crash issue plus survivor", issues)
	}
	crash := issues[0]
	if crash.Code != section.CodeValidatorCrash {
		t.Errorf("code = %q, want %q", crash.Code, section.CodeValidatorCrash)
	}
	if crash.Severity != section.SeverityWarning {
		t.Errorf("severity = %v, want warning", crash.Severity)
	}
	if crash.Context != "cabinet" {
		t.Errorf("context = %q, want cabinet", crash.Context)
	}
	if issues[1].Code != "OK" {
		t.Errorf("validator after the crash did not run: %v", issues)
	}
	if s.HasErrors() {
		t.Error("a crashed validator is lost coverage, not a data error")
	}
}

func TestService_DedupIdenticalIssues(t *testing.T) {
	s := NewService()
	dup := section.Issue{Code: "DUP", Message: "same", Severity: section.SeverityWarning}
	s.Register(section.SectionProject, "one", func() []section.Issue { return []section.Issue{dup} })
	s.Register(section.SectionProject, "two", func() []section.Issue { return []section.Issue{dup} })

	out := s.ValidateSections([]section.Section{section.SectionProject})
	if got := len(out[section.SectionProject]); got != 1 {
		t.Errorf("issues = %d, want 1 after dedup", got)
	}
}

func TestService_LastIssuesRetained(t *testing.T) {
	s := NewService()
	fail := true
	s.Register(section.SectionBankCharger, "flaky", func() []section.Issue {
		if fail {
			return []section.Issue{{Code: "E", Severity: section.SeverityError}}
		}
		return nil
	})

	s.ValidateSections([]section.Section{section.SectionBankCharger})
	if !s.HasErrors() {
		t.Fatal("HasErrors must see the retained error")
	}
	if got := s.LastIssues(section.SectionBankCharger); len(got) != 1 {
		t.Fatalf("LastIssues = %v", got)
	}

	fail = false
	s.ValidateSections([]section.Section{section.SectionBankCharger})
	if s.HasErrors() {
		t.Error("revalidation must clear the retained error")
	}
	if got := s.LastIssues(section.SectionBankCharger); len(got) != 0 {
		t.Errorf("LastIssues after clean run = %v", got)
	}
}

func TestService_UnregisteredSectionIsClean(t *testing.T) {
	s := NewService()
	out := s.ValidateSections([]section.Section{section.SectionBoardFeed})
	if len(out[section.SectionBoardFeed]) != 0 {
		t.Errorf("issues = %v, want none", out[section.SectionBoardFeed])
	}
	if len(s.AllIssues()) != 0 {
		t.Errorf("AllIssues = %v, want empty", s.AllIssues())
	}
}
