package section

// Severity classifies a validation issue.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// CodeValidatorCrash is the synthetic issue code produced when a validator
// itself panics, so the UI has something concrete to show instead of silently
// losing validation coverage for that section.
const CodeValidatorCrash = "VALIDATOR_CRASH"

// Issue is one validation finding for a section.
type Issue struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Context  string   `json:"context,omitempty"`
}

// Validator is the batched validation collaborator. Implementations validate
// the given sections in one call and return per-section findings. A missing
// section in the result map means "no findings", not an error.
type Validator interface {
	ValidateSections(sections []Section) map[Section][]Issue
}
