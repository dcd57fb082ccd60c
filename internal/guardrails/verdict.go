package guardrails

import "fmt"

// RejectionKind classifies why a stage refused a text.
type RejectionKind string

const (
	RejectSafety    RejectionKind = "safety"
	RejectTheme     RejectionKind = "theme"
	RejectTone      RejectionKind = "tone"
	RejectMalformed RejectionKind = "malformed_input"
	RejectFault     RejectionKind = "internal_fault"
)

// Verdict is the outcome of a single pipeline stage.
type Verdict struct {
	Passed bool          `json:"passed"`
	Kind   RejectionKind `json:"kind,omitempty"`
	Reason string        `json:"reason,omitempty"`
}

func Pass() Verdict {
	return Verdict{Passed: true}
}

func Reject(kind RejectionKind, format string, args ...any) Verdict {
	return Verdict{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

func (v Verdict) Rejected() bool { return !v.Passed }
