package models

import "fmt"

// Status is the lifecycle state of an adoption application.
type Status string

const (
	StatusDraft              Status = "draft"
	StatusSubmitted          Status = "submitted"
	StatusDocumentReview     Status = "document_review"
	StatusHomeVisitScheduled Status = "home_visit_scheduled"
	StatusHomeVisitCompleted Status = "home_visit_completed"
	StatusUnderEvaluation    Status = "under_evaluation"
	StatusApproved           Status = "approved"
	StatusRejected           Status = "rejected"
	StatusWithdrawn          Status = "withdrawn"
)

var allStatuses = []Status{
	StatusDraft,
	StatusSubmitted,
	StatusDocumentReview,
	StatusHomeVisitScheduled,
	StatusHomeVisitCompleted,
	StatusUnderEvaluation,
	StatusApproved,
	StatusRejected,
	StatusWithdrawn,
}

// AllStatuses returns every status in workflow order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// NonTerminalStatuses returns draft through under_evaluation.
func NonTerminalStatuses() []Status {
	out := make([]Status, 0, 6)
	for _, s := range allStatuses {
		if !s.IsTerminal() {
			out = append(out, s)
		}
	}
	return out
}

// ParseStatus converts raw input into a Status, rejecting unknown values.
func ParseStatus(raw string) (Status, error) {
	for _, s := range allStatuses {
		if string(s) == raw {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown application status %q", raw)
}

func (s Status) Valid() bool {
	_, err := ParseStatus(string(s))
	return err == nil
}

// IsTerminal reports whether no further transition may leave s.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusWithdrawn:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	return string(s)
}

// Decision is the shelter's final verdict on an application.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// ParseDecision accepts only approved or rejected.
func ParseDecision(raw string) (Decision, error) {
	switch Decision(raw) {
	case DecisionApproved, DecisionRejected:
		return Decision(raw), nil
	default:
		return "", fmt.Errorf("decision must be %q or %q, got %q", DecisionApproved, DecisionRejected, raw)
	}
}

// Status returns the application status the decision leads to.
func (d Decision) Status() Status {
	if d == DecisionApproved {
		return StatusApproved
	}
	return StatusRejected
}
