package transition

import (
	"fmt"
	"strings"

	"adoption-review/internal/models"
)

// DenialKind explains why a transition was refused.
type DenialKind string

const (
	DenialNone     DenialKind = ""
	DenialTerminal DenialKind = "terminal"
	DenialNoEdge   DenialKind = "no_edge"
	DenialRole     DenialKind = "role"
	DenialUnknown  DenialKind = "unknown_status"
)

// Decision is the validator's verdict.
type Decision struct {
	Allowed bool
	Denial  DenialKind
	Reason  string
	Rule    Rule
}

// SameState reports whether an allowed decision is an edit rather than a move.
func (d Decision) SameState() bool {
	return d.Allowed && d.Rule.SameState()
}

// Validate decides whether role may move an application from current to
// requested. It performs no I/O.
func Validate(current, requested models.Status, role models.Role) Decision {
	if !current.Valid() || !requested.Valid() {
		return Decision{
			Denial: DenialUnknown,
			Reason: fmt.Sprintf("unknown status in %q -> %q", current, requested),
		}
	}

	if current.IsTerminal() {
		return Decision{
			Denial: DenialTerminal,
			Reason: fmt.Sprintf("application is %s and can no longer change", current),
		}
	}

	rule, ok := Lookup(current, requested)
	if !ok {
		return Decision{
			Denial: DenialNoEdge,
			Reason: fmt.Sprintf("cannot move from %s to %s", current, requested),
		}
	}

	if !rule.Permits(role) {
		return Decision{
			Denial: DenialRole,
			Reason: fmt.Sprintf("role %q may not move %s to %s (allowed: %s)", role, current, requested, joinRoles(rule.AllowedRoles)),
			Rule:   rule,
		}
	}

	return Decision{Allowed: true, Rule: rule}
}

func joinRoles(roles []models.Role) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}
