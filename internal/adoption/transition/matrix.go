// Package transition holds the fixed adoption status graph and the pure
// validator that gates every status change.
package transition

import "adoption-review/internal/models"

// Rule is one edge of the status graph.
type Rule struct {
	From             models.Status
	To               models.Status
	AllowedRoles     []models.Role
	RequiresApproval bool
	IsAuto           bool
}

// SameState reports whether the edge re-enters its own status. Such edges are
// edits, not transitions, and produce no timeline entry.
func (r Rule) SameState() bool {
	return r.From == r.To
}

// Permits reports whether role may take this edge.
func (r Rule) Permits(role models.Role) bool {
	for _, allowed := range r.AllowedRoles {
		if allowed == role {
			return true
		}
	}
	return false
}

var (
	applicantOnly = []models.Role{models.RoleApplicant}
	shelterOnly   = []models.Role{models.RoleShelter}
	shelterOrAuto = []models.Role{models.RoleShelter, models.RoleSystem}
)

// rules is the complete adoption graph. Withdrawal edges are appended by
// buildIndex for every non-terminal status.
var rules = []Rule{
	{From: models.StatusDraft, To: models.StatusSubmitted, AllowedRoles: applicantOnly},

	{From: models.StatusSubmitted, To: models.StatusDocumentReview, AllowedRoles: shelterOnly},
	{From: models.StatusSubmitted, To: models.StatusHomeVisitScheduled, AllowedRoles: shelterOnly},
	{From: models.StatusDocumentReview, To: models.StatusHomeVisitScheduled, AllowedRoles: shelterOnly},

	{From: models.StatusHomeVisitScheduled, To: models.StatusHomeVisitScheduled, AllowedRoles: shelterOnly},
	{From: models.StatusHomeVisitScheduled, To: models.StatusHomeVisitCompleted, AllowedRoles: shelterOnly},

	{From: models.StatusHomeVisitCompleted, To: models.StatusHomeVisitCompleted, AllowedRoles: shelterOnly},
	{From: models.StatusHomeVisitCompleted, To: models.StatusUnderEvaluation, AllowedRoles: shelterOrAuto, IsAuto: true},
	{From: models.StatusHomeVisitCompleted, To: models.StatusApproved, AllowedRoles: shelterOnly, RequiresApproval: true},
	{From: models.StatusHomeVisitCompleted, To: models.StatusRejected, AllowedRoles: shelterOnly, RequiresApproval: true},

	{From: models.StatusUnderEvaluation, To: models.StatusApproved, AllowedRoles: shelterOnly, RequiresApproval: true},
	{From: models.StatusUnderEvaluation, To: models.StatusRejected, AllowedRoles: shelterOnly, RequiresApproval: true},
}

type edge struct {
	from models.Status
	to   models.Status
}

var index = buildIndex()

func buildIndex() map[edge]Rule {
	all := make([]Rule, 0, len(rules)+6)
	all = append(all, rules...)
	for _, s := range models.NonTerminalStatuses() {
		all = append(all, Rule{From: s, To: models.StatusWithdrawn, AllowedRoles: applicantOnly})
	}

	idx := make(map[edge]Rule, len(all))
	for _, r := range all {
		idx[edge{r.From, r.To}] = r
	}
	return idx
}

// Rules returns every edge of the graph, withdrawal edges included.
func Rules() []Rule {
	out := make([]Rule, 0, len(index))
	for _, from := range models.AllStatuses() {
		for _, to := range models.AllStatuses() {
			if r, ok := index[edge{from, to}]; ok {
				out = append(out, r)
			}
		}
	}
	return out
}

// Lookup returns the edge from -> to if the graph has one.
func Lookup(from, to models.Status) (Rule, bool) {
	r, ok := index[edge{from, to}]
	return r, ok
}

// Targets lists the statuses directly reachable from s, excluding s itself.
func Targets(s models.Status) []models.Status {
	var out []models.Status
	for _, to := range models.AllStatuses() {
		if to == s {
			continue
		}
		if _, ok := index[edge{s, to}]; ok {
			out = append(out, to)
		}
	}
	return out
}

// Reachable returns every status reachable from s in zero or more steps.
func Reachable(s models.Status) map[models.Status]bool {
	seen := map[models.Status]bool{s: true}
	queue := []models.Status{s}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range Targets(cur) {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return seen
}

// IsValidWalk reports whether statuses, starting at draft, follows graph
// edges step by step. Repeated statuses must be same-state edges.
func IsValidWalk(statuses []models.Status) bool {
	if len(statuses) == 0 {
		return false
	}
	if statuses[0] != models.StatusDraft {
		return false
	}
	for i := 1; i < len(statuses); i++ {
		if _, ok := index[edge{statuses[i-1], statuses[i]}]; !ok {
			return false
		}
	}
	return true
}
