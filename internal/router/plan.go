package router

import (
	"fmt"

	"github.com/example/agent-ensemble/internal/models"
)

// ValidatePlan checks the structural invariants of an execution plan:
// groups are non-empty and uniquely numbered in ascending order, and
// dependencies reference only earlier groups. Ascending ids over
// backward-only edges make the group graph acyclic by construction.
func ValidatePlan(plan *models.ExecutionPlan) error {
	if plan == nil || len(plan.Groups) == 0 {
		return fmt.Errorf("empty execution plan")
	}
	seen := map[int]bool{}
	prev := -1
	for _, g := range plan.Groups {
		if len(g.SubTaskIDs) == 0 {
			return fmt.Errorf("group %d has no subtasks", g.ID)
		}
		if seen[g.ID] {
			return fmt.Errorf("group %d declared twice", g.ID)
		}
		seen[g.ID] = true
		if g.ID <= prev {
			return fmt.Errorf("group ids must be ascending: %d after %d", g.ID, prev)
		}
		prev = g.ID
		for _, dep := range g.DependsOn {
			if dep >= g.ID {
				return fmt.Errorf("group %d depends on group %d which is not earlier", g.ID, dep)
			}
			if !seen[dep] {
				return fmt.Errorf("group %d depends on undeclared group %d", g.ID, dep)
			}
		}
	}
	return nil
}
