// Package oracle defines the decision port the agent loop consults each
// round. Real implementations sit on a model provider; tests use Script.
package oracle

import (
	"context"

	"github.com/example/agent-ensemble/internal/blackboard"
	"github.com/example/agent-ensemble/internal/capability"
	"github.com/example/agent-ensemble/internal/models"
)

// DecisionKind discriminates the closed set of oracle responses.
type DecisionKind string

const (
	// DecideTool requests one capability execution.
	DecideTool DecisionKind = "tool"
	// DecideFinal ends the loop with a final answer.
	DecideFinal DecisionKind = "final"
	// DecideYield ends the loop early with whatever partial result exists.
	DecideYield DecisionKind = "yield"
)

// Decision is exactly one of: a tool invocation, a final answer, or a yield.
// Final and yield decisions may carry shared-context writes that the pool
// commits when the SubTask terminates.
type Decision struct {
	Kind          DecisionKind
	Invocation    *models.ToolInvocation
	Answer        string
	ContextWrites map[string]any
	Confidence    float64
}

// Request carries everything the oracle sees: the sub-task description, the
// scoped capability descriptors, the accumulated observation history, and
// the shared-context snapshot taken at group start.
type Request struct {
	SubTask      *models.SubTask
	Capabilities []capability.Descriptor
	History      []models.Observation
	Context      blackboard.Snapshot
}

// Decider is consulted once per loop round. It must return exactly one
// Decision variant or an error; an error is fatal to the SubTask.
type Decider interface {
	Decide(ctx context.Context, req Request) (Decision, error)
}
