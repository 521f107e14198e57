// Package pool runs an execution plan: one agent loop per SubTask, groups
// executed in order with a fan-in barrier between them, siblings within a
// group concurrent and fault-isolated from each other.
package pool

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/agent-ensemble/internal/agentloop"
	"github.com/example/agent-ensemble/internal/blackboard"
	"github.com/example/agent-ensemble/internal/capability"
	"github.com/example/agent-ensemble/internal/models"
	"github.com/example/agent-ensemble/internal/oracle"
)

// Config wires a Pool. Registry, Decider, and Board are required.
type Config struct {
	Registry *capability.Registry
	Decider  oracle.Decider
	Board    *blackboard.Board
	Events   agentloop.EventSink
	Logger   *zap.Logger

	// MaxRounds is the default per-SubTask round budget.
	MaxRounds int
	// SubTaskTimeout is the default per-SubTask wall-clock budget.
	SubTaskTimeout time.Duration
	// Concurrency caps how many SubTasks of one group run at once.
	// Zero means unbounded.
	Concurrency int
}

// Options override pool defaults for a single plan run.
type Options struct {
	MaxRounds      int
	SubTaskTimeout time.Duration
	// Sequential forces one SubTask at a time, for reproducible runs in
	// tests.
	Sequential bool
}

const defaultSubTaskTimeout = 5 * time.Minute

// Pool executes plans against a shared board.
type Pool struct {
	cfg Config
}

func New(cfg Config) (*Pool, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if cfg.Decider == nil {
		return nil, fmt.Errorf("decider is required")
	}
	if cfg.Board == nil {
		return nil, fmt.Errorf("board is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.SubTaskTimeout <= 0 {
		cfg.SubTaskTimeout = defaultSubTaskTimeout
	}
	return &Pool{cfg: cfg}, nil
}

// RunPlan executes every group of the plan in order. Group G+1 does not
// start before all SubTasks of group G reached a terminal state; within a
// group all SubTasks start together and are awaited together. A SubTask's
// failure or timeout never cancels its siblings. Outcomes are returned in
// plan order, one per SubTask.
func (p *Pool) RunPlan(ctx context.Context, subtasks []*models.SubTask, plan *models.ExecutionPlan, opts Options) ([]*models.SubTaskOutcome, error) {
	byID := make(map[string]*models.SubTask, len(subtasks))
	for _, st := range subtasks {
		byID[st.ID] = st
	}

	maxRounds := opts.MaxRounds
	if maxRounds <= 0 {
		maxRounds = p.cfg.MaxRounds
	}
	timeout := opts.SubTaskTimeout
	if timeout <= 0 {
		timeout = p.cfg.SubTaskTimeout
	}

	loop, err := agentloop.New(p.cfg.Registry, p.cfg.Decider, maxRounds, p.cfg.Events, p.cfg.Logger)
	if err != nil {
		return nil, err
	}

	var outcomes []*models.SubTaskOutcome
	for _, group := range plan.Groups {
		members := make([]*models.SubTask, 0, len(group.SubTaskIDs))
		for _, id := range group.SubTaskIDs {
			st, ok := byID[id]
			if !ok {
				return nil, fmt.Errorf("plan references unknown subtask %q", id)
			}
			members = append(members, st)
		}

		// All siblings read the same snapshot, taken at the fan-in
		// barrier of the previous group.
		snapshot := p.cfg.Board.Snapshot()
		groupOutcomes := make([]*models.SubTaskOutcome, len(members))

		var g errgroup.Group
		if opts.Sequential {
			g.SetLimit(1)
		} else if p.cfg.Concurrency > 0 {
			g.SetLimit(p.cfg.Concurrency)
		}
		for i, st := range members {
			g.Go(func() error {
				groupOutcomes[i] = p.runOne(ctx, loop, st, snapshot, timeout)
				return nil
			})
		}
		_ = g.Wait()

		for i, outcome := range groupOutcomes {
			outcomes = append(outcomes, outcome)
			p.publishTerminal(members[i], outcome)
		}
		p.cfg.Logger.Info("group complete",
			zap.Int("group", group.ID),
			zap.Int("subtasks", len(members)))
	}
	return outcomes, nil
}

// runOne drives a single SubTask to a terminal state and commits its
// buffered context writes. The timeout context derives from the task
// context, so task-level cancellation still reaches the loop.
func (p *Pool) runOne(ctx context.Context, loop *agentloop.Loop, st *models.SubTask, snapshot blackboard.Snapshot, timeout time.Duration) *models.SubTaskOutcome {
	loopCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	buf := blackboard.NewBuffer(st.ID)
	outcome := loop.Run(loopCtx, st, snapshot, buf)

	// Publish a usable payload for later groups even when the oracle did
	// not stage explicit context writes.
	if outcome.Satisfied() && outcome.Payload != nil {
		buf.Put("outcome:"+st.CapabilitySet, outcome.Payload)
	}
	p.cfg.Board.Commit(buf)
	return outcome
}

func (p *Pool) publishTerminal(st *models.SubTask, outcome *models.SubTaskOutcome) {
	if p.cfg.Events == nil {
		return
	}
	p.cfg.Events.Publish(st.ID, "subtask-terminal", map[string]any{
		"status":     outcome.Status,
		"error_kind": outcome.ErrorKind,
		"rounds":     outcome.RoundsUsed,
	})
}
