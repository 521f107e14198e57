// Package agentloop implements the bounded decide → act → observe state
// machine. One Loop run serves exactly one SubTask, scoped to one capability
// set, under a round budget.
package agentloop

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/agent-ensemble/internal/blackboard"
	"github.com/example/agent-ensemble/internal/capability"
	"github.com/example/agent-ensemble/internal/models"
	"github.com/example/agent-ensemble/internal/oracle"
)

// Phase is the loop's current position in the state machine.
type Phase string

const (
	PhaseAwaitingDecision      Phase = "awaiting_decision"
	PhaseToolSelected          Phase = "tool_selected"
	PhaseToolExecuting         Phase = "tool_executing"
	PhaseObservationIntegrated Phase = "observation_integrated"
	PhaseFinalAnswered         Phase = "final_answered"
	PhaseAborted               Phase = "aborted"
)

// DefaultMaxRounds bounds a loop whose caller did not set a budget.
const DefaultMaxRounds = 15

// EventSink receives the loop's per-round lifecycle events.
type EventSink interface {
	Publish(subTaskID, kind string, payload map[string]any)
}

type noopSink struct{}

func (noopSink) Publish(string, string, map[string]any) {}

// Loop drives one SubTask to a terminal state.
type Loop struct {
	registry  *capability.Registry
	decider   oracle.Decider
	maxRounds int
	events    EventSink
	logger    *zap.Logger
}

// New builds a loop. A non-positive maxRounds falls back to
// DefaultMaxRounds; nil events and logger are replaced with no-ops.
func New(registry *capability.Registry, decider oracle.Decider, maxRounds int, events EventSink, logger *zap.Logger) (*Loop, error) {
	if registry == nil {
		return nil, errors.New("registry is required")
	}
	if decider == nil {
		return nil, errors.New("decider is required")
	}
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	if events == nil {
		events = noopSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		registry:  registry,
		decider:   decider,
		maxRounds: maxRounds,
		events:    events,
		logger:    logger,
	}, nil
}

// state is the per-run mutable loop state. Owned exclusively by Run; never
// shared across SubTasks.
type state struct {
	phase     Phase
	rounds    int
	history   []models.Observation
	toolsUsed []string
}

func (s *state) recordTool(id string) {
	for _, t := range s.toolsUsed {
		if t == id {
			return
		}
	}
	s.toolsUsed = append(s.toolsUsed, id)
}

// Run executes the decide → act → observe cycle for one SubTask. It always
// returns an outcome; errors are encoded in the outcome's status and error
// kind, never raised past the loop boundary.
func (l *Loop) Run(ctx context.Context, st *models.SubTask, snapshot blackboard.Snapshot, buf *blackboard.Buffer) *models.SubTaskOutcome {
	descriptors, err := l.registry.Resolve(st.CapabilitySet)
	if err != nil {
		return l.abort(st, &state{phase: PhaseAborted}, err)
	}

	s := &state{phase: PhaseAwaitingDecision}
	for {
		// Termination checks before each AwaitingDecision entry.
		if terminal := l.ctxOutcome(ctx, st, s); terminal != nil {
			return terminal
		}
		if s.rounds >= l.maxRounds {
			return l.abort(st, s, models.ErrRoundBudgetExceeded)
		}

		s.phase = PhaseAwaitingDecision
		l.events.Publish(st.ID, "decision-pending", map[string]any{
			"round": s.rounds,
		})

		decision, err := l.decider.Decide(ctx, oracle.Request{
			SubTask:      st,
			Capabilities: descriptors,
			History:      s.history,
			Context:      snapshot,
		})
		if err != nil {
			if terminal := l.ctxOutcome(ctx, st, s); terminal != nil {
				return terminal
			}
			if !errors.Is(err, models.ErrOracleFailure) {
				err = fmt.Errorf("%w: %v", models.ErrOracleFailure, err)
			}
			return l.abort(st, s, err)
		}

		switch decision.Kind {
		case oracle.DecideFinal:
			return l.finish(st, s, buf, decision, models.OutcomeCompleted)

		case oracle.DecideYield:
			return l.finish(st, s, buf, decision, models.OutcomeDegraded)

		case oracle.DecideTool:
			if decision.Invocation == nil {
				return l.abort(st, s, fmt.Errorf("%w: tool decision without invocation",
					models.ErrOracleFailure))
			}
			inv := *decision.Invocation
			inv.SubTaskID = st.ID
			inv.Round = s.rounds + 1

			s.phase = PhaseToolSelected
			if !l.registry.Permitted(st.CapabilitySet, inv.Capability) {
				return l.abort(st, s, fmt.Errorf("%w: %q not in set %q",
					models.ErrCapabilityNotPermitted, inv.Capability, st.CapabilitySet))
			}

			s.phase = PhaseToolExecuting
			l.events.Publish(st.ID, "tool-started", map[string]any{
				"capability": inv.Capability,
				"round":      inv.Round,
			})

			obs := l.registry.Invoke(ctx, inv)
			l.events.Publish(st.ID, "tool-finished", map[string]any{
				"capability": inv.Capability,
				"round":      inv.Round,
				"success":    obs.Success,
				"error_kind": obs.ErrorKind,
			})

			// A failed tool call is fed back as an observation so the
			// oracle can change strategy; only context expiry ends the
			// loop here.
			if terminal := l.ctxOutcome(ctx, st, s); terminal != nil {
				return terminal
			}

			s.history = append(s.history, obs)
			s.recordTool(inv.Capability)
			s.phase = PhaseObservationIntegrated
			s.rounds++

			l.logger.Debug("observation integrated",
				zap.String("subtask", st.ID),
				zap.String("capability", inv.Capability),
				zap.Bool("success", obs.Success),
				zap.Int("rounds", s.rounds))

		default:
			return l.abort(st, s, fmt.Errorf("%w: unknown decision kind %q",
				models.ErrOracleFailure, decision.Kind))
		}
	}
}

// ctxOutcome maps context expiry to its terminal outcome: a deadline is the
// per-SubTask timeout budget (Degraded), a plain cancel is task-level
// cancellation (Failed).
func (l *Loop) ctxOutcome(ctx context.Context, st *models.SubTask, s *state) *models.SubTaskOutcome {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		s.phase = PhaseAborted
		return l.outcome(st, s, models.OutcomeDegraded, models.ErrSubTaskTimeout)
	case ctx.Err() != nil:
		s.phase = PhaseAborted
		return l.outcome(st, s, models.OutcomeFailed, models.ErrTaskCancelled)
	default:
		return nil
	}
}

func (l *Loop) finish(st *models.SubTask, s *state, buf *blackboard.Buffer, decision oracle.Decision, status models.OutcomeStatus) *models.SubTaskOutcome {
	s.phase = PhaseFinalAnswered
	if buf != nil {
		for key, value := range decision.ContextWrites {
			buf.Put(key, value)
		}
	}
	out := l.outcome(st, s, status, nil)
	out.Payload = decision.Answer
	out.Confidence = decision.Confidence
	if out.Confidence == 0 {
		if status == models.OutcomeCompleted {
			out.Confidence = 1.0
		} else {
			out.Confidence = 0.5
		}
	}
	return out
}

func (l *Loop) abort(st *models.SubTask, s *state, err error) *models.SubTaskOutcome {
	s.phase = PhaseAborted
	l.logger.Warn("loop aborted",
		zap.String("subtask", st.ID),
		zap.Int("rounds", s.rounds),
		zap.Error(err))
	return l.outcome(st, s, models.OutcomeFailed, err)
}

func (l *Loop) outcome(st *models.SubTask, s *state, status models.OutcomeStatus, err error) *models.SubTaskOutcome {
	out := &models.SubTaskOutcome{
		SubTaskID:  st.ID,
		Status:     status,
		RoundsUsed: s.rounds,
		ToolsUsed:  s.toolsUsed,
	}
	if err != nil {
		out.Error = err.Error()
		out.ErrorKind = models.ErrorKindOf(err)
	}
	return out
}
