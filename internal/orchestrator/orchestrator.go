// Package orchestrator is the engine's front door: it owns the task store,
// drives route → execute → synthesize for each task, and publishes the
// event stream consumed by the API layer.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/agent-ensemble/internal/blackboard"
	"github.com/example/agent-ensemble/internal/capability"
	"github.com/example/agent-ensemble/internal/models"
	"github.com/example/agent-ensemble/internal/oracle"
	"github.com/example/agent-ensemble/internal/pool"
	"github.com/example/agent-ensemble/internal/router"
	"github.com/example/agent-ensemble/internal/synth"
)

// Overrides are the per-task knobs the ingress surface may set, mostly for
// testing: pin the task to one capability set, change the round budget, or
// force sequential execution.
type Overrides struct {
	CapabilitySet string `json:"capability_set,omitempty"`
	MaxRounds     int    `json:"max_rounds,omitempty"`
	Sequential    bool   `json:"sequential,omitempty"`
}

// Config wires an Engine.
type Config struct {
	Registry *capability.Registry
	Decider  oracle.Decider
	Route    router.RouteFunc
	Logger   *zap.Logger

	MaxRounds      int
	SubTaskTimeout time.Duration
	Concurrency    int
}

// Engine coordinates the whole pipeline. Shared mutable state is limited to
// the task store; each running task gets its own board and pool.
type Engine struct {
	cfg   Config
	synth synth.Synthesizer
	hub   *Hub

	mu        sync.RWMutex
	tasks     map[string]*models.Task
	overrides map[string]Overrides
	cancels   map[string]context.CancelFunc
}

func New(cfg Config) (*Engine, error) {
	if cfg.Registry == nil {
		return nil, errors.New("registry is required")
	}
	if cfg.Decider == nil {
		return nil, errors.New("decider is required")
	}
	if cfg.Route == nil {
		return nil, errors.New("route func is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Engine{
		cfg:       cfg,
		hub:       NewHub(),
		tasks:     map[string]*models.Task{},
		overrides: map[string]Overrides{},
		cancels:   map[string]context.CancelFunc{},
	}, nil
}

// CreateTask registers a new pending task and returns it.
func (e *Engine) CreateTask(query string, hints map[string]any, ov Overrides) *models.Task {
	now := time.Now()
	t := &models.Task{
		ID:        uuid.NewString(),
		Query:     query,
		Hints:     hints,
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	e.mu.Lock()
	e.tasks[t.ID] = t
	e.overrides[t.ID] = ov
	e.mu.Unlock()
	return t
}

func (e *Engine) GetTask(id string) (*models.Task, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := e.tasks[id]
	return t, ok
}

func (e *Engine) ListTasks() []*models.Task {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*models.Task, 0, len(e.tasks))
	for _, t := range e.tasks {
		out = append(out, t)
	}
	return out
}

// Subscribe returns the task's event stream as JSON-encoded payloads.
func (e *Engine) Subscribe(taskID string) (<-chan []byte, func()) {
	return e.hub.Subscribe(taskID)
}

// Cancel signals task-level cancellation to every running SubTask loop.
func (e *Engine) Cancel(taskID string) bool {
	e.mu.RLock()
	cancel, ok := e.cancels[taskID]
	e.mu.RUnlock()
	if ok {
		cancel()
	}
	return ok
}

// Start runs a task to completion: route, execute the plan, synthesize.
// Routing failure is fatal before any execution starts; sub-task failures
// degrade the result instead of failing the task, unless the whole final
// group failed.
func (e *Engine) Start(ctx context.Context, id string) error {
	t, ok := e.GetTask(id)
	if !ok {
		return fmt.Errorf("task %q not found", id)
	}
	e.mu.RLock()
	ov := e.overrides[id]
	e.mu.RUnlock()

	taskCtx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.cancels[id] = cancel
	e.mu.Unlock()
	defer func() {
		cancel()
		e.mu.Lock()
		delete(e.cancels, id)
		e.mu.Unlock()
	}()

	e.setStatus(t, models.StatusRunning)

	subtasks, plan, err := e.route(taskCtx, t, ov)
	if err != nil {
		e.failTask(t, err)
		return err
	}
	t.Plan = plan

	board := blackboard.NewBoard()
	p, err := pool.New(pool.Config{
		Registry:       e.cfg.Registry,
		Decider:        e.cfg.Decider,
		Board:          board,
		Events:         taskSink{hub: e.hub, taskID: t.ID},
		Logger:         e.cfg.Logger,
		MaxRounds:      e.cfg.MaxRounds,
		SubTaskTimeout: e.cfg.SubTaskTimeout,
		Concurrency:    e.cfg.Concurrency,
	})
	if err != nil {
		e.failTask(t, err)
		return err
	}

	outcomes, err := p.RunPlan(taskCtx, subtasks, plan, pool.Options{
		MaxRounds:  ov.MaxRounds,
		Sequential: ov.Sequential,
	})
	if err != nil {
		e.failTask(t, err)
		return err
	}

	result, err := e.synth.Synthesize(t, plan, subtasks, outcomes, board.Snapshot())
	if err != nil {
		e.failTask(t, err)
		return err
	}
	result.SessionID = t.ID
	t.Result = result
	e.setStatus(t, models.StatusSuccess)
	e.hub.Publish(Event{Event: "result", TaskID: t.ID, Payload: result})

	e.cfg.Logger.Info("task complete",
		zap.String("task", t.ID),
		zap.Int("subtasks", len(outcomes)),
		zap.Int("unsatisfied", len(result.Unsatisfied)))
	return nil
}

// route applies the configured policy, or builds a single-subtask plan when
// the ingress pinned a capability set.
func (e *Engine) route(ctx context.Context, t *models.Task, ov Overrides) ([]*models.SubTask, *models.ExecutionPlan, error) {
	if ov.CapabilitySet != "" {
		if _, err := e.cfg.Registry.Resolve(ov.CapabilitySet); err != nil {
			return nil, nil, err
		}
		st := &models.SubTask{
			ID:            t.ID + ":" + ov.CapabilitySet,
			TaskID:        t.ID,
			Description:   t.Query,
			CapabilitySet: ov.CapabilitySet,
		}
		plan := &models.ExecutionPlan{Groups: []models.Group{{ID: 0, SubTaskIDs: []string{st.ID}}}}
		return []*models.SubTask{st}, plan, nil
	}
	return e.cfg.Route(ctx, t)
}

func (e *Engine) setStatus(t *models.Task, status models.Status) {
	e.mu.Lock()
	t.Status = status
	t.UpdatedAt = time.Now()
	e.mu.Unlock()
}

func (e *Engine) failTask(t *models.Task, err error) {
	e.setStatus(t, models.StatusFailed)
	e.hub.Publish(Event{Event: "error", TaskID: t.ID, Payload: map[string]any{
		"kind":    models.ErrorKindOf(err),
		"message": err.Error(),
	}})
	e.cfg.Logger.Warn("task failed", zap.String("task", t.ID), zap.Error(err))
}
