package orchestrator

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/agent-ensemble/internal/capability"
	"github.com/example/agent-ensemble/internal/models"
	"github.com/example/agent-ensemble/internal/oracle"
	"github.com/example/agent-ensemble/internal/router"
)

type answerTool struct{}

func (a *answerTool) Name() string { return "answer" }

func (a *answerTool) Execute(ctx context.Context, inputs map[string]any) (any, string, error) {
	text, _ := inputs["text"].(string)
	return "answered: " + text, "", nil
}

func testEngine(t *testing.T, decider oracle.Decider) *Engine {
	t.Helper()
	reg := capability.NewRegistry()
	require.NoError(t, reg.Register(capability.Descriptor{ID: "answer", Purpose: "answer"}, &answerTool{}))
	require.NoError(t, reg.RegisterSet("analysis", "answer"))
	require.NoError(t, reg.RegisterSet("review", "answer"))

	profiles := []router.Profile{
		{Set: "analysis", Patterns: []router.Pattern{{Expr: `\banaly[sz]e\b`, Weight: 1.0}}},
		{Set: "review", Patterns: []router.Pattern{{Expr: `\breview\b`, Weight: 1.0}},
			After: []string{"analysis"}},
	}
	rt, err := router.New(profiles)
	require.NoError(t, err)

	engine, err := New(Config{
		Registry:       reg,
		Decider:        decider,
		Route:          rt.Route,
		MaxRounds:      5,
		SubTaskTimeout: time.Second,
	})
	require.NoError(t, err)
	return engine
}

func TestTaskLifecycle(t *testing.T) {
	decider := oracle.NewScript(oracle.Decision{Kind: oracle.DecideFinal, Answer: "all done"})
	engine := testEngine(t, decider)

	task := engine.CreateTask("analyze the numbers", nil, Overrides{})
	assert.Equal(t, models.StatusPending, task.Status)
	require.NotEmpty(t, task.ID)

	got, ok := engine.GetTask(task.ID)
	require.True(t, ok)
	assert.Same(t, task, got)

	require.NoError(t, engine.Start(context.Background(), task.ID))

	assert.Equal(t, models.StatusSuccess, task.Status)
	require.NotNil(t, task.Result)
	assert.Equal(t, "all done", task.Result.Answer)
	assert.Equal(t, task.ID, task.Result.SessionID)
	require.NotNil(t, task.Plan)
	assert.Equal(t, 1, task.Plan.SubTaskCount())
}

func TestRoutingFailureFailsTaskBeforeExecution(t *testing.T) {
	decider := oracle.NewScript(oracle.Decision{Kind: oracle.DecideFinal, Answer: "unused"})
	engine := testEngine(t, decider)

	task := engine.CreateTask("completely unrelated gibberish", nil, Overrides{})
	err := engine.Start(context.Background(), task.ID)

	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrRoutingAmbiguous)
	assert.Equal(t, models.StatusFailed, task.Status)
	assert.Nil(t, task.Result)
	assert.Equal(t, 0, decider.Calls(), "no loop may start on a routing failure")
}

func TestCapabilitySetOverrideSkipsRouting(t *testing.T) {
	decider := oracle.NewScript(oracle.Decision{Kind: oracle.DecideFinal, Answer: "pinned"})
	engine := testEngine(t, decider)

	task := engine.CreateTask("gibberish that routes nowhere", nil,
		Overrides{CapabilitySet: "review"})
	require.NoError(t, engine.Start(context.Background(), task.ID))

	assert.Equal(t, models.StatusSuccess, task.Status)
	require.Len(t, task.Plan.Groups, 1)
	assert.Equal(t, []string{task.ID + ":review"}, task.Plan.Groups[0].SubTaskIDs)
}

func TestOverrideUnknownSetFails(t *testing.T) {
	engine := testEngine(t, oracle.NewScript())

	task := engine.CreateTask("anything", nil, Overrides{CapabilitySet: "nope"})
	err := engine.Start(context.Background(), task.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUnknownCapabilitySet)
}

func TestMultiGroupRunPassesContextForward(t *testing.T) {
	// analysis publishes a finding; review runs in the next group and must
	// see it in its snapshot.
	var reviewSaw string
	decider := snapshotDecider{seen: &reviewSaw}
	engine := testEngine(t, decider)

	task := engine.CreateTask("analyze the data then review the result", nil,
		Overrides{Sequential: true})
	require.NoError(t, engine.Start(context.Background(), task.ID))

	assert.Equal(t, models.StatusSuccess, task.Status)
	assert.Len(t, task.Plan.Groups, 2)
	assert.Equal(t, "analysis finding", reviewSaw)
	require.NotNil(t, task.Result)
	assert.Len(t, task.Result.Digest, 2)
}

func TestStartUnknownTask(t *testing.T) {
	engine := testEngine(t, oracle.NewScript())
	assert.Error(t, engine.Start(context.Background(), "missing"))
}

func TestCancelUnknownTask(t *testing.T) {
	engine := testEngine(t, oracle.NewScript())
	assert.False(t, engine.Cancel("missing"))
}

func TestEventStreamDeliversTerminalResult(t *testing.T) {
	decider := oracle.NewScript(
		oracle.Decision{Kind: oracle.DecideTool,
			Invocation: &models.ToolInvocation{Capability: "answer", Arguments: map[string]any{"text": "q"}}},
		oracle.Decision{Kind: oracle.DecideFinal, Answer: "final text"},
	)
	engine := testEngine(t, decider)
	task := engine.CreateTask("analyze this", nil, Overrides{})

	events, unsubscribe := engine.Subscribe(task.ID)
	defer unsubscribe()

	require.NoError(t, engine.Start(context.Background(), task.ID))

	// Start has returned, so every event is already buffered.
	var kinds []string
	var sawResult bool
drain:
	for {
		select {
		case b := <-events:
			var ev Event
			require.NoError(t, json.Unmarshal(b, &ev))
			kinds = append(kinds, ev.Event)
			if ev.Event == "result" {
				sawResult = true
			}
		default:
			break drain
		}
	}

	assert.Contains(t, kinds, "decision-pending")
	assert.Contains(t, kinds, "tool-started")
	assert.Contains(t, kinds, "tool-finished")
	assert.Contains(t, kinds, "subtask-terminal")
	assert.True(t, sawResult)
}

func TestHubSkipsSlowSubscribers(t *testing.T) {
	hub := NewHub()
	ch, unsubscribe := hub.Subscribe("t1")
	defer unsubscribe()

	for i := 0; i < 200; i++ {
		hub.Publish(Event{Event: "tick", TaskID: "t1"})
	}
	// The buffer holds 64; the rest were dropped without blocking.
	assert.Len(t, ch, 64)
}

func TestHubIsolatesTasks(t *testing.T) {
	hub := NewHub()
	a, unsubA := hub.Subscribe("a")
	defer unsubA()
	b, unsubB := hub.Subscribe("b")
	defer unsubB()

	hub.Publish(Event{Event: "only-a", TaskID: "a"})
	assert.Len(t, a, 1)
	assert.Len(t, b, 0)
}

// snapshotDecider answers immediately; the analysis subtask publishes a
// context write, the review subtask records what its snapshot holds.
type snapshotDecider struct {
	seen *string
}

func (d snapshotDecider) Decide(ctx context.Context, req oracle.Request) (oracle.Decision, error) {
	if req.SubTask.CapabilitySet == "analysis" {
		return oracle.Decision{
			Kind:          oracle.DecideFinal,
			Answer:        "analysis done",
			ContextWrites: map[string]any{"finding": "analysis finding"},
		}, nil
	}
	if entry, ok := req.Context.Latest("finding"); ok {
		if s, ok := entry.Value.(string); ok {
			*d.seen = s
		}
	}
	return oracle.Decision{Kind: oracle.DecideFinal, Answer: "review done"}, nil
}
