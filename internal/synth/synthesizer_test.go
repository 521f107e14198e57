package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/agent-ensemble/internal/blackboard"
	"github.com/example/agent-ensemble/internal/models"
)

func fixture() (*models.Task, *models.ExecutionPlan, []*models.SubTask) {
	task := &models.Task{ID: "t1", Query: "do the thing"}
	plan := &models.ExecutionPlan{Groups: []models.Group{
		{ID: 0, SubTaskIDs: []string{"t1:a", "t1:b"}},
		{ID: 1, SubTaskIDs: []string{"t1:c"}, DependsOn: []int{0}},
	}}
	subtasks := []*models.SubTask{
		{ID: "t1:a", Description: "gather sources"},
		{ID: "t1:b", Description: "extract numbers"},
		{ID: "t1:c", Description: "write conclusion"},
	}
	return task, plan, subtasks
}

func TestSynthesizeCombinesCompletedAnswers(t *testing.T) {
	task, plan, subtasks := fixture()
	outcomes := []*models.SubTaskOutcome{
		{SubTaskID: "t1:a", Status: models.OutcomeCompleted, Payload: "sources found"},
		{SubTaskID: "t1:b", Status: models.OutcomeCompleted, Payload: "42 and 7"},
		{SubTaskID: "t1:c", Status: models.OutcomeCompleted, Payload: "conclusion text"},
	}

	var s Synthesizer
	result, err := s.Synthesize(task, plan, subtasks, outcomes, blackboard.Snapshot{})
	require.NoError(t, err)

	assert.Equal(t, "sources found\n\n42 and 7\n\nconclusion text", result.Answer)
	assert.Len(t, result.Digest, 3)
	assert.Empty(t, result.Unsatisfied)
}

func TestDegradedOutcomeCitedNotDropped(t *testing.T) {
	task, plan, subtasks := fixture()
	outcomes := []*models.SubTaskOutcome{
		{SubTaskID: "t1:a", Status: models.OutcomeCompleted, Payload: "sources found"},
		{SubTaskID: "t1:b", Status: models.OutcomeDegraded, Payload: "partial numbers",
			ErrorKind: models.KindSubTaskTimeout},
		{SubTaskID: "t1:c", Status: models.OutcomeCompleted, Payload: "conclusion text"},
	}

	var s Synthesizer
	result, err := s.Synthesize(task, plan, subtasks, outcomes, blackboard.Snapshot{})
	require.NoError(t, err)

	assert.Contains(t, result.Answer, "partial numbers",
		"a degraded payload still contributes")
	require.Len(t, result.Unsatisfied, 1)
	assert.Equal(t, "extract numbers (degraded: subtask_timeout)", result.Unsatisfied[0])
}

func TestFailedOutcomeListedAsUnsatisfied(t *testing.T) {
	task, plan, subtasks := fixture()
	outcomes := []*models.SubTaskOutcome{
		{SubTaskID: "t1:a", Status: models.OutcomeFailed,
			ErrorKind: models.KindCapabilityNotPermitted},
		{SubTaskID: "t1:b", Status: models.OutcomeCompleted, Payload: "numbers"},
		{SubTaskID: "t1:c", Status: models.OutcomeCompleted, Payload: "conclusion"},
	}

	var s Synthesizer
	result, err := s.Synthesize(task, plan, subtasks, outcomes, blackboard.Snapshot{})
	require.NoError(t, err)

	assert.NotContains(t, result.Answer, "gather sources")
	require.Len(t, result.Unsatisfied, 1)
	assert.Contains(t, result.Unsatisfied[0], "failed: capability_not_permitted")

	var failedDigest *models.SubTaskDigest
	for i := range result.Digest {
		if result.Digest[i].SubTaskID == "t1:a" {
			failedDigest = &result.Digest[i]
		}
	}
	require.NotNil(t, failedDigest)
	assert.Equal(t, models.OutcomeFailed, failedDigest.Status)
}

func TestAllFinalGroupFailedIsError(t *testing.T) {
	task, plan, subtasks := fixture()
	outcomes := []*models.SubTaskOutcome{
		{SubTaskID: "t1:a", Status: models.OutcomeCompleted, Payload: "sources"},
		{SubTaskID: "t1:b", Status: models.OutcomeCompleted, Payload: "numbers"},
		{SubTaskID: "t1:c", Status: models.OutcomeFailed, ErrorKind: models.KindOracleFailure},
	}

	var s Synthesizer
	_, err := s.Synthesize(task, plan, subtasks, outcomes, blackboard.Snapshot{})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNothingToSynthesize)
}

func TestEarlierGroupFailuresDoNotBlockSynthesis(t *testing.T) {
	task, plan, subtasks := fixture()
	outcomes := []*models.SubTaskOutcome{
		{SubTaskID: "t1:a", Status: models.OutcomeFailed, ErrorKind: models.KindOracleFailure},
		{SubTaskID: "t1:b", Status: models.OutcomeFailed, ErrorKind: models.KindOracleFailure},
		{SubTaskID: "t1:c", Status: models.OutcomeCompleted, Payload: "still concluded"},
	}

	var s Synthesizer
	result, err := s.Synthesize(task, plan, subtasks, outcomes, blackboard.Snapshot{})
	require.NoError(t, err)
	assert.Equal(t, "still concluded", result.Answer)
	assert.Len(t, result.Unsatisfied, 2)
}

func TestSynthesisIsIdempotent(t *testing.T) {
	task, plan, subtasks := fixture()
	outcomes := []*models.SubTaskOutcome{
		{SubTaskID: "t1:c", Status: models.OutcomeCompleted, Payload: "c"},
		{SubTaskID: "t1:a", Status: models.OutcomeDegraded, Payload: "a",
			ErrorKind: models.KindRoundBudgetExceeded},
		{SubTaskID: "t1:b", Status: models.OutcomeCompleted, Payload: "b"},
	}

	var s Synthesizer
	first, err := s.Synthesize(task, plan, subtasks, outcomes, blackboard.Snapshot{})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := s.Synthesize(task, plan, subtasks, outcomes, blackboard.Snapshot{})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	// Digest order is by sorted subtask id regardless of outcome order.
	assert.Equal(t, "t1:a", first.Digest[0].SubTaskID)
	assert.Equal(t, "t1:c", first.Digest[2].SubTaskID)
}

func TestNonStringPayloadIsEncoded(t *testing.T) {
	task := &models.Task{ID: "t1"}
	plan := &models.ExecutionPlan{Groups: []models.Group{{ID: 0, SubTaskIDs: []string{"t1:a"}}}}
	subtasks := []*models.SubTask{{ID: "t1:a", Description: "count"}}
	outcomes := []*models.SubTaskOutcome{
		{SubTaskID: "t1:a", Status: models.OutcomeCompleted,
			Payload: map[string]any{"count": 3}},
	}

	var s Synthesizer
	result, err := s.Synthesize(task, plan, subtasks, outcomes, blackboard.Snapshot{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":3}`, result.Answer)
}
