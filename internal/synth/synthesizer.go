// Package synth combines SubTask outcomes and the final shared-context
// snapshot into one SynthesisResult. Synthesis is deterministic: the same
// outcomes and snapshot always produce the same result.
package synth

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/example/agent-ensemble/internal/blackboard"
	"github.com/example/agent-ensemble/internal/models"
)

// Synthesizer builds the final answer. The zero value is usable.
type Synthesizer struct{}

// Synthesize aggregates all outcomes. Degraded and failed sub-goals are
// reported explicitly in the digest and the Unsatisfied list, never
// silently dropped. It fails only when every SubTask in the plan's final
// group failed, because then there is nothing to build an answer from.
func (s *Synthesizer) Synthesize(task *models.Task, plan *models.ExecutionPlan, subtasks []*models.SubTask, outcomes []*models.SubTaskOutcome, snapshot blackboard.Snapshot) (*models.SynthesisResult, error) {
	descByID := make(map[string]string, len(subtasks))
	for _, st := range subtasks {
		descByID[st.ID] = st.Description
	}
	outcomeByID := make(map[string]*models.SubTaskOutcome, len(outcomes))
	for _, o := range outcomes {
		outcomeByID[o.SubTaskID] = o
	}

	if err := checkFinalGroup(plan, outcomeByID); err != nil {
		return nil, err
	}

	// Sorted order makes the digest, the answer, and re-runs identical
	// for identical inputs.
	ids := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		ids = append(ids, o.SubTaskID)
	}
	sort.Strings(ids)

	result := &models.SynthesisResult{}
	var answers []string
	for _, id := range ids {
		o := outcomeByID[id]
		digest := models.SubTaskDigest{
			SubTaskID:   id,
			Description: descByID[id],
			Status:      o.Status,
			ErrorKind:   o.ErrorKind,
			RoundsUsed:  o.RoundsUsed,
		}
		result.Digest = append(result.Digest, digest)

		switch o.Status {
		case models.OutcomeCompleted:
			if text := stringify(o.Payload); text != "" {
				answers = append(answers, text)
			}
		case models.OutcomeDegraded:
			if text := stringify(o.Payload); text != "" {
				answers = append(answers, text)
			}
			result.Unsatisfied = append(result.Unsatisfied,
				fmt.Sprintf("%s (degraded: %s)", label(descByID, id), reason(o)))
		case models.OutcomeFailed:
			result.Unsatisfied = append(result.Unsatisfied,
				fmt.Sprintf("%s (failed: %s)", label(descByID, id), reason(o)))
		}
	}

	result.Answer = strings.Join(answers, "\n\n")
	return result, nil
}

// checkFinalGroup fails synthesis iff every SubTask of the last group
// failed.
func checkFinalGroup(plan *models.ExecutionPlan, outcomeByID map[string]*models.SubTaskOutcome) error {
	final := plan.FinalGroup()
	if final < 0 {
		return fmt.Errorf("%w: empty plan", models.ErrNothingToSynthesize)
	}
	for _, g := range plan.Groups {
		if g.ID != final {
			continue
		}
		for _, id := range g.SubTaskIDs {
			if o, ok := outcomeByID[id]; ok && o.Status != models.OutcomeFailed {
				return nil
			}
		}
	}
	return fmt.Errorf("%w: every subtask in the final group failed", models.ErrNothingToSynthesize)
}

func label(descByID map[string]string, id string) string {
	if d := descByID[id]; d != "" {
		return d
	}
	return id
}

func reason(o *models.SubTaskOutcome) string {
	if o.ErrorKind != "" {
		return o.ErrorKind
	}
	return "partial result"
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}
