package models

import (
	"time"
)

// Status tracks the lifecycle of a Task through the orchestration engine.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusRunning Status = "RUNNING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// OutcomeStatus is the terminal status of a single SubTask.
type OutcomeStatus string

const (
	OutcomeCompleted OutcomeStatus = "COMPLETED"
	OutcomeDegraded  OutcomeStatus = "DEGRADED"
	OutcomeFailed    OutcomeStatus = "FAILED"
)

// Task is the root unit of work. Immutable after creation except for the
// Status/Plan/Result bookkeeping owned by the orchestrator.
type Task struct {
	ID        string           `json:"id"`
	Query     string           `json:"query"`
	Hints     map[string]any   `json:"hints,omitempty"`
	Priority  int              `json:"priority,omitempty"`
	Deadline  *time.Time       `json:"deadline,omitempty"`
	Status    Status           `json:"status"`
	Plan      *ExecutionPlan   `json:"plan,omitempty"`
	Result    *SynthesisResult `json:"result,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// SubTask is one decomposition unit of a Task, bound to a named capability
// set and an execution group.
type SubTask struct {
	ID            string `json:"id"`
	TaskID        string `json:"task_id"`
	Description   string `json:"description"`
	CapabilitySet string `json:"capability_set"`
	Group         int    `json:"group"`
	DependsOn     []int  `json:"depends_on,omitempty"`
}

// Group is one rung of an ExecutionPlan: the SubTasks in a group start
// together and are awaited together.
type Group struct {
	ID         int      `json:"id"`
	SubTaskIDs []string `json:"subtask_ids"`
	DependsOn  []int    `json:"depends_on,omitempty"`
}

// ExecutionPlan is an ordered list of groups. The group graph must be
// acyclic and a group's dependencies may only reference earlier groups.
type ExecutionPlan struct {
	Groups []Group `json:"groups"`
}

// FinalGroup returns the id of the last group, or -1 for an empty plan.
func (p *ExecutionPlan) FinalGroup() int {
	if p == nil || len(p.Groups) == 0 {
		return -1
	}
	return p.Groups[len(p.Groups)-1].ID
}

// SubTaskCount returns the total number of subtasks across all groups.
func (p *ExecutionPlan) SubTaskCount() int {
	n := 0
	for _, g := range p.Groups {
		n += len(g.SubTaskIDs)
	}
	return n
}

// ToolInvocation is the oracle's request to execute one capability.
// Ephemeral: produced by a loop round, discarded once its Observation is
// recorded.
type ToolInvocation struct {
	Capability string         `json:"capability"`
	Arguments  map[string]any `json:"arguments,omitempty"`
	SubTaskID  string         `json:"subtask_id"`
	Round      int            `json:"round"`
}

// Observation is the recorded result of one capability execution. Immutable
// once appended to loop history.
type Observation struct {
	Capability string        `json:"capability"`
	Success    bool          `json:"success"`
	Payload    any           `json:"payload,omitempty"`
	ErrorKind  string        `json:"error_kind,omitempty"`
	Logs       string        `json:"logs,omitempty"`
	Latency    time.Duration `json:"latency"`
	Round      int           `json:"round"`
}

// SubTaskOutcome is produced exactly once per SubTask at loop termination.
type SubTaskOutcome struct {
	SubTaskID  string        `json:"subtask_id"`
	Status     OutcomeStatus `json:"status"`
	Payload    any           `json:"payload,omitempty"`
	Error      string        `json:"error,omitempty"`
	ErrorKind  string        `json:"error_kind,omitempty"`
	RoundsUsed int           `json:"rounds_used"`
	ToolsUsed  []string      `json:"tools_used,omitempty"`
	Confidence float64       `json:"confidence"`
}

// Satisfied reports whether the outcome contributed a usable payload.
func (o *SubTaskOutcome) Satisfied() bool {
	return o.Status == OutcomeCompleted || o.Status == OutcomeDegraded
}

// SubTaskDigest is the per-subtask entry in a SynthesisResult.
type SubTaskDigest struct {
	SubTaskID   string        `json:"subtask_id"`
	Description string        `json:"description"`
	Status      OutcomeStatus `json:"status"`
	ErrorKind   string        `json:"error_kind,omitempty"`
	RoundsUsed  int           `json:"rounds_used"`
}

// SynthesisResult is the terminal artifact of a Task: the combined answer
// plus a machine-readable digest of which sub-goals were degraded or failed.
type SynthesisResult struct {
	Answer      string          `json:"answer"`
	Digest      []SubTaskDigest `json:"digest"`
	Unsatisfied []string        `json:"unsatisfied,omitempty"`
	SessionID   string          `json:"session_id,omitempty"`
}
