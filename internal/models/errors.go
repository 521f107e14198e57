package models

import "errors"

// Sentinel errors for the orchestration engine. Callers classify terminal
// states with errors.Is; ErrorKindOf maps them to stable wire identifiers
// for events and outcome digests.
var (
	// ErrUnknownCapability is returned by the registry when a capability
	// set references an id that was never registered.
	ErrUnknownCapability = errors.New("unknown capability")

	// ErrUnknownCapabilitySet is returned when resolving a set name that
	// was never declared.
	ErrUnknownCapabilitySet = errors.New("unknown capability set")

	// ErrCapabilityNotPermitted is fatal to a SubTask: the oracle asked
	// for a capability outside the SubTask's assigned set. Scope
	// violations are configuration errors and are never retried.
	ErrCapabilityNotPermitted = errors.New("capability not permitted")

	// ErrRoundBudgetExceeded terminates a loop that used all its rounds.
	ErrRoundBudgetExceeded = errors.New("round budget exceeded")

	// ErrSubTaskTimeout marks a SubTask whose wall-clock budget expired.
	ErrSubTaskTimeout = errors.New("subtask timeout")

	// ErrRoutingAmbiguous is fatal to the whole Task: no capability set
	// matched any portion of the query. Surfaced to the caller instead of
	// silently defaulting to the wrong tool scope.
	ErrRoutingAmbiguous = errors.New("routing ambiguous")

	// ErrTaskCancelled marks loops terminated by task-level cancellation.
	ErrTaskCancelled = errors.New("task cancelled")

	// ErrOracleFailure is fatal to a SubTask: the decision oracle call
	// itself failed.
	ErrOracleFailure = errors.New("oracle failure")

	// ErrNothingToSynthesize means every SubTask in the final group
	// failed, so there is no material to build an answer from.
	ErrNothingToSynthesize = errors.New("nothing to synthesize")
)

// Stable error-kind identifiers used in events and outcome digests.
const (
	KindCapabilityNotPermitted = "capability_not_permitted"
	KindRoundBudgetExceeded    = "round_budget_exceeded"
	KindSubTaskTimeout         = "subtask_timeout"
	KindRoutingAmbiguous       = "routing_ambiguous"
	KindTaskCancelled          = "task_cancelled"
	KindOracleFailure          = "oracle_failure"
	KindToolError              = "tool_error"
)

// ErrorKindOf maps an error to its wire identifier, or "" for nil.
func ErrorKindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCapabilityNotPermitted):
		return KindCapabilityNotPermitted
	case errors.Is(err, ErrRoundBudgetExceeded):
		return KindRoundBudgetExceeded
	case errors.Is(err, ErrSubTaskTimeout):
		return KindSubTaskTimeout
	case errors.Is(err, ErrRoutingAmbiguous):
		return KindRoutingAmbiguous
	case errors.Is(err, ErrTaskCancelled):
		return KindTaskCancelled
	case errors.Is(err, ErrOracleFailure):
		return KindOracleFailure
	default:
		return KindToolError
	}
}
