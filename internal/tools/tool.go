// Package tools holds the built-in capability implementations. Each tool is
// a self-contained external action; scheduling, scoping, and failure policy
// live with the capability registry and the agent loop, not here.
package tools

import "context"

// Tool executes one external action. Implementations must honor ctx
// cancellation within a bounded grace period and report failures through the
// error return, never by panicking.
type Tool interface {
	Name() string
	Execute(ctx context.Context, inputs map[string]any) (output any, logs string, err error)
}
