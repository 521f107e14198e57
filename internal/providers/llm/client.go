// Package llm holds the model-provider adapters behind a single completion
// interface. The orchestration engine only ever sees Client; which provider
// backs it is a deployment decision.
package llm

import "context"

// Client produces one completion for one prompt. Implementations may be
// non-deterministic; tests use MockClient.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
