package tools

import (
	"context"
	"fmt"
)

// EchoTool returns its input verbatim. Useful as a no-network capability in
// tests and smoke checks.
type EchoTool struct{}

func (e *EchoTool) Name() string { return "echo" }

func (e *EchoTool) Execute(ctx context.Context, inputs map[string]any) (any, string, error) {
	text, _ := inputs["text"].(string)
	return fmt.Sprintf("echo: %s", text), "", nil
}
