package llm

import (
	"context"
	"strings"
)

// MockClient is the fallback when no provider is configured. It answers
// with a canned completion so the engine stays exercisable offline.
type MockClient struct{}

func (m *MockClient) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p := strings.ToLower(prompt)
	if strings.Contains(p, "summarize") {
		return "(mock summary)", nil
	}
	return "(mock completion)", nil
}
