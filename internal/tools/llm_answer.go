package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/agent-ensemble/internal/providers/llm"
)

// LLMAnswerTool asks the configured model provider a free-form question,
// optionally grounded on supporting material passed via the context input.
type LLMAnswerTool struct {
	Client llm.Client
}

func (t *LLMAnswerTool) Name() string { return "llm_answer" }

func (t *LLMAnswerTool) Execute(ctx context.Context, inputs map[string]any) (any, string, error) {
	text, _ := inputs["text"].(string)
	if strings.TrimSpace(text) == "" {
		return nil, "", fmt.Errorf("missing text")
	}

	var b strings.Builder
	if material, ok := inputs["context"].(string); ok && material != "" {
		b.WriteString("Use the following material to answer.\n\n")
		b.WriteString(material)
		b.WriteString("\n\n")
	}
	b.WriteString(text)

	answer, err := t.Client.Complete(ctx, b.String())
	if err != nil {
		return nil, "", err
	}
	return strings.TrimSpace(answer), "", nil
}
