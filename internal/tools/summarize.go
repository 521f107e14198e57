package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/agent-ensemble/internal/providers/llm"
)

const summarizeMaxInput = 12000

// SummarizeTool condenses text with the configured model provider. Input is
// truncated to summarizeMaxInput runes before prompting so one oversized
// document cannot blow the provider's context window.
type SummarizeTool struct {
	Client llm.Client
}

func (t *SummarizeTool) Name() string { return "summarize" }

func (t *SummarizeTool) Execute(ctx context.Context, inputs map[string]any) (any, string, error) {
	text, _ := inputs["text"].(string)
	if strings.TrimSpace(text) == "" {
		return nil, "", fmt.Errorf("missing text")
	}
	truncated := false
	if runes := []rune(text); len(runes) > summarizeMaxInput {
		text = string(runes[:summarizeMaxInput])
		truncated = true
	}

	focus, _ := inputs["focus"].(string)
	prompt := "Summarize the following text in a few concise sentences."
	if focus != "" {
		prompt += " Focus on: " + focus + "."
	}
	prompt += "\n\n" + text

	summary, err := t.Client.Complete(ctx, prompt)
	if err != nil {
		return nil, "", err
	}
	logs := fmt.Sprintf("input_chars=%d truncated=%t", len(text), truncated)
	return strings.TrimSpace(summary), logs, nil
}
