package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/example/agent-ensemble/internal/models"
	"github.com/example/agent-ensemble/internal/providers/llm"
)

// LLMDecider asks a model provider what to do next. The model is prompted
// for a single JSON object; anything unparseable degrades to a final answer
// carrying the raw text, so a chatty model never wedges the loop.
type LLMDecider struct {
	Client llm.Client
}

type llmDecision struct {
	Action        string         `json:"action"`
	Capability    string         `json:"capability,omitempty"`
	Arguments     map[string]any `json:"arguments,omitempty"`
	Answer        string         `json:"answer,omitempty"`
	ContextWrites map[string]any `json:"context_writes,omitempty"`
	Confidence    float64        `json:"confidence,omitempty"`
}

func (d *LLMDecider) Decide(ctx context.Context, req Request) (Decision, error) {
	raw, err := d.Client.Complete(ctx, buildDecisionPrompt(req))
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", models.ErrOracleFailure, err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Decision{Kind: DecideYield}, nil
	}

	var parsed llmDecision
	text := stripCodeFences(raw)
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		if obj := extractJSONObject(text); obj != "" {
			_ = json.Unmarshal([]byte(obj), &parsed)
		}
	}

	switch strings.ToLower(parsed.Action) {
	case "tool":
		if parsed.Capability == "" {
			return Decision{Kind: DecideYield}, nil
		}
		return Decision{
			Kind: DecideTool,
			Invocation: &models.ToolInvocation{
				Capability: parsed.Capability,
				Arguments:  parsed.Arguments,
			},
			Confidence: parsed.Confidence,
		}, nil
	case "final":
		return Decision{
			Kind:          DecideFinal,
			Answer:        parsed.Answer,
			ContextWrites: parsed.ContextWrites,
			Confidence:    parsed.Confidence,
		}, nil
	case "yield":
		return Decision{
			Kind:          DecideYield,
			Answer:        parsed.Answer,
			ContextWrites: parsed.ContextWrites,
			Confidence:    parsed.Confidence,
		}, nil
	default:
		// Not the JSON we asked for; take the text as the answer.
		return Decision{Kind: DecideFinal, Answer: raw, Confidence: 0.3}, nil
	}
}

func buildDecisionPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("You are one specialist in a constrained tool runner.\n")
	b.WriteString("Output ONLY one JSON object, no prose, no code fences.\n\n")
	b.WriteString("Schema: {\"action\": \"tool\"|\"final\"|\"yield\", \"capability\": \"...\", \"arguments\": {...}, \"answer\": \"...\", \"context_writes\": {...}, \"confidence\": 0.0-1.0}\n")
	b.WriteString("Rules:\n")
	b.WriteString("- action=tool runs ONE of the capabilities below; you MUST stick to these.\n")
	b.WriteString("- action=final ends the task with your answer.\n")
	b.WriteString("- action=yield ends the task early when you cannot make progress.\n")
	b.WriteString("- Use context_writes to publish values other specialists need later.\n\n")

	b.WriteString("Capabilities:\n")
	for _, c := range req.Capabilities {
		b.WriteString(fmt.Sprintf("- %s: %s", c.ID, c.Purpose))
		if len(c.Schema) > 0 {
			keys := make([]string, 0, len(c.Schema))
			for name, f := range c.Schema {
				if f.Required {
					keys = append(keys, name)
				}
			}
			if len(keys) > 0 {
				b.WriteString(fmt.Sprintf(" (required inputs: %s)", strings.Join(keys, ", ")))
			}
		}
		b.WriteString("\n")
	}

	if keys := req.Context.Keys(); len(keys) > 0 {
		b.WriteString("\nShared context:\n")
		for _, k := range keys {
			if entry, ok := req.Context.Latest(k); ok {
				b.WriteString(fmt.Sprintf("- %s = %s (from %s, v%d)\n", k, stringify(entry.Value), entry.Writer, entry.Version))
			}
		}
	}

	if len(req.History) > 0 {
		b.WriteString("\nObservations so far:\n")
		for _, obs := range req.History {
			status := "ok"
			if !obs.Success {
				status = "error:" + obs.ErrorKind
			}
			b.WriteString(fmt.Sprintf("- round %d %s [%s]: %s\n", obs.Round, obs.Capability, status, truncate(stringify(obs.Payload), 2000)))
		}
	}

	b.WriteString("\nTask: ")
	b.WriteString(req.SubTask.Description)
	b.WriteString("\n")
	return b.String()
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

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i != -1 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}

// extractJSONObject finds the first balanced top-level JSON object in a
// string. Brace counting ignores string contents well enough for model
// output.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
