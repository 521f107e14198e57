package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/agent-ensemble/internal/providers/llm"
)

// Classifier resolves a low-confidence query to capability set names,
// primary first. ok is false when the classifier could not decide.
type Classifier interface {
	Classify(ctx context.Context, query string, sets []string) (primary string, secondary []string, ok bool)
}

// LLMClassifier asks a model provider to pick capability sets when pattern
// scores are inconclusive.
type LLMClassifier struct {
	Client llm.Client
}

const classifyPromptFormat = `You are a task router for a constrained tool runner.
Pick which capability sets should handle the query.

Available sets: %s

Respond in exactly this format, nothing else:
PRIMARY: <set name>
SECONDARY: <comma-separated set names or NONE>

Query: %s`

func (c *LLMClassifier) Classify(ctx context.Context, query string, sets []string) (string, []string, bool) {
	raw, err := c.Client.Complete(ctx, fmt.Sprintf(classifyPromptFormat, strings.Join(sets, ", "), query))
	if err != nil {
		return "", nil, false
	}

	known := map[string]bool{}
	for _, s := range sets {
		known[s] = true
	}

	var primary string
	var secondary []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(strings.ToUpper(line), "PRIMARY:"):
			candidate := strings.TrimSpace(line[len("PRIMARY:"):])
			if known[candidate] {
				primary = candidate
			}
		case strings.HasPrefix(strings.ToUpper(line), "SECONDARY:"):
			rest := strings.TrimSpace(line[len("SECONDARY:"):])
			if strings.EqualFold(rest, "NONE") {
				continue
			}
			for _, part := range strings.Split(rest, ",") {
				if part = strings.TrimSpace(part); known[part] && part != primary {
					secondary = append(secondary, part)
				}
			}
		}
	}
	if primary == "" {
		return "", nil, false
	}
	return primary, secondary, true
}

// fallbackSelect maps the classifier's answer back to profile indices,
// primary first, the rest in declaration order.
func (r *Router) fallbackSelect(ctx context.Context, query string) ([]int, bool) {
	sets := make([]string, len(r.profiles))
	indexOf := map[string]int{}
	for i, p := range r.profiles {
		sets[i] = p.Set
		indexOf[p.Set] = i
	}
	primary, secondary, ok := r.fallback.Classify(ctx, query, sets)
	if !ok {
		return nil, false
	}
	selected := []int{indexOf[primary]}
	for _, s := range secondary {
		selected = append(selected, indexOf[s])
	}
	return selected, true
}
