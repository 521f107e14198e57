package tools

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// RegexExtractTool finds all matches of a pattern in text. With named groups
// the output is a list of name->value maps; otherwise a list of
// full-match+submatch slices.
type RegexExtractTool struct{}

func (t *RegexExtractTool) Name() string { return "regex_extract" }

func (t *RegexExtractTool) Execute(ctx context.Context, inputs map[string]any) (any, string, error) {
	text, _ := inputs["text"].(string)
	pattern, _ := inputs["pattern"].(string)
	if strings.TrimSpace(text) == "" {
		return []any{}, "", nil
	}
	if strings.TrimSpace(pattern) == "" {
		return nil, "", fmt.Errorf("missing pattern")
	}

	if flags, _ := inputs["flags"].(string); flags != "" {
		var f []string
		flags = strings.ToLower(flags)
		for _, c := range []string{"i", "m", "s"} {
			if strings.Contains(flags, c) {
				f = append(f, c)
			}
		}
		if len(f) > 0 {
			pattern = "(?" + strings.Join(f, "") + ")" + pattern
		}
	}
	rx, err := regexp.Compile(pattern)
	if err != nil {
		return nil, "", err
	}

	limit := 100
	if v, ok := inputs["limit"].(float64); ok && v > 0 {
		limit = int(v)
	}

	names := rx.SubexpNames()
	hasNamed := false
	for _, n := range names {
		if n != "" {
			hasNamed = true
			break
		}
	}

	if !hasNamed {
		rows := rx.FindAllStringSubmatch(text, limit)
		if rows == nil {
			rows = [][]string{}
		}
		return rows, fmt.Sprintf("matches<=%d", limit), nil
	}

	var rows []map[string]string
	for _, idx := range rx.FindAllStringSubmatchIndex(text, limit) {
		row := map[string]string{}
		for gi := 1; gi < len(names); gi++ { // group 0 is the full match
			name := names[gi]
			if name == "" {
				continue
			}
			s, e := idx[2*gi], idx[2*gi+1]
			if s >= 0 && e >= s && e <= len(text) {
				row[name] = text[s:e]
			}
		}
		rows = append(rows, row)
	}
	return rows, fmt.Sprintf("matches<=%d", limit), nil
}
