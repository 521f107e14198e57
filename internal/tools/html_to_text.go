package tools

import (
	"context"
	"strings"

	"golang.org/x/net/html"
)

// HTMLToTextTool strips markup from an HTML document, keeping visible text
// with rough line structure.
type HTMLToTextTool struct{}

func (t *HTMLToTextTool) Name() string { return "html_to_text" }

func (t *HTMLToTextTool) Execute(ctx context.Context, inputs map[string]any) (any, string, error) {
	raw, _ := inputs["html"].(string)
	if raw == "" {
		return "", "", nil
	}
	node, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, "", err
	}
	var b strings.Builder
	visibleText(node, &b, false)
	return strings.TrimSpace(compactWhitespace(b.String())), "", nil
}

func visibleText(n *html.Node, b *strings.Builder, hidden bool) {
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "script", "style", "noscript":
			hidden = true
		case "br", "p", "div", "li", "tr":
			b.WriteString("\n")
		}
	}
	if !hidden && n.Type == html.TextNode {
		b.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		visibleText(c, b, hidden)
	}
}

func compactWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
