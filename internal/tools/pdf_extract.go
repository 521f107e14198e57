package tools

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	pdfx "github.com/ledongthuc/pdf"
)

// PDFExtractTool extracts plain text from a base64-encoded PDF document.
// The library wants a file on disk, so the payload goes through a temp file
// that is removed before returning.
type PDFExtractTool struct {
	MaxBytes int
	MaxPages int
}

func (t *PDFExtractTool) Name() string { return "pdf_extract" }

func (t *PDFExtractTool) Execute(ctx context.Context, inputs map[string]any) (any, string, error) {
	dataB64, _ := inputs["data_base64"].(string)
	if dataB64 == "" {
		return nil, "", fmt.Errorf("missing data_base64")
	}
	maxBytes := t.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 20 * 1024 * 1024
	}
	maxPages := t.MaxPages
	if maxPages <= 0 {
		maxPages = 20
	}

	// allow data: URIs
	if i := strings.Index(dataB64, ","); i != -1 {
		dataB64 = dataB64[i+1:]
	}
	buf, err := base64.StdEncoding.DecodeString(dataB64)
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64: %w", err)
	}
	if len(buf) > maxBytes {
		return nil, "", fmt.Errorf("pdf too large: %d bytes > limit %d", len(buf), maxBytes)
	}

	path := filepath.Join(os.TempDir(), fmt.Sprintf("pdf_%d.pdf", os.Getpid()))
	if err := os.WriteFile(path, buf, 0600); err != nil {
		return nil, "", err
	}
	defer os.Remove(path)

	f, r, err := pdfx.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	totalPages := r.NumPage()
	pagesSpec, _ := inputs["pages"].(string)
	selected := expandPages(pagesSpec, totalPages)
	if len(selected) == 0 {
		for i := 1; i <= totalPages; i++ {
			selected = append(selected, i)
		}
	}
	if len(selected) > maxPages {
		selected = selected[:maxPages]
	}

	var out strings.Builder
	for _, page := range selected {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		txt, _ := r.Page(page).GetPlainText(nil)
		if txt = strings.TrimSpace(txt); txt != "" {
			out.WriteString(txt)
			out.WriteString("\n\n")
		}
	}
	logs := fmt.Sprintf("pages=%d/%d bytes=%d", len(selected), totalPages, len(buf))
	return strings.TrimSpace(out.String()), logs, nil
}

// expandPages parses a page selection like "1-3,7" into page numbers,
// clamped to [1,total] and deduplicated.
func expandPages(spec string, total int) []int {
	var out []int
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return out
	}
	seen := map[int]struct{}{}
	add := func(n int) {
		if n >= 1 && n <= total {
			if _, ok := seen[n]; !ok {
				out = append(out, n)
				seen[n] = struct{}{}
			}
		}
	}
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, "-") {
			rng := strings.SplitN(part, "-", 2)
			a, _ := strconv.Atoi(strings.TrimSpace(rng[0]))
			b, _ := strconv.Atoi(strings.TrimSpace(rng[1]))
			if a > b {
				a, b = b, a
			}
			for i := a; i <= b; i++ {
				add(i)
			}
		} else {
			n, _ := strconv.Atoi(part)
			add(n)
		}
	}
	return out
}
