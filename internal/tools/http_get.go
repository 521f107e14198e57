package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultHTTPGetMaxBytes = 2 << 20

// HTTPGetTool fetches a URL and returns the body as a string. The response
// is capped at MaxBytes to keep observations bounded.
type HTTPGetTool struct {
	Client   *http.Client
	MaxBytes int
}

func (h *HTTPGetTool) Name() string { return "http_get" }

func (h *HTTPGetTool) Execute(ctx context.Context, inputs map[string]any) (any, string, error) {
	url, _ := inputs["url"].(string)
	if url == "" {
		return nil, "", fmt.Errorf("missing url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	max := h.MaxBytes
	if max <= 0 {
		max = defaultHTTPGetMaxBytes
	}
	lr := io.LimitedReader{R: resp.Body, N: int64(max)}
	body, err := io.ReadAll(&lr)
	if err != nil {
		return nil, "", err
	}
	logs := fmt.Sprintf("status=%d", resp.StatusCode)
	if lr.N == 0 {
		logs += " truncated=true"
	}
	return string(body), logs, nil
}
