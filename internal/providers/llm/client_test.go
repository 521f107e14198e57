package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoryFallsBackToMock(t *testing.T) {
	ctx := context.Background()

	for _, cfg := range []Config{
		{},
		{Provider: "openai"},
		{Provider: "anthropic"},
		{Provider: "something-else", APIKey: "k"},
	} {
		client := New(ctx, cfg)
		assert.IsType(t, &MockClient{}, client)
	}
}

func TestFactoryBuildsConfiguredProvider(t *testing.T) {
	ctx := context.Background()

	client := New(ctx, Config{Provider: "openai", APIKey: "k"})
	oc, ok := client.(*OpenAIClient)
	require.True(t, ok)
	assert.Equal(t, "gpt-4o-mini", oc.Model)

	client = New(ctx, Config{Provider: "anthropic", APIKey: "k", Model: "claude-3-5-haiku-latest"})
	ac, ok := client.(*AnthropicClient)
	require.True(t, ok)
	assert.Equal(t, "claude-3-5-haiku-latest", ac.Model)
}

func TestMockClient(t *testing.T) {
	m := &MockClient{}
	out, err := m.Complete(context.Background(), "please summarize this")
	require.NoError(t, err)
	assert.Equal(t, "(mock summary)", out)

	out, err = m.Complete(context.Background(), "anything else")
	require.NoError(t, err)
	assert.Equal(t, "(mock completion)", out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Complete(ctx, "x")
	assert.Error(t, err)
}

func TestOpenAIClient(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req["model"])

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "hello from openai"}},
			},
		})
	}))
	defer srv.Close()

	c := &OpenAIClient{APIKey: "sk-test", Model: "test-model", BaseURL: srv.URL}
	out, err := c.Complete(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello from openai", out)
	assert.Equal(t, "Bearer sk-test", gotAuth)
}

func TestOpenAIClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := &OpenAIClient{APIKey: "k", Model: "m", BaseURL: srv.URL}
	_, err := c.Complete(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestAnthropicClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-test", r.Header.Get("x-api-key"))
		assert.NotEmpty(t, r.Header.Get("anthropic-version"))

		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"type": "text", "text": "hello from anthropic"}},
		})
	}))
	defer srv.Close()

	c := &AnthropicClient{APIKey: "key-test", Model: "m", BaseURL: srv.URL}
	out, err := c.Complete(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello from anthropic", out)
}

func TestAnthropicClientEmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"content": []any{}})
	}))
	defer srv.Close()

	c := &AnthropicClient{APIKey: "k", Model: "m", BaseURL: srv.URL}
	_, err := c.Complete(context.Background(), "hi")
	assert.Error(t, err)
}
