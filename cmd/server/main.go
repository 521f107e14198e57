package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/example/agent-ensemble/internal/api"
	"github.com/example/agent-ensemble/internal/capability"
	"github.com/example/agent-ensemble/internal/config"
	"github.com/example/agent-ensemble/internal/oracle"
	"github.com/example/agent-ensemble/internal/orchestrator"
	"github.com/example/agent-ensemble/internal/providers/llm"
	"github.com/example/agent-ensemble/internal/router"
	"github.com/example/agent-ensemble/internal/tools"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		panic(err)
	}

	logger := buildLogger(cfg.Debug)
	defer logger.Sync()

	ctx := context.Background()
	client := llm.New(ctx, cfg.LLM)

	registry, err := buildRegistry(client)
	if err != nil {
		logger.Fatal("registry wiring failed", zap.Error(err))
	}

	rt, err := router.New(router.DefaultProfiles(),
		router.WithMaxSpecialists(cfg.MaxSpecialists),
		router.WithFallback(&router.LLMClassifier{Client: client}, 0.5),
		router.WithLogger(logger))
	if err != nil {
		logger.Fatal("router wiring failed", zap.Error(err))
	}

	engine, err := orchestrator.New(orchestrator.Config{
		Registry:       registry,
		Decider:        &oracle.LLMDecider{Client: client},
		Route:          rt.Route,
		Logger:         logger,
		MaxRounds:      cfg.MaxRounds,
		SubTaskTimeout: cfg.SubTaskTimeout,
		Concurrency:    cfg.Concurrency,
	})
	if err != nil {
		logger.Fatal("engine wiring failed", zap.Error(err))
	}

	mux := http.NewServeMux()
	api.NewServer(engine, logger).RegisterRoutes(mux)

	logger.Info("server listening", zap.String("addr", cfg.Addr))
	if err := http.ListenAndServe(cfg.Addr, cors(mux)); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func buildLogger(debug bool) *zap.Logger {
	if debug {
		l, _ := zap.NewDevelopment()
		return l
	}
	l, _ := zap.NewProduction()
	return l
}

// buildRegistry declares the built-in capabilities and the named sets that
// scope each specialist. Registration order is stable; the router's
// tie-break depends on it.
func buildRegistry(client llm.Client) (*capability.Registry, error) {
	reg := capability.NewRegistry()

	caps := []struct {
		desc capability.Descriptor
		impl tools.Tool
	}{
		{
			desc: capability.Descriptor{
				ID:      "echo",
				Purpose: "Return the input text unchanged",
				Schema:  capability.Schema{"text": {Type: capability.TypeString, Required: true}},
			},
			impl: &tools.EchoTool{},
		},
		{
			desc: capability.Descriptor{
				ID:      "http_get",
				Purpose: "Fetch a URL and return the response body",
				Schema:  capability.Schema{"url": {Type: capability.TypeString, Required: true}},
			},
			impl: &tools.HTTPGetTool{},
		},
		{
			desc: capability.Descriptor{
				ID:      "html_to_text",
				Purpose: "Strip markup from an HTML document",
				Schema:  capability.Schema{"html": {Type: capability.TypeString, Required: true}},
			},
			impl: &tools.HTMLToTextTool{},
		},
		{
			desc: capability.Descriptor{
				ID:      "regex_extract",
				Purpose: "Extract pattern matches from text",
				Schema: capability.Schema{
					"text":    {Type: capability.TypeString, Required: true},
					"pattern": {Type: capability.TypeString, Required: true},
				},
			},
			impl: &tools.RegexExtractTool{},
		},
		{
			desc: capability.Descriptor{
				ID:      "pdf_extract",
				Purpose: "Extract plain text from a base64-encoded PDF",
				Schema:  capability.Schema{"data_base64": {Type: capability.TypeString, Required: true}},
			},
			impl: &tools.PDFExtractTool{},
		},
		{
			desc: capability.Descriptor{
				ID:      "summarize",
				Purpose: "Condense text into a short summary",
				Schema:  capability.Schema{"text": {Type: capability.TypeString, Required: true}},
			},
			impl: &tools.SummarizeTool{Client: client},
		},
		{
			desc: capability.Descriptor{
				ID:      "llm_answer",
				Purpose: "Answer a question directly with the model",
				Schema:  capability.Schema{"text": {Type: capability.TypeString, Required: true}},
			},
			impl: &tools.LLMAnswerTool{Client: client},
		},
	}
	for _, c := range caps {
		if err := reg.Register(c.desc, c.impl); err != nil {
			return nil, err
		}
	}

	sets := []struct {
		name string
		ids  []string
	}{
		{"retrieval", []string{"http_get", "html_to_text", "regex_extract"}},
		{"documents", []string{"pdf_extract", "summarize"}},
		{"analysis", []string{"llm_answer", "summarize", "regex_extract"}},
		{"interpretation", []string{"llm_answer"}},
		{"review", []string{"llm_answer", "echo"}},
	}
	for _, s := range sets {
		if err := reg.RegisterSet(s.name, s.ids...); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// simple CORS middleware for local dev
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
