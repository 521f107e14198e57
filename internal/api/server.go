// Package api exposes the task ingress surface over HTTP: task CRUD, start
// and cancel, and a per-task SSE event stream.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/example/agent-ensemble/internal/orchestrator"
)

// Server handles the HTTP surface. All state lives in the engine; the
// server is just transport.
type Server struct {
	engine *orchestrator.Engine
	logger *zap.Logger
}

func NewServer(engine *orchestrator.Engine, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{engine: engine, logger: logger}
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/tasks", s.handleTasks)
	mux.HandleFunc("/tasks/start/", s.handleStart)
	mux.HandleFunc("/tasks/cancel/", s.handleCancel)
	mux.HandleFunc("/tasks/events/", s.handleEvents)
	mux.HandleFunc("/tasks/", s.handleGet)
}

type createTaskRequest struct {
	Query     string                 `json:"query"`
	Hints     map[string]any         `json:"hints,omitempty"`
	Overrides orchestrator.Overrides `json:"overrides,omitempty"`
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		respondJSON(w, s.engine.ListTasks())
	case http.MethodPost:
		var req createTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Query == "" {
			http.Error(w, "query is required", http.StatusBadRequest)
			return
		}
		t := s.engine.CreateTask(req.Query, req.Hints, req.Overrides)
		respondJSON(w, t)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := r.URL.Path[len("/tasks/start/"):]
	if _, ok := s.engine.GetTask(id); !ok {
		http.NotFound(w, r)
		return
	}
	// Detach from the request context: the run outlives this request and
	// is stopped through the cancel endpoint, not by client disconnect.
	go func() {
		if err := s.engine.Start(context.Background(), id); err != nil {
			s.logger.Warn("start failed", zap.String("task", id), zap.Error(err))
		}
	}()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := r.URL.Path[len("/tasks/cancel/"):]
	if !s.engine.Cancel(id) {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := r.URL.Path[len("/tasks/"):]
	t, ok := s.engine.GetTask(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	respondJSON(w, t)
}

// handleEvents streams a task's events as server-sent events until the
// client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := r.URL.Path[len("/tasks/events/"):]
	if _, ok := s.engine.GetTask(id); !ok {
		http.NotFound(w, r)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Subscribe before the headers go out so a client that saw the stream
	// open cannot miss events published right after.
	events, unsubscribe := s.engine.Subscribe(id)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case payload, open := <-events:
			if !open {
				return
			}
			w.Write([]byte("data: "))
			w.Write(payload)
			w.Write([]byte("\n\n"))
			flusher.Flush()
		}
	}
}

func respondJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
