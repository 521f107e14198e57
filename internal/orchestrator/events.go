package orchestrator

import (
	"encoding/json"
	"sync"
)

// Event is the wire form of one orchestration event. Per SubTask, events
// are causally ordered: a tool-finished always follows its tool-started.
type Event struct {
	Event   string `json:"event"`
	TaskID  string `json:"task_id"`
	SubTask string `json:"subtask,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

type subscriber chan []byte

// Hub fans orchestration events out to per-task subscribers. Slow
// subscribers are skipped, not waited on.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: map[string]map[subscriber]struct{}{}}
}

// Subscribe returns a channel of JSON-encoded events for a task and an
// unsubscribe func the caller must invoke when done.
func (h *Hub) Subscribe(taskID string) (<-chan []byte, func()) {
	ch := make(subscriber, 64)
	h.mu.Lock()
	set := h.subs[taskID]
	if set == nil {
		set = map[subscriber]struct{}{}
		h.subs[taskID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	unsubscribe := func() {
		h.mu.Lock()
		if set, ok := h.subs[taskID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, taskID)
			}
		}
		close(ch)
		h.mu.Unlock()
	}
	return ch, unsubscribe
}

// Publish sends an event to every subscriber of its task. Sends are
// non-blocking; a full subscriber buffer drops the event for that
// subscriber only.
func (h *Hub) Publish(ev Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	h.mu.RLock()
	for ch := range h.subs[ev.TaskID] {
		select {
		case ch <- b:
		default:
		}
	}
	h.mu.RUnlock()
}

// taskSink adapts the hub to the agent loop's per-subtask event interface,
// pinning events to one task id.
type taskSink struct {
	hub    *Hub
	taskID string
}

func (s taskSink) Publish(subTaskID, kind string, payload map[string]any) {
	s.hub.Publish(Event{
		Event:   kind,
		TaskID:  s.taskID,
		SubTask: subTaskID,
		Payload: payload,
	})
}
