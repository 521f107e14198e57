package capability

import (
	"context"
	"fmt"
	"time"

	"github.com/example/agent-ensemble/internal/models"
	"github.com/example/agent-ensemble/internal/tools"
)

// Descriptor declares one capability: a stable id, a human-readable purpose
// shown to the decision oracle, and the input schema its arguments must
// satisfy.
type Descriptor struct {
	ID      string `json:"id"`
	Purpose string `json:"purpose"`
	Schema  Schema `json:"schema,omitempty"`
}

// Registry holds every capability and the named sets that scope specialists.
// It is populated once at startup and read-only afterwards, so concurrent
// specialists can resolve and invoke without synchronization.
type Registry struct {
	order    []string
	byID     map[string]registration
	sets     map[string][]string
	setOrder []string
}

type registration struct {
	desc Descriptor
	impl tools.Tool
}

func NewRegistry() *Registry {
	return &Registry{
		byID: map[string]registration{},
		sets: map[string][]string{},
	}
}

// Register adds a capability with its implementation. Registering a
// duplicate id or a nil implementation is a wiring bug and fails loudly.
func (r *Registry) Register(desc Descriptor, impl tools.Tool) error {
	if desc.ID == "" {
		return fmt.Errorf("capability id is empty")
	}
	if impl == nil {
		return fmt.Errorf("capability %q has nil implementation", desc.ID)
	}
	if _, exists := r.byID[desc.ID]; exists {
		return fmt.Errorf("capability %q registered twice", desc.ID)
	}
	r.byID[desc.ID] = registration{desc: desc, impl: impl}
	r.order = append(r.order, desc.ID)
	return nil
}

// RegisterSet declares a named, immutable subset of capabilities. Every id
// must already be registered.
func (r *Registry) RegisterSet(name string, ids ...string) error {
	if name == "" {
		return fmt.Errorf("capability set name is empty")
	}
	if _, exists := r.sets[name]; exists {
		return fmt.Errorf("capability set %q declared twice", name)
	}
	for _, id := range ids {
		if _, ok := r.byID[id]; !ok {
			return fmt.Errorf("set %q: %w: %q", name, models.ErrUnknownCapability, id)
		}
	}
	r.sets[name] = append([]string(nil), ids...)
	r.setOrder = append(r.setOrder, name)
	return nil
}

// Resolve returns the descriptors of a named set in registration order.
func (r *Registry) Resolve(setName string) ([]Descriptor, error) {
	ids, ok := r.sets[setName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownCapabilitySet, setName)
	}
	out := make([]Descriptor, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.byID[id].desc)
	}
	return out, nil
}

// Permitted reports whether a capability id belongs to a named set.
func (r *Registry) Permitted(setName, id string) bool {
	for _, candidate := range r.sets[setName] {
		if candidate == id {
			return true
		}
	}
	return false
}

// SetNames returns set names in declaration order. Declaration order is the
// router's tie-break, so it must be stable.
func (r *Registry) SetNames() []string {
	return append([]string(nil), r.setOrder...)
}

// Invoke executes one capability and converts every failure mode, including
// a panicking implementation, into an Observation. Nothing escapes past the
// loop boundary.
func (r *Registry) Invoke(ctx context.Context, inv models.ToolInvocation) models.Observation {
	obs := models.Observation{Capability: inv.Capability, Round: inv.Round}
	start := time.Now()

	reg, ok := r.byID[inv.Capability]
	if !ok {
		obs.ErrorKind = models.KindToolError
		obs.Logs = fmt.Sprintf("unknown capability %q", inv.Capability)
		obs.Latency = time.Since(start)
		return obs
	}
	if err := reg.desc.Schema.Validate(inv.Arguments); err != nil {
		obs.ErrorKind = models.KindToolError
		obs.Logs = fmt.Sprintf("invalid arguments: %v", err)
		obs.Latency = time.Since(start)
		return obs
	}

	payload, logs, err := invokeGuarded(ctx, reg.impl, inv.Arguments)
	obs.Latency = time.Since(start)
	obs.Logs = logs
	if err != nil {
		obs.ErrorKind = models.KindToolError
		obs.Logs = appendLog(logs, err.Error())
		return obs
	}
	obs.Success = true
	obs.Payload = payload
	return obs
}

func invokeGuarded(ctx context.Context, impl tools.Tool, args map[string]any) (payload any, logs string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("capability panic: %v", rec)
		}
	}()
	return impl.Execute(ctx, args)
}

func appendLog(logs, msg string) string {
	if logs == "" {
		return msg
	}
	return logs + "; " + msg
}
