package task

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// TaskFactory builds an executable Task for one job kind from a persisted
// payload. Implementations carry whatever dependencies the task needs
// (HTTP clients, timeouts, service handles).
type TaskFactory interface {
	// Kind returns the job kind this factory builds tasks for.
	Kind() string

	// NewTask builds a task for the given job. Returns an error if the
	// payload is malformed for this kind.
	NewTask(jobID uuid.UUID, payload json.RawMessage) (Task, error)
}

// Registry maps job kinds to their task factories. It is how persisted job
// records, which only carry a kind string and a payload, are turned back
// into executable tasks after submission or recovery.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]TaskFactory
}

// NewRegistry creates an empty task factory registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]TaskFactory),
	}
}

// Register adds a factory for its job kind.
// Returns an error if the kind is already registered.
func (r *Registry) Register(factory TaskFactory) error {
	kind := factory.Kind()
	if kind == "" {
		return fmt.Errorf("task factory has empty kind")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("task factory for kind %q already registered", kind)
	}
	r.factories[kind] = factory
	return nil
}

// Has reports whether a factory is registered for the given kind.
func (r *Registry) Has(kind string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[kind]
	return ok
}

// Kinds returns the registered job kinds in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// NewTask builds a task for the given kind and payload.
// Returns ErrUnknownKind if no factory is registered for the kind.
func (r *Registry) NewTask(kind string, jobID uuid.UUID, payload json.RawMessage) (Task, error) {
	r.mu.RLock()
	factory, ok := r.factories[kind]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	return factory.NewTask(jobID, payload)
}
