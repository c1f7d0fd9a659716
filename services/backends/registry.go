package backends

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/upb/climate-action-ai/services/orchestrator"
	"go.uber.org/zap"
)

var (
	// ErrBackendNotFound is returned when a backend is not registered
	ErrBackendNotFound = errors.New("backend not found")

	// ErrBackendAlreadyRegistered is returned when trying to register a duplicate backend
	ErrBackendAlreadyRegistered = errors.New("backend already registered")
)

// Registry manages backend instances by name. It implements
// orchestrator.Invoker so the orchestrator can address backends by id only.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
	logger   *zap.Logger
}

var _ orchestrator.Invoker = (*Registry)(nil)

// NewRegistry creates a new backend registry
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		backends: make(map[string]Backend),
		logger:   logger,
	}
}

// Register registers a backend instance
func (r *Registry) Register(backend Backend) error {
	if backend == nil {
		return errors.New("backend cannot be nil")
	}

	name := backend.Name()
	if name == "" {
		return errors.New("backend name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.backends[name]; exists {
		return ErrBackendAlreadyRegistered
	}
	r.backends[name] = backend

	r.logger.Info("backend registered", zap.String("backend", name))
	return nil
}

// Unregister removes a backend from the registry
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.backends[name]; !exists {
		return ErrBackendNotFound
	}
	delete(r.backends, name)
	return nil
}

// Get retrieves a backend by name
func (r *Registry) Get(name string) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	backend, exists := r.backends[name]
	if !exists {
		return nil, ErrBackendNotFound
	}
	return backend, nil
}

// List returns all registered backend names in sorted order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered backends
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.backends)
}

// Invoke resolves id and runs one generation call against it. An id that is
// not registered fails like any other backend so the caller can fall back.
func (r *Registry) Invoke(ctx context.Context, id orchestrator.BackendID, prompt string) (string, error) {
	backend, err := r.Get(string(id))
	if err != nil {
		return "", NewBackendError(string(id), CodeNotRegistered, "backend is not registered", 0, err)
	}
	return backend.Generate(ctx, prompt)
}
