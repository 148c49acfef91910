// Package session binds actors to the tracked item they are holding and
// drives one Handler per binding from engine ticks and events.
package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrDuplicateRegistration is returned when an item type already has a factory.
	ErrDuplicateRegistration = errors.New("session already registered for item type")
	// ErrInvalidRegistration is returned for an empty item type or nil factory.
	ErrInvalidRegistration = errors.New("invalid session registration")
	// ErrSessionNotFound marks teardown requests for actors without a session.
	ErrSessionNotFound = errors.New("no session for actor")
	// ErrHookPanicked wraps a recovered panic from a handler hook.
	ErrHookPanicked = errors.New("session hook panicked")
)

// Factory builds the handler for a new session.
type Factory func(ctx *Context) Handler

// Registry maps item type ids to handler factories. Registration is a startup
// wiring step; it is not meant to change while the manager ticks.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register wires factory to itemType. A second registration for the same
// item type fails with ErrDuplicateRegistration.
func (r *Registry) Register(itemType string, factory Factory) error {
	if itemType == "" || factory == nil {
		return fmt.Errorf("%w: item type %q", ErrInvalidRegistration, itemType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[itemType]; exists {
		return fmt.Errorf("%w: '%s'", ErrDuplicateRegistration, itemType)
	}
	r.factories[itemType] = factory
	return nil
}

// Lookup returns the factory for itemType.
func (r *Registry) Lookup(itemType string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[itemType]
	return f, ok
}

// Clear removes every registration. Tests use it for isolation.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.factories = make(map[string]Factory)
	r.mu.Unlock()
}

// Len returns the number of registered item types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.factories)
}

// ItemTypes lists registered item types in sorted order.
func (r *Registry) ItemTypes() []string {
	r.mu.RLock()
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	r.mu.RUnlock()
	sort.Strings(types)
	return types
}

var defaultRegistry = NewRegistry()

// DefaultRegistry is the process-wide registry used by Register.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds a factory to the process-wide registry.
func Register(itemType string, factory Factory) error {
	return defaultRegistry.Register(itemType, factory)
}
