// Package capabilities holds outward integrations. Telegram is the only one
// today; the registry keeps the door open for more.
package capabilities

import (
	"context"
	"fmt"
	"sync"
)

// Capability is an integration that can notify an external target.
type Capability interface {
	Name() string
	Notify(ctx context.Context, message string) error
}

// Registry holds loaded capabilities by name.
type Registry struct {
	mu   sync.RWMutex
	caps map[string]Capability
}

func NewRegistry() *Registry {
	return &Registry{caps: make(map[string]Capability)}
}

func (r *Registry) Register(c Capability) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.caps[c.Name()] = c
}

func (r *Registry) Get(name string) Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.caps[name]
}

func (r *Registry) Notify(ctx context.Context, name, message string) error {
	c := r.Get(name)
	if c == nil {
		return fmt.Errorf("capability %q not found", name)
	}
	return c.Notify(ctx, message)
}
