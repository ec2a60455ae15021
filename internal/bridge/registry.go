// Package bridge exposes named request/response operations to the desktop
// UI. Handlers shape input and delegate to services; results are wrapped in
// the {success, data | error} envelope.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// HandlerFunc serves one operation. payload is the raw JSON request body.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) (any, error)

// Op is a registered operation.
type Op struct {
	Name       string
	Handler    HandlerFunc
	Permission string
	Public     bool
}

// Registry maps operation names to handlers.
type Registry struct {
	mu  sync.RWMutex
	ops map[string]Op
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{ops: make(map[string]Op)}
}

// Handle registers an operation that requires a session and, when
// permission is non-empty, that permission.
func (r *Registry) Handle(name, permission string, h HandlerFunc) {
	r.add(Op{Name: name, Handler: h, Permission: permission})
}

// Public registers an operation callable without a session.
func (r *Registry) Public(name string, h HandlerFunc) {
	r.add(Op{Name: name, Handler: h, Public: true})
}

func (r *Registry) add(op Op) {
	if op.Name == "" || op.Handler == nil {
		panic("bridge: operation name and handler required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ops[op.Name]; exists {
		panic(fmt.Sprintf("bridge: operation %q registered twice", op.Name))
	}
	r.ops[op.Name] = op
}

// Lookup returns the operation registered under name.
func (r *Registry) Lookup(name string) (Op, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.ops[name]
	return op, ok
}

// Names lists registered operations in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
