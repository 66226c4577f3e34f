package jsonrpc

import (
	"context"
	"encoding/json"
	"sort"
)

// Handler processes a JSON-RPC request and returns a result or error.
type Handler func(ctx context.Context, params json.RawMessage) (any, *Error)

// MethodInfo describes a registered method.
type MethodInfo struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

type method struct {
	summary string
	handler Handler
}

// MethodRegistry maps method names to handlers. Register everything before
// serving; the registry is read-only afterwards.
type MethodRegistry struct {
	methods map[string]method
}

// NewMethodRegistry creates an empty registry.
func NewMethodRegistry() *MethodRegistry {
	return &MethodRegistry{methods: make(map[string]method)}
}

// Register adds a handler for a method name, replacing any earlier one.
func (r *MethodRegistry) Register(name, summary string, handler Handler) {
	r.methods[name] = method{summary: summary, handler: handler}
}

// Lookup returns the handler for a method, or nil if not found.
func (r *MethodRegistry) Lookup(name string) Handler {
	return r.methods[name].handler
}

// Methods lists the registered methods sorted by name.
func (r *MethodRegistry) Methods() []MethodInfo {
	infos := make([]MethodInfo, 0, len(r.methods))
	for name, m := range r.methods {
		infos = append(infos, MethodInfo{Name: name, Summary: m.summary})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
