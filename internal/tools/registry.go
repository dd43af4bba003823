// Package tools declares the registry of actions the interpreter may
// propose and the executor may invoke, together with their argument
// schemas and bound handlers. The registry is built once at startup and
// immutable afterwards; anything outside this closed set is rejected at
// the interpretation boundary.
package tools

import (
	"context"

	"go.uber.org/zap"

	"github.com/quyk67uet/ai-assistant-workflow/internal/store"
)

// Tool is one registered action.
type Tool interface {
	// Name returns the unique tool name.
	Name() string
	// Description returns a description for the planner.
	Description() string
	// Schema returns the declared argument contract.
	Schema() Schema
	// Execute runs the tool with schema-validated arguments.
	Execute(ctx context.Context, args map[string]interface{}) (interface{}, error)
}

// Declaration is the planner-facing view of a tool.
type Declaration struct {
	Name        string
	Description string
	Schema      Schema
}

// Registry holds the closed set of registered tools in a stable order.
type Registry struct {
	order []string
	tools map[string]Tool
}

// NewRegistry builds the registry with all builtin tools bound to the
// given store.
func NewRegistry(st *store.Store, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{tools: make(map[string]Tool)}
	r.Register(&assignTool{store: st, logger: logger})
	r.Register(&activityLogTool{store: st})
	r.Register(&gradeTool{store: st, logger: logger})
	r.Register(&noteTool{store: st})
	r.Register(&pathwayTool{store: st})
	r.Register(&listSubmissionsTool{store: st})
	return r
}

// Register adds a tool. Later registrations with the same name are
// ignored; the first binding wins.
func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Name()]; exists {
		return
	}
	r.tools[t.Name()] = t
	r.order = append(r.order, t.Name())
}

// Get returns the tool with the given name, or nil.
func (r *Registry) Get(name string) Tool {
	return r.tools[name]
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Declarations returns the planner-facing catalog in registration order.
func (r *Registry) Declarations() []Declaration {
	out := make([]Declaration, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		out = append(out, Declaration{
			Name:        t.Name(),
			Description: t.Description(),
			Schema:      t.Schema(),
		})
	}
	return out
}
