package tools

import (
	"fmt"
	"strings"
)

// Registry holds the tools available to one agent, in registration order.
// It is immutable after construction and safe for concurrent use.
type Registry struct {
	order  []string
	byName map[string]*ExecutableTool
}

// NewRegistry builds a registry from the given tools. Duplicate names are
// a programming error and panic.
func NewRegistry(tools ...*ExecutableTool) *Registry {
	r := &Registry{byName: make(map[string]*ExecutableTool, len(tools))}
	for _, t := range tools {
		if _, dup := r.byName[t.Name()]; dup {
			panic(fmt.Sprintf("tools: duplicate tool name %q", t.Name()))
		}
		r.order = append(r.order, t.Name())
		r.byName[t.Name()] = t
	}
	return r
}

// Lookup returns the tool with the given name.
func (r *Registry) Lookup(name string) (*ExecutableTool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Count returns the number of registered tools.
func (r *Registry) Count() int { return len(r.order) }

// Prompt renders the tool list for the agent's system prompt.
func (r *Registry) Prompt() string {
	var b strings.Builder
	for _, name := range r.order {
		fmt.Fprintf(&b, "- **%s**: %s\n", name, r.byName[name].Description())
	}
	return b.String()
}
