// Package tools defines the typed tools the conversational agent can
// invoke, plus the registry the agent resolves them from.
//
// Tools capture their dependencies via closures at construction time and
// carry no package-level state. Inputs arrive as JSON from the model and
// are decoded into the tool's typed input struct; type safety is
// guaranteed at compile time via generics, with type erasure internally
// so heterogeneous tools share one registry.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// Tool is the metadata surface the agent shows to the model.
type Tool interface {
	// Name returns the unique identifier of the tool.
	Name() string

	// Description tells the model what the tool does and what arguments
	// it takes. The model uses it to decide when to call the tool.
	Description() string
}

// ExecutableTool is a complete tool: metadata plus execution logic.
type ExecutableTool struct {
	name        string
	description string

	// handler is the type-erased execution function.
	handler func(context.Context, json.RawMessage) (any, error)
}

// Name returns the tool's unique identifier.
func (t *ExecutableTool) Name() string { return t.name }

// Description returns the tool's functionality description.
func (t *ExecutableTool) Description() string { return t.description }

// Execute decodes the raw arguments and runs the tool.
func (t *ExecutableTool) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	return t.handler(ctx, args)
}

// NewTool creates a tool with type-safe input and output handling.
// The model's JSON arguments are decoded into In; empty arguments decode
// to the zero In, so optional fields work naturally.
func NewTool[In, Out any](
	name string,
	description string,
	handler func(context.Context, In) (Out, error),
) *ExecutableTool {
	erased := func(ctx context.Context, args json.RawMessage) (any, error) {
		var input In
		if len(args) > 0 {
			if err := json.Unmarshal(args, &input); err != nil {
				return nil, &ToolError{
					ErrorType: "InvalidArguments",
					Message:   fmt.Sprintf("decoding arguments for %s: %v", name, err),
				}
			}
		}
		return handler(ctx, input)
	}

	return &ExecutableTool{
		name:        name,
		description: description,
		handler:     erased,
	}
}
