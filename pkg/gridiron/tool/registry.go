package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/gridironlabs/gridiron/pkg/gridiron/llm"
)

// Registry holds the tools available to the model.
// It is safe for concurrent use after registration.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Declaration
	schemas map[string]*gojsonschema.Schema
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:   make(map[string]Declaration),
		schemas: make(map[string]*gojsonschema.Schema),
	}
}

// Register adds a tool to the registry.
// The declaration's schema is compiled eagerly so malformed schemas fail
// at registration, not mid-turn.
func (r *Registry) Register(decl Declaration) error {
	if decl.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if decl.Run == nil {
		return fmt.Errorf("tool %s: run function cannot be nil", decl.Name)
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(decl.Schema))
	if err != nil {
		return fmt.Errorf("tool %s: compile schema: %w", decl.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[decl.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicate, decl.Name)
	}

	r.tools[decl.Name] = decl
	r.schemas[decl.Name] = schema
	r.order = append(r.order, decl.Name)
	return nil
}

// MustRegister registers a tool and panics on error.
// Intended for static tool sets wired at startup.
func (r *Registry) MustRegister(decl Declaration) {
	if err := r.Register(decl); err != nil {
		panic(err)
	}
}

// Resolve returns the declaration for a tool name.
func (r *Registry) Resolve(name string) (Declaration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	decl, ok := r.tools[name]
	if !ok {
		return Declaration{}, fmt.Errorf("%w: %s", ErrUnknown, name)
	}
	return decl, nil
}

// Schemas returns the tool declarations in registration order,
// in the shape the model gateway expects.
func (r *Registry) Schemas() []llm.ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]llm.ToolSchema, 0, len(r.order))
	for _, name := range r.order {
		decl := r.tools[name]
		out = append(out, llm.ToolSchema{
			Name:        decl.Name,
			Description: decl.Description,
			InputSchema: decl.Schema,
		})
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Execute runs the tool referenced by the call and returns its result
// as a tool message correlated by the call id.
//
// Resolution and validation failures return an error and abort the turn.
// Execution faults do not: the returned message carries the error
// description so the model can react.
func (r *Registry) Execute(ctx context.Context, call llm.ToolCall) (llm.Message, error) {
	decl, err := r.Resolve(call.Name)
	if err != nil {
		return llm.Message{}, err
	}

	r.mu.RLock()
	schema := r.schemas[call.Name]
	r.mu.RUnlock()

	args := call.Arguments
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(args))
	if err != nil {
		return llm.Message{}, fmt.Errorf("%w: %s: %v", ErrInvalidArguments, call.Name, err)
	}
	if !result.Valid() {
		return llm.Message{}, fmt.Errorf("%w: %s: %s", ErrInvalidArguments, call.Name, formatValidationErrors(result))
	}

	output, err := decl.Run(ctx, args)
	if err != nil {
		return llm.NewToolErrorMessage(call.ID, fmt.Sprintf("tool %s failed: %v", call.Name, err)), nil
	}
	return llm.NewToolResultMessage(call.ID, output), nil
}

func formatValidationErrors(result *gojsonschema.Result) string {
	parts := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		parts = append(parts, desc.String())
	}
	return strings.Join(parts, "; ")
}
