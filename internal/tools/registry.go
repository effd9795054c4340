// Package tools exposes the triage operations as named tools that take a JSON
// argument record and return a JSON-serializable result.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Handler executes a tool with raw JSON arguments.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Tool is a named, independently invocable operation.
type Tool struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	ReadOnly    bool
	Handler     Handler
}

// ArgumentError reports an unknown tool or arguments that do not decode.
type ArgumentError struct {
	Tool string
	Err  error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("tool %s: invalid arguments: %v", e.Tool, e.Err)
}

func (e *ArgumentError) Unwrap() error { return e.Err }

var reflector = jsonschema.Reflector{
	RequiredFromJSONSchemaTags: true,
	ExpandedStruct:             true,
	DoNotReference:             true,
	Anonymous:                  true,
}

// SchemaFor reflects the JSON schema of T's argument record.
func SchemaFor[T any]() json.RawMessage {
	var zero T
	schema := reflector.Reflect(&zero)
	schema.Version = ""
	raw, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("tools: reflect schema for %T: %v", zero, err))
	}
	return raw
}

// New builds a Tool whose arguments decode strictly into A.
func New[A any](name, description string, readOnly bool, fn func(ctx context.Context, args A) (any, error)) Tool {
	return Tool{
		Name:        name,
		Description: description,
		InputSchema: SchemaFor[A](),
		ReadOnly:    readOnly,
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args A
			if err := decodeArgs(raw, &args); err != nil {
				return nil, &ArgumentError{Tool: name, Err: err}
			}
			return fn(ctx, args)
		},
	}
}

func decodeArgs(raw json.RawMessage, target any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}

// Registry holds tools in registration order.
type Registry struct {
	tools []Tool
	index map[string]int
}

// NewRegistry creates a registry from the given tools.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{index: make(map[string]int, len(tools))}
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a tool. Names must be unique.
func (r *Registry) Register(t Tool) error {
	if t.Name == "" || t.Handler == nil {
		return fmt.Errorf("tool must have a name and a handler")
	}
	if _, ok := r.index[t.Name]; ok {
		return fmt.Errorf("tool %s already registered", t.Name)
	}
	r.index[t.Name] = len(r.tools)
	r.tools = append(r.tools, t)
	return nil
}

// Tools returns the registered tools in order.
func (r *Registry) Tools() []Tool {
	out := make([]Tool, len(r.tools))
	copy(out, r.tools)
	return out
}

// Get looks a tool up by name.
func (r *Registry) Get(name string) (Tool, bool) {
	i, ok := r.index[name]
	if !ok {
		return Tool{}, false
	}
	return r.tools[i], true
}

// Call invokes the named tool.
func (r *Registry) Call(ctx context.Context, name string, args json.RawMessage) (any, error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, &ArgumentError{Tool: name, Err: fmt.Errorf("unknown tool")}
	}
	return t.Handler(ctx, args)
}
