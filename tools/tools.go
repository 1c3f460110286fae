// Package tools defines the tool contract shared by specialists and tool
// providers: a named, schema-described capability with a context-aware
// invoke function, plus the success/error result envelope every bundled tool
// returns.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

type (
	// Tool is a single capability offered to a specialist. InputSchema is a
	// JSON Schema document describing the invoke payload.
	Tool struct {
		// Name is the identifier presented to the model.
		Name string
		// Description tells the model when to use the tool.
		Description string
		// InputSchema is the JSON Schema of the arguments.
		InputSchema json.RawMessage
		// Invoke runs the tool. The returned value must be JSON-shaped.
		Invoke func(ctx context.Context, args json.RawMessage) (any, error)
	}

	// Result is the envelope bundled tools return. Tool failures a
	// specialist can reason about (missing order, ineligible refund) are
	// reported as Success=false with Error set, not as Go errors.
	Result struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data,omitempty"`
		Error   string         `json:"error,omitempty"`
	}
)

// OK wraps data in a success result.
func OK(data map[string]any) Result {
	return Result{Success: true, Data: data}
}

// Fail builds an error result.
func Fail(format string, args ...any) Result {
	return Result{Success: false, Error: fmt.Sprintf(format, args...)}
}

// Validate reports whether the tool accepts the given payload. Tools without
// a schema accept everything.
func (t *Tool) Validate(payload json.RawMessage) error {
	if len(t.InputSchema) == 0 {
		return nil
	}
	schema, err := CompileSchema(t.Name, t.InputSchema)
	if err != nil {
		return err
	}
	var doc any
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &doc); err != nil {
			return fmt.Errorf("unmarshal payload: %w", err)
		}
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("tool %s: invalid arguments: %w", t.Name, err)
	}
	return nil
}

// CompileSchema compiles a JSON Schema document for repeated validation.
func CompileSchema(name string, raw json.RawMessage) (*jsonschema.Schema, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal schema for %s: %w", name, err)
	}
	c := jsonschema.NewCompiler()
	resource := name + ".schema.json"
	if err := c.AddResource(resource, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := c.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("compile schema for %s: %w", name, err)
	}
	return schema, nil
}

// ObjectSchema builds the common JSON Schema shape for tools: an object with
// the given properties, requiring the listed names and rejecting extras.
func ObjectSchema(props map[string]any, required ...string) json.RawMessage {
	doc := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		// Props are always marshalable literals; treat failure as a bug.
		panic(fmt.Sprintf("marshal tool schema: %v", err))
	}
	return raw
}

// String is a shorthand property descriptor for ObjectSchema.
func String(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

// Number is a shorthand property descriptor for ObjectSchema.
func Number(desc string) map[string]any {
	return map[string]any{"type": "number", "description": desc}
}

// Integer is a shorthand property descriptor for ObjectSchema.
func Integer(desc string) map[string]any {
	return map[string]any{"type": "integer", "description": desc}
}

// Enum is a shorthand string-enum property descriptor for ObjectSchema.
func Enum(desc string, values ...string) map[string]any {
	vals := make([]any, len(values))
	for i, v := range values {
		vals[i] = v
	}
	return map[string]any{"type": "string", "description": desc, "enum": vals}
}
