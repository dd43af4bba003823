package tools

import (
	"fmt"
	"math"

	"github.com/quyk67uet/ai-assistant-workflow/internal/roster"
)

// FieldType enumerates the argument types a tool schema can declare.
type FieldType string

const (
	TypeString     FieldType = "string"
	TypeInteger    FieldType = "integer"
	TypeNumber     FieldType = "number"
	TypeStringList FieldType = "string_list"
)

// Field declares one tool argument: its type, whether it is required,
// numeric domain bounds, and the roster kind it references (zero for
// non-referential arguments).
type Field struct {
	Name        string
	Description string
	Type        FieldType
	Required    bool
	Ref         roster.Kind
	Min         *float64
	Max         *float64
}

// Schema is the declared argument contract of one tool.
type Schema struct {
	Fields []Field
}

// ValidationError reports an argument that is missing, mistyped or out
// of its declared domain. It always names the offending field.
type ValidationError struct {
	Tool   string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid argument %q: %s", e.Tool, e.Field, e.Reason)
}

// Field looks up a declared field by name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// RequiredPresent checks only that every required argument is present.
// The interpreter uses this as its cheap structural check before
// accepting a proposed call; full validation happens in the executor.
func (s Schema) RequiredPresent(tool string, args map[string]interface{}) error {
	for _, f := range s.Fields {
		if !f.Required {
			continue
		}
		if _, ok := args[f.Name]; !ok {
			return &ValidationError{Tool: tool, Field: f.Name, Reason: "required argument missing"}
		}
	}
	return nil
}

// Validate checks presence, type and domain of every declared argument.
// Unknown extra arguments are ignored; the registry's handlers only read
// declared fields.
func (s Schema) Validate(tool string, args map[string]interface{}) error {
	for _, f := range s.Fields {
		raw, ok := args[f.Name]
		if !ok || raw == nil {
			if f.Required {
				return &ValidationError{Tool: tool, Field: f.Name, Reason: "required argument missing"}
			}
			continue
		}
		if err := f.check(tool, raw); err != nil {
			return err
		}
	}
	return nil
}

func (f Field) check(tool string, raw interface{}) error {
	switch f.Type {
	case TypeString:
		s, ok := raw.(string)
		if !ok {
			return &ValidationError{Tool: tool, Field: f.Name, Reason: fmt.Sprintf("expected string, got %T", raw)}
		}
		if f.Required && s == "" {
			return &ValidationError{Tool: tool, Field: f.Name, Reason: "must not be empty"}
		}
	case TypeInteger:
		n, ok := asFloat(raw)
		if !ok || n != math.Trunc(n) {
			return &ValidationError{Tool: tool, Field: f.Name, Reason: fmt.Sprintf("expected integer, got %v", raw)}
		}
		return f.checkBounds(tool, n)
	case TypeNumber:
		n, ok := asFloat(raw)
		if !ok {
			return &ValidationError{Tool: tool, Field: f.Name, Reason: fmt.Sprintf("expected number, got %v", raw)}
		}
		return f.checkBounds(tool, n)
	case TypeStringList:
		items, ok := asStringList(raw)
		if !ok {
			return &ValidationError{Tool: tool, Field: f.Name, Reason: fmt.Sprintf("expected list of strings, got %T", raw)}
		}
		if f.Required && len(items) == 0 {
			return &ValidationError{Tool: tool, Field: f.Name, Reason: "must not be empty"}
		}
	}
	return nil
}

func (f Field) checkBounds(tool string, n float64) error {
	if f.Min != nil && n < *f.Min {
		return &ValidationError{Tool: tool, Field: f.Name, Reason: fmt.Sprintf("must be >= %v, got %v", *f.Min, n)}
	}
	if f.Max != nil && n > *f.Max {
		return &ValidationError{Tool: tool, Field: f.Name, Reason: fmt.Sprintf("must be <= %v, got %v", *f.Max, n)}
	}
	return nil
}

// Argument accessors. Proposed calls arrive as map[string]interface{}
// decoded from JSON, so numbers are float64.

func stringArg(args map[string]interface{}, name string) string {
	s, _ := args[name].(string)
	return s
}

func intArg(args map[string]interface{}, name string) int {
	n, ok := asFloat(args[name])
	if !ok {
		return 0
	}
	return int(n)
}

func floatArg(args map[string]interface{}, name string) float64 {
	n, _ := asFloat(args[name])
	return n
}

func stringListArg(args map[string]interface{}, name string) []string {
	items, _ := asStringList(args[name])
	return items
}

func asFloat(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func asStringList(raw interface{}) ([]string, bool) {
	switch v := raw.(type) {
	case []string:
		return v, true
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

func floatPtr(v float64) *float64 { return &v }
