package tool

import (
	"context"
	"fmt"

	"github.com/vijay-kartik/iphonetoagent/internal/llm"
)

// Tool is a named, schema-described function the model may invoke
// mid-conversation. Execute must be deterministic and side-effect free for
// the built-in tools.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns what this tool does, used for model prompting.
	Description() string

	// Parameters returns the schema for the tool's arguments.
	Parameters() *llm.Schema

	// Execute runs the tool with already-validated arguments.
	Execute(ctx context.Context, args map[string]any) (map[string]any, error)
}

// Definition converts a tool into the declaration form the LLM client expects.
func Definition(t Tool) llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  t.Parameters(),
	}
}

// ValidateArgs checks a raw argument map against a parameter schema. A missing
// required field or a value of the wrong primitive type fails the invocation;
// values are never coerced.
func ValidateArgs(schema *llm.Schema, args map[string]any) error {
	if schema == nil {
		return nil
	}

	for _, name := range schema.Required {
		if _, ok := args[name]; !ok {
			return fmt.Errorf("missing required argument %q", name)
		}
	}

	for name, value := range args {
		prop, ok := schema.Properties[name]
		if !ok {
			return fmt.Errorf("unexpected argument %q", name)
		}
		if value == nil {
			continue
		}
		if err := checkType(prop, value); err != nil {
			return fmt.Errorf("argument %q: %w", name, err)
		}
	}

	return nil
}

func checkType(prop *llm.Schema, value any) error {
	switch prop.Type {
	case llm.TypeString:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		if len(prop.Enum) > 0 && !contains(prop.Enum, s) {
			return fmt.Errorf("value %q not in %v", s, prop.Enum)
		}
	case llm.TypeNumber:
		if _, ok := value.(float64); !ok {
			// JSON numbers decode as float64; integers from some providers
			// arrive as int64.
			if _, ok := value.(int64); !ok {
				return fmt.Errorf("expected number, got %T", value)
			}
		}
	case llm.TypeInteger:
		switch value.(type) {
		case float64, int64, int:
		default:
			return fmt.Errorf("expected integer, got %T", value)
		}
	case llm.TypeBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", value)
		}
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
