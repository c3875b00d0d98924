package engine

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/contextd/mcp-stdio/mcp"
)

// validateToolArgs checks a raw tool-call argument payload against the tool's
// input schema before the handler ever runs: required properties must be
// present and present properties must match their declared primitive type.
// Deeper constraints (nested shapes, ranges) are left to the handler's own
// decoding.
func validateToolArgs(schema mcp.ToolInputSchema, raw json.RawMessage) error {
	args := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return fmt.Errorf("arguments must be a JSON object")
		}
	}

	for _, name := range schema.Required {
		if _, ok := args[name]; !ok {
			return fmt.Errorf("missing required argument %q", name)
		}
	}

	for name, value := range args {
		prop, ok := schema.Properties[name]
		if !ok || prop.Type == "" {
			continue
		}
		if !matchesSchemaType(prop.Type, value) {
			return fmt.Errorf("argument %q must be of type %s", name, prop.Type)
		}
	}
	return nil
}

// matchesSchemaType reports whether a decoded JSON value satisfies a JSON
// schema primitive type name.
func matchesSchemaType(typ string, value any) bool {
	switch typ {
	case "string":
		_, ok := value.(string)
		return ok
	case "number":
		_, ok := value.(float64)
		return ok
	case "integer":
		f, ok := value.(float64)
		return ok && f == math.Trunc(f)
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	case "null":
		return value == nil
	default:
		// Unknown type names do not fail validation.
		return true
	}
}

// validatePromptArgs enforces the prompt's required arguments.
func validatePromptArgs(prompt mcp.Prompt, args map[string]string) error {
	for _, arg := range prompt.Arguments {
		if !arg.Required {
			continue
		}
		if _, ok := args[arg.Name]; !ok {
			return fmt.Errorf("missing required argument %q", arg.Name)
		}
	}
	return nil
}
