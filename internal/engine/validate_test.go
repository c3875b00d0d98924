package engine

import (
	"encoding/json"
	"testing"

	"github.com/contextd/mcp-stdio/mcp"
)

func TestValidateToolArgs(t *testing.T) {
	schema := mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]mcp.SchemaProperty{
			"name":  {Type: "string"},
			"count": {Type: "integer"},
			"ratio": {Type: "number"},
			"flag":  {Type: "boolean"},
			"tags":  {Type: "array"},
		},
		Required: []string{"name"},
	}

	cases := []struct {
		name    string
		args    string
		wantErr bool
	}{
		{"all valid", `{"name":"a","count":3,"ratio":1.5,"flag":true,"tags":[]}`, false},
		{"only required", `{"name":"a"}`, false},
		{"missing required", `{"count":3}`, true},
		{"wrong string type", `{"name":7}`, true},
		{"fractional integer", `{"name":"a","count":1.5}`, true},
		{"integer-valued float ok", `{"name":"a","count":3.0}`, false},
		{"wrong bool type", `{"name":"a","flag":"yes"}`, true},
		{"non-object payload", `[1,2]`, true},
		{"undeclared property passes", `{"name":"a","extra":1}`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateToolArgs(schema, json.RawMessage(tc.args))
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidateToolArgs_EmptyPayload(t *testing.T) {
	schema := mcp.ToolInputSchema{Type: "object", Required: []string{"name"}}
	if err := validateToolArgs(schema, nil); err == nil {
		t.Fatalf("empty payload must fail when arguments are required")
	}

	if err := validateToolArgs(mcp.ToolInputSchema{Type: "object"}, nil); err != nil {
		t.Fatalf("empty payload with no requirements: %v", err)
	}
}

func TestValidatePromptArgs(t *testing.T) {
	prompt := mcp.Prompt{
		Name: "review-code",
		Arguments: []mcp.PromptArgument{
			{Name: "code", Required: true},
			{Name: "focus"},
		},
	}

	if err := validatePromptArgs(prompt, map[string]string{"code": "x"}); err != nil {
		t.Fatalf("required arg present: %v", err)
	}
	if err := validatePromptArgs(prompt, map[string]string{"focus": "style"}); err == nil {
		t.Fatalf("missing required arg must fail")
	}
	if err := validatePromptArgs(prompt, nil); err == nil {
		t.Fatalf("nil args with required arg must fail")
	}
}
