package mcpservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/contextd/mcp-stdio/mcp"
	"github.com/contextd/mcp-stdio/sessions"
	"github.com/invopop/jsonschema"
)

// ToolHandler is the function signature used to handle a tool invocation.
type ToolHandler func(ctx context.Context, session sessions.Session, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error)

// StaticTool pairs an MCP tool descriptor with its handler.
type StaticTool struct {
	Descriptor mcp.Tool
	Handler    ToolHandler
}

// ToolOption configures NewTool behavior.
type ToolOption func(*toolConfig)

type toolConfig struct {
	description               string
	allowAdditionalProperties bool // default false (strict)
}

// WithToolDescription sets the tool description used in listings.
func WithToolDescription(desc string) ToolOption {
	return func(c *toolConfig) { c.description = desc }
}

// WithToolAllowAdditionalProperties controls whether unknown fields are allowed.
// When false (default), the generated schema sets additionalProperties=false
// and runtime decoding rejects unknown fields.
func WithToolAllowAdditionalProperties(allow bool) ToolOption {
	return func(c *toolConfig) { c.allowAdditionalProperties = allow }
}

// NewTool constructs a StaticTool from a typed args struct A. It:
//   - Reflects a JSON Schema from A using invopop/jsonschema
//   - Down-converts it to MCP's simplified ToolInputSchema
//   - Builds the tool descriptor with the provided name and options
//   - Wraps the handler with runtime JSON decoding (rejecting unknown fields
//     by default)
func NewTool[A any](name string, fn func(ctx context.Context, session sessions.Session, args A) (*mcp.CallToolResult, error), opts ...ToolOption) StaticTool {
	cfg := toolConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	input := reflectToMCPInputSchema[A](cfg.allowAdditionalProperties)
	desc := mcp.Tool{
		Name:        name,
		Description: cfg.description,
		InputSchema: input,
	}

	handler := func(ctx context.Context, session sessions.Session, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error) {
		var a A
		if len(req.Arguments) > 0 {
			if cfg.allowAdditionalProperties {
				if err := json.Unmarshal(req.Arguments, &a); err != nil {
					return Errorf("invalid arguments: %v", err), nil
				}
			} else {
				dec := json.NewDecoder(bytes.NewReader(req.Arguments))
				dec.DisallowUnknownFields()
				if err := dec.Decode(&a); err != nil {
					return Errorf("invalid arguments: %v", err), nil
				}
			}
		}
		return fn(ctx, session, a)
	}

	return StaticTool{Descriptor: desc, Handler: handler}
}

// reflectToMCPInputSchema reflects a Go type A into a jsonschema.Schema, and
// converts it to the simplified mcp.ToolInputSchema. Unknown field policy is
// surfaced via the AdditionalProperties flag on the returned schema.
func reflectToMCPInputSchema[A any](allowAdditional bool) mcp.ToolInputSchema {
	r := &jsonschema.Reflector{
		DoNotReference:            true, // inline defs
		ExpandedStruct:            true, // put struct at root
		AllowAdditionalProperties: allowAdditional,
	}
	// Reflect from a zero value pointer to capture struct tags consistently
	s := r.Reflect(new(A))

	// Only object schemas map cleanly to MCP ToolInputSchema. If not an
	// object, expose an empty object with the configured policy.
	if s == nil || s.Type != "object" {
		return mcp.ToolInputSchema{
			Type:                 "object",
			Properties:           map[string]mcp.SchemaProperty{},
			AdditionalProperties: allowAdditional,
		}
	}

	props := make(map[string]mcp.SchemaProperty)
	if s.Properties != nil {
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			props[el.Key] = toMCPProperty(el.Value)
		}
	}
	var required []string
	if len(s.Required) > 0 {
		required = append(required, s.Required...)
	}

	return mcp.ToolInputSchema{
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: allowAdditional,
	}
}

// toMCPProperty recursively maps a jsonschema.Schema to the simplified MCP
// SchemaProperty.
func toMCPProperty(s *jsonschema.Schema) mcp.SchemaProperty {
	if s == nil {
		return mcp.SchemaProperty{}
	}
	p := mcp.SchemaProperty{
		Type:        s.Type,
		Description: s.Description,
	}
	if len(s.Enum) > 0 {
		p.Enum = s.Enum
	}
	if s.Minimum != "" {
		if f, err := s.Minimum.Float64(); err == nil {
			p.Minimum = f
		}
	}
	if s.Maximum != "" {
		if f, err := s.Maximum.Float64(); err == nil {
			p.Maximum = f
		}
	}
	// Arrays
	if s.Type == "array" && s.Items != nil {
		item := toMCPProperty(s.Items)
		p.Items = &item
	}
	// Objects
	if s.Type == "object" && s.Properties != nil {
		m := make(map[string]mcp.SchemaProperty, s.Properties.Len())
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			m[el.Key] = toMCPProperty(el.Value)
		}
		p.Properties = m
	}
	return p
}

// ToolsContainer owns an immutable set of tool descriptors and handlers. It
// is assembled once during startup; there is no mutation API, so reads need
// no locking and the advertised tool list never changes underneath a client.
type ToolsContainer struct {
	tools    []mcp.Tool             // descriptors in registration order
	handlers map[string]ToolHandler // name -> handler
}

// NewToolsContainer constructs a ToolsContainer with the given tool
// definitions. Duplicate names keep the first registration.
func NewToolsContainer(defs ...StaticTool) *ToolsContainer {
	st := &ToolsContainer{
		tools:    make([]mcp.Tool, 0, len(defs)),
		handlers: make(map[string]ToolHandler, len(defs)),
	}
	for _, d := range defs {
		if _, exists := st.handlers[d.Descriptor.Name]; exists {
			continue
		}
		st.tools = append(st.tools, d.Descriptor)
		if d.Handler != nil {
			st.handlers[d.Descriptor.Name] = d.Handler
		}
	}
	return st
}

// ListTools implements ToolsCapability.
func (st *ToolsContainer) ListTools(ctx context.Context, session sessions.Session) ([]mcp.Tool, error) {
	out := make([]mcp.Tool, len(st.tools))
	copy(out, st.tools)
	return out, nil
}

// DescribeTool implements ToolsCapability.
func (st *ToolsContainer) DescribeTool(ctx context.Context, name string) (mcp.Tool, bool) {
	for _, t := range st.tools {
		if t.Name == name {
			return t, true
		}
	}
	return mcp.Tool{}, false
}

// CallTool implements ToolsCapability.
func (st *ToolsContainer) CallTool(ctx context.Context, session sessions.Session, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error) {
	if req == nil || req.Name == "" {
		return nil, fmt.Errorf("invalid tool request: missing name")
	}
	h := st.handlers[req.Name]
	if h == nil {
		return nil, fmt.Errorf("tool %q: %w", req.Name, ErrNotFound)
	}
	return h(ctx, session, req)
}

// TextResult is a small helper to build a text CallToolResult.
func TextResult(s string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.ContentBlock{{Type: "text", Text: s}}}
}

// Errorf returns an error CallToolResult with a single text block and
// IsError=true. Tool handlers use it for domain failures that should reach
// the model rather than abort the request.
func Errorf(format string, a ...any) *mcp.CallToolResult {
	msg := fmt.Sprintf(format, a...)
	return &mcp.CallToolResult{Content: []mcp.ContentBlock{{Type: "text", Text: msg}}, IsError: true}
}
