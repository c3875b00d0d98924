package mcpservice

import (
	"context"
	"fmt"

	"github.com/contextd/mcp-stdio/mcp"
	"github.com/contextd/mcp-stdio/sessions"
)

// PromptHandler handles a prompt get request to produce messages.
type PromptHandler func(ctx context.Context, session sessions.Session, req *mcp.GetPromptRequestReceived) (*mcp.GetPromptResult, error)

// StaticPrompt pairs a prompt descriptor with a handler that can materialize
// it.
type StaticPrompt struct {
	Descriptor mcp.Prompt
	Handler    PromptHandler
}

// PromptsContainer owns an immutable set of prompt descriptors and handlers.
// It is assembled once during startup; there is no mutation API.
type PromptsContainer struct {
	prompts  []mcp.Prompt
	handlers map[string]PromptHandler // name -> handler
}

// NewPromptsContainer constructs a PromptsContainer with the given
// definitions. Duplicate names keep the first registration.
func NewPromptsContainer(defs ...StaticPrompt) *PromptsContainer {
	pc := &PromptsContainer{
		prompts:  make([]mcp.Prompt, 0, len(defs)),
		handlers: make(map[string]PromptHandler, len(defs)),
	}
	for _, d := range defs {
		if _, exists := pc.handlers[d.Descriptor.Name]; exists {
			continue
		}
		pc.prompts = append(pc.prompts, d.Descriptor)
		if d.Handler != nil {
			pc.handlers[d.Descriptor.Name] = d.Handler
		}
	}
	return pc
}

// ListPrompts implements PromptsCapability.
func (pc *PromptsContainer) ListPrompts(ctx context.Context, session sessions.Session) ([]mcp.Prompt, error) {
	out := make([]mcp.Prompt, len(pc.prompts))
	copy(out, pc.prompts)
	return out, nil
}

// DescribePrompt implements PromptsCapability.
func (pc *PromptsContainer) DescribePrompt(ctx context.Context, name string) (mcp.Prompt, bool) {
	for _, p := range pc.prompts {
		if p.Name == name {
			return p, true
		}
	}
	return mcp.Prompt{}, false
}

// GetPrompt implements PromptsCapability.
func (pc *PromptsContainer) GetPrompt(ctx context.Context, session sessions.Session, req *mcp.GetPromptRequestReceived) (*mcp.GetPromptResult, error) {
	if req == nil || req.Name == "" {
		return nil, fmt.Errorf("invalid prompt request: missing name")
	}
	h := pc.handlers[req.Name]
	if h == nil {
		return nil, fmt.Errorf("prompt %q: %w", req.Name, ErrNotFound)
	}
	return h(ctx, session, req)
}
