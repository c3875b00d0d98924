package mcpservice

import (
	"context"

	"github.com/contextd/mcp-stdio/mcp"
	"github.com/contextd/mcp-stdio/sessions"
)

// ServerOption configures a concrete ServerCapabilities implementation.
type ServerOption func(*server)

type server struct {
	info         mcp.ImplementationInfo
	instructions *string

	toolsCap     ToolsCapability
	resourcesCap ResourcesCapability
	promptsCap   PromptsCapability
}

// NewServer builds a ServerCapabilities using functional options. The
// resulting value is immutable: the capability surface it advertises is fixed
// for the lifetime of the process.
func NewServer(opts ...ServerOption) ServerCapabilities {
	s := &server{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithServerInfo sets the static server info value.
func WithServerInfo(info mcp.ImplementationInfo) ServerOption {
	return func(s *server) { s.info = info }
}

// WithInstructions sets static human-readable instructions returned during
// initialize.
func WithInstructions(instr string) ServerOption {
	return func(s *server) { s.instructions = &instr }
}

// WithToolsCapability wires a static ToolsCapability.
func WithToolsCapability(cap ToolsCapability) ServerOption {
	return func(s *server) { s.toolsCap = cap }
}

// WithResourcesCapability wires a static ResourcesCapability.
func WithResourcesCapability(cap ResourcesCapability) ServerOption {
	return func(s *server) { s.resourcesCap = cap }
}

// WithPromptsCapability wires a static PromptsCapability.
func WithPromptsCapability(cap PromptsCapability) ServerOption {
	return func(s *server) { s.promptsCap = cap }
}

// GetServerInfo implements ServerCapabilities.
func (s *server) GetServerInfo(ctx context.Context, session sessions.Session) (mcp.ImplementationInfo, error) {
	return s.info, nil
}

// GetInstructions implements ServerCapabilities.
func (s *server) GetInstructions(ctx context.Context, session sessions.Session) (string, bool, error) {
	if s.instructions != nil {
		return *s.instructions, true, nil
	}
	return "", false, nil
}

// GetToolsCapability implements ServerCapabilities.
func (s *server) GetToolsCapability(ctx context.Context, session sessions.Session) (ToolsCapability, bool, error) {
	if s.toolsCap != nil {
		return s.toolsCap, true, nil
	}
	return nil, false, nil
}

// GetResourcesCapability implements ServerCapabilities.
func (s *server) GetResourcesCapability(ctx context.Context, session sessions.Session) (ResourcesCapability, bool, error) {
	if s.resourcesCap != nil {
		return s.resourcesCap, true, nil
	}
	return nil, false, nil
}

// GetPromptsCapability implements ServerCapabilities.
func (s *server) GetPromptsCapability(ctx context.Context, session sessions.Session) (PromptsCapability, bool, error) {
	if s.promptsCap != nil {
		return s.promptsCap, true, nil
	}
	return nil, false, nil
}
