package mcpservice

import (
	"context"

	"github.com/contextd/mcp-stdio/mcp"
	"github.com/contextd/mcp-stdio/sessions"
)

// ServerCapabilities is the root interface the engine consumes. It surfaces
// static implementation info plus the optional tool, resource, and prompt
// capabilities that shape both dispatch and the initialize result.
type ServerCapabilities interface {
	// GetServerInfo returns static implementation information about the server
	// that is surfaced in initialize results (name, version, etc.).
	//
	// This method MAY be called multiple times and SHOULD be inexpensive.
	GetServerInfo(ctx context.Context, session sessions.Session) (mcp.ImplementationInfo, error)

	// GetInstructions returns optional human-readable instructions that should
	// be surfaced to the client during initialization. If ok is false, no
	// instructions are included in the initialize result.
	GetInstructions(ctx context.Context, session sessions.Session) (instructions string, ok bool, err error)

	// GetToolsCapability returns the tools capability if supported by the
	// server. If ok is false, the engine will not advertise tool support and
	// tools/* methods resolve to method-not-found.
	GetToolsCapability(ctx context.Context, session sessions.Session) (cap ToolsCapability, ok bool, err error)

	// GetResourcesCapability returns the resources capability if supported by
	// the server. If ok is false, the engine will not advertise resources
	// support.
	GetResourcesCapability(ctx context.Context, session sessions.Session) (cap ResourcesCapability, ok bool, err error)

	// GetPromptsCapability returns the prompts capability if supported by the
	// server. If ok is false, the engine will not advertise prompt support.
	GetPromptsCapability(ctx context.Context, session sessions.Session) (cap PromptsCapability, ok bool, err error)
}

// ToolsCapability defines the server's tools surface area. All methods MUST
// be safe for concurrent use.
type ToolsCapability interface {
	// ListTools returns every tool, in registration order.
	ListTools(ctx context.Context, session sessions.Session) ([]mcp.Tool, error)

	// DescribeTool returns the descriptor for a single tool by name. The
	// engine consults it to validate call arguments against the input schema
	// before the handler runs.
	DescribeTool(ctx context.Context, name string) (tool mcp.Tool, ok bool)

	// CallTool invokes a named tool with the provided request payload. An
	// unknown name yields an error wrapping ErrNotFound.
	CallTool(ctx context.Context, session sessions.Session, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error)
}

// ResourcesCapability defines the basic resource operations supported by the
// server. All methods MUST be safe for concurrent use.
type ResourcesCapability interface {
	// ListResources returns every addressable resource, in registration order.
	ListResources(ctx context.Context, session sessions.Session) ([]mcp.Resource, error)

	// ListResourceTemplates returns the URI templates this capability can
	// materialize on demand.
	ListResourceTemplates(ctx context.Context, session sessions.Session) ([]mcp.ResourceTemplate, error)

	// ReadResource returns the contents for a specific resource URI. Unknown
	// URIs yield an error wrapping ErrNotFound.
	ReadResource(ctx context.Context, session sessions.Session, uri string) ([]mcp.ResourceContents, error)
}

// PromptsCapability defines the server's prompts surface area. All methods
// MUST be safe for concurrent use.
type PromptsCapability interface {
	// ListPrompts returns every prompt, in registration order.
	ListPrompts(ctx context.Context, session sessions.Session) ([]mcp.Prompt, error)

	// DescribePrompt returns the descriptor for a single prompt by name. The
	// engine consults it to enforce required arguments before the handler runs.
	DescribePrompt(ctx context.Context, name string) (prompt mcp.Prompt, ok bool)

	// GetPrompt returns the rendered messages for the given name and
	// arguments. An unknown name yields an error wrapping ErrNotFound.
	GetPrompt(ctx context.Context, session sessions.Session, req *mcp.GetPromptRequestReceived) (*mcp.GetPromptResult, error)
}
