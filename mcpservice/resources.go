package mcpservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/contextd/mcp-stdio/mcp"
	"github.com/contextd/mcp-stdio/sessions"
)

// ResourceHandler materializes the contents of a resource when it is read.
type ResourceHandler func(ctx context.Context, session sessions.Session, uri string) ([]mcp.ResourceContents, error)

// StaticResource pairs a resource descriptor with the handler that produces
// its contents.
type StaticResource struct {
	Descriptor mcp.Resource
	Handler    ResourceHandler
}

// TextResource builds a StaticResource whose contents are a fixed text body.
func TextResource(desc mcp.Resource, text string) StaticResource {
	contents := []mcp.ResourceContents{{
		URI:      desc.URI,
		MimeType: desc.MimeType,
		Text:     text,
	}}
	return StaticResource{
		Descriptor: desc,
		Handler: func(ctx context.Context, _ sessions.Session, _ string) ([]mcp.ResourceContents, error) {
			return contents, nil
		},
	}
}

// ResourcesContainer owns an immutable set of resource descriptors and their
// read handlers. Like ToolsContainer, it is assembled once at startup and
// never mutated, so reads are lock-free.
type ResourcesContainer struct {
	resources []mcp.Resource
	handlers  map[string]ResourceHandler // uri -> handler
}

// NewResourcesContainer constructs a ResourcesContainer with the given
// definitions. Duplicate URIs keep the first registration.
func NewResourcesContainer(defs ...StaticResource) *ResourcesContainer {
	rc := &ResourcesContainer{
		resources: make([]mcp.Resource, 0, len(defs)),
		handlers:  make(map[string]ResourceHandler, len(defs)),
	}
	for _, d := range defs {
		if _, exists := rc.handlers[d.Descriptor.URI]; exists {
			continue
		}
		rc.resources = append(rc.resources, d.Descriptor)
		if d.Handler != nil {
			rc.handlers[d.Descriptor.URI] = d.Handler
		}
	}
	return rc
}

// ListResources implements ResourcesCapability.
func (rc *ResourcesContainer) ListResources(ctx context.Context, session sessions.Session) ([]mcp.Resource, error) {
	out := make([]mcp.Resource, len(rc.resources))
	copy(out, rc.resources)
	return out, nil
}

// ListResourceTemplates implements ResourcesCapability. Static containers
// hold only concrete resources.
func (rc *ResourcesContainer) ListResourceTemplates(ctx context.Context, session sessions.Session) ([]mcp.ResourceTemplate, error) {
	return nil, nil
}

// ReadResource implements ResourcesCapability.
func (rc *ResourcesContainer) ReadResource(ctx context.Context, session sessions.Session, uri string) ([]mcp.ResourceContents, error) {
	h := rc.handlers[uri]
	if h == nil {
		return nil, fmt.Errorf("resource %q: %w", uri, ErrNotFound)
	}
	return h(ctx, session, uri)
}

// CombineResources merges multiple resource capabilities into one. Listings
// are concatenated in argument order; reads are tried in order until one
// succeeds or fails with something other than a not-found.
func CombineResources(caps ...ResourcesCapability) ResourcesCapability {
	return combinedResources{caps: caps}
}

type combinedResources struct {
	caps []ResourcesCapability
}

func (c combinedResources) ListResources(ctx context.Context, session sessions.Session) ([]mcp.Resource, error) {
	var out []mcp.Resource
	for _, cap := range c.caps {
		rs, err := cap.ListResources(ctx, session)
		if err != nil {
			return nil, err
		}
		out = append(out, rs...)
	}
	return out, nil
}

func (c combinedResources) ListResourceTemplates(ctx context.Context, session sessions.Session) ([]mcp.ResourceTemplate, error) {
	var out []mcp.ResourceTemplate
	for _, cap := range c.caps {
		ts, err := cap.ListResourceTemplates(ctx, session)
		if err != nil {
			return nil, err
		}
		out = append(out, ts...)
	}
	return out, nil
}

func (c combinedResources) ReadResource(ctx context.Context, session sessions.Session, uri string) ([]mcp.ResourceContents, error) {
	for _, cap := range c.caps {
		contents, err := cap.ReadResource(ctx, session, uri)
		if err == nil {
			return contents, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("resource %q: %w", uri, ErrNotFound)
}
