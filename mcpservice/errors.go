package mcpservice

import "errors"

// ErrNotFound marks a lookup miss for a tool, resource, or prompt. Capability
// implementations wrap it with the failing identifier; the engine classifies
// it with errors.Is to produce the protocol-level not-found error.
var ErrNotFound = errors.New("not found")
