// Package mcpservice defines the capability interfaces that an MCP server
// implementation exposes to the protocol engine, together with concrete
// container types that cover the common case of a fixed capability surface.
//
// The engine discovers capabilities at runtime and translates method calls on
// these interfaces into MCP JSON-RPC messages. All implementations MUST be
// safe for concurrent use and respect the provided context for cancellation
// and deadlines.
//
// Conventions used throughout this package:
//   - Capability discovery methods return (cap, ok, err). A false ok indicates
//     that the capability is not supported; err should be reserved for
//     transient or internal failures while determining support.
//   - Containers are assembled once during startup and are immutable
//     afterwards. There is deliberately no mutation API: the advertised
//     capability surface of a running server never changes, so listings are
//     stable and lock-free.
//   - Lookup failures are reported by wrapping ErrNotFound so the engine can
//     classify them without string matching.
package mcpservice
