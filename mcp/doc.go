// Package mcp defines the wire-level types of the Model Context Protocol as
// exchanged over JSON-RPC 2.0: method identifiers, request and result
// payloads, and the content/capability structures they embed.
//
// The package is deliberately free of behavior. Anything that negotiates,
// dispatches, or validates lives in the engine; this package only describes
// what travels on the wire so that both the server internals and tests can
// share one vocabulary.
package mcp
