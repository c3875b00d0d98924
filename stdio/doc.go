// Package stdio implements a single-connection MCP transport over
// stdin/stdout. It is intended for embedding servers as subprocesses, local
// development, and environments where spawning a child process and piping
// JSON is simpler than running a network server.
//
// Characteristics
//
//	Connection model : 1 process <-> 1 client
//	Framing          : newline-delimited JSON-RPC 2.0, one message per line
//	Sessions         : ephemeral; one session per process lifetime
//
// The handler owns framing and stream lifecycle only; all MCP semantics live
// in the engine behind the provided mcpservice.ServerCapabilities. Options
// allow supplying alternate io.Reader / io.Writer or a custom logger, which
// is how the tests drive a handler over in-memory pipes.
//
// Example:
//
//	srv := mcpservice.NewServer(
//	    mcpservice.WithServerInfo(mcp.ImplementationInfo{Name: "my-stdio-server", Version: "0.1.0"}),
//	    // mcpservice.WithToolsCapability(...), etc.
//	)
//	h := stdio.NewHandler(srv)
//	if err := h.Serve(context.Background()); err != nil { log.Fatal(err) }
package stdio
