package jsonrpc

// ErrorCode is a JSON-RPC 2.0 error code.
type ErrorCode int

const (
	// ErrorCodeParseError indicates invalid JSON was received by the server.
	ErrorCodeParseError ErrorCode = -32700
	// ErrorCodeInvalidRequest indicates the JSON sent is not a valid Request object.
	ErrorCodeInvalidRequest ErrorCode = -32600
	// ErrorCodeMethodNotFound indicates the method does not exist / is not available.
	ErrorCodeMethodNotFound ErrorCode = -32601
	// ErrorCodeInvalidParams indicates invalid method parameters.
	ErrorCodeInvalidParams ErrorCode = -32602
	// ErrorCodeInternalError indicates an internal JSON-RPC error.
	ErrorCodeInternalError ErrorCode = -32603
)

// Application-defined codes used by this server. They live in the
// implementation-reserved range below the JSON-RPC reserved block.
const (
	// ErrorCodeNotInitialized is returned when a capability method arrives
	// before the initialize handshake has completed.
	ErrorCodeNotInitialized ErrorCode = -32001
	// ErrorCodeNotFound is returned when a tool, resource, or prompt
	// identifier does not resolve to a registered entry.
	ErrorCodeNotFound ErrorCode = -32002
)
