package sessions

// State is a point in the session lifecycle.
type State int

const (
	// StateUninitialized is the state of a fresh connection before the
	// initialize handshake has completed.
	StateUninitialized State = iota
	// StateInitialized is reached only through a successful initialize.
	StateInitialized
	// StateClosed is terminal. Transport teardown moves a session here.
	StateClosed
)

// String returns the lifecycle state name used in logs.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ClientInfo identifies the client connected to the server, as reported in
// its initialize request.
type ClientInfo struct {
	Name    string
	Version string
}

// Session represents one client connection's negotiated state.
// Implementations must be safe for concurrent use.
type Session interface {
	SessionID() string
	// ProtocolVersion is the negotiated MCP protocol version. It is empty
	// until the session reaches StateInitialized.
	ProtocolVersion() string
	ClientInfo() ClientInfo
	State() State
}
