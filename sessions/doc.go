// Package sessions defines the session abstraction shared by the stdio
// transport and the protocol engine. A session represents one client
// connection's negotiated state: its identity, the protocol version agreed
// during the initialize handshake, and where the connection sits in its
// lifecycle.
//
// The lifecycle is a strict one-way walk:
//
//	StateUninitialized -> StateInitialized -> StateClosed
//
// Only a successful initialize moves a session forward to initialized, and
// nothing reopens a closed session. The engine owns the only concrete
// implementation; this package exists so capability code can interrogate the
// session without depending on engine internals.
package sessions
