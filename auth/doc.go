// Package auth provides an optional out-of-band credential gate for the
// stdio transport. Because stdin carries only protocol frames, credentials
// arrive through the process environment: the operator that spawns the server
// mints an HS256 JWT with a shared secret and passes it alongside the secret.
// The gate runs once before the stream is handed to the engine; there is no
// per-request authentication.
package auth
