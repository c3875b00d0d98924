// Package config holds the environment-derived configuration for the server
// binary. Fields are populated via envdecode struct tags; every knob has a
// sensible default so a bare `mcp-stdio` invocation works out of the box.
package config

import (
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
)

// Config captures every tunable of the server process.
type Config struct {
	// ServerName and ServerVersion are surfaced in initialize results.
	ServerName    string `env:"MCP_SERVER_NAME,default=mcp-stdio"`
	ServerVersion string `env:"MCP_SERVER_VERSION,default=1.0.0"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"MCP_LOG_LEVEL,default=info"`

	// MaxFrameBytes bounds a single inbound frame.
	MaxFrameBytes int `env:"MCP_MAX_FRAME_BYTES,default=1048576"`

	// CallTimeout bounds the execution of a single request handler.
	CallTimeout time.Duration `env:"MCP_CALL_TIMEOUT,default=30s"`

	// DataDir, when set, is exposed as a directory-backed resource tree.
	DataDir string `env:"MCP_DATA_DIR,default="`

	// AuthSecret enables the session-token gate when non-empty. SessionToken
	// is the credential the client-side launcher passes for verification.
	AuthSecret   string `env:"MCP_AUTH_SECRET,default="`
	SessionToken string `env:"MCP_SESSION_TOKEN,default="`
}

// Load populates a Config from the process environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	return &cfg, nil
}
