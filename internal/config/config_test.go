package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerName != "mcp-stdio" || cfg.ServerVersion != "1.0.0" {
		t.Fatalf("server identity = %q %q", cfg.ServerName, cfg.ServerVersion)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("log level = %q", cfg.LogLevel)
	}
	if cfg.MaxFrameBytes != 1<<20 {
		t.Fatalf("max frame bytes = %d", cfg.MaxFrameBytes)
	}
	if cfg.CallTimeout != 30*time.Second {
		t.Fatalf("call timeout = %v", cfg.CallTimeout)
	}
	if cfg.DataDir != "" || cfg.AuthSecret != "" || cfg.SessionToken != "" {
		t.Fatalf("optional knobs should default empty: %+v", cfg)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("MCP_SERVER_NAME", "custom")
	t.Setenv("MCP_SERVER_VERSION", "2.3.4")
	t.Setenv("MCP_LOG_LEVEL", "debug")
	t.Setenv("MCP_MAX_FRAME_BYTES", "4096")
	t.Setenv("MCP_CALL_TIMEOUT", "5s")
	t.Setenv("MCP_DATA_DIR", "/tmp/data")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerName != "custom" || cfg.ServerVersion != "2.3.4" {
		t.Fatalf("server identity = %q %q", cfg.ServerName, cfg.ServerVersion)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log level = %q", cfg.LogLevel)
	}
	if cfg.MaxFrameBytes != 4096 {
		t.Fatalf("max frame bytes = %d", cfg.MaxFrameBytes)
	}
	if cfg.CallTimeout != 5*time.Second {
		t.Fatalf("call timeout = %v", cfg.CallTimeout)
	}
	if cfg.DataDir != "/tmp/data" {
		t.Fatalf("data dir = %q", cfg.DataDir)
	}
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("MCP_CALL_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Fatalf("bad duration accepted")
	}
}
