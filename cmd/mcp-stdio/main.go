// Command mcp-stdio runs a single-client MCP server speaking
// newline-delimited JSON-RPC 2.0 over stdin/stdout. All diagnostics go to
// stderr; stdout carries protocol frames only.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/contextd/mcp-stdio/auth"
	"github.com/contextd/mcp-stdio/internal/builtin"
	"github.com/contextd/mcp-stdio/internal/config"
	"github.com/contextd/mcp-stdio/stdio"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "mcp-stdio",
		Short:        "Single-client MCP server over stdio",
		Long:         "mcp-stdio serves the Model Context Protocol to one client over stdin/stdout,\nusing newline-delimited JSON-RPC 2.0 frames. Configuration comes from the\nenvironment (optionally via a .env file).",
		SilenceUsage: true,
		RunE:         run,
		Args:         cobra.NoArgs,
	}
}

func run(cmd *cobra.Command, _ []string) error {
	// Missing .env is the normal case; environment variables win regardless.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	lvl := new(slog.LevelVar)
	lvl.Set(parseLevel(cfg.LogLevel))
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.AuthSecret != "" {
		if cfg.SessionToken == "" {
			return errors.New("MCP_SESSION_TOKEN is required when MCP_AUTH_SECRET is set")
		}
		verifier, err := auth.NewHMACVerifier([]byte(cfg.AuthSecret))
		if err != nil {
			return fmt.Errorf("auth gate: %w", err)
		}
		user, err := verifier.VerifyToken(ctx, cfg.SessionToken)
		if err != nil {
			log.ErrorContext(ctx, "auth.gate.denied", slog.String("err", err.Error()))
			return fmt.Errorf("auth gate: %w", err)
		}
		log.InfoContext(ctx, "auth.gate.ok", slog.String("user_id", user.UserID()))
	}

	srv, dir, err := builtin.NewServer(cfg, log)
	if err != nil {
		return err
	}
	if dir != nil {
		if err := dir.Watch(ctx); err != nil {
			// Listings fall back to on-demand scans without the watcher.
			log.WarnContext(ctx, "resources.dir.watch_unavailable", slog.String("err", err.Error()))
		}
	}

	h := stdio.NewHandler(srv,
		stdio.WithLogger(log),
		stdio.WithMaxFrameBytes(cfg.MaxFrameBytes),
		stdio.WithCallTimeout(cfg.CallTimeout),
	)
	if err := h.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
