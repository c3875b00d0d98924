package stdio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/contextd/mcp-stdio/internal/engine"
	"github.com/contextd/mcp-stdio/internal/jsonrpc"
	"github.com/contextd/mcp-stdio/mcpservice"
)

// Handler is a single-connection stdio transport that reads newline-delimited
// JSON-RPC messages from an io.Reader and writes responses to an io.Writer.
// By default it uses os.Stdin and os.Stdout.
//
// The handler is transport-only; it delegates all MCP semantics to the
// provided mcpservice.ServerCapabilities via the engine.
type Handler struct {
	srv mcpservice.ServerCapabilities

	r io.Reader
	w io.Writer
	l *slog.Logger

	maxFrameBytes int
	callTimeout   time.Duration
}

// NewHandler constructs a stdio Handler with defaults and applies options.
func NewHandler(srv mcpservice.ServerCapabilities, opts ...Option) *Handler {
	h := &Handler{
		srv:           srv,
		r:             os.Stdin,
		w:             os.Stdout,
		l:             slog.Default(),
		maxFrameBytes: DefaultMaxFrameBytes,
		callTimeout:   engine.DefaultCallTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Serve runs the stdio event loop until EOF on the reader, a write failure,
// or context cancellation. Frames are processed strictly in arrival order,
// one at a time, so responses appear in request order. EOF is a clean
// shutdown; a failed write is fatal because the client can no longer be
// answered reliably.
func (h *Handler) Serve(ctx context.Context) error {
	eng := engine.NewEngine(h.srv,
		engine.WithLogger(h.l),
		engine.WithCallTimeout(h.callTimeout),
	)
	defer eng.Close()

	log := h.l.With(slog.String("session_id", eng.Session().SessionID()))
	log.InfoContext(ctx, "stdio.serve.start")

	type frame struct {
		data []byte
		err  error
	}
	frames := make(chan frame)
	// done unblocks the reader goroutine's send when Serve returns for a
	// reason the reader cannot see, such as a write failure.
	done := make(chan struct{})
	defer close(done)
	fr := newFrameReader(h.r, h.maxFrameBytes)
	go func() {
		for {
			data, err := fr.next()
			select {
			case frames <- frame{data: data, err: err}:
			case <-ctx.Done():
				return
			case <-done:
				return
			}
			// The reader survives oversized frames; anything else ends it.
			if err != nil && !errors.Is(err, errFrameTooLarge) {
				return
			}
		}
	}()

	for {
		var f frame
		select {
		case <-ctx.Done():
			log.InfoContext(ctx, "stdio.serve.stop", slog.String("reason", ctx.Err().Error()))
			return ctx.Err()
		case f = <-frames:
		}

		switch {
		case errors.Is(f.err, io.EOF):
			log.InfoContext(ctx, "stdio.serve.eof")
			return nil
		case errors.Is(f.err, errFrameTooLarge):
			log.InfoContext(ctx, "stdio.frame.too_large", slog.Int("max_bytes", h.maxFrameBytes))
			resp := jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeParseError, "frame exceeds maximum size", nil)
			if err := h.writeFrame(resp); err != nil {
				log.ErrorContext(ctx, "stdio.serve.write_fail", slog.String("err", err.Error()))
				return err
			}
			continue
		case f.err != nil:
			log.ErrorContext(ctx, "stdio.serve.read_fail", slog.String("err", f.err.Error()))
			return fmt.Errorf("read frame: %w", f.err)
		}

		req, envErr := jsonrpc.DecodeEnvelope(f.data)
		if envErr != nil {
			log.InfoContext(ctx, "stdio.frame.invalid", slog.String("err", envErr.Error()))
			resp := jsonrpc.NewErrorResponse(envErr.ID, envErr.Code, envErr.Error(), nil)
			if err := h.writeFrame(resp); err != nil {
				log.ErrorContext(ctx, "stdio.serve.write_fail", slog.String("err", err.Error()))
				return err
			}
			continue
		}

		resp := eng.HandleMessage(ctx, req)
		if resp == nil {
			continue
		}
		if err := h.writeFrame(resp); err != nil {
			log.ErrorContext(ctx, "stdio.serve.write_fail", slog.String("err", err.Error()))
			return err
		}
	}
}

// writeFrame emits one message followed by a newline in a single write, which
// doubles as the flush for unbuffered writers like os.Stdout.
func (h *Handler) writeFrame(msg any) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	b = append(b, '\n')
	if _, err := h.w.Write(b); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}
