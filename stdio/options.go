package stdio

import (
	"io"
	"log/slog"
	"time"
)

// Option customizes a Handler.
type Option func(*Handler)

// WithIO sets the reader and writer for the handler.
func WithIO(r io.Reader, w io.Writer) Option {
	return func(h *Handler) {
		if r != nil {
			h.r = r
		}
		if w != nil {
			h.w = w
		}
	}
}

// WithReader overrides the input stream.
func WithReader(r io.Reader) Option {
	return func(h *Handler) {
		if r != nil {
			h.r = r
		}
	}
}

// WithWriter overrides the output stream.
func WithWriter(w io.Writer) Option {
	return func(h *Handler) {
		if w != nil {
			h.w = w
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.l = l
		}
	}
}

// WithMaxFrameBytes bounds the size of a single inbound frame. Oversized
// frames are answered with a parse error and the stream continues.
func WithMaxFrameBytes(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxFrameBytes = n
		}
	}
}

// WithCallTimeout bounds the execution of a single request handler.
func WithCallTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.callTimeout = d
		}
	}
}
