// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/holomush/rainmux/pkg/rmapi"
)

// hostHandler renders records as "message key=value ..." and forwards them
// to the host log. Attribute formatting is delegated to a text handler that
// writes into a shared scratch buffer.
type hostHandler struct {
	sink  rmapi.Logger
	level slog.Leveler
	mu    *sync.Mutex
	buf   *bytes.Buffer
	text  slog.Handler
}

// NewHostHandler creates a handler that writes to sink at or above level.
func NewHostHandler(sink rmapi.Logger, level slog.Leveler) slog.Handler {
	buf := &bytes.Buffer{}
	return &hostHandler{
		sink:  sink,
		level: level,
		mu:    &sync.Mutex{},
		buf:   buf,
		text: slog.NewTextHandler(buf, &slog.HandlerOptions{
			Level:       slog.LevelDebug,
			ReplaceAttr: dropBuiltins,
		}),
	}
}

// dropBuiltins removes the time, level and message attributes; the host log
// has its own and the message leads the line.
func dropBuiltins(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 {
		switch a.Key {
		case slog.TimeKey, slog.LevelKey, slog.MessageKey:
			return slog.Attr{}
		}
	}
	return a
}

// HostLevel maps a slog level onto the host's four severities.
func HostLevel(l slog.Level) rmapi.LogLevel {
	switch {
	case l >= slog.LevelError:
		return rmapi.LogError
	case l >= slog.LevelWarn:
		return rmapi.LogWarning
	case l >= slog.LevelInfo:
		return rmapi.LogNotice
	default:
		return rmapi.LogDebug
	}
}

// Enabled implements slog.Handler.
func (h *hostHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *hostHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	h.buf.Reset()
	err := h.text.Handle(ctx, r)
	attrs := strings.TrimSpace(h.buf.String())
	h.mu.Unlock()
	if err != nil {
		//nolint:wrapcheck // Handler interface requires unwrapped error passthrough
		return err
	}

	line := r.Message
	if attrs != "" {
		line += " " + attrs
	}
	h.sink.Log(HostLevel(r.Level), line)
	return nil
}

// WithAttrs implements slog.Handler.
func (h *hostHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.text = h.text.WithAttrs(attrs)
	return &clone
}

// WithGroup implements slog.Handler.
func (h *hostHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.text = h.text.WithGroup(name)
	return &clone
}

// NewHostLogger returns a logger that writes to the host log with trace
// context attached.
func NewHostLogger(sink rmapi.Logger, level slog.Level) *slog.Logger {
	return slog.New(&traceHandler{handler: NewHostHandler(sink, level)})
}
