// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-10-18
// Last Modified: 2026-10-18

// Package logging provides structured logging with optional Sentry reporting.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
)

// Config holds logging configuration.
type Config struct {
	Level     slog.Level
	SentryDSN string
	Env       string
	Version   string
	Output    io.Writer // nil = stderr
}

// Setup builds a logger tagged with a fresh run id and installs it as the
// slog default. The returned flush function must be called before exit.
func Setup(cfg Config) (*slog.Logger, func(time.Duration), error) {
	sentryEnabled := false
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Env,
			Release:     cfg.Version,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("sentry init: %w", err)
		}
		sentryEnabled = true
	}

	var output io.Writer = os.Stderr
	if cfg.Output != nil {
		output = cfg.Output
	}

	handler := &sentryHandler{
		Handler:       slog.NewTextHandler(output, &slog.HandlerOptions{Level: cfg.Level}),
		sentryEnabled: sentryEnabled,
	}

	logger := slog.New(handler).With(slog.String("run_id", uuid.NewString()))
	slog.SetDefault(logger)

	flush := func(timeout time.Duration) {
		if sentryEnabled {
			sentry.Flush(timeout)
		}
	}
	return logger, flush, nil
}

// ParseLevel maps a level name to a slog.Level. Unknown names map to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
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

// sentryHandler wraps an slog.Handler and sends errors to Sentry.
type sentryHandler struct {
	slog.Handler
	sentryEnabled bool
	attrs         []slog.Attr
}

func (h *sentryHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.Handler.Handle(ctx, r); err != nil {
		return err
	}
	if h.sentryEnabled && r.Level >= slog.LevelError {
		sentry.CaptureEvent(h.buildEvent(r))
	}
	return nil
}

func (h *sentryHandler) buildEvent(r slog.Record) *sentry.Event {
	event := sentry.NewEvent()
	event.Level = sentry.LevelError
	event.Message = r.Message
	event.Timestamp = r.Time

	for _, a := range h.attrs {
		event.Extra[a.Key] = a.Value.String()
	}
	r.Attrs(func(a slog.Attr) bool {
		event.Extra[a.Key] = a.Value.String()
		return true
	})
	return event
}

func (h *sentryHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &sentryHandler{
		Handler:       h.Handler.WithAttrs(attrs),
		sentryEnabled: h.sentryEnabled,
		attrs:         append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *sentryHandler) WithGroup(name string) slog.Handler {
	return &sentryHandler{
		Handler:       h.Handler.WithGroup(name),
		sentryEnabled: h.sentryEnabled,
		attrs:         h.attrs,
	}
}
