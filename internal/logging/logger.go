// Package logging is the structured logging interface the server writes
// through. SlogLogger backs it with log/slog; Nop discards.
package logging

import "context"

// Logger logs key-value records tied to a request context:
//
//	log.Info(ctx, "Starting HTTP server", "address", addr)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that adds args to every record.
	With(args ...any) Logger
}
