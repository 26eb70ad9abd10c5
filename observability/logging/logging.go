// Package logging configures the structured JSON logger used throughout the
// reserve core's ambient stack.
package logging

import (
	"log"
	"log/slog"
	"os"
	"strings"
)

// Setup configures the standard library logger to emit structured JSON and
// returns the underlying slog.Logger. All log lines include the service name
// and pool identifier when provided.
func Setup(service, pool string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: false,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.TimeKey {
				return slog.Attr{Key: "timestamp", Value: attr.Value}
			}
			if attr.Key == slog.LevelKey {
				return slog.String("severity", strings.ToUpper(attr.Value.String()))
			}
			if attr.Key == slog.MessageKey {
				return slog.Attr{Key: "message", Value: attr.Value}
			}
			return attr
		},
	})

	attrs := []slog.Attr{slog.String("service", strings.TrimSpace(service))}
	if pool = strings.TrimSpace(pool); pool != "" {
		attrs = append(attrs, slog.String("pool", pool))
	}

	withArgs := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		withArgs = append(withArgs, attr)
	}

	base := slog.New(handler).With(withArgs...)
	slog.SetDefault(base)

	stdBridge := slog.NewLogLogger(handler.WithAttrs(attrs), slog.LevelInfo)
	stdBridge.SetFlags(0)
	log.SetOutput(stdBridge.Writer())
	log.SetFlags(0)
	log.SetPrefix("")

	return base
}

// WithReserve scopes a base logger to one pool/reserve-asset pair, the
// grouping every reserve observation (log line, metric sample, and
// correlation ID) is keyed by. Passing an empty pool or asset omits that
// attr rather than emitting an empty label value.
func WithReserve(base *slog.Logger, pool, asset string) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	attrs := make([]any, 0, 2)
	if pool = strings.TrimSpace(pool); pool != "" {
		attrs = append(attrs, slog.String("pool", pool))
	}
	if asset = strings.TrimSpace(asset); asset != "" {
		attrs = append(attrs, slog.String("asset", asset))
	}
	if len(attrs) == 0 {
		return base
	}
	return base.With(attrs...)
}
