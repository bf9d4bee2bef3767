package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes events to an slog.Logger.
// Useful for development when you want to see provisioning events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger. Errors are logged at Warn level,
// everything else at Debug.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("component", event.Component.String()),
		slog.String("category", event.Category.String()),
	}
	if event.CycleID != "" {
		attrs = append(attrs, slog.String("cycle_id", event.CycleID))
	}

	level := slog.LevelDebug

	switch {
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity.String()),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Request != nil:
		attrs = append(attrs,
			slog.String("method", event.Request.Method),
			slog.String("path", event.Request.Path),
			slog.Int("status", event.Request.Status),
			slog.Duration("duration", event.Request.Duration),
		)
		if event.Request.RemoteAddr != "" {
			attrs = append(attrs, slog.String("remote_addr", event.Request.RemoteAddr))
		}
		if event.Request.Network != "" {
			attrs = append(attrs, slog.String("network", event.Request.Network))
		}
	case event.Scan != nil:
		attrs = append(attrs,
			slog.Int("count", event.Scan.Count),
			slog.Duration("duration", event.Scan.Duration),
		)
	case event.Error != nil:
		level = slog.LevelWarn
		attrs = append(attrs,
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
			slog.Bool("fatal", event.Error.Fatal),
		)
	}

	a.logger.LogAttrs(context.Background(), level, "provisioning", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
