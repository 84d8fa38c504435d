package event

import (
	"context"
	"log/slog"
	"sort"
)

// AuditLog returns a subscriber that writes one structured log line per
// event: its id, kind and the names of the submitted fields.
func AuditLog(logger *slog.Logger) Subscriber {
	return func(ctx context.Context, e Event) error {
		fields := make([]string, 0, len(e.Input))
		for name := range e.Input {
			fields = append(fields, name)
		}
		sort.Strings(fields)

		attrs := []slog.Attr{
			slog.String("event_id", e.ID),
			slog.String("kind", e.Kind.String()),
			slog.Any("fields", fields),
		}
		if ided, ok := e.Entry.(interface{ EntityID() uint }); ok {
			attrs = append(attrs, slog.Uint64("entry_id", uint64(ided.EntityID())))
		}
		logger.LogAttrs(ctx, slog.LevelInfo, "lifecycle event", attrs...)
		return nil
	}
}
