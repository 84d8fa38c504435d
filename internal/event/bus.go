package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Subscriber reacts to a dispatched event. A returned error is reported to
// the dispatcher but does not stop other subscribers.
type Subscriber func(ctx context.Context, e Event) error

// Subscriptions maps each kind to its subscribers, in call order.
type Subscriptions map[Kind][]Subscriber

// Dispatcher is the side of the bus controllers depend on.
type Dispatcher interface {
	Dispatch(ctx context.Context, e Event) error
}

// Bus delivers events synchronously to the subscribers declared at
// construction. It holds no mutable state after NewBus returns.
type Bus struct {
	subs   Subscriptions
	logger *slog.Logger
}

// NewBus creates a bus. Subscribers passed as global receive every kind,
// before the kind-specific ones.
func NewBus(logger *slog.Logger, subs Subscriptions, global ...Subscriber) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	merged := make(Subscriptions, len(kindNames))
	for _, k := range Kinds() {
		list := make([]Subscriber, 0, len(global)+len(subs[k]))
		list = append(list, global...)
		list = append(list, subs[k]...)
		merged[k] = list
	}
	return &Bus{subs: merged, logger: logger}
}

// Dispatch calls every subscriber of e.Kind in order. Subscriber errors are
// joined and returned after all subscribers have run.
func (b *Bus) Dispatch(ctx context.Context, e Event) error {
	subs, ok := b.subs[e.Kind]
	if !ok {
		return fmt.Errorf("dispatch event: unknown kind %d", int(e.Kind))
	}

	var errs []error
	for _, sub := range subs {
		if err := sub(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		err := errors.Join(errs...)
		b.logger.WarnContext(ctx, "event subscriber failed",
			slog.String("event_id", e.ID),
			slog.String("kind", e.Kind.String()),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("dispatch %s: %w", e.Kind, err)
	}
	return nil
}

// Count returns how many subscribers receive kind k.
func (b *Bus) Count(k Kind) int {
	return len(b.subs[k])
}
