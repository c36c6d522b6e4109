// Package notify carries draft change events from the engine to whoever needs
// to re-read a snapshot: websocket gateways and the timeout resolver.
package notify

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/draftturn/go/internal/draft/events"
)

// Publisher delivers a change event to a transport.
type Publisher interface {
	Publish(ctx context.Context, evt events.ChangeEvent) error
}

// Notifier has the shape of engine.Notifier.
type Notifier interface {
	NotifyChanged(ctx context.Context, draftID uuid.UUID, reason events.Reason) error
}

// PublisherNotifier stamps a change event and hands it to a Publisher.
type PublisherNotifier struct {
	publisher Publisher
	clock     clockwork.Clock
}

func AsNotifier(publisher Publisher, clock clockwork.Clock) *PublisherNotifier {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &PublisherNotifier{publisher: publisher, clock: clock}
}

func (n *PublisherNotifier) NotifyChanged(ctx context.Context, draftID uuid.UUID, reason events.Reason) error {
	return n.publisher.Publish(ctx, events.NewChangeEvent(draftID, reason, n.clock.Now()))
}
