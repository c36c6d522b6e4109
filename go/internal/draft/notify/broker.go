package notify

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/draftturn/go/internal/draft/events"
	"github.com/rs/zerolog/log"
)

const defaultSubscriberBuffer = 64

// Broker fans change events out in process. It is the transport when the
// engine, resolver and gateway share one binary.
type Broker struct {
	mu     sync.RWMutex
	subs   map[int]chan events.ChangeEvent
	nextID int
	clock  clockwork.Clock
}

func NewBroker(clock clockwork.Clock) *Broker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Broker{
		subs:  make(map[int]chan events.ChangeEvent),
		clock: clock,
	}
}

// Subscribe returns a channel of every event published after the call and a
// func that ends the subscription and closes the channel.
func (b *Broker) Subscribe(buffer int) (<-chan events.ChangeEvent, func()) {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	ch := make(chan events.ChangeEvent, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Publish never blocks. A subscriber whose buffer is full misses the event;
// events carry no state, so the next one brings it up to date.
func (b *Broker) Publish(ctx context.Context, evt events.ChangeEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- evt:
		default:
			log.Warn().
				Int("subscriber", id).
				Str("draft_id", evt.DraftID.String()).
				Str("reason", string(evt.Reason)).
				Msg("subscriber buffer full, dropping change event")
		}
	}
	return nil
}

func (b *Broker) NotifyChanged(ctx context.Context, draftID uuid.UUID, reason events.Reason) error {
	return b.Publish(ctx, events.NewChangeEvent(draftID, reason, b.clock.Now()))
}

func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
