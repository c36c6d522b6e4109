package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/draftturn/go/internal/draft/events"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// JetStreamConsumerConfig holds configuration for the JetStream consumer
type JetStreamConsumerConfig struct {
	StreamName    string
	ConsumerName  string
	SubjectFilter string        // e.g., "draft.events.>"
	MaxDeliver    int           // Max delivery attempts
	AckWait       time.Duration // How long to wait for ack
	MaxAckPending int           // Max messages pending ack
}

func DefaultJetStreamConsumerConfig() JetStreamConsumerConfig {
	return JetStreamConsumerConfig{
		StreamName:    "DRAFT_EVENTS",
		ConsumerName:  "draft-gateway",
		SubjectFilter: "draft.events.>",
		MaxDeliver:    5,
		AckWait:       30 * time.Second,
		MaxAckPending: 100,
	}
}

// EventConsumer turns change events into draft:updated broadcasts.
type EventConsumer struct {
	connectionManager *ConnectionManager
	snapshots         *SnapshotCache
	clock             clockwork.Clock
}

func NewEventConsumer(cm *ConnectionManager, snapshots *SnapshotCache, clock clockwork.Clock) *EventConsumer {
	return &EventConsumer{connectionManager: cm, snapshots: snapshots, clock: clock}
}

// HandleChangeEvent refreshes the cached snapshot of the draft and pushes it to
// every connection on that draft. With nobody watching, the cache entry is
// just dropped so the next join assembles a fresh one.
func (ec *EventConsumer) HandleChangeEvent(ctx context.Context, evt events.ChangeEvent) error {
	if !ec.connectionManager.HasConnections(evt.DraftID) {
		return ec.snapshots.Invalidate(ctx, evt.DraftID)
	}

	snap, err := ec.snapshots.Refresh(ctx, evt.DraftID)
	if err != nil {
		return fmt.Errorf("refresh snapshot: %w", err)
	}
	ec.connectionManager.BroadcastToDraft(evt.DraftID, updatedMessage(evt, snap, ec.clock.Now().UTC()))

	log.Debug().
		Str("event_id", evt.ID.String()).
		Str("draft_id", evt.DraftID.String()).
		Str("reason", string(evt.Reason)).
		Msg("change broadcast to WebSocket clients")
	return nil
}

// ConsumeChannel handles events from an in-process subscription until ctx is
// done or the channel closes.
func (ec *EventConsumer) ConsumeChannel(ctx context.Context, ch <-chan events.ChangeEvent) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-ch:
			if !ok {
				return nil
			}
			if err := ec.HandleChangeEvent(ctx, evt); err != nil {
				log.Error().Err(err).Str("draft_id", evt.DraftID.String()).Msg("failed to handle change event")
			}
		}
	}
}

// ConsumeJetStream handles events from a durable JetStream consumer until ctx is done.
func (ec *EventConsumer) ConsumeJetStream(ctx context.Context, js jetstream.JetStream, cfg JetStreamConsumerConfig) error {
	stream, err := js.Stream(ctx, cfg.StreamName)
	if err != nil {
		return fmt.Errorf("get stream: %w", err)
	}

	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Name:          cfg.ConsumerName,
		Durable:       cfg.ConsumerName,
		Description:   "Draft gateway WebSocket consumer",
		FilterSubject: cfg.SubjectFilter,
		DeliverPolicy: jetstream.DeliverNewPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    cfg.MaxDeliver,
		AckWait:       cfg.AckWait,
		MaxAckPending: cfg.MaxAckPending,
		ReplayPolicy:  jetstream.ReplayInstantPolicy,
	})
	if err != nil {
		return fmt.Errorf("create consumer: %w", err)
	}

	consumeCtx, err := consumer.Consume(func(msg jetstream.Msg) {
		if err := ec.processMessage(ctx, msg); err != nil {
			log.Error().
				Err(err).
				Str("subject", msg.Subject()).
				Msg("failed to process message")
			if nakErr := msg.Nak(); nakErr != nil {
				log.Error().Err(nakErr).Msg("failed to NAK message")
			}
			return
		}
		if ackErr := msg.Ack(); ackErr != nil {
			log.Error().Err(ackErr).Msg("failed to ACK message")
		}
	})
	if err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	defer consumeCtx.Stop()

	log.Info().
		Str("consumer", cfg.ConsumerName).
		Str("stream", cfg.StreamName).
		Msg("gateway consuming change events")

	<-ctx.Done()
	log.Info().Msg("event consumer shutting down")
	return nil
}

func (ec *EventConsumer) processMessage(ctx context.Context, msg jetstream.Msg) error {
	var evt events.ChangeEvent
	if err := json.Unmarshal(msg.Data(), &evt); err != nil {
		// Redelivery cannot fix a bad payload.
		_ = msg.Term()
		return fmt.Errorf("unmarshal change event: %w", err)
	}
	return ec.HandleChangeEvent(ctx, evt)
}
