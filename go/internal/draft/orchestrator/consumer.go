package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mcdev12/draftturn/go/internal/draft/events"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

const (
	consumerMaxDeliver    = 3
	consumerAckWait       = 10 * time.Second
	consumerMaxAckPending = 100
)

// ConsumerConfig names the stream the orchestrator listens to for early wake-ups.
type ConsumerConfig struct {
	StreamName    string
	ConsumerName  string
	SubjectFilter string
}

func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		StreamName:    "DRAFT_EVENTS",
		ConsumerName:  "draft-resolver",
		SubjectFilter: "draft.events.>",
	}
}

// ConsumeChanges feeds change events from JetStream into HandleChangeEvent until ctx is done.
// Missing events only delay resolution up to MaxSleep, so the consumer starts at new messages.
func (o *Orchestrator) ConsumeChanges(ctx context.Context, js jetstream.JetStream, cfg ConsumerConfig) error {
	stream, err := js.Stream(ctx, cfg.StreamName)
	if err != nil {
		return fmt.Errorf("get stream: %w", err)
	}

	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Name:          cfg.ConsumerName,
		Durable:       cfg.ConsumerName,
		Description:   "Draft timeout resolver wake-ups",
		FilterSubject: cfg.SubjectFilter,
		DeliverPolicy: jetstream.DeliverNewPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    consumerMaxDeliver,
		AckWait:       consumerAckWait,
		MaxAckPending: consumerMaxAckPending,
	})
	if err != nil {
		return fmt.Errorf("create consumer: %w", err)
	}

	consumeCtx, err := consumer.Consume(func(msg jetstream.Msg) {
		var evt events.ChangeEvent
		if err := json.Unmarshal(msg.Data(), &evt); err != nil {
			log.Error().Err(err).Str("subject", msg.Subject()).Msg("failed to unmarshal change event")
			_ = msg.Term()
			return
		}
		if err := o.HandleChangeEvent(ctx, evt); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("start JetStream consumer: %w", err)
	}
	defer consumeCtx.Stop()

	log.Info().
		Str("consumer", cfg.ConsumerName).
		Str("stream", cfg.StreamName).
		Msg("resolver consuming change events")

	<-ctx.Done()
	return nil
}
