package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/mcdev12/draftturn/go/internal/draft/events"
	"github.com/rs/zerolog/log"
)

type ListenerConfig struct {
	DatabaseURL   string // Postgres DSN for LISTEN/NOTIFY
	NotifyChannel string // Channel name to LISTEN on
	MaxRetries    int
	RetryDelay    time.Duration
	PingInterval  time.Duration
}

func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{
		NotifyChannel: DefaultChannel,
		MaxRetries:    5,
		RetryDelay:    200 * time.Millisecond,
		PingInterval:  90 * time.Second,
	}
}

// Listener relays Postgres notifications to a Publisher.
type Listener struct {
	listener  *pq.Listener
	publisher Publisher
	cfg       ListenerConfig

	mu        sync.Mutex
	running   bool
	relayed   uint64
	lastEvent time.Time
}

func NewListener(publisher Publisher, cfg ListenerConfig) (*Listener, error) {
	l := pq.NewListener(
		cfg.DatabaseURL,
		10*time.Second,
		time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("listener event")
			}
		},
	)
	if err := l.Listen(cfg.NotifyChannel); err != nil {
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}

	log.Info().
		Str("channel", cfg.NotifyChannel).
		Msg("listening for notifications")

	return &Listener{
		listener:  l,
		publisher: publisher,
		cfg:       cfg,
	}, nil
}

func (l *Listener) Start(ctx context.Context) error {
	log.Info().
		Str("channel", l.cfg.NotifyChannel).
		Dur("ping_interval", l.cfg.PingInterval).
		Msg("listener started")

	pingTicker := time.NewTicker(l.cfg.PingInterval)
	defer pingTicker.Stop()

	l.setRunning(true)
	defer l.setRunning(false)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("listener shutting down")
			return l.Stop()
		case note := <-l.listener.Notify:
			if note == nil {
				// The connection was re-established; anything sent meanwhile is lost
				// and subscribers catch up on the next change.
				log.Warn().Str("channel", l.cfg.NotifyChannel).Msg("listener reconnected")
				continue
			}
			if err := l.handleNotification(ctx, note.Extra); err != nil {
				log.Error().Err(err).Msg("failed to handle notification")
			}
		case <-pingTicker.C:
			if err := l.listener.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping listener")
			}
		}
	}
}

func (l *Listener) Stop() error {
	return l.listener.Close()
}

// handleNotification decodes the change event carried in the payload and publishes it.
func (l *Listener) handleNotification(ctx context.Context, extra string) error {
	var evt events.ChangeEvent
	if err := json.Unmarshal([]byte(extra), &evt); err != nil {
		return fmt.Errorf("invalid change event in notification: %w", err)
	}

	if err := l.publishWithRetry(ctx, evt); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	l.mu.Lock()
	l.relayed++
	l.lastEvent = time.Now()
	l.mu.Unlock()

	log.Debug().
		Str("event_id", evt.ID.String()).
		Str("draft_id", evt.DraftID.String()).
		Str("reason", string(evt.Reason)).
		Msg("relayed change event")
	return nil
}

func (l *Listener) setRunning(v bool) {
	l.mu.Lock()
	l.running = v
	l.mu.Unlock()
}

// Stats reports whether Start is running, how many events were relayed and when the last one was.
func (l *Listener) Stats() RelayStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return RelayStats{Running: l.running, Relayed: l.relayed, LastEvent: l.lastEvent}
}

// publishWithRetry attempts to publish a change event with a linear backoff.
func (l *Listener) publishWithRetry(ctx context.Context, evt events.ChangeEvent) error {
	var lastErr error

	for attempt := 0; attempt <= l.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := l.cfg.RetryDelay * time.Duration(attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := l.publisher.Publish(ctx, evt); err != nil {
			lastErr = err
			log.Error().
				Err(err).
				Int("attempt", attempt+1).
				Str("event_id", evt.ID.String()).
				Msg("failed to publish, retrying")
			continue
		}

		if attempt > 0 {
			log.Info().
				Int("attempt", attempt+1).
				Str("event_id", evt.ID.String()).
				Msg("publish succeeded after retry")
		}
		return nil
	}

	return fmt.Errorf("publish failed after %d attempts: %w", l.cfg.MaxRetries+1, lastErr)
}
