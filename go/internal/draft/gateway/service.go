// Package gateway pushes draft snapshots to websocket clients. Each client
// gets draft:snapshot on join and draft:updated after every change.
package gateway

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Config holds configuration for the draft gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
	JetStreamConfig  JetStreamConsumerConfig
	SnapshotTTL      time.Duration
}

func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		JetStreamConfig:  DefaultJetStreamConsumerConfig(),
		SnapshotTTL:      defaultSnapshotTTL,
	}
}

// Service wires the connection manager, snapshot cache and HTTP handlers.
// Events are fed in through Consumer().
type Service struct {
	connectionManager *ConnectionManager
	snapshots         *SnapshotCache
	wsHandler         *WebSocketHandler
	stateHandler      *StateHandler
	consumer          *EventConsumer
}

// NewService creates a gateway. rdb may be nil to disable snapshot caching.
func NewService(config Config, source SnapshotSource, rdb *redis.Client, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	cm := NewConnectionManager(config.ConnectionConfig)
	snapshots := NewSnapshotCache(source, rdb, config.SnapshotTTL, clock)
	return &Service{
		connectionManager: cm,
		snapshots:         snapshots,
		wsHandler:         NewWebSocketHandler(cm, snapshots, clock),
		stateHandler:      NewStateHandler(snapshots),
		consumer:          NewEventConsumer(cm, snapshots, clock),
	}
}

// Start runs the broadcast loop until ctx is done.
func (s *Service) Start(ctx context.Context) {
	log.Info().Msg("starting draft gateway service")
	s.connectionManager.Start(ctx)
	log.Info().Msg("draft gateway service stopped")
}

func (s *Service) Consumer() *EventConsumer {
	return s.consumer
}

// RegisterRoutes mounts the websocket and snapshot routes.
func (s *Service) RegisterRoutes(r chi.Router) {
	r.Get("/ws/drafts/{draftID}", s.wsHandler.HandleDraftConnection)
	r.Get("/ws/stats", s.wsHandler.HandleConnectionStats)
	r.Get("/drafts/{draftID}/snapshot", s.stateHandler.HandleGetSnapshot)
	log.Info().Msg("draft gateway routes registered")
}

func (s *Service) Stats() ConnectionStats {
	return s.connectionManager.GetConnectionStats()
}
