package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// RelayStats is a point-in-time view of a Listener.
type RelayStats struct {
	Running   bool
	Relayed   uint64
	LastEvent time.Time
}

type HealthStatus struct {
	Healthy           bool      `json:"healthy"`
	EventsRelayed     uint64    `json:"events_relayed"`
	LastEventTime     time.Time `json:"last_event_time"`
	DatabaseConnected bool      `json:"database_connected"`
	NATSConnected     bool      `json:"nats_connected"`
	ListenerActive    bool      `json:"listener_active"`
	Errors            []string  `json:"errors"`
}

type pinger interface {
	PingContext(ctx context.Context) error
}

type relaySource interface {
	Stats() RelayStats
}

type connectionState interface {
	Connected() bool
}

// RelayHealthChecker reports whether the relay can still move events from
// Postgres to NATS. A quiet channel is healthy: drafts may simply be idle.
type RelayHealthChecker struct {
	relay relaySource
	db    pinger
	nats  connectionState
}

func NewRelayHealthChecker(relay relaySource, db pinger, nats connectionState) *RelayHealthChecker {
	return &RelayHealthChecker{relay: relay, db: db, nats: nats}
}

func (h *RelayHealthChecker) Check(ctx context.Context) HealthStatus {
	stats := h.relay.Stats()
	status := HealthStatus{
		Healthy:        true,
		EventsRelayed:  stats.Relayed,
		LastEventTime:  stats.LastEvent,
		ListenerActive: stats.Running,
		Errors:         []string{},
	}

	if err := h.db.PingContext(ctx); err != nil {
		status.Healthy = false
		status.Errors = append(status.Errors, fmt.Sprintf("database ping failed: %v", err))
	} else {
		status.DatabaseConnected = true
	}

	if h.nats != nil {
		status.NATSConnected = h.nats.Connected()
		if !status.NATSConnected {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS disconnected")
		}
	}

	if !status.ListenerActive {
		status.Healthy = false
		status.Errors = append(status.Errors, "listener not active")
	}
	return status
}

// HTTP handler helper
func (h *RelayHealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)

	w.Header().Set("Content-Type", "application/json")
	if status.Healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Error().Err(err).Msg("failed to encode health status")
	}
}
