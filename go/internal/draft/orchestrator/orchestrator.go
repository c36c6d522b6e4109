// Package orchestrator runs the timeout resolver: it sleeps until the soonest
// expiring turn among live drafts and hands expired drafts to a worker pool
// that applies each draft's timeout policy through the engine.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/draftturn/go/internal/draft/engine"
	"github.com/mcdev12/draftturn/go/internal/draft/events"
	"github.com/mcdev12/draftturn/go/internal/models"
)

// Resolver is the part of the engine the orchestrator drives.
type Resolver interface {
	LiveDeadlines(ctx context.Context) ([]models.LiveDeadline, error)
	ResolveTimeout(ctx context.Context, draftID uuid.UUID) (*engine.Resolution, error)
}

// Config tunes the scheduler loop and worker pool.
type Config struct {
	Workers int
	// MaxSleep bounds every wait so paused, resumed or reconfigured drafts are picked up.
	MaxSleep     time.Duration
	ErrorBackoff time.Duration
}

func DefaultConfig() Config {
	return Config{
		Workers:      4,
		MaxSleep:     30 * time.Second,
		ErrorBackoff: time.Second,
	}
}

// expirySlack is added to each wait so the loop wakes strictly after deadline + grace.
const expirySlack = time.Millisecond

type Orchestrator struct {
	resolver   Resolver
	clock      clockwork.Clock
	cfg        Config
	wakeCh     chan struct{}
	instanceID string // unique ID for this scheduler instance

	workCh chan models.LiveDeadline

	// Track in-flight work to prevent duplicate processing
	inFlight   map[uuid.UUID]bool
	inFlightMu sync.Mutex

	// parked drafts had no admissible auto-select item at the recorded expiry;
	// backedOff drafts made no progress at the recorded expiry and wait out
	// ErrorBackoff; halted drafts hit a fatal schedule error and are left for an operator.
	parked    map[uuid.UUID]time.Time
	backedOff map[uuid.UUID]backoff
	halted    map[uuid.UUID]bool
	stateMu   sync.Mutex
}

type backoff struct {
	expiresAt time.Time
	until     time.Time
}

type Option func(*Orchestrator)

func WithClock(c clockwork.Clock) Option {
	return func(o *Orchestrator) { o.clock = c }
}

// NewOrchestrator creates a resolver loop with a worker pool.
func NewOrchestrator(resolver Resolver, cfg Config, opts ...Option) *Orchestrator {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.MaxSleep <= 0 {
		cfg.MaxSleep = def.MaxSleep
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = def.ErrorBackoff
	}
	o := &Orchestrator{
		resolver:   resolver,
		clock:      clockwork.NewRealClock(),
		cfg:        cfg,
		wakeCh:     make(chan struct{}, 1),
		instanceID: uuid.New().String()[:8], // short ID for logging
		workCh:     make(chan models.LiveDeadline, cfg.Workers*2),
		inFlight:   make(map[uuid.UUID]bool),
		parked:     make(map[uuid.UUID]time.Time),
		backedOff:  make(map[uuid.UUID]backoff),
		halted:     make(map[uuid.UUID]bool),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Wake makes the scheduler re-read deadlines now instead of at its next timer.
func (o *Orchestrator) Wake() {
	select {
	case o.wakeCh <- struct{}{}:
	default:
	}
}

// NotifyChanged lets the orchestrator sit behind the engine's notifier.
func (o *Orchestrator) NotifyChanged(ctx context.Context, draftID uuid.UUID, reason events.Reason) error {
	return o.HandleChangeEvent(ctx, events.NewChangeEvent(draftID, reason, o.clock.Now()))
}

func (o *Orchestrator) park(d models.LiveDeadline) {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()
	o.parked[d.DraftID] = d.ExpiresAt
}

func (o *Orchestrator) unpark(draftID uuid.UUID) {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()
	delete(o.parked, draftID)
	delete(o.backedOff, draftID)
}

// backOff holds a draft whose resolution left its expiry unchanged.
func (o *Orchestrator) backOff(d models.LiveDeadline) {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()
	o.backedOff[d.DraftID] = backoff{expiresAt: d.ExpiresAt, until: o.clock.Now().Add(o.cfg.ErrorBackoff)}
}

func (o *Orchestrator) halt(draftID uuid.UUID) {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()
	o.halted[draftID] = true
}

// Halted reports whether automated processing of a draft was stopped.
func (o *Orchestrator) Halted(draftID uuid.UUID) bool {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()
	return o.halted[draftID]
}

// skip reports whether a deadline should be ignored at now, and if it is only
// held back for a while, when to look again. Parked and backed-off drafts come
// back as soon as their expiry moves, which only happens when their state changed.
func (o *Orchestrator) skip(d models.LiveDeadline, now time.Time) (bool, time.Time) {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()
	if o.halted[d.DraftID] {
		return true, time.Time{}
	}
	if at, ok := o.parked[d.DraftID]; ok {
		if at.Equal(d.ExpiresAt) {
			return true, time.Time{}
		}
		delete(o.parked, d.DraftID)
	}
	if b, ok := o.backedOff[d.DraftID]; ok {
		if b.expiresAt.Equal(d.ExpiresAt) && now.Before(b.until) {
			return true, b.until
		}
		delete(o.backedOff, d.DraftID)
	}
	return false, time.Time{}
}
