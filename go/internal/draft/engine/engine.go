// Package engine implements the draft turn state machine: lifecycle
// transitions, the pick commit protocol, timeout resolution and snapshots.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/draftturn/go/internal/draft/events"
	"github.com/mcdev12/draftturn/go/internal/draft/schedule"
	"github.com/mcdev12/draftturn/go/internal/models"
	"github.com/rs/zerolog/log"
)

const defaultEligibilityTimeout = 2 * time.Second

// Engine is the sole writer of draft state.
type Engine struct {
	store              Store
	eligibility        EligibilityChecker
	sampler            Sampler
	notifier           Notifier
	clock              clockwork.Clock
	eligibilityTimeout time.Duration
}

type Option func(*Engine)

func WithClock(c clockwork.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

func WithSampler(s Sampler) Option {
	return func(e *Engine) { e.sampler = s }
}

func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithEligibilityTimeout bounds each eligibility call made while a draft lock is held.
func WithEligibilityTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.eligibilityTimeout = d
		}
	}
}

// New creates an engine over store. eligibility is consulted before every commit.
func New(store Store, eligibility EligibilityChecker, opts ...Option) *Engine {
	e := &Engine{
		store:              store,
		eligibility:        eligibility,
		clock:              clockwork.NewRealClock(),
		eligibilityTimeout: defaultEligibilityTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateDraftRequest describes a new draft. Participants, if given, become seats 1..P in order.
type CreateDraftRequest struct {
	Name         string
	Config       models.DraftConfiguration
	Participants []uuid.UUID
}

// CreateDraft validates the configuration and stores a NOT_STARTED draft.
func (e *Engine) CreateDraft(ctx context.Context, req CreateDraftRequest) (*models.Draft, error) {
	if err := req.Config.Validate(); err != nil {
		return nil, reject(KindInvalidConfiguration, uuid.Nil, "%v", err)
	}
	if len(req.Participants) > 0 {
		if _, err := schedule.SeatMap(req.Config.Participants, seatsInOrder(req.Participants)); err != nil {
			return nil, reject(KindInvalidSeating, uuid.Nil, "%v", err)
		}
	}

	now := e.clock.Now().UTC()
	draft := models.Draft{
		ID:        uuid.New(),
		Name:      req.Name,
		Config:    req.Config,
		CreatedAt: now,
		UpdatedAt: now,
	}
	state := models.DraftState{
		DraftID:           draft.ID,
		Status:            models.DraftStatusNotStarted,
		CurrentPickNumber: 1,
		UpdatedAt:         now,
	}
	if err := e.store.CreateDraft(ctx, draft, state); err != nil {
		return nil, fmt.Errorf("failed to create draft: %w", err)
	}

	log.Info().
		Str("draft_id", draft.ID.String()).
		Int("participants", req.Config.Participants).
		Int("rounds", req.Config.Rounds).
		Str("mode", string(req.Config.Mode)).
		Str("timeout_policy", string(req.Config.TimeoutPolicy)).
		Msg("draft created")

	if len(req.Participants) > 0 {
		if _, err := e.SetSeating(ctx, draft.ID, req.Participants); err != nil {
			return nil, err
		}
	}
	e.notify(ctx, draft.ID, events.ReasonCreated)
	return &draft, nil
}

// SetSeating binds participants to seats 1..P in the given order. Only allowed before start.
func (e *Engine) SetSeating(ctx context.Context, draftID uuid.UUID, participants []uuid.UUID) ([]models.Seat, error) {
	var seating []models.Seat
	err := e.withLock(ctx, draftID, func(tx Tx) error {
		draft, state, err := loadDraftAndState(ctx, tx)
		if err != nil {
			return err
		}
		switch state.Status {
		case models.DraftStatusNotStarted:
		case models.DraftStatusComplete:
			return reject(KindAlreadyComplete, draftID, "seating is fixed once the draft is complete")
		default:
			return reject(KindAlreadyStarted, draftID, "seating is fixed once the draft has started")
		}

		seating = seatsInOrder(participants)
		if _, err := schedule.SeatMap(draft.Config.Participants, seating); err != nil {
			return reject(KindInvalidSeating, draftID, "%v", err)
		}
		return tx.ReplaceSeating(ctx, seating)
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("draft_id", draftID.String()).Int("seats", len(seating)).Msg("seating set")
	e.notify(ctx, draftID, events.ReasonSeating)
	return seating, nil
}

func seatsInOrder(participants []uuid.UUID) []models.Seat {
	seating := make([]models.Seat, len(participants))
	for i, p := range participants {
		seating[i] = models.Seat{Seat: i + 1, ParticipantID: p}
	}
	return seating
}

// StartDraft generates the schedule and puts pick 1 on the clock.
// Starting a LIVE draft that has no picks yet returns its state unchanged.
func (e *Engine) StartDraft(ctx context.Context, draftID uuid.UUID) (*models.DraftState, error) {
	var (
		out     models.DraftState
		changed bool
	)
	err := e.withLock(ctx, draftID, func(tx Tx) error {
		draft, state, err := loadDraftAndState(ctx, tx)
		if err != nil {
			return err
		}

		switch state.Status {
		case models.DraftStatusNotStarted:
		case models.DraftStatusComplete:
			return reject(KindAlreadyComplete, draftID, "")
		case models.DraftStatusLive:
			picks, err := tx.PickCount(ctx)
			if err != nil {
				return fmt.Errorf("failed to count picks: %w", err)
			}
			if picks == 0 {
				out = *state
				return nil
			}
			return reject(KindAlreadyStarted, draftID, "%d picks already committed", picks)
		default:
			return reject(KindAlreadyStarted, draftID, "draft is %s", state.Status)
		}

		seating, err := tx.Seating(ctx)
		if err != nil {
			return fmt.Errorf("failed to load seating: %w", err)
		}
		slots, err := schedule.Generate(draft.Config, seating)
		if err != nil {
			if errors.Is(err, schedule.ErrIncompleteSeating) {
				return reject(KindIncompleteSeating, draftID, "%v", err)
			}
			return fmt.Errorf("failed to generate schedule: %w", err)
		}
		if err := tx.SaveSchedule(ctx, slots); err != nil {
			return fmt.Errorf("failed to save schedule: %w", err)
		}

		now := e.clock.Now().UTC()
		deadline := now.Add(draft.Config.SelectionWindow())
		first := slots[0].ParticipantID
		state.Status = models.DraftStatusLive
		state.CurrentPickNumber = 1
		state.CurrentParticipant = &first
		state.Deadline = &deadline
		state.StartedAt = &now
		state.UpdatedAt = now
		if err := tx.SaveState(ctx, *state); err != nil {
			return fmt.Errorf("failed to save draft state: %w", err)
		}
		out = *state
		changed = true
		return nil
	})
	if err != nil {
		logRejection(err, draftID, "start rejected")
		return nil, err
	}

	if changed {
		log.Info().
			Str("draft_id", draftID.String()).
			Str("participant_id", out.CurrentParticipant.String()).
			Time("deadline", *out.Deadline).
			Msg("draft started")
		e.notify(ctx, draftID, events.ReasonStart)
	}
	return &out, nil
}

// PauseDraft stops the clock. The pointer and participant are kept.
func (e *Engine) PauseDraft(ctx context.Context, draftID uuid.UUID) (*models.DraftState, error) {
	var out models.DraftState
	err := e.withLock(ctx, draftID, func(tx Tx) error {
		state, err := tx.State(ctx)
		if err != nil {
			return fmt.Errorf("failed to load draft state: %w", err)
		}
		switch state.Status {
		case models.DraftStatusLive:
		case models.DraftStatusComplete:
			return reject(KindAlreadyComplete, draftID, "")
		default:
			return reject(KindNotLive, draftID, "draft is %s", state.Status)
		}

		state.Status = models.DraftStatusPaused
		state.Deadline = nil
		state.UpdatedAt = e.clock.Now().UTC()
		if err := tx.SaveState(ctx, *state); err != nil {
			return fmt.Errorf("failed to save draft state: %w", err)
		}
		out = *state
		return nil
	})
	if err != nil {
		logRejection(err, draftID, "pause rejected")
		return nil, err
	}

	log.Info().Str("draft_id", draftID.String()).Int("pick_number", out.CurrentPickNumber).Msg("draft paused")
	e.notify(ctx, draftID, events.ReasonPause)
	return &out, nil
}

// ResumeDraft restarts the clock with a full selection window.
func (e *Engine) ResumeDraft(ctx context.Context, draftID uuid.UUID) (*models.DraftState, error) {
	var out models.DraftState
	err := e.withLock(ctx, draftID, func(tx Tx) error {
		draft, state, err := loadDraftAndState(ctx, tx)
		if err != nil {
			return err
		}
		switch state.Status {
		case models.DraftStatusPaused:
		case models.DraftStatusComplete:
			return reject(KindAlreadyComplete, draftID, "")
		default:
			return reject(KindNotPaused, draftID, "draft is %s", state.Status)
		}

		now := e.clock.Now().UTC()
		deadline := now.Add(draft.Config.SelectionWindow())
		state.Status = models.DraftStatusLive
		state.Deadline = &deadline
		state.UpdatedAt = now
		if err := tx.SaveState(ctx, *state); err != nil {
			return fmt.Errorf("failed to save draft state: %w", err)
		}
		out = *state
		return nil
	})
	if err != nil {
		logRejection(err, draftID, "resume rejected")
		return nil, err
	}

	log.Info().
		Str("draft_id", draftID.String()).
		Int("pick_number", out.CurrentPickNumber).
		Time("deadline", *out.Deadline).
		Msg("draft resumed")
	e.notify(ctx, draftID, events.ReasonResume)
	return &out, nil
}

// LiveDeadlines lists the expiry instant of every running turn clock.
func (e *Engine) LiveDeadlines(ctx context.Context) ([]models.LiveDeadline, error) {
	deadlines, err := e.store.ListLiveDeadlines(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list live deadlines: %w", err)
	}
	return deadlines, nil
}

func (e *Engine) withLock(ctx context.Context, draftID uuid.UUID, fn func(tx Tx) error) error {
	err := e.store.WithDraftLock(ctx, draftID, fn)
	if errors.Is(err, ErrDraftNotFound) {
		return reject(KindNotFound, draftID, "")
	}
	return err
}

func (e *Engine) notify(ctx context.Context, draftID uuid.UUID, reason events.Reason) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.NotifyChanged(ctx, draftID, reason); err != nil {
		log.Warn().
			Err(err).
			Str("draft_id", draftID.String()).
			Str("reason", string(reason)).
			Msg("failed to publish change notification")
	}
}

func loadDraftAndState(ctx context.Context, tx Tx) (*models.Draft, *models.DraftState, error) {
	draft, err := tx.Draft(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load draft: %w", err)
	}
	state, err := tx.State(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load draft state: %w", err)
	}
	return draft, state, nil
}

func logRejection(err error, draftID uuid.UUID, msg string) {
	kind := KindOf(err)
	switch {
	case kind == "":
		log.Error().Err(err).Str("draft_id", draftID.String()).Msg(msg)
	case kind.Fatal():
		log.Error().Err(err).Str("draft_id", draftID.String()).Str("kind", string(kind)).Msg(msg)
	default:
		log.Debug().Err(err).Str("draft_id", draftID.String()).Str("kind", string(kind)).Msg(msg)
	}
}
