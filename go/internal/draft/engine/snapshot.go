package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/draftturn/go/internal/models"
)

// TurnView is one upcoming slot of the schedule.
type TurnView struct {
	PickNumber      int       `json:"pick_number"`
	Round           int       `json:"round"`
	PositionInRound int       `json:"position_in_round"`
	ParticipantID   uuid.UUID `json:"participant_id"`
}

// Snapshot is the read model pushed to clients on join and after every change.
type Snapshot struct {
	Draft      models.Draft       `json:"draft"`
	State      models.DraftState  `json:"state"`
	Seating    []models.Seat      `json:"seating"`
	TotalPicks int                `json:"total_picks"`
	ExpiresAt  *time.Time         `json:"expires_at,omitempty"`
	OnTheClock *TurnView          `json:"on_the_clock,omitempty"`
	OnDeck     *TurnView          `json:"on_deck,omitempty"`
	InTheHole  *TurnView          `json:"in_the_hole,omitempty"`
	Picks      []models.DraftPick `json:"picks"`
	ServerTime time.Time          `json:"server_time"`
}

// GetSnapshot assembles a snapshot without taking the draft lock.
func (e *Engine) GetSnapshot(ctx context.Context, draftID uuid.UUID) (*Snapshot, error) {
	view, err := e.store.LoadView(ctx, draftID)
	if err != nil {
		if errors.Is(err, ErrDraftNotFound) {
			return nil, reject(KindNotFound, draftID, "")
		}
		return nil, fmt.Errorf("failed to load draft view: %w", err)
	}
	return Assemble(view, e.clock.Now().UTC()), nil
}

// Assemble builds a snapshot from a view. Lookahead is only filled while the draft is running or paused.
func Assemble(view *DraftView, now time.Time) *Snapshot {
	cfg := view.Draft.Config
	snap := &Snapshot{
		Draft:      view.Draft,
		State:      view.State,
		Seating:    view.Seating,
		TotalPicks: cfg.TotalPicks(),
		ExpiresAt:  view.State.ExpiresAt(cfg.GracePeriod()),
		Picks:      view.Picks,
		ServerTime: now,
	}
	if snap.Seating == nil {
		snap.Seating = []models.Seat{}
	}
	if snap.Picks == nil {
		snap.Picks = []models.DraftPick{}
	}

	switch view.State.Status {
	case models.DraftStatusLive, models.DraftStatusPaused:
		n := view.State.CurrentPickNumber
		snap.OnTheClock = turnAt(view.Schedule, n)
		snap.OnDeck = turnAt(view.Schedule, n+1)
		snap.InTheHole = turnAt(view.Schedule, n+2)
	}
	return snap
}

func turnAt(sched models.TurnSchedule, n int) *TurnView {
	slot, ok := sched.Slot(n)
	if !ok {
		return nil
	}
	return &TurnView{
		PickNumber:      slot.PickNumber,
		Round:           slot.Round,
		PositionInRound: slot.PositionInRound,
		ParticipantID:   slot.ParticipantID,
	}
}
