package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/draftturn/go/internal/draft/events"
	"github.com/mcdev12/draftturn/go/internal/models"
	"github.com/rs/zerolog/log"
)

// PickRequest is a claim for the pick currently on the clock.
// Now overrides the engine clock when set.
type PickRequest struct {
	DraftID       uuid.UUID
	ParticipantID uuid.UUID
	ItemID        uuid.UUID
	Now           *time.Time
}

// CommitResult is the committed pick and the state it left behind.
type CommitResult struct {
	Pick     models.DraftPick  `json:"pick"`
	State    models.DraftState `json:"state"`
	Complete bool              `json:"complete"`
}

// SubmitPick runs the commit protocol for a human claim.
func (e *Engine) SubmitPick(ctx context.Context, req PickRequest) (*CommitResult, error) {
	now := e.clock.Now()
	if req.Now != nil {
		now = *req.Now
	}

	var res *CommitResult
	err := e.withLock(ctx, req.DraftID, func(tx Tx) error {
		var err error
		res, err = e.commitLocked(ctx, tx, req.DraftID, req.ParticipantID, req.ItemID, now.UTC(), false)
		return err
	})
	if err != nil {
		logRejection(err, req.DraftID, "pick rejected")
		return nil, err
	}

	logCommit(res, false)
	e.notify(ctx, req.DraftID, events.ReasonPick)
	return res, nil
}

// commitLocked validates and applies a claim. It must run inside WithDraftLock.
// Every check runs before the first write, so a rejection leaves nothing behind.
// auto skips the deadline check; the resolver is the one enforcing it.
func (e *Engine) commitLocked(
	ctx context.Context,
	tx Tx,
	draftID, participantID, itemID uuid.UUID,
	now time.Time,
	auto bool,
) (*CommitResult, error) {
	draft, state, err := loadDraftAndState(ctx, tx)
	if err != nil {
		return nil, err
	}
	cfg := draft.Config
	total := cfg.TotalPicks()
	n := state.CurrentPickNumber

	if state.Status == models.DraftStatusComplete {
		return nil, reject(KindAlreadyComplete, draftID, "")
	}
	if state.Status != models.DraftStatusLive {
		return nil, reject(KindNotLive, draftID, "draft is %s", state.Status)
	}
	if n > total {
		return nil, reject(KindAlreadyComplete, draftID, "pointer %d past last pick %d", n, total)
	}

	sched, err := tx.Schedule(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}
	slot, ok := sched.Slot(n)
	if !ok {
		return nil, reject(KindScheduleCorrupt, draftID, "no schedule entry for pick %d", n)
	}
	if slot.ParticipantID != participantID {
		return nil, reject(KindNotYourTurn, draftID, "pick %d belongs to %s", n, slot.ParticipantID)
	}

	if !auto && state.Expired(now, cfg.GracePeriod()) {
		return nil, reject(KindWindowExpired, draftID, "pick %d expired at %s", n, state.ExpiresAt(cfg.GracePeriod()).Format(time.RFC3339Nano))
	}

	claimed, err := tx.IsClaimed(ctx, itemID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to check item ownership: %w", err)
	}
	if claimed {
		return nil, reject(KindAlreadyClaimed, draftID, "item %s is already held", itemID)
	}

	admission, err := e.checkEligibility(ctx, draftID, participantID, itemID, n)
	if err != nil {
		return nil, err
	}
	if !admission.Admitted {
		return nil, reject(KindNotEligible, draftID, "%s", admission.Reason)
	}

	pick := models.DraftPick{
		ID:              uuid.New(),
		DraftID:         draftID,
		PickNumber:      n,
		Round:           slot.Round,
		PositionInRound: slot.PositionInRound,
		ParticipantID:   participantID,
		ItemID:          itemID,
		AutoPicked:      auto,
		PickedAt:        now,
	}
	if err := tx.InsertPick(ctx, pick); err != nil {
		if errors.Is(err, ErrPickExists) {
			return nil, reject(KindConflict, draftID, "pick %d already recorded", n)
		}
		return nil, fmt.Errorf("failed to insert pick: %w", err)
	}

	grant := models.OwnershipGrant{
		ID:            uuid.New(),
		DraftID:       draftID,
		ParticipantID: participantID,
		ItemID:        itemID,
		AcquiredAt:    n,
		AcquiredVia:   models.AcquisitionTypeDraft,
		PickID:        &pick.ID,
		CreatedAt:     now,
	}
	if err := tx.OpenGrant(ctx, grant); err != nil {
		return nil, fmt.Errorf("failed to open ownership grant: %w", err)
	}

	res := &CommitResult{Pick: pick}
	if err := advance(state, sched, cfg, n+1, now); err != nil {
		return nil, reject(KindScheduleCorrupt, draftID, "%v", err)
	}
	if err := tx.SaveState(ctx, *state); err != nil {
		return nil, fmt.Errorf("failed to save draft state: %w", err)
	}
	res.State = *state
	res.Complete = state.Status == models.DraftStatusComplete
	return res, nil
}

// advance moves the pointer to next, or completes the draft when next is past the last pick.
func advance(state *models.DraftState, sched models.TurnSchedule, cfg models.DraftConfiguration, next int, now time.Time) error {
	state.CurrentPickNumber = next
	state.UpdatedAt = now
	if next > cfg.TotalPicks() {
		state.Status = models.DraftStatusComplete
		state.CurrentParticipant = nil
		state.Deadline = nil
		state.CompletedAt = &now
		return nil
	}

	slot, ok := sched.Slot(next)
	if !ok {
		return fmt.Errorf("no schedule entry for pick %d", next)
	}
	deadline := now.Add(cfg.SelectionWindow())
	participant := slot.ParticipantID
	state.CurrentParticipant = &participant
	state.Deadline = &deadline
	return nil
}

func (e *Engine) checkEligibility(ctx context.Context, draftID, participantID, itemID uuid.UUID, asOf int) (models.Admission, error) {
	if e.eligibility == nil {
		return models.Admit(), nil
	}
	ectx, cancel := context.WithTimeout(ctx, e.eligibilityTimeout)
	defer cancel()

	admission, err := e.eligibility.IsAdmissible(ectx, draftID, participantID, itemID, asOf)
	if err != nil {
		return models.Admission{}, fmt.Errorf("failed to check eligibility: %w", err)
	}
	return admission, nil
}

func logCommit(res *CommitResult, auto bool) {
	evt := log.Info().
		Str("draft_id", res.Pick.DraftID.String()).
		Int("pick_number", res.Pick.PickNumber).
		Int("round", res.Pick.Round).
		Str("participant_id", res.Pick.ParticipantID.String()).
		Str("item_id", res.Pick.ItemID.String()).
		Bool("auto", auto)
	if res.Complete {
		evt.Msg("final pick committed, draft complete")
		return
	}
	evt.Int("next_pick", res.State.CurrentPickNumber).Msg("pick committed")
}
