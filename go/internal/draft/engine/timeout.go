package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/draftturn/go/internal/draft/events"
	"github.com/mcdev12/draftturn/go/internal/draft/schedule"
	"github.com/mcdev12/draftturn/go/internal/models"
	"github.com/rs/zerolog/log"
)

// ResolutionAction is what the resolver did with a draft.
type ResolutionAction string

const (
	ActionNone     ResolutionAction = "none"
	ActionAutoSkip ResolutionAction = "auto-skip"
	ActionAutoPick ResolutionAction = "auto-pick"
)

// Resolution reports the outcome of ResolveTimeout.
type Resolution struct {
	DraftID       uuid.UUID         `json:"draft_id"`
	Action        ResolutionAction  `json:"action"`
	PickNumber    int               `json:"pick_number"`
	ParticipantID uuid.UUID         `json:"participant_id"`
	Pick          *models.DraftPick `json:"pick,omitempty"`
	State         models.DraftState `json:"state"`
}

// ResolveTimeout applies the draft's timeout policy if its current turn is past
// deadline + grace. It re-checks everything under the draft lock, so a draft
// that was picked, paused or completed in the meantime is left alone.
func (e *Engine) ResolveTimeout(ctx context.Context, draftID uuid.UUID) (*Resolution, error) {
	res := &Resolution{DraftID: draftID, Action: ActionNone}
	err := e.withLock(ctx, draftID, func(tx Tx) error {
		draft, state, err := loadDraftAndState(ctx, tx)
		if err != nil {
			return err
		}
		res.State = *state

		now := e.clock.Now().UTC()
		if state.Status != models.DraftStatusLive || !state.Expired(now, draft.Config.GracePeriod()) {
			return nil
		}

		sched, err := tx.Schedule(ctx)
		if err != nil {
			return fmt.Errorf("failed to load schedule: %w", err)
		}
		slot, ok := sched.Slot(state.CurrentPickNumber)
		if !ok {
			return reject(KindScheduleCorrupt, draftID, "no schedule entry for pick %d", state.CurrentPickNumber)
		}
		res.PickNumber = slot.PickNumber
		res.ParticipantID = slot.ParticipantID

		switch draft.Config.TimeoutPolicy {
		case models.TimeoutPolicyAutoSkip:
			return e.skipLocked(ctx, tx, draft, state, sched, now, res)
		case models.TimeoutPolicyAutoSelect:
			return e.autoSelectLocked(ctx, tx, draftID, slot, now, res)
		default:
			return fmt.Errorf("unknown timeout policy %q", draft.Config.TimeoutPolicy)
		}
	})
	if err != nil {
		switch KindOf(err) {
		case KindNoAdmissibleItem:
			log.Warn().
				Err(err).
				Str("draft_id", draftID.String()).
				Int("pick_number", res.PickNumber).
				Msg("auto-select found no admissible item, leaving pick for manual resolution")
		default:
			logRejection(err, draftID, "timeout resolution failed")
		}
		return nil, err
	}

	switch res.Action {
	case ActionAutoSkip:
		log.Info().
			Str("draft_id", draftID.String()).
			Int("pick_number", res.PickNumber).
			Str("skipped_participant_id", res.ParticipantID.String()).
			Msg("expired turn skipped to end")
		e.notify(ctx, draftID, events.ReasonAutoSkip)
	case ActionAutoPick:
		logCommit(&CommitResult{Pick: *res.Pick, State: res.State, Complete: res.State.Status == models.DraftStatusComplete}, true)
		e.notify(ctx, draftID, events.ReasonAutoPick)
	}
	return res, nil
}

// skipLocked rotates the expired participant to the last unpicked slot and
// restarts the clock on whoever now holds the current pick.
func (e *Engine) skipLocked(
	ctx context.Context,
	tx Tx,
	draft *models.Draft,
	state *models.DraftState,
	sched models.TurnSchedule,
	now time.Time,
	res *Resolution,
) error {
	total := draft.Config.TotalPicks()
	unpicked := make([]models.ScheduleSlot, 0, max(total-state.CurrentPickNumber+1, 0))
	for n := state.CurrentPickNumber; n <= total; n++ {
		slot, ok := sched.Slot(n)
		if !ok {
			return reject(KindScheduleCorrupt, draft.ID, "no schedule entry for pick %d", n)
		}
		unpicked = append(unpicked, slot)
	}

	if len(unpicked) == 0 {
		if err := advance(state, sched, draft.Config, total+1, now); err != nil {
			return reject(KindScheduleCorrupt, draft.ID, "%v", err)
		}
	} else {
		rotated, changed := schedule.RotateToEnd(unpicked)
		if changed {
			if err := tx.SaveSchedule(ctx, rotated); err != nil {
				return fmt.Errorf("failed to rewrite schedule: %w", err)
			}
		}
		deadline := now.Add(draft.Config.SelectionWindow())
		participant := rotated[0].ParticipantID
		state.CurrentParticipant = &participant
		state.Deadline = &deadline
		state.UpdatedAt = now
	}

	if err := tx.SaveState(ctx, *state); err != nil {
		return fmt.Errorf("failed to save draft state: %w", err)
	}
	res.Action = ActionAutoSkip
	res.State = *state
	return nil
}

// autoSelectLocked samples an item for the participant the schedule puts on the
// clock and commits it through the regular protocol, minus the deadline check.
func (e *Engine) autoSelectLocked(
	ctx context.Context,
	tx Tx,
	draftID uuid.UUID,
	slot models.ScheduleSlot,
	now time.Time,
	res *Resolution,
) error {
	if e.sampler == nil {
		return reject(KindNoAdmissibleItem, draftID, "no sampler configured")
	}
	item, err := e.sampler.Sample(ctx, draftID, slot.ParticipantID, slot.PickNumber)
	if err != nil {
		return fmt.Errorf("failed to sample auto-select item: %w", err)
	}
	if item == nil {
		return reject(KindNoAdmissibleItem, draftID, "no admissible item for %s at pick %d", slot.ParticipantID, slot.PickNumber)
	}

	committed, err := e.commitLocked(ctx, tx, draftID, slot.ParticipantID, item.ID, now, true)
	if err != nil {
		return err
	}
	res.Action = ActionAutoPick
	res.Pick = &committed.Pick
	res.State = committed.State
	return nil
}
