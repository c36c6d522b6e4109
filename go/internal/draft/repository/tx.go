package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mcdev12/draftturn/go/internal/draft/db"
	"github.com/mcdev12/draftturn/go/internal/draft/engine"
	"github.com/mcdev12/draftturn/go/internal/models"
	"github.com/mcdev12/draftturn/go/internal/sqlutil"
	"github.com/sqlc-dev/pqtype"
)

const uniqueViolation = pq.ErrorCode("23505")

// pgTx is bound to a tx that already holds the draft_state row lock.
type pgTx struct {
	q       *db.Queries
	draftID uuid.UUID
}

func (t *pgTx) Draft(ctx context.Context) (*models.Draft, error) {
	d, err := t.q.GetDraft(ctx, t.draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	return dbDraftToModel(d)
}

func (t *pgTx) State(ctx context.Context) (*models.DraftState, error) {
	s, err := t.q.GetDraftState(ctx, t.draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to get draft state: %w", err)
	}
	state := dbStateToModel(s)
	return &state, nil
}

func (t *pgTx) SaveState(ctx context.Context, state models.DraftState) error {
	err := t.q.UpdateDraftState(ctx, db.UpdateDraftStateParams{
		DraftID:            t.draftID,
		Status:             string(state.Status),
		CurrentPickNumber:  int32(state.CurrentPickNumber),
		CurrentParticipant: sqlutil.ToNullUUID(state.CurrentParticipant),
		Deadline:           sqlutil.ToSqlTime(state.Deadline),
		StartedAt:          sqlutil.ToSqlTime(state.StartedAt),
		CompletedAt:        sqlutil.ToSqlTime(state.CompletedAt),
		UpdatedAt:          state.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to update draft state: %w", err)
	}
	return nil
}

func (t *pgTx) Seating(ctx context.Context) ([]models.Seat, error) {
	rows, err := t.q.ListSeats(ctx, t.draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list seats: %w", err)
	}
	return dbSeatsToModel(rows), nil
}

func (t *pgTx) ReplaceSeating(ctx context.Context, seating []models.Seat) error {
	if err := t.q.DeleteSeats(ctx, t.draftID); err != nil {
		return fmt.Errorf("failed to clear seats: %w", err)
	}
	for _, s := range seating {
		if err := t.q.InsertSeat(ctx, db.DraftSeat{
			DraftID:       t.draftID,
			Seat:          int32(s.Seat),
			ParticipantID: s.ParticipantID,
		}); err != nil {
			return fmt.Errorf("failed to insert seat %d: %w", s.Seat, err)
		}
	}
	return nil
}

func (t *pgTx) Schedule(ctx context.Context) (models.TurnSchedule, error) {
	rows, err := t.q.ListSchedule(ctx, t.draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule: %w", err)
	}
	return dbScheduleToModel(rows), nil
}

func (t *pgTx) SaveSchedule(ctx context.Context, slots []models.ScheduleSlot) error {
	for _, s := range slots {
		if err := t.q.UpsertScheduleSlot(ctx, db.DraftSchedule{
			DraftID:         t.draftID,
			PickNumber:      int32(s.PickNumber),
			Round:           int32(s.Round),
			PositionInRound: int32(s.PositionInRound),
			Seat:            int32(s.Seat),
			ParticipantID:   s.ParticipantID,
		}); err != nil {
			return fmt.Errorf("failed to save schedule slot %d: %w", s.PickNumber, err)
		}
	}
	return nil
}

func (t *pgTx) PickCount(ctx context.Context) (int, error) {
	n, err := t.q.CountPicks(ctx, t.draftID)
	if err != nil {
		return 0, fmt.Errorf("failed to count picks: %w", err)
	}
	return int(n), nil
}

func (t *pgTx) InsertPick(ctx context.Context, pick models.DraftPick) error {
	err := t.q.InsertPick(ctx, db.DraftPick{
		ID:              pick.ID,
		DraftID:         pick.DraftID,
		PickNumber:      int32(pick.PickNumber),
		Round:           int32(pick.Round),
		PositionInRound: int32(pick.PositionInRound),
		ParticipantID:   pick.ParticipantID,
		ItemID:          pick.ItemID,
		AutoPicked:      pick.AutoPicked,
		PickedAt:        pick.PickedAt,
	})
	if isUniqueViolation(err) {
		return engine.ErrPickExists
	}
	return err
}

func (t *pgTx) IsClaimed(ctx context.Context, itemID uuid.UUID, asOfTurn int) (bool, error) {
	return t.q.IsItemClaimed(ctx, t.draftID, itemID, int32(asOfTurn))
}

type grantMetadata struct {
	PickID *uuid.UUID `json:"pick_id,omitempty"`
}

func (t *pgTx) OpenGrant(ctx context.Context, grant models.OwnershipGrant) error {
	metadata, err := encodeGrantMetadata(grant)
	if err != nil {
		return err
	}
	return t.q.InsertGrant(ctx, db.InsertGrantParams{
		ID:            grant.ID,
		DraftID:       grant.DraftID,
		ParticipantID: grant.ParticipantID,
		ItemID:        grant.ItemID,
		AcquiredAt:    int32(grant.AcquiredAt),
		AcquiredVia:   string(grant.AcquiredVia),
		Metadata:      metadata,
		CreatedAt:     grant.CreatedAt,
	})
}

func encodeGrantMetadata(grant models.OwnershipGrant) (pqtype.NullRawMessage, error) {
	if grant.PickID == nil {
		return pqtype.NullRawMessage{}, nil
	}
	raw, err := json.Marshal(grantMetadata{PickID: grant.PickID})
	if err != nil {
		return pqtype.NullRawMessage{}, fmt.Errorf("failed to marshal grant metadata: %w", err)
	}
	return pqtype.NullRawMessage{RawMessage: raw, Valid: true}, nil
}

func decodeGrantMetadata(raw pqtype.NullRawMessage) (*uuid.UUID, error) {
	if !raw.Valid || len(raw.RawMessage) == 0 {
		return nil, nil
	}
	var md grantMetadata
	if err := json.Unmarshal(raw.RawMessage, &md); err != nil {
		return nil, fmt.Errorf("failed to unmarshal grant metadata: %w", err)
	}
	return md.PickID, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
