// Package repository is the Postgres engine.Store. The per-draft lock is the
// draft_state row, taken with SELECT ... FOR UPDATE for the life of a tx.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/draftturn/go/internal/draft/db"
	"github.com/mcdev12/draftturn/go/internal/draft/engine"
	"github.com/mcdev12/draftturn/go/internal/models"
	"github.com/mcdev12/draftturn/go/internal/sqlutil"
)

type Repository struct {
	db      *sql.DB
	queries *db.Queries
	clock   clockwork.Clock
}

var _ engine.Store = (*Repository)(nil)

func NewRepository(conn *sql.DB, clock clockwork.Clock) *Repository {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Repository{
		db:      conn,
		queries: db.New(conn),
		clock:   clock,
	}
}

func (r *Repository) CreateDraft(ctx context.Context, draft models.Draft, state models.DraftState) error {
	configBytes, err := json.Marshal(draft.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal draft config: %w", err)
	}

	return sqlutil.Run(ctx, r.db, r.queries.WithTx, func(q *db.Queries) error {
		if err := q.CreateDraft(ctx, db.CreateDraftParams{
			ID:        draft.ID,
			Name:      draft.Name,
			Config:    configBytes,
			CreatedAt: draft.CreatedAt,
			UpdatedAt: draft.UpdatedAt,
		}); err != nil {
			return fmt.Errorf("failed to create draft: %w", err)
		}
		if err := q.CreateDraftState(ctx, db.CreateDraftStateParams{
			DraftID:           draft.ID,
			Status:            string(state.Status),
			CurrentPickNumber: int32(state.CurrentPickNumber),
			GraceSeconds:      int32(draft.Config.GraceSeconds),
			UpdatedAt:         state.UpdatedAt,
		}); err != nil {
			return fmt.Errorf("failed to create draft state: %w", err)
		}
		return nil
	})
}

// WithDraftLock runs fn in a tx holding the draft_state row lock. Concurrent
// callers on the same draft block in Postgres until the tx ends.
func (r *Repository) WithDraftLock(ctx context.Context, draftID uuid.UUID, fn func(tx engine.Tx) error) error {
	return sqlutil.Run(ctx, r.db, r.queries.WithTx, func(q *db.Queries) error {
		if _, err := q.GetDraftStateForUpdate(ctx, draftID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return engine.ErrDraftNotFound
			}
			return fmt.Errorf("failed to lock draft state: %w", err)
		}
		return fn(&pgTx{q: q, draftID: draftID})
	})
}

// LoadView reads a draft from one REPEATABLE READ snapshot.
func (r *Repository) LoadView(ctx context.Context, draftID uuid.UUID) (*engine.DraftView, error) {
	var view engine.DraftView
	err := sqlutil.RunReadOnly(ctx, r.db, r.queries.WithTx, func(q *db.Queries) error {
		dbDraft, err := q.GetDraft(ctx, draftID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return engine.ErrDraftNotFound
			}
			return fmt.Errorf("failed to get draft: %w", err)
		}
		draft, err := dbDraftToModel(dbDraft)
		if err != nil {
			return err
		}
		dbState, err := q.GetDraftState(ctx, draftID)
		if err != nil {
			return fmt.Errorf("failed to get draft state: %w", err)
		}
		seats, err := q.ListSeats(ctx, draftID)
		if err != nil {
			return fmt.Errorf("failed to list seats: %w", err)
		}
		slots, err := q.ListSchedule(ctx, draftID)
		if err != nil {
			return fmt.Errorf("failed to list schedule: %w", err)
		}
		picks, err := q.ListPicks(ctx, draftID)
		if err != nil {
			return fmt.Errorf("failed to list picks: %w", err)
		}

		view.Draft = *draft
		view.State = dbStateToModel(dbState)
		view.Seating = dbSeatsToModel(seats)
		view.Schedule = dbScheduleToModel(slots)
		view.Picks = dbPicksToModel(picks)
		return nil
	})
	if err != nil {
		return nil, err
	}
	view.ReadAt = r.clock.Now()
	return &view, nil
}

func (r *Repository) ListLiveDeadlines(ctx context.Context) ([]models.LiveDeadline, error) {
	rows, err := r.queries.ListLiveDeadlines(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list live deadlines: %w", err)
	}
	out := make([]models.LiveDeadline, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.LiveDeadline{DraftID: row.DraftID, ExpiresAt: row.ExpiresAt})
	}
	return out, nil
}

func dbDraftToModel(d db.Draft) (*models.Draft, error) {
	var cfg models.DraftConfiguration
	if err := json.Unmarshal(d.Config, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft config: %w", err)
	}
	return &models.Draft{
		ID:        d.ID,
		Name:      d.Name,
		Config:    cfg,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}, nil
}

func dbStateToModel(s db.DraftState) models.DraftState {
	return models.DraftState{
		DraftID:            s.DraftID,
		Status:             models.DraftStatus(s.Status),
		CurrentPickNumber:  int(s.CurrentPickNumber),
		CurrentParticipant: sqlutil.FromNullUUID(s.CurrentParticipant),
		Deadline:           sqlutil.FromSqlTime(s.Deadline),
		StartedAt:          sqlutil.FromSqlTime(s.StartedAt),
		CompletedAt:        sqlutil.FromSqlTime(s.CompletedAt),
		UpdatedAt:          s.UpdatedAt,
	}
}

func dbSeatsToModel(rows []db.DraftSeat) []models.Seat {
	out := make([]models.Seat, 0, len(rows))
	for _, s := range rows {
		out = append(out, models.Seat{Seat: int(s.Seat), ParticipantID: s.ParticipantID})
	}
	return out
}

func dbScheduleToModel(rows []db.DraftSchedule) models.TurnSchedule {
	out := make(models.TurnSchedule, 0, len(rows))
	for _, s := range rows {
		out = append(out, models.ScheduleSlot{
			PickNumber:      int(s.PickNumber),
			Round:           int(s.Round),
			PositionInRound: int(s.PositionInRound),
			Seat:            int(s.Seat),
			ParticipantID:   s.ParticipantID,
		})
	}
	return out
}

func dbPicksToModel(rows []db.DraftPick) []models.DraftPick {
	out := make([]models.DraftPick, 0, len(rows))
	for _, p := range rows {
		out = append(out, models.DraftPick{
			ID:              p.ID,
			DraftID:         p.DraftID,
			PickNumber:      int(p.PickNumber),
			Round:           int(p.Round),
			PositionInRound: int(p.PositionInRound),
			ParticipantID:   p.ParticipantID,
			ItemID:          p.ItemID,
			AutoPicked:      p.AutoPicked,
			PickedAt:        p.PickedAt,
		})
	}
	return out
}
