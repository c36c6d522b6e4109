package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const createDraft = `
INSERT INTO drafts (id, name, config, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
`

type CreateDraftParams struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Config    json.RawMessage `json:"config"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (q *Queries) CreateDraft(ctx context.Context, arg CreateDraftParams) error {
	_, err := q.db.ExecContext(ctx, createDraft, arg.ID, arg.Name, arg.Config, arg.CreatedAt, arg.UpdatedAt)
	return err
}

const getDraft = `
SELECT id, name, config, created_at, updated_at FROM drafts WHERE id = $1
`

func (q *Queries) GetDraft(ctx context.Context, id uuid.UUID) (Draft, error) {
	row := q.db.QueryRowContext(ctx, getDraft, id)
	var i Draft
	err := row.Scan(&i.ID, &i.Name, &i.Config, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const createDraftState = `
INSERT INTO draft_state (draft_id, status, current_pick_number, grace_seconds, updated_at)
VALUES ($1, $2, $3, $4, $5)
`

type CreateDraftStateParams struct {
	DraftID           uuid.UUID `json:"draft_id"`
	Status            string    `json:"status"`
	CurrentPickNumber int32     `json:"current_pick_number"`
	GraceSeconds      int32     `json:"grace_seconds"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (q *Queries) CreateDraftState(ctx context.Context, arg CreateDraftStateParams) error {
	_, err := q.db.ExecContext(ctx, createDraftState,
		arg.DraftID, arg.Status, arg.CurrentPickNumber, arg.GraceSeconds, arg.UpdatedAt)
	return err
}

const draftStateColumns = `draft_id, status, current_pick_number, current_participant, deadline,
       grace_seconds, started_at, completed_at, updated_at`

const getDraftState = `SELECT ` + draftStateColumns + ` FROM draft_state WHERE draft_id = $1`

func (q *Queries) GetDraftState(ctx context.Context, draftID uuid.UUID) (DraftState, error) {
	return scanDraftState(q.db.QueryRowContext(ctx, getDraftState, draftID))
}

// GetDraftStateForUpdate takes the row lock that serializes every mutation of a draft.
const getDraftStateForUpdate = getDraftState + ` FOR UPDATE`

func (q *Queries) GetDraftStateForUpdate(ctx context.Context, draftID uuid.UUID) (DraftState, error) {
	return scanDraftState(q.db.QueryRowContext(ctx, getDraftStateForUpdate, draftID))
}

func scanDraftState(row *sql.Row) (DraftState, error) {
	var i DraftState
	err := row.Scan(
		&i.DraftID,
		&i.Status,
		&i.CurrentPickNumber,
		&i.CurrentParticipant,
		&i.Deadline,
		&i.GraceSeconds,
		&i.StartedAt,
		&i.CompletedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateDraftState = `
UPDATE draft_state
SET status = $2,
    current_pick_number = $3,
    current_participant = $4,
    deadline = $5,
    started_at = $6,
    completed_at = $7,
    updated_at = $8
WHERE draft_id = $1
`

type UpdateDraftStateParams struct {
	DraftID            uuid.UUID     `json:"draft_id"`
	Status             string        `json:"status"`
	CurrentPickNumber  int32         `json:"current_pick_number"`
	CurrentParticipant uuid.NullUUID `json:"current_participant"`
	Deadline           sql.NullTime  `json:"deadline"`
	StartedAt          sql.NullTime  `json:"started_at"`
	CompletedAt        sql.NullTime  `json:"completed_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

func (q *Queries) UpdateDraftState(ctx context.Context, arg UpdateDraftStateParams) error {
	_, err := q.db.ExecContext(ctx, updateDraftState,
		arg.DraftID,
		arg.Status,
		arg.CurrentPickNumber,
		arg.CurrentParticipant,
		arg.Deadline,
		arg.StartedAt,
		arg.CompletedAt,
		arg.UpdatedAt,
	)
	return err
}

const listLiveDeadlines = `
SELECT draft_id, deadline + make_interval(secs => grace_seconds) AS expires_at
FROM draft_state
WHERE status = 'LIVE' AND deadline IS NOT NULL
ORDER BY expires_at
`

type ListLiveDeadlinesRow struct {
	DraftID   uuid.UUID `json:"draft_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (q *Queries) ListLiveDeadlines(ctx context.Context) ([]ListLiveDeadlinesRow, error) {
	rows, err := q.db.QueryContext(ctx, listLiveDeadlines)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListLiveDeadlinesRow
	for rows.Next() {
		var i ListLiveDeadlinesRow
		if err := rows.Scan(&i.DraftID, &i.ExpiresAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
