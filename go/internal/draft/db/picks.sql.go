package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

const countPicks = `SELECT count(*) FROM draft_picks WHERE draft_id = $1`

func (q *Queries) CountPicks(ctx context.Context, draftID uuid.UUID) (int64, error) {
	row := q.db.QueryRowContext(ctx, countPicks, draftID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const insertPick = `
INSERT INTO draft_picks (id, draft_id, pick_number, round, position_in_round, participant_id, item_id, auto_picked, picked_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

func (q *Queries) InsertPick(ctx context.Context, arg DraftPick) error {
	_, err := q.db.ExecContext(ctx, insertPick,
		arg.ID,
		arg.DraftID,
		arg.PickNumber,
		arg.Round,
		arg.PositionInRound,
		arg.ParticipantID,
		arg.ItemID,
		arg.AutoPicked,
		arg.PickedAt,
	)
	return err
}

const listPicks = `
SELECT id, draft_id, pick_number, round, position_in_round, participant_id, item_id, auto_picked, picked_at
FROM draft_picks
WHERE draft_id = $1
ORDER BY pick_number
`

func (q *Queries) ListPicks(ctx context.Context, draftID uuid.UUID) ([]DraftPick, error) {
	rows, err := q.db.QueryContext(ctx, listPicks, draftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DraftPick
	for rows.Next() {
		var i DraftPick
		if err := rows.Scan(
			&i.ID,
			&i.DraftID,
			&i.PickNumber,
			&i.Round,
			&i.PositionInRound,
			&i.ParticipantID,
			&i.ItemID,
			&i.AutoPicked,
			&i.PickedAt,
		); err != nil {
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

const insertGrant = `
INSERT INTO ownership_grants (id, draft_id, participant_id, item_id, acquired_at, acquired_via, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

type InsertGrantParams struct {
	ID            uuid.UUID             `json:"id"`
	DraftID       uuid.UUID             `json:"draft_id"`
	ParticipantID uuid.UUID             `json:"participant_id"`
	ItemID        uuid.UUID             `json:"item_id"`
	AcquiredAt    int32                 `json:"acquired_at"`
	AcquiredVia   string                `json:"acquired_via"`
	Metadata      pqtype.NullRawMessage `json:"metadata"`
	CreatedAt     time.Time             `json:"created_at"`
}

func (q *Queries) InsertGrant(ctx context.Context, arg InsertGrantParams) error {
	_, err := q.db.ExecContext(ctx, insertGrant,
		arg.ID,
		arg.DraftID,
		arg.ParticipantID,
		arg.ItemID,
		arg.AcquiredAt,
		arg.AcquiredVia,
		arg.Metadata,
		arg.CreatedAt,
	)
	return err
}

const releaseGrant = `
UPDATE ownership_grants
SET released_at = $3
WHERE draft_id = $1 AND item_id = $2 AND released_at IS NULL
`

func (q *Queries) ReleaseGrant(ctx context.Context, draftID, itemID uuid.UUID, releasedAt int32) (int64, error) {
	res, err := q.db.ExecContext(ctx, releaseGrant, draftID, itemID, releasedAt)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const isItemClaimed = `
SELECT EXISTS (
    SELECT 1 FROM ownership_grants
    WHERE draft_id = $1 AND item_id = $2
      AND acquired_at <= $3
      AND (released_at IS NULL OR released_at > $3)
)
`

func (q *Queries) IsItemClaimed(ctx context.Context, draftID, itemID uuid.UUID, asOf int32) (bool, error) {
	row := q.db.QueryRowContext(ctx, isItemClaimed, draftID, itemID, asOf)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const countHeldInCategory = `
SELECT count(*)
FROM ownership_grants g
JOIN pool_items i ON i.id = g.item_id
WHERE g.draft_id = $1
  AND g.participant_id = $2
  AND i.category IS NOT DISTINCT FROM $3
  AND g.acquired_at <= $4
  AND (g.released_at IS NULL OR g.released_at > $4)
`

func (q *Queries) CountHeldInCategory(ctx context.Context, draftID, participantID uuid.UUID, category sql.NullString, asOf int32) (int64, error) {
	row := q.db.QueryRowContext(ctx, countHeldInCategory, draftID, participantID, category, asOf)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listGrants = `
SELECT id, draft_id, participant_id, item_id, acquired_at, released_at, acquired_via, metadata, created_at
FROM ownership_grants
WHERE draft_id = $1
ORDER BY acquired_at, created_at
`

func (q *Queries) ListGrants(ctx context.Context, draftID uuid.UUID) ([]OwnershipGrant, error) {
	rows, err := q.db.QueryContext(ctx, listGrants, draftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OwnershipGrant
	for rows.Next() {
		var i OwnershipGrant
		if err := rows.Scan(
			&i.ID,
			&i.DraftID,
			&i.ParticipantID,
			&i.ItemID,
			&i.AcquiredAt,
			&i.ReleasedAt,
			&i.AcquiredVia,
			&i.Metadata,
			&i.CreatedAt,
		); err != nil {
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
