package db

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

const upsertCategory = `
INSERT INTO pool_categories (draft_id, name, max_per_participant)
VALUES ($1, $2, $3)
ON CONFLICT (draft_id, name) DO UPDATE SET max_per_participant = EXCLUDED.max_per_participant
`

func (q *Queries) UpsertCategory(ctx context.Context, arg PoolCategory) error {
	_, err := q.db.ExecContext(ctx, upsertCategory, arg.DraftID, arg.Name, arg.MaxPerParticipant)
	return err
}

const listCategories = `
SELECT draft_id, name, max_per_participant FROM pool_categories WHERE draft_id = $1 ORDER BY name
`

func (q *Queries) ListCategories(ctx context.Context, draftID uuid.UUID) ([]PoolCategory, error) {
	rows, err := q.db.QueryContext(ctx, listCategories, draftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PoolCategory
	for rows.Next() {
		var i PoolCategory
		if err := rows.Scan(&i.DraftID, &i.Name, &i.MaxPerParticipant); err != nil {
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

const getCategory = `
SELECT draft_id, name, max_per_participant FROM pool_categories WHERE draft_id = $1 AND name = $2
`

func (q *Queries) GetCategory(ctx context.Context, draftID uuid.UUID, name string) (PoolCategory, error) {
	row := q.db.QueryRowContext(ctx, getCategory, draftID, name)
	var i PoolCategory
	err := row.Scan(&i.DraftID, &i.Name, &i.MaxPerParticipant)
	return i, err
}

const insertPoolItem = `
INSERT INTO pool_items (id, draft_id, name, abbreviation, category, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
`

func (q *Queries) InsertPoolItem(ctx context.Context, arg PoolItem) error {
	_, err := q.db.ExecContext(ctx, insertPoolItem,
		arg.ID, arg.DraftID, arg.Name, arg.Abbreviation, arg.Category, arg.CreatedAt)
	return err
}

const getPoolItem = `
SELECT id, draft_id, name, abbreviation, category, created_at FROM pool_items WHERE draft_id = $1 AND id = $2
`

func (q *Queries) GetPoolItem(ctx context.Context, draftID, id uuid.UUID) (PoolItem, error) {
	row := q.db.QueryRowContext(ctx, getPoolItem, draftID, id)
	var i PoolItem
	err := row.Scan(&i.ID, &i.DraftID, &i.Name, &i.Abbreviation, &i.Category, &i.CreatedAt)
	return i, err
}

const listAvailableItems = `
SELECT i.id, i.draft_id, i.name, i.abbreviation, i.category, i.created_at
FROM pool_items i
WHERE i.draft_id = $1
  AND i.category IS NOT DISTINCT FROM $2
  AND NOT EXISTS (
      SELECT 1 FROM ownership_grants g
      WHERE g.draft_id = i.draft_id AND g.item_id = i.id
        AND g.acquired_at <= $3
        AND (g.released_at IS NULL OR g.released_at > $3)
  )
ORDER BY i.name
`

func (q *Queries) ListAvailableItems(ctx context.Context, draftID uuid.UUID, category sql.NullString, asOf int32) ([]PoolItem, error) {
	rows, err := q.db.QueryContext(ctx, listAvailableItems, draftID, category, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PoolItem
	for rows.Next() {
		var i PoolItem
		if err := rows.Scan(&i.ID, &i.DraftID, &i.Name, &i.Abbreviation, &i.Category, &i.CreatedAt); err != nil {
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
