package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/draftturn/go/internal/draft/db"
	"github.com/mcdev12/draftturn/go/internal/models"
	"github.com/mcdev12/draftturn/go/internal/sqlutil"
)

func (r *Repository) AddCategory(ctx context.Context, draftID uuid.UUID, cat models.Category) error {
	if err := r.queries.UpsertCategory(ctx, db.PoolCategory{
		DraftID:           draftID,
		Name:              cat.Name,
		MaxPerParticipant: int32(cat.MaxPerParticipant),
	}); err != nil {
		return fmt.Errorf("failed to upsert category %q: %w", cat.Name, err)
	}
	return nil
}

func (r *Repository) AddItem(ctx context.Context, item models.PoolItem) error {
	if err := r.queries.InsertPoolItem(ctx, db.PoolItem{
		ID:           item.ID,
		DraftID:      item.DraftID,
		Name:         item.Name,
		Abbreviation: item.Abbreviation,
		Category:     sqlutil.ToNullString(item.Category),
		CreatedAt:    item.CreatedAt,
	}); err != nil {
		return fmt.Errorf("failed to insert pool item: %w", err)
	}
	return nil
}

// ReleaseGrant closes the active grant on an item at turn boundary t.
func (r *Repository) ReleaseGrant(ctx context.Context, draftID, itemID uuid.UUID, t int) error {
	n, err := r.queries.ReleaseGrant(ctx, draftID, itemID, int32(t))
	if err != nil {
		return fmt.Errorf("failed to release grant: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no open grant for item %s", itemID)
	}
	return nil
}

func (r *Repository) Grants(ctx context.Context, draftID uuid.UUID) ([]models.OwnershipGrant, error) {
	rows, err := r.queries.ListGrants(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grants: %w", err)
	}
	out := make([]models.OwnershipGrant, 0, len(rows))
	for _, g := range rows {
		pickID, err := decodeGrantMetadata(g.Metadata)
		if err != nil {
			return nil, err
		}
		out = append(out, models.OwnershipGrant{
			ID:            g.ID,
			DraftID:       g.DraftID,
			ParticipantID: g.ParticipantID,
			ItemID:        g.ItemID,
			AcquiredAt:    int(g.AcquiredAt),
			ReleasedAt:    sqlutil.FromSqlInt32(g.ReleasedAt),
			AcquiredVia:   models.AcquisitionType(g.AcquiredVia),
			PickID:        pickID,
			CreatedAt:     g.CreatedAt,
		})
	}
	return out, nil
}

func (r *Repository) Categories(ctx context.Context, draftID uuid.UUID) ([]models.Category, error) {
	rows, err := r.queries.ListCategories(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	out := make([]models.Category, 0, len(rows))
	for _, c := range rows {
		out = append(out, models.Category{Name: c.Name, MaxPerParticipant: int(c.MaxPerParticipant)})
	}
	return out, nil
}

func (r *Repository) Category(ctx context.Context, draftID uuid.UUID, name string) (*models.Category, error) {
	c, err := r.queries.GetCategory(ctx, draftID, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &models.Category{Name: c.Name, MaxPerParticipant: int(c.MaxPerParticipant)}, nil
}

func (r *Repository) Item(ctx context.Context, draftID, itemID uuid.UUID) (*models.PoolItem, error) {
	it, err := r.queries.GetPoolItem(ctx, draftID, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pool item: %w", err)
	}
	item := dbItemToModel(it)
	return &item, nil
}

func (r *Repository) AvailableItems(ctx context.Context, draftID uuid.UUID, category string, asOf int) ([]models.PoolItem, error) {
	rows, err := r.queries.ListAvailableItems(ctx, draftID, sqlutil.ToNullString(category), int32(asOf))
	if err != nil {
		return nil, fmt.Errorf("failed to list available items: %w", err)
	}
	out := make([]models.PoolItem, 0, len(rows))
	for _, it := range rows {
		out = append(out, dbItemToModel(it))
	}
	return out, nil
}

func (r *Repository) CountHeld(ctx context.Context, draftID, participantID uuid.UUID, category string, asOf int) (int, error) {
	n, err := r.queries.CountHeldInCategory(ctx, draftID, participantID, sqlutil.ToNullString(category), int32(asOf))
	if err != nil {
		return 0, fmt.Errorf("failed to count held items: %w", err)
	}
	return int(n), nil
}

func dbItemToModel(it db.PoolItem) models.PoolItem {
	return models.PoolItem{
		ID:           it.ID,
		DraftID:      it.DraftID,
		Name:         it.Name,
		Abbreviation: it.Abbreviation,
		Category:     sqlutil.FromSqlString(it.Category, models.OpenCategory),
		CreatedAt:    it.CreatedAt,
	}
}
