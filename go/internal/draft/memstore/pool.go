package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/mcdev12/draftturn/go/internal/draft/engine"
	"github.com/mcdev12/draftturn/go/internal/models"
)

// AddCategory registers or replaces a category for a draft's pool.
func (s *Store) AddCategory(ctx context.Context, draftID uuid.UUID, cat models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.drafts[draftID]
	if !ok {
		return engine.ErrDraftNotFound
	}
	rec.categories[cat.Name] = cat
	return nil
}

// AddItem adds an item to a draft's pool. Its category must already exist.
func (s *Store) AddItem(ctx context.Context, item models.PoolItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.drafts[item.DraftID]
	if !ok {
		return engine.ErrDraftNotFound
	}
	if item.Category != models.OpenCategory {
		if _, ok := rec.categories[item.Category]; !ok {
			return fmt.Errorf("unknown category %q", item.Category)
		}
	}
	for _, it := range rec.items {
		if it.ID == item.ID {
			return fmt.Errorf("item %s already in pool", item.ID)
		}
	}
	rec.items = append(rec.items, item)
	return nil
}

// ReleaseGrant closes the active grant on an item at turn boundary t, as a trade or drop would.
func (s *Store) ReleaseGrant(ctx context.Context, draftID, itemID uuid.UUID, t int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.drafts[draftID]
	if !ok {
		return engine.ErrDraftNotFound
	}
	for i, g := range rec.grants {
		if g.ItemID == itemID && g.ReleasedAt == nil {
			released := t
			rec.grants[i].ReleasedAt = &released
			return nil
		}
	}
	return fmt.Errorf("no open grant for item %s", itemID)
}

// Grants returns every grant recorded for a draft.
func (s *Store) Grants(ctx context.Context, draftID uuid.UUID) ([]models.OwnershipGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.drafts[draftID]
	if !ok {
		return nil, engine.ErrDraftNotFound
	}
	return append([]models.OwnershipGrant(nil), rec.grants...), nil
}

func (s *Store) Categories(ctx context.Context, draftID uuid.UUID) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.drafts[draftID]
	if !ok {
		return nil, engine.ErrDraftNotFound
	}
	out := make([]models.Category, 0, len(rec.categories))
	for _, c := range rec.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) Category(ctx context.Context, draftID uuid.UUID, name string) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.drafts[draftID]
	if !ok {
		return nil, engine.ErrDraftNotFound
	}
	c, ok := rec.categories[name]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *Store) Item(ctx context.Context, draftID, itemID uuid.UUID) (*models.PoolItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.drafts[draftID]
	if !ok {
		return nil, engine.ErrDraftNotFound
	}
	for _, it := range rec.items {
		if it.ID == itemID {
			item := it
			return &item, nil
		}
	}
	return nil, nil
}

// AvailableItems lists the items of a category that no grant holds at asOf.
func (s *Store) AvailableItems(ctx context.Context, draftID uuid.UUID, category string, asOf int) ([]models.PoolItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.drafts[draftID]
	if !ok {
		return nil, engine.ErrDraftNotFound
	}
	held := make(map[uuid.UUID]bool, len(rec.grants))
	for _, g := range rec.grants {
		if g.ActiveAt(asOf) {
			held[g.ItemID] = true
		}
	}
	var out []models.PoolItem
	for _, it := range rec.items {
		if it.Category == category && !held[it.ID] {
			out = append(out, it)
		}
	}
	return out, nil
}

// CountHeld counts the items of a category a participant holds at asOf.
func (s *Store) CountHeld(ctx context.Context, draftID, participantID uuid.UUID, category string, asOf int) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.drafts[draftID]
	if !ok {
		return 0, engine.ErrDraftNotFound
	}
	byItem := make(map[uuid.UUID]string, len(rec.items))
	for _, it := range rec.items {
		byItem[it.ID] = it.Category
	}
	count := 0
	for _, g := range rec.grants {
		if g.ParticipantID != participantID || !g.ActiveAt(asOf) {
			continue
		}
		if cat, ok := byItem[g.ItemID]; ok && cat == category {
			count++
		}
	}
	return count, nil
}
