// Package eligibility decides whether a participant may claim an item, based on
// per-category holding caps.
package eligibility

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/draftturn/go/internal/models"
)

// Holdings is the read side of the pool and ownership grants.
// Item and Category return nil, nil when nothing matches.
type Holdings interface {
	Item(ctx context.Context, draftID, itemID uuid.UUID) (*models.PoolItem, error)
	Category(ctx context.Context, draftID uuid.UUID, name string) (*models.Category, error)
	CountHeld(ctx context.Context, draftID, participantID uuid.UUID, category string, asOf int) (int, error)
}

// CategoryCapChecker admits an item unless it would push the participant past
// the cap of the item's category. Items in the open category are always admitted.
type CategoryCapChecker struct {
	holdings Holdings
}

func NewCategoryCapChecker(holdings Holdings) *CategoryCapChecker {
	return &CategoryCapChecker{holdings: holdings}
}

func (c *CategoryCapChecker) IsAdmissible(ctx context.Context, draftID, participantID, itemID uuid.UUID, asOfTurn int) (models.Admission, error) {
	item, err := c.holdings.Item(ctx, draftID, itemID)
	if err != nil {
		return models.Admission{}, fmt.Errorf("failed to get item: %w", err)
	}
	if item == nil {
		return models.Deny(fmt.Sprintf("item %s is not in this draft's pool", itemID)), nil
	}
	if item.Category == models.OpenCategory {
		return models.Admit(), nil
	}

	cat, err := c.holdings.Category(ctx, draftID, item.Category)
	if err != nil {
		return models.Admission{}, fmt.Errorf("failed to get category: %w", err)
	}
	if cat == nil || !cat.Capped() {
		return models.Admit(), nil
	}

	held, err := c.holdings.CountHeld(ctx, draftID, participantID, cat.Name, asOfTurn)
	if err != nil {
		return models.Admission{}, fmt.Errorf("failed to count holdings: %w", err)
	}
	if held+1 > cat.MaxPerParticipant {
		return models.Deny(fmt.Sprintf("category %s limit reached (%d/%d)", cat.Name, held, cat.MaxPerParticipant)), nil
	}
	return models.Admit(), nil
}
