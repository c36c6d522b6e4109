package orchestrator

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/draftturn/go/internal/draft/engine"
	"github.com/mcdev12/draftturn/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Pool is what the auto-select strategy reads from the draft's item pool.
type Pool interface {
	Categories(ctx context.Context, draftID uuid.UUID) ([]models.Category, error)
	AvailableItems(ctx context.Context, draftID uuid.UUID, category string, asOf int) ([]models.PoolItem, error)
	CountHeld(ctx context.Context, draftID, participantID uuid.UUID, category string, asOf int) (int, error)
}

// RandomStrategy draws a category uniformly, then an item uniformly within it,
// so categories with more inventory are not favoured.
type RandomStrategy struct {
	pool        Pool
	eligibility engine.EligibilityChecker

	mu  sync.Mutex
	rng *rand.Rand
}

var _ engine.Sampler = (*RandomStrategy)(nil)

// NewRandomStrategy constructs a RandomStrategy with its own seed.
func NewRandomStrategy(pool Pool, eligibility engine.EligibilityChecker) *RandomStrategy {
	return NewSeededRandomStrategy(pool, eligibility, time.Now().UnixNano())
}

func NewSeededRandomStrategy(pool Pool, eligibility engine.EligibilityChecker, seed int64) *RandomStrategy {
	return &RandomStrategy{
		pool:        pool,
		eligibility: eligibility,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// Sample implements engine.Sampler. Categories at their cap, or with nothing
// available, are discarded until an item is found or none remain.
func (s *RandomStrategy) Sample(ctx context.Context, draftID, participantID uuid.UUID, asOf int) (*models.PoolItem, error) {
	cats, err := s.pool.Categories(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	remaining := append(cats, models.Category{Name: models.OpenCategory})

	for len(remaining) > 0 {
		i := s.intn(len(remaining))
		cat := remaining[i]
		remaining = append(remaining[:i], remaining[i+1:]...)

		if cat.Capped() {
			held, err := s.pool.CountHeld(ctx, draftID, participantID, cat.Name, asOf)
			if err != nil {
				return nil, fmt.Errorf("count holdings in %q: %w", cat.Name, err)
			}
			if held >= cat.MaxPerParticipant {
				continue
			}
		}

		items, err := s.pool.AvailableItems(ctx, draftID, cat.Name, asOf)
		if err != nil {
			return nil, fmt.Errorf("list available items in %q: %w", cat.Name, err)
		}
		for len(items) > 0 {
			j := s.intn(len(items))
			item := items[j]
			items = append(items[:j], items[j+1:]...)

			if s.eligibility != nil {
				admission, err := s.eligibility.IsAdmissible(ctx, draftID, participantID, item.ID, asOf)
				if err != nil {
					return nil, fmt.Errorf("check eligibility: %w", err)
				}
				if !admission.Admitted {
					continue
				}
			}

			log.Debug().
				Str("draft_id", draftID.String()).
				Str("participant_id", participantID.String()).
				Str("category", cat.Name).
				Str("item_id", item.ID.String()).
				Msg("auto-select drew item")
			return &item, nil
		}
	}
	return nil, nil
}

func (s *RandomStrategy) intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}
