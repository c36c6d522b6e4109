package memstore

import (
	"context"

	"github.com/google/uuid"
	"github.com/mcdev12/draftturn/go/internal/draft/engine"
	"github.com/mcdev12/draftturn/go/internal/models"
)

// memTx reads through to the store and stages writes until WithDraftLock applies them.
type memTx struct {
	store   *Store
	draftID uuid.UUID

	state      *models.DraftState
	seating    []models.Seat
	seatingSet bool
	schedule   map[int]models.ScheduleSlot
	picks      []models.DraftPick
	grants     []models.OwnershipGrant
}

func (t *memTx) record() *draftRecord {
	return t.store.drafts[t.draftID]
}

func (t *memTx) Draft(ctx context.Context) (*models.Draft, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	d := t.record().draft
	return &d, nil
}

func (t *memTx) State(ctx context.Context) (*models.DraftState, error) {
	if t.state != nil {
		st := cloneState(*t.state)
		return &st, nil
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	st := cloneState(t.record().state)
	return &st, nil
}

func (t *memTx) SaveState(ctx context.Context, state models.DraftState) error {
	st := cloneState(state)
	t.state = &st
	return nil
}

func (t *memTx) Seating(ctx context.Context) ([]models.Seat, error) {
	if t.seatingSet {
		return append([]models.Seat(nil), t.seating...), nil
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	return append([]models.Seat(nil), t.record().seating...), nil
}

func (t *memTx) ReplaceSeating(ctx context.Context, seating []models.Seat) error {
	t.seating = append([]models.Seat(nil), seating...)
	t.seatingSet = true
	return nil
}

func (t *memTx) Schedule(ctx context.Context) (models.TurnSchedule, error) {
	t.store.mu.RLock()
	merged := make(map[int]models.ScheduleSlot, len(t.record().schedule))
	for n, slot := range t.record().schedule {
		merged[n] = slot
	}
	t.store.mu.RUnlock()
	for n, slot := range t.schedule {
		merged[n] = slot
	}
	return sortedSchedule(merged), nil
}

func (t *memTx) SaveSchedule(ctx context.Context, slots []models.ScheduleSlot) error {
	t.store.mu.RLock()
	picked := make(map[int]bool, len(t.record().picks)+len(t.picks))
	for _, p := range t.record().picks {
		picked[p.PickNumber] = true
	}
	t.store.mu.RUnlock()
	for _, p := range t.picks {
		picked[p.PickNumber] = true
	}

	for _, slot := range slots {
		if picked[slot.PickNumber] {
			continue
		}
		t.schedule[slot.PickNumber] = slot
	}
	return nil
}

func (t *memTx) PickCount(ctx context.Context) (int, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	return len(t.record().picks) + len(t.picks), nil
}

func (t *memTx) InsertPick(ctx context.Context, pick models.DraftPick) error {
	t.store.mu.RLock()
	existing := append(append([]models.DraftPick(nil), t.record().picks...), t.picks...)
	t.store.mu.RUnlock()
	for _, p := range existing {
		if p.PickNumber == pick.PickNumber {
			return engine.ErrPickExists
		}
	}
	t.picks = append(t.picks, pick)
	return nil
}

func (t *memTx) IsClaimed(ctx context.Context, itemID uuid.UUID, asOfTurn int) (bool, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	for _, g := range t.record().grants {
		if g.ItemID == itemID && g.ActiveAt(asOfTurn) {
			return true, nil
		}
	}
	for _, g := range t.grants {
		if g.ItemID == itemID && g.ActiveAt(asOfTurn) {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) OpenGrant(ctx context.Context, grant models.OwnershipGrant) error {
	t.grants = append(t.grants, grant)
	return nil
}
