// Package memstore is an in-process engine.Store. Each draft has its own
// mutex; writes made inside WithDraftLock are staged and applied only when the
// callback succeeds.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/draftturn/go/internal/draft/engine"
	"github.com/mcdev12/draftturn/go/internal/models"
)

type draftRecord struct {
	draft      models.Draft
	state      models.DraftState
	seating    []models.Seat
	schedule   map[int]models.ScheduleSlot
	picks      []models.DraftPick
	grants     []models.OwnershipGrant
	categories map[string]models.Category
	items      []models.PoolItem
}

type Store struct {
	mu     sync.RWMutex
	drafts map[uuid.UUID]*draftRecord

	locksMu sync.Mutex
	locks   map[uuid.UUID]*sync.Mutex

	clock clockwork.Clock
}

var _ engine.Store = (*Store)(nil)

func New(clock clockwork.Clock) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{
		drafts: make(map[uuid.UUID]*draftRecord),
		locks:  make(map[uuid.UUID]*sync.Mutex),
		clock:  clock,
	}
}

func (s *Store) CreateDraft(ctx context.Context, draft models.Draft, state models.DraftState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.drafts[draft.ID]; exists {
		return fmt.Errorf("draft %s already exists", draft.ID)
	}
	s.drafts[draft.ID] = &draftRecord{
		draft:      draft,
		state:      state,
		schedule:   make(map[int]models.ScheduleSlot),
		categories: make(map[string]models.Category),
	}
	return nil
}

func (s *Store) draftLock(draftID uuid.UUID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[draftID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[draftID] = l
	}
	return l
}

// WithDraftLock serializes fn against every other locked unit on the same draft.
// Different drafts never share a lock.
func (s *Store) WithDraftLock(ctx context.Context, draftID uuid.UUID, fn func(tx engine.Tx) error) error {
	l := s.draftLock(draftID)
	l.Lock()
	defer l.Unlock()

	s.mu.RLock()
	_, ok := s.drafts[draftID]
	s.mu.RUnlock()
	if !ok {
		return engine.ErrDraftNotFound
	}

	tx := &memTx{store: s, draftID: draftID, schedule: make(map[int]models.ScheduleSlot)}
	if err := fn(tx); err != nil {
		return err
	}
	s.apply(tx)
	return nil
}

func (s *Store) apply(tx *memTx) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.drafts[tx.draftID]
	if tx.state != nil {
		rec.state = cloneState(*tx.state)
	}
	if tx.seatingSet {
		rec.seating = append([]models.Seat(nil), tx.seating...)
	}
	for n, slot := range tx.schedule {
		rec.schedule[n] = slot
	}
	rec.picks = append(rec.picks, tx.picks...)
	rec.grants = append(rec.grants, tx.grants...)
}

func (s *Store) LoadView(ctx context.Context, draftID uuid.UUID) (*engine.DraftView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.drafts[draftID]
	if !ok {
		return nil, engine.ErrDraftNotFound
	}
	return &engine.DraftView{
		Draft:    rec.draft,
		State:    cloneState(rec.state),
		Seating:  append([]models.Seat(nil), rec.seating...),
		Schedule: sortedSchedule(rec.schedule),
		Picks:    append([]models.DraftPick(nil), rec.picks...),
		ReadAt:   s.clock.Now().UTC(),
	}, nil
}

func (s *Store) ListLiveDeadlines(ctx context.Context) ([]models.LiveDeadline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.LiveDeadline
	for id, rec := range s.drafts {
		if rec.state.Status != models.DraftStatusLive {
			continue
		}
		exp := rec.state.ExpiresAt(rec.draft.Config.GracePeriod())
		if exp == nil {
			continue
		}
		out = append(out, models.LiveDeadline{DraftID: id, ExpiresAt: *exp})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out, nil
}

func sortedSchedule(m map[int]models.ScheduleSlot) models.TurnSchedule {
	out := make(models.TurnSchedule, 0, len(m))
	for _, slot := range m {
		out = append(out, slot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PickNumber < out[j].PickNumber })
	return out
}

func cloneState(st models.DraftState) models.DraftState {
	if st.CurrentParticipant != nil {
		p := *st.CurrentParticipant
		st.CurrentParticipant = &p
	}
	if st.Deadline != nil {
		d := *st.Deadline
		st.Deadline = &d
	}
	if st.StartedAt != nil {
		t := *st.StartedAt
		st.StartedAt = &t
	}
	if st.CompletedAt != nil {
		t := *st.CompletedAt
		st.CompletedAt = &t
	}
	return st
}
