package engine_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/draftturn/go/internal/draft/engine"
	"github.com/mcdev12/draftturn/go/internal/draft/events"
	"github.com/mcdev12/draftturn/go/internal/draft/memstore"
	"github.com/mcdev12/draftturn/go/internal/draft/orchestrator"
	"github.com/mcdev12/draftturn/go/internal/eligibility"
	"github.com/mcdev12/draftturn/go/internal/models"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 9, 6, 17, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu      sync.Mutex
	reasons []events.Reason
	err     error
}

func (n *recordingNotifier) NotifyChanged(ctx context.Context, draftID uuid.UUID, reason events.Reason) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reasons = append(n.reasons, reason)
	return n.err
}

func (n *recordingNotifier) Reasons() []events.Reason {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]events.Reason(nil), n.reasons...)
}

type fixture struct {
	t            *testing.T
	ctx          context.Context
	clock        *clockwork.FakeClock
	store        *memstore.Store
	engine       *engine.Engine
	notifier     *recordingNotifier
	draft        *models.Draft
	participants []uuid.UUID
}

func testConfig(participants, rounds int, mode models.OrderingMode, policy models.TimeoutPolicy) models.DraftConfiguration {
	return models.DraftConfiguration{
		Participants:     participants,
		Rounds:           rounds,
		Mode:             mode,
		SelectionSeconds: 60,
		GraceSeconds:     2,
		TimeoutPolicy:    policy,
	}
}

// newFixture creates a seated draft with the given config. Nothing is in the pool yet.
func newFixture(t *testing.T, cfg models.DraftConfiguration) *fixture {
	t.Helper()
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(epoch)
	store := memstore.New(clock)
	checker := eligibility.NewCategoryCapChecker(store)
	notifier := &recordingNotifier{}
	eng := engine.New(store, checker,
		engine.WithClock(clock),
		engine.WithNotifier(notifier),
		engine.WithSampler(orchestrator.NewSeededRandomStrategy(store, checker, 42)),
	)

	participants := make([]uuid.UUID, cfg.Participants)
	for i := range participants {
		participants[i] = uuid.New()
	}
	draft, err := eng.CreateDraft(ctx, engine.CreateDraftRequest{
		Name:         "test draft",
		Config:       cfg,
		Participants: participants,
	})
	require.NoError(t, err)

	return &fixture{
		t:            t,
		ctx:          ctx,
		clock:        clock,
		store:        store,
		engine:       eng,
		notifier:     notifier,
		draft:        draft,
		participants: participants,
	}
}

// addItems puts n items of category into the pool and returns their IDs.
func (f *fixture) addItems(category string, n int) []uuid.UUID {
	f.t.Helper()
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
		require.NoError(f.t, f.store.AddItem(f.ctx, models.PoolItem{
			ID:        ids[i],
			DraftID:   f.draft.ID,
			Name:      fmt.Sprintf("%s item %d", category, i+1),
			Category:  category,
			CreatedAt: epoch,
		}))
	}
	return ids
}

func (f *fixture) addCategory(name string, max int) {
	f.t.Helper()
	require.NoError(f.t, f.store.AddCategory(f.ctx, f.draft.ID, models.Category{Name: name, MaxPerParticipant: max}))
}

func (f *fixture) start() *models.DraftState {
	f.t.Helper()
	state, err := f.engine.StartDraft(f.ctx, f.draft.ID)
	require.NoError(f.t, err)
	return state
}

func (f *fixture) snapshot() *engine.Snapshot {
	f.t.Helper()
	snap, err := f.engine.GetSnapshot(f.ctx, f.draft.ID)
	require.NoError(f.t, err)
	return snap
}

// onTheClock returns whoever holds the current pick.
func (f *fixture) onTheClock() uuid.UUID {
	f.t.Helper()
	snap := f.snapshot()
	require.NotNil(f.t, snap.OnTheClock)
	return snap.OnTheClock.ParticipantID
}

func (f *fixture) submit(participant, item uuid.UUID) (*engine.CommitResult, error) {
	return f.engine.SubmitPick(f.ctx, engine.PickRequest{
		DraftID:       f.draft.ID,
		ParticipantID: participant,
		ItemID:        item,
	})
}

// expire moves the clock just past the current deadline + grace.
func (f *fixture) expire() {
	f.t.Helper()
	snap := f.snapshot()
	require.NotNil(f.t, snap.ExpiresAt)
	f.clock.Advance(snap.ExpiresAt.Sub(f.clock.Now()) + time.Millisecond)
}

type failingChecker struct{ err error }

func (c failingChecker) IsAdmissible(ctx context.Context, draftID, participantID, itemID uuid.UUID, asOfTurn int) (models.Admission, error) {
	return models.Admission{}, c.err
}

var errEligibilityDown = errors.New("eligibility service unavailable")

// reseed swaps in a sampler with a different seed.
func (f *fixture) reseed(seed int64) {
	checker := eligibility.NewCategoryCapChecker(f.store)
	f.engine = engine.New(f.store, checker,
		engine.WithClock(f.clock),
		engine.WithNotifier(f.notifier),
		engine.WithSampler(orchestrator.NewSeededRandomStrategy(f.store, checker, seed)),
	)
}
