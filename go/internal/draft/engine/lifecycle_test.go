package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/draftturn/go/internal/draft/engine"
	"github.com/mcdev12/draftturn/go/internal/draft/events"
	"github.com/mcdev12/draftturn/go/internal/draft/memstore"
	"github.com/mcdev12/draftturn/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	engine.Store
	created int
}

func (s *countingStore) CreateDraft(ctx context.Context, draft models.Draft, state models.DraftState) error {
	s.created++
	return s.Store.CreateDraft(ctx, draft, state)
}

func TestCreateDraft_InvalidSeatingStoresNothing(t *testing.T) {
	store := &countingStore{Store: memstore.New(clockwork.NewFakeClockAt(epoch))}
	eng := engine.New(store, nil, engine.WithClock(clockwork.NewFakeClockAt(epoch)))
	p := uuid.New()

	draft, err := eng.CreateDraft(context.Background(), engine.CreateDraftRequest{
		Name:         "dup seats",
		Config:       testConfig(2, 1, models.OrderingModeStraight, models.TimeoutPolicyAutoSkip),
		Participants: []uuid.UUID{p, p},
	})
	assert.ErrorIs(t, err, engine.ErrInvalidSeating)
	assert.Nil(t, draft)
	assert.Equal(t, 0, store.created)

	draft, err = eng.CreateDraft(context.Background(), engine.CreateDraftRequest{
		Name:         "short",
		Config:       testConfig(2, 1, models.OrderingModeStraight, models.TimeoutPolicyAutoSkip),
		Participants: []uuid.UUID{p},
	})
	assert.ErrorIs(t, err, engine.ErrInvalidSeating)
	assert.Nil(t, draft)
	assert.Equal(t, 0, store.created)
}

func TestCreateDraft_InvalidConfiguration(t *testing.T) {
	eng := engine.New(memstore.New(clockwork.NewFakeClockAt(epoch)), nil)

	_, err := eng.CreateDraft(context.Background(), engine.CreateDraftRequest{
		Config: models.DraftConfiguration{Participants: 0, Rounds: 2, Mode: "ZIGZAG"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrInvalidConfiguration)
}

func TestStartDraft(t *testing.T) {
	f := newFixture(t, testConfig(4, 2, models.OrderingModeSnake, models.TimeoutPolicyAutoSkip))

	state := f.start()
	assert.Equal(t, models.DraftStatusLive, state.Status)
	assert.Equal(t, 1, state.CurrentPickNumber)
	require.NotNil(t, state.CurrentParticipant)
	assert.Equal(t, f.participants[0], *state.CurrentParticipant)
	require.NotNil(t, state.Deadline)
	assert.Equal(t, epoch.Add(60*time.Second), *state.Deadline)
	assert.Equal(t, epoch, *state.StartedAt)

	snap := f.snapshot()
	assert.Equal(t, 8, snap.TotalPicks)
	assert.Equal(t, []events.Reason{events.ReasonSeating, events.ReasonCreated, events.ReasonStart}, f.notifier.Reasons())
}

func TestStartDraft_IdempotentUntilFirstPick(t *testing.T) {
	f := newFixture(t, testConfig(2, 2, models.OrderingModeSnake, models.TimeoutPolicyAutoSkip))
	items := f.addItems(models.OpenCategory, 4)
	first := f.start()

	f.clock.Advance(10 * time.Second)
	again, err := f.engine.StartDraft(f.ctx, f.draft.ID)
	require.NoError(t, err)
	assert.Equal(t, *first.Deadline, *again.Deadline, "repeat start must not reset the clock")

	_, err = f.submit(f.participants[0], items[0])
	require.NoError(t, err)

	_, err = f.engine.StartDraft(f.ctx, f.draft.ID)
	assert.ErrorIs(t, err, engine.ErrAlreadyStarted)
}

func TestStartDraft_IncompleteSeating(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	eng := engine.New(memstore.New(clock), nil, engine.WithClock(clock))
	ctx := context.Background()

	draft, err := eng.CreateDraft(ctx, engine.CreateDraftRequest{
		Config: testConfig(3, 2, models.OrderingModeStraight, models.TimeoutPolicyAutoSkip),
	})
	require.NoError(t, err)

	_, err = eng.StartDraft(ctx, draft.ID)
	assert.ErrorIs(t, err, engine.ErrIncompleteSeating)

	snap, err := eng.GetSnapshot(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusNotStarted, snap.State.Status)
}

func TestSetSeating(t *testing.T) {
	f := newFixture(t, testConfig(3, 1, models.OrderingModeStraight, models.TimeoutPolicyAutoSkip))

	t.Run("wrong participant count", func(t *testing.T) {
		_, err := f.engine.SetSeating(f.ctx, f.draft.ID, []uuid.UUID{uuid.New()})
		assert.ErrorIs(t, err, engine.ErrInvalidSeating)
	})

	t.Run("duplicate participant", func(t *testing.T) {
		p := uuid.New()
		_, err := f.engine.SetSeating(f.ctx, f.draft.ID, []uuid.UUID{p, p, uuid.New()})
		assert.ErrorIs(t, err, engine.ErrInvalidSeating)
	})

	t.Run("reorder before start", func(t *testing.T) {
		reordered := []uuid.UUID{f.participants[2], f.participants[0], f.participants[1]}
		seats, err := f.engine.SetSeating(f.ctx, f.draft.ID, reordered)
		require.NoError(t, err)
		assert.Equal(t, f.participants[2], seats[0].ParticipantID)

		state := f.start()
		assert.Equal(t, f.participants[2], *state.CurrentParticipant)
	})

	t.Run("fixed after start", func(t *testing.T) {
		_, err := f.engine.SetSeating(f.ctx, f.draft.ID, f.participants)
		assert.ErrorIs(t, err, engine.ErrAlreadyStarted)
	})
}

func TestPauseResume(t *testing.T) {
	f := newFixture(t, testConfig(2, 2, models.OrderingModeSnake, models.TimeoutPolicyAutoSkip))
	items := f.addItems(models.OpenCategory, 4)
	f.start()

	_, err := f.engine.ResumeDraft(f.ctx, f.draft.ID)
	assert.ErrorIs(t, err, engine.ErrNotPaused)

	paused, err := f.engine.PauseDraft(f.ctx, f.draft.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusPaused, paused.Status)
	assert.Nil(t, paused.Deadline)
	assert.Equal(t, f.participants[0], *paused.CurrentParticipant)

	_, err = f.engine.PauseDraft(f.ctx, f.draft.ID)
	assert.ErrorIs(t, err, engine.ErrNotLive)

	_, err = f.submit(f.participants[0], items[0])
	assert.ErrorIs(t, err, engine.ErrNotLive)

	deadlines, err := f.engine.LiveDeadlines(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, deadlines, "paused drafts have no running clock")

	// A paused draft never times out, however long it sits.
	f.clock.Advance(time.Hour)
	res, err := f.engine.ResolveTimeout(f.ctx, f.draft.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.ActionNone, res.Action)

	resumed, err := f.engine.ResumeDraft(f.ctx, f.draft.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusLive, resumed.Status)
	assert.Equal(t, 1, resumed.CurrentPickNumber)
	assert.Equal(t, f.clock.Now().Add(60*time.Second), *resumed.Deadline)

	_, err = f.submit(f.participants[0], items[0])
	require.NoError(t, err)
}

func TestUnknownDraft(t *testing.T) {
	f := newFixture(t, testConfig(2, 1, models.OrderingModeSnake, models.TimeoutPolicyAutoSkip))
	missing := uuid.New()

	_, err := f.engine.StartDraft(f.ctx, missing)
	assert.ErrorIs(t, err, engine.ErrNotFound)
	_, err = f.engine.GetSnapshot(f.ctx, missing)
	assert.ErrorIs(t, err, engine.ErrNotFound)
	_, err = f.engine.SubmitPick(f.ctx, engine.PickRequest{DraftID: missing, ParticipantID: f.participants[0], ItemID: uuid.New()})
	assert.ErrorIs(t, err, engine.ErrNotFound)
}
