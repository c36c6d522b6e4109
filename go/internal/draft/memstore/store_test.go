package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/draftturn/go/internal/draft/engine"
	"github.com/mcdev12/draftturn/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 9, 6, 17, 0, 0, 0, time.UTC)

func newDraft(t *testing.T, s *Store) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, s.CreateDraft(context.Background(),
		models.Draft{ID: id, Config: models.DraftConfiguration{Participants: 2, Rounds: 1, GraceSeconds: 5}},
		models.DraftState{DraftID: id, Status: models.DraftStatusNotStarted, CurrentPickNumber: 1},
	))
	return id
}

func TestWithDraftLock_DiscardsWritesOnError(t *testing.T) {
	ctx := context.Background()
	s := New(clockwork.NewFakeClockAt(epoch))
	id := newDraft(t, s)
	boom := errors.New("boom")

	err := s.WithDraftLock(ctx, id, func(tx engine.Tx) error {
		st, err := tx.State(ctx)
		require.NoError(t, err)
		st.Status = models.DraftStatusLive
		require.NoError(t, tx.SaveState(ctx, *st))

		// Reads inside the unit see staged writes.
		again, err := tx.State(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.DraftStatusLive, again.Status)

		require.NoError(t, tx.InsertPick(ctx, models.DraftPick{ID: uuid.New(), DraftID: id, PickNumber: 1, ItemID: uuid.New()}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	view, err := s.LoadView(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusNotStarted, view.State.Status)
	assert.Empty(t, view.Picks)
}

func TestWithDraftLock_UnknownDraft(t *testing.T) {
	s := New(nil)
	err := s.WithDraftLock(context.Background(), uuid.New(), func(tx engine.Tx) error { return nil })
	assert.ErrorIs(t, err, engine.ErrDraftNotFound)

	_, err = s.LoadView(context.Background(), uuid.New())
	assert.ErrorIs(t, err, engine.ErrDraftNotFound)
}

func TestInsertPick_Uniqueness(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	id := newDraft(t, s)
	item := uuid.New()

	require.NoError(t, s.WithDraftLock(ctx, id, func(tx engine.Tx) error {
		return tx.InsertPick(ctx, models.DraftPick{ID: uuid.New(), DraftID: id, PickNumber: 1, ItemID: item})
	}))

	err := s.WithDraftLock(ctx, id, func(tx engine.Tx) error {
		return tx.InsertPick(ctx, models.DraftPick{ID: uuid.New(), DraftID: id, PickNumber: 1, ItemID: uuid.New()})
	})
	assert.ErrorIs(t, err, engine.ErrPickExists)

	// Item availability is decided by grants, not by the pick ledger.
	assert.NoError(t, s.WithDraftLock(ctx, id, func(tx engine.Tx) error {
		return tx.InsertPick(ctx, models.DraftPick{ID: uuid.New(), DraftID: id, PickNumber: 2, ItemID: item})
	}))
}

func TestSaveSchedule_KeepsPickedSlots(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	id := newDraft(t, s)
	a, b := uuid.New(), uuid.New()

	require.NoError(t, s.WithDraftLock(ctx, id, func(tx engine.Tx) error {
		if err := tx.SaveSchedule(ctx, []models.ScheduleSlot{
			{PickNumber: 1, Round: 1, PositionInRound: 1, Seat: 1, ParticipantID: a},
			{PickNumber: 2, Round: 1, PositionInRound: 2, Seat: 2, ParticipantID: b},
		}); err != nil {
			return err
		}
		return tx.InsertPick(ctx, models.DraftPick{ID: uuid.New(), DraftID: id, PickNumber: 1, ParticipantID: a, ItemID: uuid.New()})
	}))

	require.NoError(t, s.WithDraftLock(ctx, id, func(tx engine.Tx) error {
		return tx.SaveSchedule(ctx, []models.ScheduleSlot{
			{PickNumber: 1, Round: 1, PositionInRound: 1, Seat: 2, ParticipantID: b},
			{PickNumber: 2, Round: 1, PositionInRound: 2, Seat: 1, ParticipantID: a},
		})
	}))

	view, err := s.LoadView(ctx, id)
	require.NoError(t, err)
	require.Len(t, view.Schedule, 2)
	assert.Equal(t, a, view.Schedule[0].ParticipantID, "picked slot is immutable")
	assert.Equal(t, a, view.Schedule[1].ParticipantID)
}

func TestListLiveDeadlines(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	first, second, paused := newDraft(t, s), newDraft(t, s), newDraft(t, s)

	setLive := func(id uuid.UUID, status models.DraftStatus, deadline *time.Time) {
		require.NoError(t, s.WithDraftLock(ctx, id, func(tx engine.Tx) error {
			st, err := tx.State(ctx)
			if err != nil {
				return err
			}
			st.Status = status
			st.Deadline = deadline
			return tx.SaveState(ctx, *st)
		}))
	}
	early, late := epoch, epoch.Add(time.Minute)
	setLive(second, models.DraftStatusLive, &late)
	setLive(first, models.DraftStatusLive, &early)
	setLive(paused, models.DraftStatusPaused, nil)

	deadlines, err := s.ListLiveDeadlines(ctx)
	require.NoError(t, err)
	require.Len(t, deadlines, 2)
	assert.Equal(t, first, deadlines[0].DraftID)
	assert.Equal(t, early.Add(5*time.Second), deadlines[0].ExpiresAt)
	assert.Equal(t, second, deadlines[1].DraftID)
}

func TestPoolQueries(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	id := newDraft(t, s)
	p := uuid.New()

	require.NoError(t, s.AddCategory(ctx, id, models.Category{Name: "QB", MaxPerParticipant: 1}))
	assert.Error(t, s.AddItem(ctx, models.PoolItem{ID: uuid.New(), DraftID: id, Category: "RB"}), "unknown category")

	qb := models.PoolItem{ID: uuid.New(), DraftID: id, Name: "QB1", Category: "QB"}
	require.NoError(t, s.AddItem(ctx, qb))
	assert.Error(t, s.AddItem(ctx, qb), "duplicate item")

	require.NoError(t, s.WithDraftLock(ctx, id, func(tx engine.Tx) error {
		return tx.OpenGrant(ctx, models.OwnershipGrant{ID: uuid.New(), DraftID: id, ParticipantID: p, ItemID: qb.ID, AcquiredAt: 3})
	}))

	held, err := s.CountHeld(ctx, id, p, "QB", 2)
	require.NoError(t, err)
	assert.Equal(t, 0, held, "not yet acquired at turn 2")
	held, err = s.CountHeld(ctx, id, p, "QB", 3)
	require.NoError(t, err)
	assert.Equal(t, 1, held)

	avail, err := s.AvailableItems(ctx, id, "QB", 3)
	require.NoError(t, err)
	assert.Empty(t, avail)

	require.NoError(t, s.ReleaseGrant(ctx, id, qb.ID, 5))
	assert.Error(t, s.ReleaseGrant(ctx, id, qb.ID, 6), "already released")

	avail, err = s.AvailableItems(ctx, id, "QB", 5)
	require.NoError(t, err)
	assert.Len(t, avail, 1)

	missing, err := s.Item(ctx, id, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
	cat, err := s.Category(ctx, id, "K")
	require.NoError(t, err)
	assert.Nil(t, cat)
}
