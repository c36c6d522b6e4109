package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/lib/pq"
	"github.com/mcdev12/draftturn/go/internal/draft/db"
	"github.com/mcdev12/draftturn/go/internal/draft/engine"
	"github.com/mcdev12/draftturn/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrantMetadataRoundTrip(t *testing.T) {
	pickID := uuid.New()
	raw, err := encodeGrantMetadata(models.OwnershipGrant{PickID: &pickID})
	require.NoError(t, err)
	require.True(t, raw.Valid)

	got, err := decodeGrantMetadata(raw)
	require.NoError(t, err)
	assert.Equal(t, pickID, *got)

	empty, err := encodeGrantMetadata(models.OwnershipGrant{})
	require.NoError(t, err)
	assert.False(t, empty.Valid)

	got, err = decodeGrantMetadata(empty)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestIsUniqueViolation(t *testing.T) {
	dup := &pq.Error{Code: "23505"}
	assert.True(t, isUniqueViolation(dup))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", dup)))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(sql.ErrNoRows))
	assert.False(t, isUniqueViolation(nil))
}

func TestDbDraftToModel(t *testing.T) {
	cfg := models.DraftConfiguration{
		Participants:     4,
		Rounds:           2,
		Mode:             models.OrderingModeSnake,
		SelectionSeconds: 60,
		GraceSeconds:     2,
		TimeoutPolicy:    models.TimeoutPolicyAutoSelect,
	}
	raw, err := json.Marshal(cfg)
	require.NoError(t, err)

	d, err := dbDraftToModel(db.Draft{ID: uuid.New(), Name: "mock", Config: raw, CreatedAt: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, cfg, d.Config)

	_, err = dbDraftToModel(db.Draft{Config: json.RawMessage(`{`)})
	assert.Error(t, err)
}

func TestDbItemToModelOpenCategory(t *testing.T) {
	item := dbItemToModel(db.PoolItem{ID: uuid.New(), Name: "Free Agent"})
	assert.Equal(t, models.OpenCategory, item.Category)

	item = dbItemToModel(db.PoolItem{Name: "QB1", Category: sql.NullString{String: "QB", Valid: true}})
	assert.Equal(t, "QB", item.Category)
}

var stateColumns = []string{
	"draft_id", "status", "current_pick_number", "current_participant", "deadline",
	"grace_seconds", "started_at", "completed_at", "updated_at",
}

const lockQuery = "FROM draft_state WHERE draft_id = $1 FOR UPDATE"

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewRepository(conn, clockwork.NewFakeClock()), mock
}

func expectLock(mock sqlmock.Sqlmock, draftID uuid.UUID) {
	mock.ExpectQuery(regexp.QuoteMeta(lockQuery)).
		WithArgs(draftID.String()).
		WillReturnRows(sqlmock.NewRows(stateColumns).
			AddRow(draftID.String(), "LIVE", 1, nil, nil, 2, nil, nil, time.Now()))
}

func TestWithDraftLock(t *testing.T) {
	ctx := context.Background()

	t.Run("missing state row is not found", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		draftID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(lockQuery)).
			WithArgs(draftID.String()).
			WillReturnRows(sqlmock.NewRows(stateColumns))
		mock.ExpectRollback()

		called := false
		err := repo.WithDraftLock(ctx, draftID, func(tx engine.Tx) error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, engine.ErrDraftNotFound)
		assert.False(t, called)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate pick number rolls back as pick exists", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		draftID := uuid.New()

		mock.ExpectBegin()
		expectLock(mock, draftID)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO draft_picks")).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "draft_picks_draft_id_pick_number_key"})
		mock.ExpectRollback()

		err := repo.WithDraftLock(ctx, draftID, func(tx engine.Tx) error {
			return tx.InsertPick(ctx, models.DraftPick{
				ID:         uuid.New(),
				DraftID:    draftID,
				PickNumber: 1,
				ItemID:     uuid.New(),
				PickedAt:   time.Now(),
			})
		})
		assert.ErrorIs(t, err, engine.ErrPickExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other insert errors pass through", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		draftID := uuid.New()

		mock.ExpectBegin()
		expectLock(mock, draftID)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO draft_picks")).
			WillReturnError(&pq.Error{Code: "23503"})
		mock.ExpectRollback()

		err := repo.WithDraftLock(ctx, draftID, func(tx engine.Tx) error {
			return tx.InsertPick(ctx, models.DraftPick{ID: uuid.New(), DraftID: draftID, PickNumber: 1, PickedAt: time.Now()})
		})
		require.Error(t, err)
		assert.NotErrorIs(t, err, engine.ErrPickExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success commits", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		draftID := uuid.New()

		mock.ExpectBegin()
		expectLock(mock, draftID)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE draft_state")).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.WithDraftLock(ctx, draftID, func(tx engine.Tx) error {
			return tx.SaveState(ctx, models.DraftState{
				DraftID:           draftID,
				Status:            models.DraftStatusPaused,
				CurrentPickNumber: 1,
				UpdatedAt:         time.Now(),
			})
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSaveSchedule_GuardsPickedSlots(t *testing.T) {
	ctx := context.Background()
	repo, mock := newMockRepository(t)
	draftID := uuid.New()
	participant := uuid.New()

	// Picked slots are protected in SQL: the upsert only updates rows with no pick.
	upsert := regexp.QuoteMeta("ON CONFLICT (draft_id, pick_number) DO UPDATE") + ".*" +
		regexp.QuoteMeta("WHERE NOT EXISTS ( SELECT 1 FROM draft_picks p")

	mock.ExpectBegin()
	expectLock(mock, draftID)
	for n := 1; n <= 2; n++ {
		mock.ExpectExec(upsert).
			WithArgs(draftID.String(), n, 1, n, n, participant.String()).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	err := repo.WithDraftLock(ctx, draftID, func(tx engine.Tx) error {
		return tx.SaveSchedule(ctx, []models.ScheduleSlot{
			{PickNumber: 1, Round: 1, PositionInRound: 1, Seat: 1, ParticipantID: participant},
			{PickNumber: 2, Round: 1, PositionInRound: 2, Seat: 2, ParticipantID: participant},
		})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadView_NotFound(t *testing.T) {
	repo, mock := newMockRepository(t)
	draftID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM drafts WHERE id = $1")).
		WithArgs(draftID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "config", "created_at", "updated_at"}))
	mock.ExpectRollback()

	_, err := repo.LoadView(context.Background(), draftID)
	assert.ErrorIs(t, err, engine.ErrDraftNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
