package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/draftturn/go/internal/draft/engine"
	"github.com/mcdev12/draftturn/go/internal/draft/memstore"
	"github.com/mcdev12/draftturn/go/internal/eligibility"
	"github.com/mcdev12/draftturn/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 9, 6, 17, 0, 0, 0, time.UTC)

type rpcFixture struct {
	ctx    context.Context
	clock  *clockwork.FakeClock
	store  *memstore.Store
	client *Client
}

func newRPCFixture(t *testing.T) *rpcFixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(epoch)
	store := memstore.New(clock)
	eng := engine.New(store, eligibility.NewCategoryCapChecker(store), engine.WithClock(clock))

	mux := http.NewServeMux()
	mux.Handle(NewHandler(NewService(eng, store, clock)))
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &rpcFixture{
		ctx:    context.Background(),
		clock:  clock,
		store:  store,
		client: NewClient(server.Client(), server.URL),
	}
}

func rpcConfig(policy models.TimeoutPolicy) models.DraftConfiguration {
	return models.DraftConfiguration{
		Participants:     2,
		Rounds:           2,
		Mode:             models.OrderingModeSnake,
		SelectionSeconds: 30,
		GraceSeconds:     1,
		TimeoutPolicy:    policy,
	}
}

// createStarted creates and starts a seated two-participant draft with two open items.
func (f *rpcFixture) createStarted(t *testing.T, policy models.TimeoutPolicy) (*models.Draft, []uuid.UUID, []uuid.UUID) {
	t.Helper()
	participants := []uuid.UUID{uuid.New(), uuid.New()}
	draft, err := f.client.CreateDraft(f.ctx, engine.CreateDraftRequest{
		Name:         "rpc draft",
		Config:       rpcConfig(policy),
		Participants: participants,
	})
	require.NoError(t, err)

	items := []uuid.UUID{uuid.New(), uuid.New()}
	for _, id := range items {
		require.NoError(t, f.store.AddItem(f.ctx, models.PoolItem{ID: id, DraftID: draft.ID, Name: "item", CreatedAt: epoch}))
	}

	state, err := f.client.StartDraft(f.ctx, draft.ID)
	require.NoError(t, err)
	require.Equal(t, models.DraftStatusLive, state.Status)
	return draft, participants, items
}

func TestService_PickFlow(t *testing.T) {
	f := newRPCFixture(t)
	draft, participants, items := f.createStarted(t, models.TimeoutPolicyAutoSkip)

	res, err := f.client.SubmitPick(f.ctx, engine.PickRequest{DraftID: draft.ID, ParticipantID: participants[0], ItemID: items[0]})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pick.PickNumber)
	assert.Equal(t, 2, res.State.CurrentPickNumber)
	assert.False(t, res.Complete)

	snap, err := f.client.GetSnapshot(f.ctx, draft.ID)
	require.NoError(t, err)
	require.Len(t, snap.Picks, 1)
	require.NotNil(t, snap.OnTheClock)
	assert.Equal(t, participants[1], snap.OnTheClock.ParticipantID)
	assert.True(t, snap.ServerTime.Equal(epoch))
}

func TestService_RejectionsRoundTrip(t *testing.T) {
	f := newRPCFixture(t)
	draft, participants, items := f.createStarted(t, models.TimeoutPolicyAutoSkip)

	_, err := f.client.SubmitPick(f.ctx, engine.PickRequest{DraftID: draft.ID, ParticipantID: participants[1], ItemID: items[0]})
	require.ErrorIs(t, err, engine.ErrNotYourTurn)
	var rej *engine.Rejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, draft.ID, rej.DraftID)
	assert.NotEmpty(t, rej.Reason)
	assert.NotContains(t, rej.Reason, string(engine.KindNotYourTurn))
	assert.Equal(t, 1, strings.Count(err.Error(), draft.ID.String()), "draft prefix appears once: %s", err)

	_, err = f.client.ResumeDraft(f.ctx, draft.ID)
	assert.ErrorIs(t, err, engine.ErrNotPaused)

	_, err = f.client.GetSnapshot(f.ctx, uuid.New())
	assert.ErrorIs(t, err, engine.ErrNotFound)

	_, err = f.client.CreateDraft(f.ctx, engine.CreateDraftRequest{Name: "bad", Config: models.DraftConfiguration{}})
	assert.ErrorIs(t, err, engine.ErrInvalidConfiguration)
}

func TestService_MissingDraftID(t *testing.T) {
	f := newRPCFixture(t)

	_, err := f.client.StartDraft(f.ctx, uuid.Nil)
	require.Error(t, err)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
	assert.Empty(t, engine.KindOf(err))
}

func TestService_RemoteResolver(t *testing.T) {
	f := newRPCFixture(t)
	draft, participants, _ := f.createStarted(t, models.TimeoutPolicyAutoSkip)

	deadlines, err := f.client.LiveDeadlines(f.ctx)
	require.NoError(t, err)
	require.Len(t, deadlines, 1)
	assert.Equal(t, draft.ID, deadlines[0].DraftID)
	assert.True(t, deadlines[0].ExpiresAt.Equal(epoch.Add(31*time.Second)))

	res, err := f.client.ResolveTimeout(f.ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.ActionNone, res.Action)

	f.clock.Advance(32 * time.Second)
	res, err = f.client.ResolveTimeout(f.ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.ActionAutoSkip, res.Action)
	assert.Equal(t, participants[0], res.ParticipantID)
	assert.Equal(t, 1, res.State.CurrentPickNumber)
}

func TestService_PoolWrites(t *testing.T) {
	f := newRPCFixture(t)
	participants := []uuid.UUID{uuid.New(), uuid.New()}
	draft, err := f.client.CreateDraft(f.ctx, engine.CreateDraftRequest{
		Name:         "pool draft",
		Config:       rpcConfig(models.TimeoutPolicyAutoSelect),
		Participants: participants,
	})
	require.NoError(t, err)

	require.NoError(t, f.client.AddCategory(f.ctx, draft.ID, models.Category{Name: "QB", MaxPerParticipant: 1}))
	require.NoError(t, f.client.AddItem(f.ctx, models.PoolItem{DraftID: draft.ID, Name: "Mahomes", Category: "QB"}))

	cats, err := f.store.Categories(f.ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Category{{Name: "QB", MaxPerParticipant: 1}}, cats)

	items, err := f.store.AvailableItems(f.ctx, draft.ID, "QB", 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.NotEqual(t, uuid.Nil, items[0].ID)
	assert.True(t, items[0].CreatedAt.Equal(epoch))

	err = f.client.AddItem(f.ctx, models.PoolItem{DraftID: draft.ID, Name: "Nobody", Category: "WR"})
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))

	err = f.client.AddCategory(f.ctx, uuid.New(), models.Category{Name: "QB"})
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	err = f.client.AddItem(f.ctx, models.PoolItem{DraftID: draft.ID})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestService_PoolWritesUnavailable(t *testing.T) {
	svc := NewService(nil, nil, nil)
	_, err := svc.AddItem(context.Background(), connect.NewRequest(&AddItemRequest{}))
	assert.Equal(t, connect.CodeUnimplemented, connect.CodeOf(err))
}

func TestToConnectError(t *testing.T) {
	draftID := uuid.New()
	tests := []struct {
		kind engine.RejectionKind
		code connect.Code
	}{
		{engine.KindNotFound, connect.CodeNotFound},
		{engine.KindNotYourTurn, connect.CodePermissionDenied},
		{engine.KindWindowExpired, connect.CodeDeadlineExceeded},
		{engine.KindAlreadyClaimed, connect.CodeAlreadyExists},
		{engine.KindConflict, connect.CodeAborted},
		{engine.KindNotEligible, connect.CodeFailedPrecondition},
		{engine.KindNotLive, connect.CodeFailedPrecondition},
		{engine.KindInvalidSeating, connect.CodeInvalidArgument},
		{engine.KindScheduleCorrupt, connect.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := toConnectError(&engine.Rejection{Kind: tt.kind, DraftID: draftID})
			var connectErr *connect.Error
			require.ErrorAs(t, err, &connectErr)
			assert.Equal(t, tt.code, connectErr.Code())
			assert.Equal(t, string(tt.kind), connectErr.Meta().Get(RejectionKindHeader))

			back := fromConnectError(err, draftID)
			assert.Equal(t, tt.kind, engine.KindOf(back))
		})
	}

	t.Run("reason survives without the prefix", func(t *testing.T) {
		rej := &engine.Rejection{Kind: engine.KindNotEligible, DraftID: draftID, Reason: "category SEC limit reached (2/2)"}
		err := toConnectError(rej)

		back := fromConnectError(err, draftID)
		var got *engine.Rejection
		require.ErrorAs(t, back, &got)
		assert.Equal(t, rej.Reason, got.Reason)
		assert.Equal(t, rej.Error(), got.Error())
	})

	t.Run("plain error", func(t *testing.T) {
		err := toConnectError(errors.New("disk on fire"))
		assert.Equal(t, connect.CodeInternal, connect.CodeOf(err))
		assert.Empty(t, engine.KindOf(fromConnectError(err, draftID)))
	})
}
