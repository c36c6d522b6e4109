// Package service exposes the draft engine as a connect RPC service,
// draft.v1.DraftService, with JSON-encoded messages.
package service

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/draftturn/go/internal/draft/engine"
	"github.com/mcdev12/draftturn/go/internal/models"
)

const ServiceName = "draft.v1.DraftService"

const (
	CreateDraftProcedure       = "/" + ServiceName + "/CreateDraft"
	SetSeatingProcedure        = "/" + ServiceName + "/SetSeating"
	StartDraftProcedure        = "/" + ServiceName + "/StartDraft"
	PauseDraftProcedure        = "/" + ServiceName + "/PauseDraft"
	ResumeDraftProcedure       = "/" + ServiceName + "/ResumeDraft"
	SubmitPickProcedure        = "/" + ServiceName + "/SubmitPick"
	GetSnapshotProcedure       = "/" + ServiceName + "/GetSnapshot"
	ListLiveDeadlinesProcedure = "/" + ServiceName + "/ListLiveDeadlines"
	ResolveTimeoutProcedure    = "/" + ServiceName + "/ResolveTimeout"
	AddCategoryProcedure       = "/" + ServiceName + "/AddCategory"
	AddItemProcedure           = "/" + ServiceName + "/AddItem"
)

var errMissingDraftID = errors.New("draft_id is required")

// DraftEngine is what the RPC layer needs from the engine.
type DraftEngine interface {
	CreateDraft(ctx context.Context, req engine.CreateDraftRequest) (*models.Draft, error)
	SetSeating(ctx context.Context, draftID uuid.UUID, participants []uuid.UUID) ([]models.Seat, error)
	StartDraft(ctx context.Context, draftID uuid.UUID) (*models.DraftState, error)
	PauseDraft(ctx context.Context, draftID uuid.UUID) (*models.DraftState, error)
	ResumeDraft(ctx context.Context, draftID uuid.UUID) (*models.DraftState, error)
	SubmitPick(ctx context.Context, req engine.PickRequest) (*engine.CommitResult, error)
	GetSnapshot(ctx context.Context, draftID uuid.UUID) (*engine.Snapshot, error)
	LiveDeadlines(ctx context.Context) ([]models.LiveDeadline, error)
	ResolveTimeout(ctx context.Context, draftID uuid.UUID) (*engine.Resolution, error)
}

var _ DraftEngine = (*engine.Engine)(nil)

// PoolWriter adds categories and items to a draft's pool.
type PoolWriter interface {
	AddCategory(ctx context.Context, draftID uuid.UUID, cat models.Category) error
	AddItem(ctx context.Context, item models.PoolItem) error
}

// Service implements DraftService on top of the engine
type Service struct {
	engine DraftEngine
	pool   PoolWriter
	clock  clockwork.Clock
}

// NewService creates the RPC service. pool may be nil, which leaves the pool
// procedures unimplemented.
func NewService(eng DraftEngine, pool PoolWriter, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{engine: eng, pool: pool, clock: clock}
}

// NewHandler returns the path prefix and handler serving every DraftService procedure.
func NewHandler(svc *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)
	mux := http.NewServeMux()
	mux.Handle(CreateDraftProcedure, connect.NewUnaryHandler(CreateDraftProcedure, svc.CreateDraft, opts...))
	mux.Handle(SetSeatingProcedure, connect.NewUnaryHandler(SetSeatingProcedure, svc.SetSeating, opts...))
	mux.Handle(StartDraftProcedure, connect.NewUnaryHandler(StartDraftProcedure, svc.StartDraft, opts...))
	mux.Handle(PauseDraftProcedure, connect.NewUnaryHandler(PauseDraftProcedure, svc.PauseDraft, opts...))
	mux.Handle(ResumeDraftProcedure, connect.NewUnaryHandler(ResumeDraftProcedure, svc.ResumeDraft, opts...))
	mux.Handle(SubmitPickProcedure, connect.NewUnaryHandler(SubmitPickProcedure, svc.SubmitPick, opts...))
	mux.Handle(GetSnapshotProcedure, connect.NewUnaryHandler(GetSnapshotProcedure, svc.GetSnapshot, opts...))
	mux.Handle(ListLiveDeadlinesProcedure, connect.NewUnaryHandler(ListLiveDeadlinesProcedure, svc.ListLiveDeadlines, opts...))
	mux.Handle(ResolveTimeoutProcedure, connect.NewUnaryHandler(ResolveTimeoutProcedure, svc.ResolveTimeout, opts...))
	mux.Handle(AddCategoryProcedure, connect.NewUnaryHandler(AddCategoryProcedure, svc.AddCategory, opts...))
	mux.Handle(AddItemProcedure, connect.NewUnaryHandler(AddItemProcedure, svc.AddItem, opts...))
	return "/" + ServiceName + "/", mux
}

func (s *Service) CreateDraft(ctx context.Context, req *connect.Request[CreateDraftRequest]) (*connect.Response[CreateDraftResponse], error) {
	draft, err := s.engine.CreateDraft(ctx, engine.CreateDraftRequest{
		Name:         req.Msg.Name,
		Config:       req.Msg.Config,
		Participants: req.Msg.Participants,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&CreateDraftResponse{Draft: *draft}), nil
}

func (s *Service) SetSeating(ctx context.Context, req *connect.Request[SetSeatingRequest]) (*connect.Response[SetSeatingResponse], error) {
	if req.Msg.DraftID == uuid.Nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, errMissingDraftID)
	}
	seating, err := s.engine.SetSeating(ctx, req.Msg.DraftID, req.Msg.Participants)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&SetSeatingResponse{Seating: seating}), nil
}

func (s *Service) StartDraft(ctx context.Context, req *connect.Request[DraftRequest]) (*connect.Response[DraftStateResponse], error) {
	return s.transition(ctx, req.Msg, s.engine.StartDraft)
}

func (s *Service) PauseDraft(ctx context.Context, req *connect.Request[DraftRequest]) (*connect.Response[DraftStateResponse], error) {
	return s.transition(ctx, req.Msg, s.engine.PauseDraft)
}

func (s *Service) ResumeDraft(ctx context.Context, req *connect.Request[DraftRequest]) (*connect.Response[DraftStateResponse], error) {
	return s.transition(ctx, req.Msg, s.engine.ResumeDraft)
}

func (s *Service) transition(
	ctx context.Context,
	msg *DraftRequest,
	fn func(context.Context, uuid.UUID) (*models.DraftState, error),
) (*connect.Response[DraftStateResponse], error) {
	if msg.DraftID == uuid.Nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, errMissingDraftID)
	}
	state, err := fn(ctx, msg.DraftID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&DraftStateResponse{State: *state}), nil
}

func (s *Service) SubmitPick(ctx context.Context, req *connect.Request[SubmitPickRequest]) (*connect.Response[SubmitPickResponse], error) {
	if req.Msg.DraftID == uuid.Nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, errMissingDraftID)
	}
	if req.Msg.ParticipantID == uuid.Nil || req.Msg.ItemID == uuid.Nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("participant_id and item_id are required"))
	}
	res, err := s.engine.SubmitPick(ctx, engine.PickRequest{
		DraftID:       req.Msg.DraftID,
		ParticipantID: req.Msg.ParticipantID,
		ItemID:        req.Msg.ItemID,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&SubmitPickResponse{Result: *res}), nil
}

func (s *Service) GetSnapshot(ctx context.Context, req *connect.Request[DraftRequest]) (*connect.Response[GetSnapshotResponse], error) {
	if req.Msg.DraftID == uuid.Nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, errMissingDraftID)
	}
	snap, err := s.engine.GetSnapshot(ctx, req.Msg.DraftID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GetSnapshotResponse{Snapshot: *snap}), nil
}

func (s *Service) ListLiveDeadlines(ctx context.Context, req *connect.Request[ListLiveDeadlinesRequest]) (*connect.Response[ListLiveDeadlinesResponse], error) {
	deadlines, err := s.engine.LiveDeadlines(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ListLiveDeadlinesResponse{Deadlines: deadlines}), nil
}

func (s *Service) ResolveTimeout(ctx context.Context, req *connect.Request[DraftRequest]) (*connect.Response[ResolveTimeoutResponse], error) {
	if req.Msg.DraftID == uuid.Nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, errMissingDraftID)
	}
	res, err := s.engine.ResolveTimeout(ctx, req.Msg.DraftID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ResolveTimeoutResponse{Resolution: *res}), nil
}

var errPoolUnavailable = errors.New("pool writes are not available on this server")

// AddCategory registers a category with its per-participant cap.
func (s *Service) AddCategory(ctx context.Context, req *connect.Request[AddCategoryRequest]) (*connect.Response[AddCategoryResponse], error) {
	if s.pool == nil {
		return nil, connect.NewError(connect.CodeUnimplemented, errPoolUnavailable)
	}
	if req.Msg.DraftID == uuid.Nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, errMissingDraftID)
	}
	if req.Msg.Category.Name == models.OpenCategory {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("category name is required"))
	}
	if err := s.pool.AddCategory(ctx, req.Msg.DraftID, req.Msg.Category); err != nil {
		return nil, poolError(err)
	}
	return connect.NewResponse(&AddCategoryResponse{}), nil
}

// AddItem puts an item in a draft's pool. A missing ID is generated.
func (s *Service) AddItem(ctx context.Context, req *connect.Request[AddItemRequest]) (*connect.Response[AddItemResponse], error) {
	if s.pool == nil {
		return nil, connect.NewError(connect.CodeUnimplemented, errPoolUnavailable)
	}
	item := req.Msg.Item
	if item.DraftID == uuid.Nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, errMissingDraftID)
	}
	if item.Name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("item name is required"))
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = s.clock.Now().UTC()
	}
	if err := s.pool.AddItem(ctx, item); err != nil {
		return nil, poolError(err)
	}
	return connect.NewResponse(&AddItemResponse{Item: item}), nil
}

func poolError(err error) error {
	if errors.Is(err, engine.ErrDraftNotFound) {
		return connect.NewError(connect.CodeNotFound, err)
	}
	return connect.NewError(connect.CodeFailedPrecondition, err)
}
