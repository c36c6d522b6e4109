package service

import (
	"context"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/mcdev12/draftturn/go/internal/draft/engine"
	"github.com/mcdev12/draftturn/go/internal/models"
)

// Client calls a remote DraftService. Rejections come back as *engine.Rejection,
// so a Client can stand in for the engine, including as an orchestrator.Resolver.
type Client struct {
	createDraft       *connect.Client[CreateDraftRequest, CreateDraftResponse]
	setSeating        *connect.Client[SetSeatingRequest, SetSeatingResponse]
	startDraft        *connect.Client[DraftRequest, DraftStateResponse]
	pauseDraft        *connect.Client[DraftRequest, DraftStateResponse]
	resumeDraft       *connect.Client[DraftRequest, DraftStateResponse]
	submitPick        *connect.Client[SubmitPickRequest, SubmitPickResponse]
	getSnapshot       *connect.Client[DraftRequest, GetSnapshotResponse]
	listLiveDeadlines *connect.Client[ListLiveDeadlinesRequest, ListLiveDeadlinesResponse]
	resolveTimeout    *connect.Client[DraftRequest, ResolveTimeoutResponse]
	addCategory       *connect.Client[AddCategoryRequest, AddCategoryResponse]
	addItem           *connect.Client[AddItemRequest, AddItemResponse]
}

var (
	_ DraftEngine = (*Client)(nil)
	_ PoolWriter  = (*Client)(nil)
)

func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return &Client{
		createDraft:       connect.NewClient[CreateDraftRequest, CreateDraftResponse](httpClient, baseURL+CreateDraftProcedure, opts...),
		setSeating:        connect.NewClient[SetSeatingRequest, SetSeatingResponse](httpClient, baseURL+SetSeatingProcedure, opts...),
		startDraft:        connect.NewClient[DraftRequest, DraftStateResponse](httpClient, baseURL+StartDraftProcedure, opts...),
		pauseDraft:        connect.NewClient[DraftRequest, DraftStateResponse](httpClient, baseURL+PauseDraftProcedure, opts...),
		resumeDraft:       connect.NewClient[DraftRequest, DraftStateResponse](httpClient, baseURL+ResumeDraftProcedure, opts...),
		submitPick:        connect.NewClient[SubmitPickRequest, SubmitPickResponse](httpClient, baseURL+SubmitPickProcedure, opts...),
		getSnapshot:       connect.NewClient[DraftRequest, GetSnapshotResponse](httpClient, baseURL+GetSnapshotProcedure, opts...),
		listLiveDeadlines: connect.NewClient[ListLiveDeadlinesRequest, ListLiveDeadlinesResponse](httpClient, baseURL+ListLiveDeadlinesProcedure, opts...),
		resolveTimeout:    connect.NewClient[DraftRequest, ResolveTimeoutResponse](httpClient, baseURL+ResolveTimeoutProcedure, opts...),
		addCategory:       connect.NewClient[AddCategoryRequest, AddCategoryResponse](httpClient, baseURL+AddCategoryProcedure, opts...),
		addItem:           connect.NewClient[AddItemRequest, AddItemResponse](httpClient, baseURL+AddItemProcedure, opts...),
	}
}

func (c *Client) CreateDraft(ctx context.Context, req engine.CreateDraftRequest) (*models.Draft, error) {
	resp, err := c.createDraft.CallUnary(ctx, connect.NewRequest(&CreateDraftRequest{
		Name:         req.Name,
		Config:       req.Config,
		Participants: req.Participants,
	}))
	if err != nil {
		return nil, fromConnectError(err, uuid.Nil)
	}
	return &resp.Msg.Draft, nil
}

func (c *Client) SetSeating(ctx context.Context, draftID uuid.UUID, participants []uuid.UUID) ([]models.Seat, error) {
	resp, err := c.setSeating.CallUnary(ctx, connect.NewRequest(&SetSeatingRequest{DraftID: draftID, Participants: participants}))
	if err != nil {
		return nil, fromConnectError(err, draftID)
	}
	return resp.Msg.Seating, nil
}

func (c *Client) StartDraft(ctx context.Context, draftID uuid.UUID) (*models.DraftState, error) {
	return callState(ctx, c.startDraft, draftID)
}

func (c *Client) PauseDraft(ctx context.Context, draftID uuid.UUID) (*models.DraftState, error) {
	return callState(ctx, c.pauseDraft, draftID)
}

func (c *Client) ResumeDraft(ctx context.Context, draftID uuid.UUID) (*models.DraftState, error) {
	return callState(ctx, c.resumeDraft, draftID)
}

func callState(ctx context.Context, client *connect.Client[DraftRequest, DraftStateResponse], draftID uuid.UUID) (*models.DraftState, error) {
	resp, err := client.CallUnary(ctx, connect.NewRequest(&DraftRequest{DraftID: draftID}))
	if err != nil {
		return nil, fromConnectError(err, draftID)
	}
	return &resp.Msg.State, nil
}

// SubmitPick ignores req.Now; the server clock decides.
func (c *Client) SubmitPick(ctx context.Context, req engine.PickRequest) (*engine.CommitResult, error) {
	resp, err := c.submitPick.CallUnary(ctx, connect.NewRequest(&SubmitPickRequest{
		DraftID:       req.DraftID,
		ParticipantID: req.ParticipantID,
		ItemID:        req.ItemID,
	}))
	if err != nil {
		return nil, fromConnectError(err, req.DraftID)
	}
	return &resp.Msg.Result, nil
}

func (c *Client) GetSnapshot(ctx context.Context, draftID uuid.UUID) (*engine.Snapshot, error) {
	resp, err := c.getSnapshot.CallUnary(ctx, connect.NewRequest(&DraftRequest{DraftID: draftID}))
	if err != nil {
		return nil, fromConnectError(err, draftID)
	}
	return &resp.Msg.Snapshot, nil
}

func (c *Client) LiveDeadlines(ctx context.Context) ([]models.LiveDeadline, error) {
	resp, err := c.listLiveDeadlines.CallUnary(ctx, connect.NewRequest(&ListLiveDeadlinesRequest{}))
	if err != nil {
		return nil, fromConnectError(err, uuid.Nil)
	}
	return resp.Msg.Deadlines, nil
}

func (c *Client) ResolveTimeout(ctx context.Context, draftID uuid.UUID) (*engine.Resolution, error) {
	resp, err := c.resolveTimeout.CallUnary(ctx, connect.NewRequest(&DraftRequest{DraftID: draftID}))
	if err != nil {
		return nil, fromConnectError(err, draftID)
	}
	return &resp.Msg.Resolution, nil
}

func (c *Client) AddCategory(ctx context.Context, draftID uuid.UUID, cat models.Category) error {
	_, err := c.addCategory.CallUnary(ctx, connect.NewRequest(&AddCategoryRequest{DraftID: draftID, Category: cat}))
	return err
}

func (c *Client) AddItem(ctx context.Context, item models.PoolItem) error {
	_, err := c.addItem.CallUnary(ctx, connect.NewRequest(&AddItemRequest{Item: item}))
	return err
}
