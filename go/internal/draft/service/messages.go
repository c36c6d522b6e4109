package service

import (
	"github.com/google/uuid"
	"github.com/mcdev12/draftturn/go/internal/draft/engine"
	"github.com/mcdev12/draftturn/go/internal/models"
)

type CreateDraftRequest struct {
	Name         string                    `json:"name"`
	Config       models.DraftConfiguration `json:"config"`
	Participants []uuid.UUID               `json:"participants,omitempty"`
}

type CreateDraftResponse struct {
	Draft models.Draft `json:"draft"`
}

type SetSeatingRequest struct {
	DraftID      uuid.UUID   `json:"draft_id"`
	Participants []uuid.UUID `json:"participants"`
}

type SetSeatingResponse struct {
	Seating []models.Seat `json:"seating"`
}

// DraftRequest addresses a single draft. StartDraft, PauseDraft, ResumeDraft,
// GetSnapshot and ResolveTimeout all take it.
type DraftRequest struct {
	DraftID uuid.UUID `json:"draft_id"`
}

type DraftStateResponse struct {
	State models.DraftState `json:"state"`
}

type SubmitPickRequest struct {
	DraftID       uuid.UUID `json:"draft_id"`
	ParticipantID uuid.UUID `json:"participant_id"`
	ItemID        uuid.UUID `json:"item_id"`
}

type SubmitPickResponse struct {
	Result engine.CommitResult `json:"result"`
}

type GetSnapshotResponse struct {
	Snapshot engine.Snapshot `json:"snapshot"`
}

type ListLiveDeadlinesRequest struct{}

type ListLiveDeadlinesResponse struct {
	Deadlines []models.LiveDeadline `json:"deadlines"`
}

type ResolveTimeoutResponse struct {
	Resolution engine.Resolution `json:"resolution"`
}

type AddCategoryRequest struct {
	DraftID  uuid.UUID       `json:"draft_id"`
	Category models.Category `json:"category"`
}

type AddCategoryResponse struct{}

type AddItemRequest struct {
	Item models.PoolItem `json:"item"`
}

type AddItemResponse struct {
	Item models.PoolItem `json:"item"`
}
