package events

import (
	"time"

	"github.com/google/uuid"
)

// Reason says which mutation produced a change event.
type Reason string

const (
	ReasonCreated  Reason = "created"
	ReasonSeating  Reason = "seating"
	ReasonStart    Reason = "start"
	ReasonPause    Reason = "pause"
	ReasonResume   Reason = "resume"
	ReasonPick     Reason = "pick"
	ReasonAutoPick Reason = "auto-pick"
	ReasonAutoSkip Reason = "auto-skip"
)

// ChangeEvent is published after every committed mutation of a draft.
// It carries no state; listeners re-read the snapshot.
type ChangeEvent struct {
	ID         uuid.UUID `json:"eventId"`
	DraftID    uuid.UUID `json:"draftId"`
	Reason     Reason    `json:"reason"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewChangeEvent stamps a change event with a fresh ID.
func NewChangeEvent(draftID uuid.UUID, reason Reason, at time.Time) ChangeEvent {
	return ChangeEvent{
		ID:         uuid.New(),
		DraftID:    draftID,
		Reason:     reason,
		OccurredAt: at.UTC(),
	}
}
