package gateway

import (
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/draftturn/go/internal/draft/engine"
	"github.com/mcdev12/draftturn/go/internal/draft/events"
)

// MessageType is the type tag of a websocket message.
type MessageType string

const (
	MessageTypeSnapshot MessageType = "draft:snapshot" // sent once on join
	MessageTypeUpdated  MessageType = "draft:updated"  // sent after every change
	MessageTypeError    MessageType = "draft:error"
)

// Message is the only frame the gateway writes to clients.
type Message struct {
	Type     MessageType      `json:"type"`
	DraftID  uuid.UUID        `json:"draftId"`
	Reason   events.Reason    `json:"reason,omitempty"`
	Snapshot *engine.Snapshot `json:"snapshot,omitempty"`
	Error    string           `json:"error,omitempty"`
	SentAt   time.Time        `json:"sentAt"`
}

func snapshotMessage(snap *engine.Snapshot, at time.Time) *Message {
	return &Message{
		Type:     MessageTypeSnapshot,
		DraftID:  snap.Draft.ID,
		Snapshot: snap,
		SentAt:   at,
	}
}

func updatedMessage(evt events.ChangeEvent, snap *engine.Snapshot, at time.Time) *Message {
	return &Message{
		Type:     MessageTypeUpdated,
		DraftID:  evt.DraftID,
		Reason:   evt.Reason,
		Snapshot: snap,
		SentAt:   at,
	}
}

func errorMessage(draftID uuid.UUID, err error, at time.Time) *Message {
	return &Message{
		Type:    MessageTypeError,
		DraftID: draftID,
		Error:   err.Error(),
		SentAt:  at,
	}
}
