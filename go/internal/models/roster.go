package models

import (
	"time"

	"github.com/google/uuid"
)

// AcquisitionType represents how an item was acquired
type AcquisitionType string

const (
	AcquisitionTypeDraft AcquisitionType = "DRAFT"
	AcquisitionTypeTrade AcquisitionType = "TRADE"
)

// OwnershipGrant records that a participant holds an item from AcquiredAt
// (a turn boundary) until ReleasedAt, if set.
type OwnershipGrant struct {
	ID            uuid.UUID       `json:"id"`
	DraftID       uuid.UUID       `json:"draft_id"`
	ParticipantID uuid.UUID       `json:"participant_id"`
	ItemID        uuid.UUID       `json:"item_id"`
	AcquiredAt    int             `json:"acquired_at"`
	ReleasedAt    *int            `json:"released_at,omitempty"`
	AcquiredVia   AcquisitionType `json:"acquired_via"`
	PickID        *uuid.UUID      `json:"pick_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ActiveAt reports whether the grant holds at turn boundary t.
func (g OwnershipGrant) ActiveAt(t int) bool {
	if g.AcquiredAt > t {
		return false
	}
	return g.ReleasedAt == nil || *g.ReleasedAt > t
}
