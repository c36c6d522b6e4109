package models

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleSlot assigns one overall pick number to a participant.
type ScheduleSlot struct {
	PickNumber      int       `json:"pick_number"`
	Round           int       `json:"round"`
	PositionInRound int       `json:"position_in_round"`
	Seat            int       `json:"seat"`
	ParticipantID   uuid.UUID `json:"participant_id"`
}

// TurnSchedule is ordered by pick number, starting at 1.
type TurnSchedule []ScheduleSlot

// Slot returns the slot for pick number n.
func (s TurnSchedule) Slot(n int) (ScheduleSlot, bool) {
	if n < 1 || n > len(s) || s[n-1].PickNumber != n {
		for _, slot := range s {
			if slot.PickNumber == n {
				return slot, true
			}
		}
		return ScheduleSlot{}, false
	}
	return s[n-1], true
}

// DraftPick represents a committed pick. Picks are append-only.
type DraftPick struct {
	ID              uuid.UUID `json:"id"`
	DraftID         uuid.UUID `json:"draft_id"`
	PickNumber      int       `json:"pick_number"`
	Round           int       `json:"round"`
	PositionInRound int       `json:"position_in_round"`
	ParticipantID   uuid.UUID `json:"participant_id"`
	ItemID          uuid.UUID `json:"item_id"`
	AutoPicked      bool      `json:"auto_picked"`
	PickedAt        time.Time `json:"picked_at"`
}
