package db

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

type Draft struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Config    json.RawMessage `json:"config"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type DraftState struct {
	DraftID            uuid.UUID     `json:"draft_id"`
	Status             string        `json:"status"`
	CurrentPickNumber  int32         `json:"current_pick_number"`
	CurrentParticipant uuid.NullUUID `json:"current_participant"`
	Deadline           sql.NullTime  `json:"deadline"`
	GraceSeconds       int32         `json:"grace_seconds"`
	StartedAt          sql.NullTime  `json:"started_at"`
	CompletedAt        sql.NullTime  `json:"completed_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

type DraftSeat struct {
	DraftID       uuid.UUID `json:"draft_id"`
	Seat          int32     `json:"seat"`
	ParticipantID uuid.UUID `json:"participant_id"`
}

type DraftSchedule struct {
	DraftID         uuid.UUID `json:"draft_id"`
	PickNumber      int32     `json:"pick_number"`
	Round           int32     `json:"round"`
	PositionInRound int32     `json:"position_in_round"`
	Seat            int32     `json:"seat"`
	ParticipantID   uuid.UUID `json:"participant_id"`
}

type DraftPick struct {
	ID              uuid.UUID `json:"id"`
	DraftID         uuid.UUID `json:"draft_id"`
	PickNumber      int32     `json:"pick_number"`
	Round           int32     `json:"round"`
	PositionInRound int32     `json:"position_in_round"`
	ParticipantID   uuid.UUID `json:"participant_id"`
	ItemID          uuid.UUID `json:"item_id"`
	AutoPicked      bool      `json:"auto_picked"`
	PickedAt        time.Time `json:"picked_at"`
}

type OwnershipGrant struct {
	ID            uuid.UUID             `json:"id"`
	DraftID       uuid.UUID             `json:"draft_id"`
	ParticipantID uuid.UUID             `json:"participant_id"`
	ItemID        uuid.UUID             `json:"item_id"`
	AcquiredAt    int32                 `json:"acquired_at"`
	ReleasedAt    sql.NullInt32         `json:"released_at"`
	AcquiredVia   string                `json:"acquired_via"`
	Metadata      pqtype.NullRawMessage `json:"metadata"`
	CreatedAt     time.Time             `json:"created_at"`
}

type PoolCategory struct {
	DraftID           uuid.UUID `json:"draft_id"`
	Name              string    `json:"name"`
	MaxPerParticipant int32     `json:"max_per_participant"`
}

type PoolItem struct {
	ID           uuid.UUID      `json:"id"`
	DraftID      uuid.UUID      `json:"draft_id"`
	Name         string         `json:"name"`
	Abbreviation string         `json:"abbreviation"`
	Category     sql.NullString `json:"category"`
	CreatedAt    time.Time      `json:"created_at"`
}
