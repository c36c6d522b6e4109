package models

import (
	"time"

	"github.com/google/uuid"
)

// OpenCategory is the uncapped category for items without one.
const OpenCategory = ""

// PoolItem is a claimable item (a team) in a draft's pool.
type PoolItem struct {
	ID           uuid.UUID `json:"id"`
	DraftID      uuid.UUID `json:"draft_id"`
	Name         string    `json:"name"`
	Abbreviation string    `json:"abbreviation,omitempty"`
	Category     string    `json:"category,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Category is a capped eligibility group (a conference).
// MaxPerParticipant <= 0 means no cap.
type Category struct {
	Name              string `json:"name" yaml:"name"`
	MaxPerParticipant int    `json:"max_per_participant" yaml:"max_per_participant"`
}

// Capped reports whether the category limits holdings.
func (c Category) Capped() bool {
	return c.Name != OpenCategory && c.MaxPerParticipant > 0
}

// Admission is the eligibility collaborator's decision.
type Admission struct {
	Admitted bool   `json:"admitted"`
	Reason   string `json:"reason,omitempty"`
}

func Admit() Admission { return Admission{Admitted: true} }

func Deny(reason string) Admission { return Admission{Reason: reason} }
