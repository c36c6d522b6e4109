package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrderingMode defines how seats rotate between rounds.
type OrderingMode string

const (
	OrderingModeSnake    OrderingMode = "SNAKE"
	OrderingModeStraight OrderingMode = "STRAIGHT"
)

// DraftStatus defines the lifecycle status of a draft.
type DraftStatus string

const (
	DraftStatusNotStarted DraftStatus = "NOT_STARTED"
	DraftStatusLive       DraftStatus = "LIVE"
	DraftStatusPaused     DraftStatus = "PAUSED"
	DraftStatusComplete   DraftStatus = "COMPLETE"
)

// TimeoutPolicy defines what the resolver does with an expired turn.
type TimeoutPolicy string

const (
	TimeoutPolicyAutoSkip   TimeoutPolicy = "AUTO_SKIP"
	TimeoutPolicyAutoSelect TimeoutPolicy = "AUTO_SELECT"
)

// DraftConfiguration is fixed once the draft is created.
type DraftConfiguration struct {
	Participants     int           `json:"participants" yaml:"participants"`
	Rounds           int           `json:"rounds" yaml:"rounds"`
	Mode             OrderingMode  `json:"mode" yaml:"mode"`
	SelectionSeconds int           `json:"selection_seconds" yaml:"selection_seconds"`
	GraceSeconds     int           `json:"grace_seconds" yaml:"grace_seconds"`
	TimeoutPolicy    TimeoutPolicy `json:"timeout_policy" yaml:"timeout_policy"`
}

// TotalPicks returns P x R.
func (c DraftConfiguration) TotalPicks() int {
	return c.Participants * c.Rounds
}

func (c DraftConfiguration) SelectionWindow() time.Duration {
	return time.Duration(c.SelectionSeconds) * time.Second
}

func (c DraftConfiguration) GracePeriod() time.Duration {
	return time.Duration(c.GraceSeconds) * time.Second
}

// Validate checks the configuration invariants.
func (c DraftConfiguration) Validate() error {
	var errs []error
	if c.Participants <= 0 {
		errs = append(errs, fmt.Errorf("participants must be positive, got %d", c.Participants))
	}
	if c.Rounds <= 0 {
		errs = append(errs, fmt.Errorf("rounds must be positive, got %d", c.Rounds))
	}
	if c.SelectionSeconds <= 0 {
		errs = append(errs, fmt.Errorf("selection_seconds must be positive, got %d", c.SelectionSeconds))
	}
	if c.GraceSeconds < 0 {
		errs = append(errs, fmt.Errorf("grace_seconds must not be negative, got %d", c.GraceSeconds))
	}
	switch c.Mode {
	case OrderingModeSnake, OrderingModeStraight:
	default:
		errs = append(errs, fmt.Errorf("unknown ordering mode %q", c.Mode))
	}
	switch c.TimeoutPolicy {
	case TimeoutPolicyAutoSkip, TimeoutPolicyAutoSelect:
	default:
		errs = append(errs, fmt.Errorf("unknown timeout policy %q", c.TimeoutPolicy))
	}
	return errors.Join(errs...)
}

// Draft represents a draft instance.
type Draft struct {
	ID        uuid.UUID          `json:"id"`
	Name      string             `json:"name"`
	Config    DraftConfiguration `json:"config"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// DraftState is the single mutable coordination record of a draft.
// CurrentPickNumber runs 1..T+1; T+1 means the draft is finished.
type DraftState struct {
	DraftID            uuid.UUID   `json:"draft_id"`
	Status             DraftStatus `json:"status"`
	CurrentPickNumber  int         `json:"current_pick_number"`
	CurrentParticipant *uuid.UUID  `json:"current_participant,omitempty"`
	Deadline           *time.Time  `json:"deadline,omitempty"`
	StartedAt          *time.Time  `json:"started_at,omitempty"`
	CompletedAt        *time.Time  `json:"completed_at,omitempty"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// ExpiresAt returns deadline + grace, or nil when no deadline is running.
func (s DraftState) ExpiresAt(grace time.Duration) *time.Time {
	if s.Deadline == nil {
		return nil
	}
	t := s.Deadline.Add(grace)
	return &t
}

// Expired reports whether now is strictly past deadline + grace.
func (s DraftState) Expired(now time.Time, grace time.Duration) bool {
	exp := s.ExpiresAt(grace)
	return exp != nil && now.After(*exp)
}

// Seat binds a 1-indexed seat to a participant.
type Seat struct {
	Seat          int       `json:"seat"`
	ParticipantID uuid.UUID `json:"participant_id"`
}

// LiveDeadline is the resolver's view of a running turn clock.
type LiveDeadline struct {
	DraftID   uuid.UUID `json:"draft_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
