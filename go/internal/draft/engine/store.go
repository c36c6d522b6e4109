package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/draftturn/go/internal/draft/events"
	"github.com/mcdev12/draftturn/go/internal/models"
)

// Store persists drafts. Every read-modify-write of a draft's state or schedule
// goes through WithDraftLock, which serializes callers per draft and applies the
// writes of fn atomically: if fn returns an error nothing it wrote is kept.
type Store interface {
	CreateDraft(ctx context.Context, draft models.Draft, state models.DraftState) error
	WithDraftLock(ctx context.Context, draftID uuid.UUID, fn func(tx Tx) error) error

	// LoadView returns a point-in-time read of a draft without taking its lock.
	LoadView(ctx context.Context, draftID uuid.UUID) (*DraftView, error)
	// ListLiveDeadlines returns deadline+grace for every LIVE draft with a running clock.
	ListLiveDeadlines(ctx context.Context) ([]models.LiveDeadline, error)
}

// Tx is a locked unit of work on a single draft.
type Tx interface {
	Draft(ctx context.Context) (*models.Draft, error)
	State(ctx context.Context) (*models.DraftState, error)
	SaveState(ctx context.Context, state models.DraftState) error

	Seating(ctx context.Context) ([]models.Seat, error)
	ReplaceSeating(ctx context.Context, seating []models.Seat) error

	Schedule(ctx context.Context) (models.TurnSchedule, error)
	// SaveSchedule upserts slots by pick number and leaves slots that already
	// have a committed pick untouched.
	SaveSchedule(ctx context.Context, slots []models.ScheduleSlot) error

	PickCount(ctx context.Context) (int, error)
	// InsertPick returns ErrPickExists if the pick number is taken.
	InsertPick(ctx context.Context, pick models.DraftPick) error

	IsClaimed(ctx context.Context, itemID uuid.UUID, asOfTurn int) (bool, error)
	OpenGrant(ctx context.Context, grant models.OwnershipGrant) error
}

// DraftView is everything the snapshot assembler needs, read at one point in time.
type DraftView struct {
	Draft    models.Draft
	State    models.DraftState
	Seating  []models.Seat
	Schedule models.TurnSchedule
	Picks    []models.DraftPick
	ReadAt   time.Time
}

// EligibilityChecker is the external admission predicate.
type EligibilityChecker interface {
	IsAdmissible(ctx context.Context, draftID, participantID, itemID uuid.UUID, asOfTurn int) (models.Admission, error)
}

// Sampler draws an auto-select candidate. It returns nil when nothing is admissible.
type Sampler interface {
	Sample(ctx context.Context, draftID, participantID uuid.UUID, asOfTurn int) (*models.PoolItem, error)
}

// Notifier publishes change events. Failures are logged by the engine and never undo a commit.
type Notifier interface {
	NotifyChanged(ctx context.Context, draftID uuid.UUID, reason events.Reason) error
}
