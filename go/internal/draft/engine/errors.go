package engine

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// RejectionKind names why an operation was refused.
type RejectionKind string

const (
	KindNotLive              RejectionKind = "NotLive"
	KindAlreadyComplete      RejectionKind = "AlreadyComplete"
	KindNotYourTurn          RejectionKind = "NotYourTurn"
	KindWindowExpired        RejectionKind = "WindowExpired"
	KindAlreadyClaimed       RejectionKind = "AlreadyClaimed"
	KindNotEligible          RejectionKind = "NotEligible"
	KindIncompleteSeating    RejectionKind = "IncompleteSeating"
	KindConflict             RejectionKind = "Conflict"
	KindNoAdmissibleItem     RejectionKind = "NoAdmissibleItem"
	KindScheduleCorrupt      RejectionKind = "ScheduleCorrupt"
	KindNotFound             RejectionKind = "NotFound"
	KindAlreadyStarted       RejectionKind = "AlreadyStarted"
	KindInvalidConfiguration RejectionKind = "InvalidConfiguration"
	KindInvalidSeating       RejectionKind = "InvalidSeating"
	KindNotPaused            RejectionKind = "NotPaused"
)

// Fatal kinds halt automated processing of the draft.
func (k RejectionKind) Fatal() bool { return k == KindScheduleCorrupt }

// Retryable kinds may succeed if the caller tries again.
func (k RejectionKind) Retryable() bool { return k == KindConflict }

// Rejection is the typed error returned for every refused operation.
// It matches the Err* sentinels by kind through errors.Is.
type Rejection struct {
	Kind    RejectionKind
	DraftID uuid.UUID
	Reason  string
}

func (r *Rejection) Error() string {
	if r.Reason == "" {
		return fmt.Sprintf("draft %s: %s", r.DraftID, r.Kind)
	}
	return fmt.Sprintf("draft %s: %s: %s", r.DraftID, r.Kind, r.Reason)
}

func (r *Rejection) Is(target error) bool {
	var t *Rejection
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == r.Kind
}

var (
	ErrNotLive              = &Rejection{Kind: KindNotLive}
	ErrAlreadyComplete      = &Rejection{Kind: KindAlreadyComplete}
	ErrNotYourTurn          = &Rejection{Kind: KindNotYourTurn}
	ErrWindowExpired        = &Rejection{Kind: KindWindowExpired}
	ErrAlreadyClaimed       = &Rejection{Kind: KindAlreadyClaimed}
	ErrNotEligible          = &Rejection{Kind: KindNotEligible}
	ErrIncompleteSeating    = &Rejection{Kind: KindIncompleteSeating}
	ErrConflict             = &Rejection{Kind: KindConflict}
	ErrNoAdmissibleItem     = &Rejection{Kind: KindNoAdmissibleItem}
	ErrScheduleCorrupt      = &Rejection{Kind: KindScheduleCorrupt}
	ErrNotFound             = &Rejection{Kind: KindNotFound}
	ErrAlreadyStarted       = &Rejection{Kind: KindAlreadyStarted}
	ErrInvalidConfiguration = &Rejection{Kind: KindInvalidConfiguration}
	ErrInvalidSeating       = &Rejection{Kind: KindInvalidSeating}
	ErrNotPaused            = &Rejection{Kind: KindNotPaused}
)

// Store-level errors. Stores return these; the engine turns them into rejections.
var (
	ErrDraftNotFound = errors.New("draft not found")
	ErrPickExists    = errors.New("pick already recorded")
)

func reject(kind RejectionKind, draftID uuid.UUID, format string, args ...any) *Rejection {
	return &Rejection{Kind: kind, DraftID: draftID, Reason: fmt.Sprintf(format, args...)}
}

// KindOf returns the rejection kind of err, or "" when err is not a rejection.
func KindOf(err error) RejectionKind {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Kind
	}
	return ""
}
