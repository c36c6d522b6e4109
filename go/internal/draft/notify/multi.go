package notify

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mcdev12/draftturn/go/internal/draft/events"
)

// Multi sends every change to each of its notifiers. A failing notifier does
// not stop the rest; their errors are joined.
type Multi []Notifier

func (m Multi) NotifyChanged(ctx context.Context, draftID uuid.UUID, reason events.Reason) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.NotifyChanged(ctx, draftID, reason); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
