package orchestrator

import (
	"context"

	"github.com/mcdev12/draftturn/go/internal/draft/events"
	"github.com/rs/zerolog/log"
)

// HandleChangeEvent reacts to a change on any draft by re-reading deadlines.
// A state change releases a parked or backed-off draft so it is retried.
func (o *Orchestrator) HandleChangeEvent(ctx context.Context, evt events.ChangeEvent) error {
	log.Debug().
		Str("draft_id", evt.DraftID.String()).
		Str("reason", string(evt.Reason)).
		Str("instance", o.instanceID).
		Msg("handling change event")

	switch evt.Reason {
	case events.ReasonPick, events.ReasonPause, events.ReasonResume, events.ReasonStart:
		o.unpark(evt.DraftID)
	}
	o.Wake()
	return nil
}
