package orchestrator

import (
	"context"
	"sync"

	"github.com/mcdev12/draftturn/go/internal/draft/engine"
	"github.com/mcdev12/draftturn/go/internal/models"
	"github.com/rs/zerolog/log"
)

// worker processes draft timeouts from the work channel
func (o *Orchestrator) worker(ctx context.Context, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()

	log.Debug().
		Str("instance", o.instanceID).
		Int("worker_id", workerID).
		Msg("worker started")

	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-o.workCh:
			if !ok {
				return
			}

			progressed, err := o.handleTimeout(ctx, d)
			if err != nil {
				log.Error().
					Err(err).
					Str("draft_id", d.DraftID.String()).
					Str("instance", o.instanceID).
					Int("worker_id", workerID).
					Msg("worker timeout handling failed")
			}

			// Clean up in-flight tracking regardless of success/failure
			o.inFlightMu.Lock()
			delete(o.inFlight, d.DraftID)
			o.inFlightMu.Unlock()

			if progressed {
				o.Wake()
			}
		}
	}
}

// handleTimeout resolves one expired draft and reports whether a turn was resolved.
func (o *Orchestrator) handleTimeout(ctx context.Context, d models.LiveDeadline) (bool, error) {
	res, err := o.resolver.ResolveTimeout(ctx, d.DraftID)
	if err != nil {
		kind := engine.KindOf(err)
		switch {
		case kind == engine.KindNoAdmissibleItem:
			o.park(d)
			return false, nil
		case kind.Fatal():
			o.halt(d.DraftID)
			log.Error().
				Err(err).
				Str("draft_id", d.DraftID.String()).
				Str("instance", o.instanceID).
				Msg("halting automated processing of draft")
			return false, nil
		case kind != "":
			// Lost a race with a human action; a changed expiry brings the draft back.
			log.Debug().Err(err).Str("draft_id", d.DraftID.String()).Msg("timeout resolution rejected")
			o.backOff(d)
			return false, nil
		}
		o.backOff(d)
		return false, err
	}

	log.Info().
		Str("draft_id", d.DraftID.String()).
		Str("instance", o.instanceID).
		Str("action", string(res.Action)).
		Int("pick_number", res.PickNumber).
		Msg("timeout handled")
	if res.Action == engine.ActionNone {
		// Not expired by the resolver's clock; retry after ErrorBackoff unless the expiry moves.
		o.backOff(d)
		return false, nil
	}
	return true, nil
}
