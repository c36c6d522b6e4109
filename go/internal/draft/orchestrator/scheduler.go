package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/draftturn/go/internal/models"
	"github.com/rs/zerolog/log"
)

// RunScheduler loops until ctx is done, sleeping until the next expiry (at most
// MaxSleep) and queueing every expired draft for the worker pool.
func (o *Orchestrator) RunScheduler(ctx context.Context) error {
	log.Info().
		Str("instance", o.instanceID).
		Int("workers", o.cfg.Workers).
		Dur("max_sleep", o.cfg.MaxSleep).
		Msg("timeout resolver started")

	// Start worker pool
	var wg sync.WaitGroup
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	for i := 0; i < o.cfg.Workers; i++ {
		wg.Add(1)
		go o.worker(workerCtx, &wg, i)
	}

	// Ensure workers are cleaned up
	defer func() {
		log.Info().Str("instance", o.instanceID).Msg("shutting down workers")
		cancelWorkers()
		close(o.workCh)
		wg.Wait()
		log.Info().Str("instance", o.instanceID).Msg("all workers shut down")
	}()

	timer := o.clock.NewTimer(o.cfg.MaxSleep)
	defer timer.Stop()

	for {
		select {
		case <-o.wakeCh:
		default:
		}

		wait, err := o.tick(ctx)
		if err != nil {
			log.Error().Err(err).Str("instance", o.instanceID).Msg("failed to list live deadlines")
			wait = o.cfg.ErrorBackoff
		}

		stopAndDrainTimer(timer)
		timer.Reset(wait)
		select {
		case <-ctx.Done():
			log.Info().Str("instance", o.instanceID).Msg("timeout resolver shutdown requested")
			return nil
		case <-timer.Chan():
			log.Debug().Str("instance", o.instanceID).Msg("timer fired, re-reading deadlines")
		case <-o.wakeCh:
			log.Debug().Str("instance", o.instanceID).Msg("woken early, re-reading deadlines")
		}
	}
}

// tick queues expired drafts and returns how long to sleep before the next look.
func (o *Orchestrator) tick(ctx context.Context) (time.Duration, error) {
	deadlines, err := o.resolver.LiveDeadlines(ctx)
	if err != nil {
		return 0, err
	}

	now := o.clock.Now()
	wait := o.cfg.MaxSleep
	var due []models.LiveDeadline
	for _, d := range deadlines {
		if skip, retryAt := o.skip(d, now); skip {
			if !retryAt.IsZero() {
				if until := retryAt.Sub(now); until < wait {
					wait = until
				}
			}
			continue
		}
		if now.After(d.ExpiresAt) {
			due = append(due, d)
			continue
		}
		if until := d.ExpiresAt.Sub(now) + expirySlack; until < wait {
			wait = until
		}
	}

	if len(due) > 0 {
		log.Info().
			Int("count_due", len(due)).
			Str("instance", o.instanceID).
			Msg("processing expired drafts")
		o.dispatch(ctx, due)
	}
	return wait, nil
}

// dispatch sends drafts to the worker pool, skipping any already in flight.
func (o *Orchestrator) dispatch(ctx context.Context, due []models.LiveDeadline) {
	for _, d := range due {
		o.inFlightMu.Lock()
		if o.inFlight[d.DraftID] {
			log.Debug().Str("draft_id", d.DraftID.String()).Str("instance", o.instanceID).Msg("skipping draft already in flight")
			o.inFlightMu.Unlock()
			continue
		}
		o.inFlight[d.DraftID] = true
		o.inFlightMu.Unlock()

		select {
		case <-ctx.Done():
			o.inFlightMu.Lock()
			delete(o.inFlight, d.DraftID)
			o.inFlightMu.Unlock()
			return
		case o.workCh <- d:
			log.Debug().Str("draft_id", d.DraftID.String()).Str("instance", o.instanceID).Msg("queued timeout for worker")
		}
	}
}

// stopAndDrainTimer safely stops a timer and drains its channel so a later Reset starts clean.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
