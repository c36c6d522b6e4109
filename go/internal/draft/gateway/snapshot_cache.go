package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/draftturn/go/internal/draft/engine"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// SnapshotSource assembles a fresh snapshot. The engine satisfies it.
type SnapshotSource interface {
	GetSnapshot(ctx context.Context, draftID uuid.UUID) (*engine.Snapshot, error)
}

const defaultSnapshotTTL = 5 * time.Minute

// SnapshotCache is a read-through Redis cache in front of a SnapshotSource so
// that many gateways answering the same change event assemble it once.
// A nil Redis client turns it into a pass-through.
type SnapshotCache struct {
	source SnapshotSource
	rdb    *redis.Client
	ttl    time.Duration
	clock  clockwork.Clock
}

func NewSnapshotCache(source SnapshotSource, rdb *redis.Client, ttl time.Duration, clock clockwork.Clock) *SnapshotCache {
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SnapshotCache{source: source, rdb: rdb, ttl: ttl, clock: clock}
}

func snapshotKey(draftID uuid.UUID) string {
	return "draft:snapshot:" + draftID.String()
}

// Get returns the cached snapshot, or assembles and caches one. ServerTime is
// always the time of this call.
func (c *SnapshotCache) Get(ctx context.Context, draftID uuid.UUID) (*engine.Snapshot, error) {
	if c.rdb == nil {
		return c.source.GetSnapshot(ctx, draftID)
	}

	raw, err := c.rdb.Get(ctx, snapshotKey(draftID)).Bytes()
	switch {
	case err == nil:
		var snap engine.Snapshot
		uerr := json.Unmarshal(raw, &snap)
		if uerr == nil {
			snap.ServerTime = c.clock.Now().UTC()
			return &snap, nil
		}
		log.Warn().Err(uerr).Str("draft_id", draftID.String()).Msg("dropping unreadable cached snapshot")
	case !errors.Is(err, redis.Nil):
		log.Warn().Err(err).Str("draft_id", draftID.String()).Msg("snapshot cache read failed")
	}

	return c.Refresh(ctx, draftID)
}

// Refresh assembles a snapshot from the source and overwrites the cached copy.
// Change handlers use it instead of Get so a stale entry is never served
// after the change that made it stale.
func (c *SnapshotCache) Refresh(ctx context.Context, draftID uuid.UUID) (*engine.Snapshot, error) {
	snap, err := c.source.GetSnapshot(ctx, draftID)
	if err != nil {
		if invErr := c.Invalidate(ctx, draftID); invErr != nil {
			log.Warn().Err(invErr).Str("draft_id", draftID.String()).Msg("snapshot cache invalidate failed")
		}
		return nil, err
	}
	if c.rdb == nil {
		return snap, nil
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := c.rdb.Set(ctx, snapshotKey(draftID), data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("draft_id", draftID.String()).Msg("snapshot cache write failed")
	}
	return snap, nil
}

// Invalidate drops the cached snapshot of a draft.
func (c *SnapshotCache) Invalidate(ctx context.Context, draftID uuid.UUID) error {
	if c.rdb == nil {
		return nil
	}
	if err := c.rdb.Del(ctx, snapshotKey(draftID)).Err(); err != nil {
		return fmt.Errorf("invalidate snapshot: %w", err)
	}
	return nil
}
