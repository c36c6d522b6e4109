package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/draftturn/go/internal/draft/events"
)

const DefaultChannel = "draft_updated"

// PGNotifier announces changes on a Postgres NOTIFY channel. The relay process
// LISTENs on it and forwards to JetStream.
type PGNotifier struct {
	db      *sql.DB
	channel string
	clock   clockwork.Clock
}

func NewPGNotifier(db *sql.DB, channel string, clock clockwork.Clock) *PGNotifier {
	if channel == "" {
		channel = DefaultChannel
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &PGNotifier{db: db, channel: channel, clock: clock}
}

func (n *PGNotifier) NotifyChanged(ctx context.Context, draftID uuid.UUID, reason events.Reason) error {
	payload, err := json.Marshal(events.NewChangeEvent(draftID, reason, n.clock.Now()))
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}
	if _, err := n.db.ExecContext(ctx, "SELECT pg_notify($1, $2)", n.channel, string(payload)); err != nil {
		return fmt.Errorf("failed to notify %s: %w", n.channel, err)
	}
	return nil
}
