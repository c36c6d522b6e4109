package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/draftturn/go/internal/draft/engine"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket upgrade requests for draft connections
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	snapshots         *SnapshotCache
	clock             clockwork.Clock
}

func NewWebSocketHandler(cm *ConnectionManager, snapshots *SnapshotCache, clock clockwork.Clock) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		snapshots:         snapshots,
		clock:             clock,
	}
}

// HandleDraftConnection joins a client to a draft. The first frame is always
// draft:snapshot, or draft:error followed by a close when the draft is unknown.
func (h *WebSocketHandler) HandleDraftConnection(w http.ResponseWriter, r *http.Request) {
	draftID, err := uuid.Parse(chi.URLParam(r, "draftID"))
	if err != nil {
		http.Error(w, "invalid draft id", http.StatusBadRequest)
		return
	}
	participantID := r.URL.Query().Get("participant_id")
	if participantID == "" {
		participantID = "spectator"
	}

	snap, err := h.snapshots.Get(r.Context(), draftID)
	if err != nil {
		log.Info().Err(err).Str("draft_id", draftID.String()).Msg("rejecting draft connection")
		if rerr := h.connectionManager.RejectConnection(w, r, errorMessage(draftID, err, h.clock.Now().UTC())); rerr != nil {
			log.Error().Err(rerr).Str("draft_id", draftID.String()).Msg("failed to reject connection")
		}
		return
	}

	conn, err := h.connectionManager.UpgradeConnection(w, r, participantID, draftID, snapshotMessage(snap, h.clock.Now().UTC()))
	if err != nil {
		log.Error().
			Err(err).
			Str("draft_id", draftID.String()).
			Str("participant_id", participantID).
			Msg("failed to upgrade WebSocket connection")
		return
	}
	h.resync(r.Context(), conn, snap)
}

// resync re-reads the snapshot once the connection is registered. A change that
// landed between the first read and registration found no watchers and was not
// broadcast, so the client gets the newer snapshot here.
func (h *WebSocketHandler) resync(ctx context.Context, conn *Connection, sent *engine.Snapshot) {
	fresh, err := h.snapshots.Refresh(ctx, conn.DraftID)
	if err != nil {
		log.Warn().Err(err).Str("draft_id", conn.DraftID.String()).Msg("failed to resync snapshot after join")
		return
	}
	if sameSnapshot(sent, fresh) {
		return
	}
	log.Debug().Str("connection_id", conn.ID).Str("draft_id", conn.DraftID.String()).Msg("draft changed during join, resending snapshot")
	h.connectionManager.SendToConnection(conn, snapshotMessage(fresh, h.clock.Now().UTC()))
}

// sameSnapshot compares two snapshots ignoring the time they were served.
func sameSnapshot(a, b *engine.Snapshot) bool {
	ac, bc := *a, *b
	ac.ServerTime, bc.ServerTime = time.Time{}, time.Time{}
	aj, aerr := json.Marshal(ac)
	bj, berr := json.Marshal(bc)
	return aerr == nil && berr == nil && bytes.Equal(aj, bj)
}

func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.connectionManager.GetConnectionStats())
}
