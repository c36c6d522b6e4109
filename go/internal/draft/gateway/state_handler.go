package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mcdev12/draftturn/go/internal/draft/engine"
	"github.com/rs/zerolog/log"
)

// StateHandler serves snapshots over plain HTTP for clients that poll.
type StateHandler struct {
	snapshots *SnapshotCache
}

func NewStateHandler(snapshots *SnapshotCache) *StateHandler {
	return &StateHandler{snapshots: snapshots}
}

// HandleGetSnapshot handles GET /drafts/{draftID}/snapshot
func (h *StateHandler) HandleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	draftID, err := uuid.Parse(chi.URLParam(r, "draftID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid draft id"})
		return
	}

	snap, err := h.snapshots.Get(r.Context(), draftID)
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		log.Error().Err(err).Str("draft_id", draftID.String()).Msg("failed to get snapshot")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get snapshot"})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
