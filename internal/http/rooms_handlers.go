package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/dntxos/chesspotweb3/internal/room"
)

// RoomsAPI is the stateless read-only projection of the room store.
type RoomsAPI struct{ Store *room.Store }

// List returns every room as {roomId, hasPassword, playerCount}
func (a *RoomsAPI) List(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.Store.List())
}

// Get returns one room's summary plus its current position
func (a *RoomsAPI) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("roomId")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "roomId required"})
		return
	}

	info, ok := a.Store.Info(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "room not found"})
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// send JSON with proper headers
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
