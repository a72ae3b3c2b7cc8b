package httpx

import (
	"log/slog"
	"net/http"

	"github.com/dntxos/chesspotweb3/internal/app"
	"github.com/dntxos/chesspotweb3/internal/room"
	"github.com/dntxos/chesspotweb3/internal/ws"
	"github.com/dntxos/chesspotweb3/pkg/metrics"
)

// NewRouter wires up all HTTP routes, middleware, and handlers
func NewRouter(cfg app.Config, logger *slog.Logger, gw *ws.Gateway, store *room.Store) http.Handler {
	mw := NewMiddleware(cfg)
	api := &RoomsAPI{Store: store}

	mux := http.NewServeMux()

	// Health / readiness / metrics
	mux.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) }))
	mux.Handle("/readyz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) }))
	mux.Handle("/metrics", metrics.Handler())

	// WebSocket endpoint
	mux.Handle("/ws", http.HandlerFunc(gw.ServeWS))

	// Room directory (read-only projection)
	mux.Handle("GET /api/rooms", http.HandlerFunc(api.List))
	mux.Handle("GET /api/rooms/{roomId}", http.HandlerFunc(api.Get))

	// CORS + rate limit applied globally
	return mw.Wrap(mux)
}
