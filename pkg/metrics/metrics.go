package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RoomsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chesspot_rooms_created_total",
		Help: "Rooms created since process start.",
	})
	MovesApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chesspot_moves_applied_total",
		Help: "Accepted moves since process start.",
	})
	GamesConcluded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chesspot_games_concluded_total",
		Help: "Games that reached a terminal outcome.",
	})
	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chesspot_ws_connections_active",
		Help: "Currently open websocket connections.",
	})
)

// Handler exposes Prometheus metrics at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
