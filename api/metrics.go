package api

import "github.com/prometheus/client_golang/prometheus"

// Client-side metrics, served by whoever embeds the client (dashctl exposes
// them on its diagnostic address in Prometheus text format).
var (
	mtxRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_client_requests_total",
			Help: "API requests by method and outcome",
		},
		[]string{"method", "code"},
	)

	mtxRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_client_retries_total",
			Help: "Requests re-issued after a successful token refresh",
		},
	)

	mtxRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_client_token_refresh_total",
			Help: "Token refresh operations by outcome (shared refreshes count once)",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(mtxRequests, mtxRetries, mtxRefreshes)
}
