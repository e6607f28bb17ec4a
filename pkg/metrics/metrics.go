package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Backend API call metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_api_requests_total",
			Help: "Total number of calls against the backend API",
		},
		[]string{"operation", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_api_request_duration_seconds",
			Help:    "Backend API call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Lifecycle metrics
	RideTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ride_transitions_total",
			Help: "Total number of confirmed ride status transitions",
		},
		[]string{"to_status"},
	)

	AcceptConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "accept_conflicts_total",
			Help: "Total number of accept attempts lost to another driver",
		},
	)

	StaleResponsesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stale_ride_responses_dropped_total",
			Help: "Total number of out-of-order poll responses discarded",
		},
	)

	// Polling metrics
	PollTicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poll_ticks_total",
			Help: "Total number of poll ticks",
		},
		[]string{"watcher", "status"},
	)

	// Presence metrics
	DriverOnlineGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "driver_online",
			Help: "Whether the local driver is online (1) or offline (0)",
		},
	)

	WebSocketConnectedGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connected",
			Help: "Whether the ride status stream is connected",
		},
	)
)

// RecordAPIRequest records one backend call with its outcome status code.
func RecordAPIRequest(operation string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(operation, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordPollTick records one watcher tick.
func RecordPollTick(watcher string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	PollTicksTotal.WithLabelValues(watcher, status).Inc()
}
