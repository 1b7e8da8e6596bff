package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamRequests counts calls to the aquarium API by endpoint and result.
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aquawatch",
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Requests made to the aquarium API",
		},
		[]string{"endpoint", "result"}, // result: success, failed, circuit_open
	)

	// HistoryRefreshes counts history refreshes by outcome.
	HistoryRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aquawatch",
			Subsystem: "history",
			Name:      "refreshes_total",
			Help:      "History refreshes by outcome",
		},
		[]string{"result"}, // result: applied, failed, superseded
	)

	// HistoryDays tracks the number of day groups in the current snapshot.
	HistoryDays = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "aquawatch",
			Subsystem: "history",
			Name:      "days",
			Help:      "Day groups in the last applied history snapshot",
		},
	)

	// LiveValue tracks the last live value of each parameter.
	LiveValue = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "aquawatch",
			Subsystem: "live",
			Name:      "value",
			Help:      "Last live reading per parameter",
		},
		[]string{"parameter"},
	)

	// AutoFeeds counts feeds triggered by high ammonia.
	AutoFeeds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aquawatch",
			Subsystem: "feeder",
			Name:      "auto_feeds_total",
			Help:      "Feeds triggered automatically by high ammonia",
		},
		[]string{"result"},
	)
)
