package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Definition
var (
	itemsAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "windowlens_items_accepted_total",
			Help: "Total number of stream items folded into frame state.",
		},
	)
	frameRowsEmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "windowlens_frame_rows_emitted_total",
			Help: "Total number of per-key window result rows emitted.",
		},
	)
	markersForwarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "windowlens_markers_forwarded_total",
			Help: "Total number of progress markers forwarded downstream.",
		},
	)
	parseFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "windowlens_parse_failures_total",
			Help: "Total number of input records that failed to parse and were skipped.",
		},
	)
	liveFrames = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "windowlens_live_frames",
			Help: "Number of frames currently holding accumulator state.",
		},
	)
	slidingKeys = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "windowlens_sliding_state_keys",
			Help: "Number of keys tracked by the incremental sliding window state.",
		},
	)
)
