package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MatchesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "footwatch",
		Name:      "matches_created_total",
		Help:      "Total number of case/footage matches created",
	}, []string{"trigger"})

	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "footwatch",
		Name:      "scans_total",
		Help:      "Total number of video scans by outcome",
	}, []string{"status"})

	FramesSampled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "footwatch",
		Name:      "frames_sampled_total",
		Help:      "Total number of video frames passed to the evidence extractor",
	})

	DetectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "footwatch",
		Name:      "detections_total",
		Help:      "Total number of persisted detections by analysis method",
	}, []string{"method"})

	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "footwatch",
		Name:      "scan_duration_seconds",
		Help:      "Wall-clock duration of a video scan",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})

	InferenceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "footwatch",
		Name:      "inference_duration_seconds",
		Help:      "Duration of ML inference stages",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"stage"})

	PendingMatches = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "footwatch",
		Name:      "pending_matches",
		Help:      "Number of matches waiting for analysis",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "footwatch",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "footwatch",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
