package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photoshare_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// StorageFailures counts persistence and object-store failures surfaced to clients.
	StorageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photoshare_storage_failures_total",
		Help: "Total number of storage failures by operation",
	}, []string{"operation"})

	// PhotoUploads counts accepted photo uploads.
	PhotoUploads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "photoshare_uploads_total",
		Help: "Total number of photos uploaded",
	})

	// UploadBytes records the size of accepted uploads.
	UploadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "photoshare_upload_bytes",
		Help:    "Size of accepted photo uploads in bytes",
		Buckets: prometheus.ExponentialBuckets(16*1024, 4, 7),
	})

	// LikeToggles counts like toggles by outcome (liked/unliked).
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photoshare_like_toggles_total",
		Help: "Total number of like toggles by outcome",
	}, []string{"outcome"})

	// FeedConnections is the gauge of open realtime feed connections.
	FeedConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "photoshare_feed_connections",
		Help: "Number of open realtime feed WebSocket connections",
	})

	// FeedEvents counts feed events fanned out by type.
	FeedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photoshare_feed_events_total",
		Help: "Total feed events broadcast by type",
	}, []string{"event_type"})

	// WebSocketBackpressureDrops counts messages dropped because a client send buffer was full.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photoshare_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)
