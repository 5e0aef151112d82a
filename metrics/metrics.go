package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type JITAPIMetrics struct {
	SegmentRequestCount       *prometheus.CounterVec
	SegmentRequestDurationSec *prometheus.HistogramVec
	TranscodeCount            *prometheus.CounterVec
	TranscodeDurationSec      *prometheus.HistogramVec
	ProbeDurationSec          prometheus.Histogram
	PrefetchJobCount          *prometheus.CounterVec
	PlaylistsWrittenCount     prometheus.Counter
	ThumbnailCount            *prometheus.CounterVec
	JobsInFlight              prometheus.Gauge
	PrefetchInFlight          prometheus.Gauge
	MetadataEntries           prometheus.Gauge
}

func NewMetrics() *JITAPIMetrics {
	m := &JITAPIMetrics{
		// Segment request metrics
		SegmentRequestCount: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "segment_request_count",
			Help: "The total number of segment requests, broken up by outcome (hit, transcoded, coalesced, error)",
		}, []string{"outcome"}),
		SegmentRequestDurationSec: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "segment_request_duration_seconds",
			Help:    "The latency of segment requests in seconds, broken up by outcome and quality",
			Buckets: []float64{.005, .025, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"outcome", "quality"}),

		// Encoder metrics
		TranscodeCount: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "transcode_count",
			Help: "The total number of single-segment transcodes, broken up by backend and status",
		}, []string{"backend", "status"}),
		TranscodeDurationSec: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "transcode_duration_seconds",
			Help:    "Time taken to transcode one segment",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"backend", "quality"}),
		ProbeDurationSec: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "probe_duration_seconds",
			Help:    "Time taken to probe a media file, including the keyframe scan",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}),

		// Prefetch and playlist metrics
		PrefetchJobCount: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "prefetch_job_count",
			Help: "The total number of prefetch candidates, broken up by status (started, skipped_cache, skipped_inflight, skipped_cap, completed, failed)",
		}, []string{"status"}),
		PlaylistsWrittenCount: promauto.NewCounter(prometheus.CounterOpts{
			Name: "playlists_written_count",
			Help: "The total number of playlist initializations written to disk",
		}),
		ThumbnailCount: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "thumbnail_count",
			Help: "The total number of thumbnail extractions, broken up by status",
		}, []string{"status"}),

		// Live state gauges
		JobsInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "jobs_in_flight",
			Help: "Number of transcoding jobs currently registered",
		}),
		PrefetchInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "prefetch_in_flight",
			Help: "Number of prefetch jobs currently registered",
		}),
		MetadataEntries: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "metadata_entries",
			Help: "Number of media items with initialized streaming metadata",
		}),
	}

	return m
}

var Metrics = NewMetrics()
