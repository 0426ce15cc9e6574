package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	VideosProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anb_videos_processed_total",
		Help: "Total number of processing executions, by outcome",
	}, []string{"outcome"})

	ProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "anb_video_processing_duration_seconds",
		Help:    "Duration of the processing pipeline",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "anb_active_workers",
		Help: "Number of executions currently in flight",
	})

	EnqueueFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "anb_enqueue_failures_total",
		Help: "Submissions whose processing request could not be enqueued",
	})

	PoisonMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "anb_poison_messages_total",
		Help: "Malformed queue messages deleted without processing",
	})

	QueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "anb_queue_depth",
		Help: "Approximate polling queue depth, by kind",
	}, []string{"kind"})
)
