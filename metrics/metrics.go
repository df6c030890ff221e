package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TagsValidatedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "epclora",
			Name:      "tags_validated_total",
			Help:      "The total number of tags accepted by validation",
		},
	)

	TagsRejectedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "epclora",
			Name:      "tags_rejected_total",
			Help:      "The total number of tags rejected by validation",
		},
	)

	GroupsFormedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "epclora",
			Name:      "groups_formed_total",
			Help:      "The total number of compression groups formed",
		},
	)

	FramesEncodedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "epclora",
			Name:      "frames_encoded_total",
			Help:      "The total number of wire frames encoded",
		},
	)

	PlansComputedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "epclora",
			Name:      "plans_computed_total",
			Help:      "The total number of transmission plans computed",
		},
	)

	RunsProcessedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "epclora",
			Name:      "runs_processed_total",
			Help:      "The total number of pipeline runs processed",
		},
	)

	ErrorCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "epclora",
			Name:      "error_total",
			Help:      "The total number of errors occurring",
		},
	)

	FrameAirtimeMs = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "epclora",
			Name:      "frame_airtime_ms",
			Help:      "On-air duration of encoded frames in milliseconds",
			Buckets:   prometheus.ExponentialBuckets(10, 2, 10),
		},
	)
)
