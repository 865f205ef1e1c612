package pubsub

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/spacemeshos/go-sessionmesh/metrics"
)

const subsystem = "pubsub"

var (
	processed = metrics.NewHistogramWithBuckets(
		"processed_seconds",
		subsystem,
		"time spent in topic handlers",
		[]string{"topic", "result"},
		prometheus.ExponentialBuckets(0.0001, 4, 10),
	)
	published = metrics.NewCounter(
		"published",
		subsystem,
		"messages published by this node",
		[]string{"topic"},
	)
)
