package server

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/spacemeshos/go-sessionmesh/metrics"
)

const (
	subsystem  = "server"
	protoLabel = "protocol"
)

var (
	requests = metrics.NewCounter(
		"requests",
		subsystem,
		"requests counter",
		[]string{protoLabel, "state"},
	)
	clientLatency = metrics.NewHistogramWithBuckets(
		"client_latency_seconds",
		subsystem,
		"latency since initiating a request",
		[]string{protoLabel, "result"},
		prometheus.ExponentialBuckets(0.01, 2, 10),
	)
	serverLatency = metrics.NewHistogramWithBuckets(
		"server_latency_seconds",
		subsystem,
		"latency since accepting new stream",
		[]string{protoLabel},
		prometheus.ExponentialBuckets(0.01, 2, 10),
	)
)

func newTracker(protocol string) *tracker {
	return &tracker{
		accepted:             requests.WithLabelValues(protocol, "accepted"),
		dropped:              requests.WithLabelValues(protocol, "dropped"),
		completed:            requests.WithLabelValues(protocol, "completed"),
		failed:               requests.WithLabelValues(protocol, "failed"),
		clientSucceeded:      requests.WithLabelValues(protocol, "client_succeeded"),
		clientFailed:         requests.WithLabelValues(protocol, "client_failed"),
		clientServerError:    requests.WithLabelValues(protocol, "client_server_error"),
		serverLatency:        serverLatency.WithLabelValues(protocol),
		clientLatency:        clientLatency.WithLabelValues(protocol, "success"),
		clientLatencyFailure: clientLatency.WithLabelValues(protocol, "failure"),
	}
}

type tracker struct {
	accepted, dropped, completed, failed             prometheus.Counter
	clientSucceeded, clientFailed, clientServerError prometheus.Counter
	serverLatency                                    prometheus.Observer
	clientLatency, clientLatencyFailure              prometheus.Observer
}
