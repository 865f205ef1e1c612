package session

import (
	"github.com/spacemeshos/go-sessionmesh/metrics"
)

const namespace = "session"

var (
	received = metrics.NewCounter(
		"received",
		namespace,
		"number of processed messages by kind",
		[]string{"kind"},
	)

	dropped = metrics.NewCounter(
		"dropped",
		namespace,
		"number of dropped messages by reason",
		[]string{"reason"},
	)
	droppedMalformed = dropped.WithLabelValues("malformed")
	droppedPartition = dropped.WithLabelValues("partition")
	droppedGroup     = dropped.WithLabelValues("group")

	syncs = metrics.NewCounter(
		"syncs",
		namespace,
		"number of received fragments by outcome",
		[]string{"outcome"},
	)
	syncEqual   = syncs.WithLabelValues("equal")
	syncCached  = syncs.WithLabelValues("cached")
	syncApplied = syncs.WithLabelValues("applied")

	commands = metrics.NewCounter(
		"commands",
		namespace,
		"number of local commands by outcome",
		[]string{"command", "outcome"},
	)

	escalations = metrics.NewCounter(
		"escalations",
		namespace,
		"number of escalations by kind",
		[]string{"kind"},
	)
	reportSent      = escalations.WithLabelValues("report")
	reportLimited   = escalations.WithLabelValues("limited")
	emergencyEnter  = escalations.WithLabelValues("emergency")
	emergencyClosed = escalations.WithLabelValues("recovered")

	ejections = metrics.NewCounter(
		"ejections",
		namespace,
		"number of members ejected after missing heartbeats",
		[]string{},
	).WithLabelValues()

	stateSize = metrics.NewGauge(
		"state_size",
		namespace,
		"number of replicated entities by kind",
		[]string{"kind"},
	)

	status = metrics.NewGauge(
		"status",
		namespace,
		"current status of the session actor",
		[]string{},
	).WithLabelValues()
)
