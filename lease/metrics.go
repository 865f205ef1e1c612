package lease

import (
	"github.com/spacemeshos/go-sessionmesh/metrics"
)

const namespace = "lease"

var (
	announcements = metrics.NewCounter(
		"announcements",
		namespace,
		"number of announcements by outcome",
		[]string{"outcome"},
	)
	announceSent       = announcements.WithLabelValues("sent")
	announceSuppressed = announcements.WithLabelValues("suppressed")
	announceFast       = announcements.WithLabelValues("fast")

	directoryEvents = metrics.NewCounter(
		"directory_events",
		namespace,
		"number of presence directory events",
		[]string{"directory", "event"},
	)
)
