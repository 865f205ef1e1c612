package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"
)

// PushMetrics pushes the default registry to a push gateway every period
// until ctx is canceled.
func PushMetrics(ctx context.Context, logger *zap.Logger, clock clockwork.Clock, url string, period time.Duration, node string, partition uint32) {
	pusher := push.New(url, "go-sessionmesh").Gatherer(prometheus.DefaultGatherer).
		Grouping("node", node).
		Grouping("partition", fmtPartition(partition))
	ticker := clock.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if err := pusher.PushContext(ctx); err != nil {
				logger.Warn("failed to push metrics", zap.String("url", url), zap.Error(err))
			}
		}
	}
}

func fmtPartition(partition uint32) string {
	return strconv.FormatUint(uint64(partition), 10)
}
