package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCounter(t *testing.T) {
	c := NewCounter("test_requests", "metrics", "requests in test", []string{"kind"})
	c.WithLabelValues("a").Inc()
	c.WithLabelValues("a").Inc()
	require.Equal(t, 2.0, testutil.ToFloat64(c.WithLabelValues("a")))
	require.Equal(t, 0.0, testutil.ToFloat64(c.WithLabelValues("b")))
}

func TestFmtPartition(t *testing.T) {
	require.Equal(t, "0", fmtPartition(0))
	require.Equal(t, "4294967295", fmtPartition(1<<32-1))
}
