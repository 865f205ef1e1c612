package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	var buf bytes.Buffer
	prev := logWriter
	logWriter = &buf
	t.Cleanup(func() { logWriter = prev })
	return &buf
}

func TestLogLevel(t *testing.T) {
	buf := captureOutput(t)

	hooked := 0
	root := NewWithLevel("node", zap.NewAtomicLevelAt(zapcore.DebugLevel), NewEncoder("console"),
		func(zapcore.Entry) error {
			hooked++
			return nil
		},
	)
	child := Child(root, "actor", zapcore.InfoLevel)

	child.Debug("dropped")
	require.Empty(t, buf.String())
	require.Zero(t, hooked)

	child.Info("kept", zap.String("key", "value"))
	require.Contains(t, buf.String(), "node.actor")
	require.Contains(t, buf.String(), "kept")
	require.Equal(t, 1, hooked)

	buf.Reset()
	root.Debug("root debug")
	require.Contains(t, buf.String(), "root debug")
	require.Equal(t, 2, hooked)
}

func TestJSONEncoder(t *testing.T) {
	buf := captureOutput(t)
	before := testutil.ToFloat64(entries.WithLabelValues("warn"))

	logger := NewWithLevel("node", zap.NewAtomicLevelAt(zapcore.InfoLevel), NewEncoder("json"))
	logger.Warn("in json", zap.Uint32("partition", 7))

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	require.Equal(t, "in json", entry["msg"])
	require.Equal(t, "node", entry["logger"])
	require.EqualValues(t, 7, entry["partition"])
	require.Equal(t, before+1, testutil.ToFloat64(entries.WithLabelValues("warn")))
}
