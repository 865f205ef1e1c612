// Package log builds the zap loggers used by every node component.
package log

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spacemeshos/go-sessionmesh/metrics"
)

// where logs go by default.
var logWriter io.Writer = os.Stdout

var entries = metrics.NewCounter(
	"entries",
	"log",
	"number of log entries by level",
	[]string{"level"},
)

// NewEncoder returns a json encoder for "json" and a console encoder for
// anything else.
func NewEncoder(kind string) zapcore.Encoder {
	if kind == "json" {
		return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	return zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
}

// NewWithLevel creates a logger with a fixed level and with a set of (optional) hooks.
// Every entry is counted by level.
func NewWithLevel(module string,
	level zap.AtomicLevel,
	encoder zapcore.Encoder,
	hooks ...func(zapcore.Entry) error,
) *zap.Logger {
	hooks = append(hooks, countEntry)
	core := zapcore.NewCore(encoder, zapcore.AddSync(logWriter), level)
	return zap.New(zapcore.RegisterHooks(core, hooks...)).Named(module)
}

func countEntry(entry zapcore.Entry) error {
	entries.WithLabelValues(entry.Level.String()).Inc()
	return nil
}

// Child returns a named logger that drops entries below level. The level
// can't be lower than the level of the parent.
func Child(parent *zap.Logger, name string, level zapcore.Level) *zap.Logger {
	return parent.Named(name).WithOptions(zap.IncreaseLevel(level))
}
