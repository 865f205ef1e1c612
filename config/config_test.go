package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoadConfig(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		vip := viper.New()
		err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"), vip)
		// after failing to read the requested file the default one is tried
		require.ErrorContains(t, err, "failed to read config file open ./config.toml")
	})
	t.Run("toml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "node.toml")
		require.NoError(t, os.WriteFile(path, []byte(`
[main]
character = "alice"

[session]
partition = 3
lease-time = "10s"
`), 0o600))
		vip := viper.New()
		require.NoError(t, LoadConfig(path, vip))
		require.Equal(t, "alice", vip.GetString("main.character"))
		require.Equal(t, 3, vip.GetInt("session.partition"))
		require.Equal(t, 10*time.Second, vip.GetDuration("session.lease-time"))
	})
}

func TestDefaultConfig(t *testing.T) {
	conf := DefaultConfig()
	require.Equal(t, 30*time.Second, conf.Session.LeaseTime)
	require.Equal(t, 10*time.Minute, conf.Session.PlayerLeaseTime)
	require.Equal(t, filepath.Join(defaultDataDir, "0"), conf.DataDir())
	require.Equal(t, ConsoleLogEncoder, conf.LOGGING.Encoder)
}

func TestLoggerLevel(t *testing.T) {
	cfg := DefaultLoggingConfig()
	require.Equal(t, zapcore.WarnLevel, cfg.Level("state"))
	require.Equal(t, zapcore.InfoLevel, cfg.Level("unknown"))

	cfg.AppLoggerLevel = "debug"
	cfg.ActorLoggerLevel = ""
	require.Equal(t, zapcore.DebugLevel, cfg.Level("actor"))

	cfg.P2PLoggerLevel = "loud"
	require.Equal(t, zapcore.DebugLevel, cfg.Level("p2p"))
}
