package presets

import (
	"time"

	"github.com/spacemeshos/go-sessionmesh/config"
)

func init() {
	register("fastnet", fastnet())
}

// fastnet shortens every lease, useful to watch a few nodes converge.
func fastnet() config.Config {
	conf := config.DefaultConfig()
	conf.Session.LeaseTime = 5 * time.Second
	conf.Session.PlayerLeaseTime = time.Minute
	conf.Session.PlayerLeaseJitter = 5 * time.Second
	conf.Session.SyncInterval = 5 * time.Second
	conf.Session.RespawnDelay = 10 * time.Second
	conf.Session.ErrorReportInterval = time.Second
	conf.LOGGING.ActorLoggerLevel = "debug"
	return conf
}
