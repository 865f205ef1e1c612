package presets

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spacemeshos/go-sessionmesh/config"
)

func init() {
	register("standalone", standalone())
}

// standalone runs a node that only talks to peers on the local network.
func standalone() config.Config {
	conf := config.DefaultConfig()
	conf.DataDirParent = filepath.Join(os.TempDir(), "sessionmesh")
	conf.FileLock = filepath.Join(conf.DataDirParent, "LOCK")
	conf.CreateSession = "standalone"

	conf.P2P.Listen = []string{"/ip4/127.0.0.1/tcp/0"}
	conf.P2P.MDNS = true
	conf.P2P.Bootnodes = nil
	conf.P2P.BootstrapTimeout = 2 * time.Second
	return conf
}
