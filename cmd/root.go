package cmd

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/spacemeshos/go-sessionmesh/config"
	"github.com/spacemeshos/go-sessionmesh/config/presets"
)

// AddFlags adds cobra flags to the app and binds them to cfg.
func AddFlags(flagSet *pflag.FlagSet, cfg *config.Config) (configPath *string) {
	flagSet.StringVarP(&cfg.Preset, "preset", "p", "",
		fmt.Sprintf("preset overwrites default values of the config. options %+s", presets.Options()))

	/** ======================== BaseConfig Flags ========================== **/
	configPath = flagSet.StringP("config", "c", "", "load configuration from file")
	flagSet.StringVarP(&cfg.DataDirParent, "data-folder", "d",
		cfg.DataDirParent, "specify data directory for sessionmesh")
	flagSet.StringVar(&cfg.FileLock, "filelock",
		cfg.FileLock, "filesystem lock to prevent running more than one instance")
	flagSet.StringVar(&cfg.Character, "character",
		cfg.Character, "name of the character played on this node")
	flagSet.StringVar(&cfg.Class, "class",
		cfg.Class, "class of a new character")
	flagSet.StringVar(&cfg.Content, "content",
		cfg.Content, "directory with monster and world tables, built in tables are used if empty")
	flagSet.StringVar(&cfg.JoinSession, "join-session",
		cfg.JoinSession, "session to join on start")
	flagSet.StringVar(&cfg.CreateSession, "create-session",
		cfg.CreateSession, "create a session with this name on start")
	flagSet.StringVar(&cfg.LOGGING.Encoder, "log-encoder",
		cfg.LOGGING.Encoder, "log as JSON instead of plain text")

	/** ======================== P2P Flags ========================== **/
	flagSet.StringSliceVar(&cfg.P2P.Listen, "listen",
		cfg.P2P.Listen, "address(es) for listening")
	flagSet.StringSliceVar(&cfg.P2P.Bootnodes, "bootnodes",
		cfg.P2P.Bootnodes, "entrypoints into the network")
	flagSet.BoolVar(&cfg.P2P.MDNS, "mdns",
		cfg.P2P.MDNS, "discover peers on the local network")
	flagSet.IntVar(&cfg.P2P.LowPeers, "low-peers",
		cfg.P2P.LowPeers, "low watermark for the number of connections")
	flagSet.IntVar(&cfg.P2P.HighPeers, "high-peers",
		cfg.P2P.HighPeers, "high watermark for the number of connections; once reached, connections are pruned until low watermark remains")
	flagSet.BoolVar(&cfg.P2P.PubSub.Flood, "flood",
		cfg.P2P.PubSub.Flood, "flood created messages to all peers")

	/** ======================== Session Flags ========================== **/
	flagSet.Uint32Var(&cfg.Session.Partition, "partition",
		cfg.Session.Partition, "partition of the network, nodes only see sessions of their partition")
	flagSet.DurationVar(&cfg.Session.LeaseTime, "lease-time",
		cfg.Session.LeaseTime, "how long a session stays discoverable without an announcement")
	flagSet.DurationVar(&cfg.Session.PlayerLeaseTime, "player-lease-time",
		cfg.Session.PlayerLeaseTime, "how long a member stays in a session without a heartbeat")
	flagSet.DurationVar(&cfg.Session.SyncInterval, "sync-interval",
		cfg.Session.SyncInterval, "interval of the fragment broadcast")
	flagSet.DurationVar(&cfg.Session.RespawnDelay, "respawn-delay",
		cfg.Session.RespawnDelay, "delay before a killed monster respawns")

	/** ======================== Metrics Flags ========================== **/
	flagSet.BoolVar(&cfg.Metrics.Enabled, "metrics",
		cfg.Metrics.Enabled, "collect node metrics")
	flagSet.IntVar(&cfg.Metrics.Port, "metrics-port",
		cfg.Metrics.Port, "metric server port")
	flagSet.StringVar(&cfg.Metrics.PushURL, "metrics-push",
		cfg.Metrics.PushURL, "push metrics to url")
	flagSet.DurationVar(&cfg.Metrics.PushPeriod, "metrics-push-period",
		cfg.Metrics.PushPeriod, "push period")

	return configPath
}
