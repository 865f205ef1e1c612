// Package p2p builds the libp2p host a node uses to reach its peers.
package p2p

import (
	"context"
	"fmt"
	"time"

	lp2plog "github.com/ipfs/go-log/v2"
	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/p2p/net/connmgr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spacemeshos/go-sessionmesh/p2p/pubsub"
)

// DefaultConfig config.
func DefaultConfig() Config {
	return Config{
		Listen:             []string{"/ip4/0.0.0.0/tcp/7600"},
		LogLevel:           zapcore.WarnLevel,
		MDNS:               true,
		LowPeers:           20,
		HighPeers:          60,
		GracePeersShutdown: 30 * time.Second,
		BootstrapTimeout:   10 * time.Second,
		PubSub:             pubsub.DefaultConfig(),
	}
}

// Config for all things related to p2p layer.
type Config struct {
	DataDir            string        `mapstructure:"-"`
	LogLevel           zapcore.Level `mapstructure:"log-level"`
	Listen             []string      `mapstructure:"listen"`
	Bootnodes          []string      `mapstructure:"bootnodes"`
	MDNS               bool          `mapstructure:"mdns"`
	LowPeers           int           `mapstructure:"low-peers"`
	HighPeers          int           `mapstructure:"high-peers"`
	GracePeersShutdown time.Duration `mapstructure:"grace-peers-shutdown"`
	BootstrapTimeout   time.Duration `mapstructure:"bootstrap-timeout"`
	PubSub             pubsub.Config `mapstructure:"pubsub"`
}

// MarshalLogObject implements logging interface.
func (cfg *Config) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddString("log-level", cfg.LogLevel.String())
	encoder.AddArray("listen", zapcore.ArrayMarshalerFunc(func(enc zapcore.ArrayEncoder) error {
		for _, addr := range cfg.Listen {
			enc.AppendString(addr)
		}
		return nil
	}))
	encoder.AddInt("bootnodes", len(cfg.Bootnodes))
	encoder.AddBool("mdns", cfg.MDNS)
	encoder.AddInt("low-peers", cfg.LowPeers)
	encoder.AddInt("high-peers", cfg.HighPeers)
	return nil
}

// New initializes libp2p host and gossip for a node.
func New(ctx context.Context, logger *zap.Logger, cfg Config) (*Host, error) {
	logger.Info("starting libp2p host", zap.Object("config", &cfg))
	key, err := EnsureIdentity(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	lp2plog.SetPrimaryCore(logger.Core())
	lp2plog.SetAllLoggers(lp2plog.LogLevel(cfg.LogLevel))
	cm, err := connmgr.NewConnManager(cfg.LowPeers, cfg.HighPeers, connmgr.WithGracePeriod(cfg.GracePeersShutdown))
	if err != nil {
		return nil, fmt.Errorf("p2p create conn mgr: %w", err)
	}
	h, err := libp2p.New(
		libp2p.Identity(key),
		libp2p.ListenAddrStrings(cfg.Listen...),
		libp2p.UserAgent("go-sessionmesh"),
		libp2p.ConnectionManager(cm),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize libp2p host: %w", err)
	}
	logger.Info("local node identity", zap.Stringer("identity", h.ID()))
	return Upgrade(h, WithContext(ctx), WithConfig(cfg), WithLog(logger))
}

// Opt is for configuring Host.
type Opt func(fh *Host)

// WithLog configures logger for Host.
func WithLog(logger *zap.Logger) Opt {
	return func(fh *Host) {
		fh.logger = logger
	}
}

// WithConfig sets Config for Host.
func WithConfig(cfg Config) Opt {
	return func(fh *Host) {
		fh.cfg = cfg
	}
}

// WithContext set context for Host.
func WithContext(ctx context.Context) Opt {
	return func(fh *Host) {
		fh.ctx = ctx
	}
}

// Host is a convenience wrapper for the p2p functionality a node needs.
type Host struct {
	ctx    context.Context
	cfg    Config
	logger *zap.Logger

	host.Host
	*pubsub.GossipPubSub

	discovery *discovery
}

// Upgrade creates Host instance from host.Host.
func Upgrade(h host.Host, opts ...Opt) (*Host, error) {
	fh := &Host{
		ctx:    context.Background(),
		cfg:    DefaultConfig(),
		logger: zap.NewNop(),
		Host:   h,
	}
	for _, opt := range opts {
		opt(fh)
	}
	var err error
	fh.GossipPubSub, err = pubsub.New(fh.ctx, fh.logger, h, fh.cfg.PubSub)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize pubsub: %w", err)
	}
	fh.discovery, err = newDiscovery(fh.logger, h, fh.cfg)
	if err != nil {
		return nil, err
	}
	return fh, nil
}

// Start connects to bootnodes and starts local network discovery.
func (fh *Host) Start() error {
	return fh.discovery.start(fh.ctx)
}

// Stop background workers and release external resources.
func (fh *Host) Stop() error {
	fh.discovery.stop()
	if err := fh.Host.Close(); err != nil {
		return fmt.Errorf("failed to close libp2p host: %w", err)
	}
	return nil
}
