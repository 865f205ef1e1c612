package p2p

import (
	"context"
	"fmt"
	"sync"

	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/p2p/discovery/mdns"
	ma "github.com/multiformats/go-multiaddr"
	"go.uber.org/zap"
)

// MDNSServiceName is the service tag nodes announce on the local network.
const MDNSServiceName = "sessionmesh"

// ParseBootnodes parses multiaddrs with a /p2p component.
func ParseBootnodes(addrs []string) ([]peer.AddrInfo, error) {
	rst := make([]peer.AddrInfo, 0, len(addrs))
	for _, raw := range addrs {
		addr, err := ma.NewMultiaddr(raw)
		if err != nil {
			return nil, fmt.Errorf("parse bootnode %s: %w", raw, err)
		}
		info, err := peer.AddrInfoFromP2pAddr(addr)
		if err != nil {
			return nil, fmt.Errorf("parse into peer.AddrInfo %s: %w", raw, err)
		}
		rst = append(rst, *info)
	}
	return rst, nil
}

type discovery struct {
	logger    *zap.Logger
	h         host.Host
	cfg       Config
	bootnodes []peer.AddrInfo

	mdns mdns.Service
	wg   sync.WaitGroup
}

func newDiscovery(logger *zap.Logger, h host.Host, cfg Config) (*discovery, error) {
	bootnodes, err := ParseBootnodes(cfg.Bootnodes)
	if err != nil {
		return nil, err
	}
	return &discovery{logger: logger, h: h, cfg: cfg, bootnodes: bootnodes}, nil
}

func (d *discovery) start(ctx context.Context) error {
	for _, info := range d.bootnodes {
		d.connect(ctx, info)
	}
	if !d.cfg.MDNS {
		return nil
	}
	d.mdns = mdns.NewMdnsService(d.h, MDNSServiceName, &notifee{ctx: ctx, d: d})
	if err := d.mdns.Start(); err != nil {
		return fmt.Errorf("start mdns: %w", err)
	}
	return nil
}

func (d *discovery) connect(ctx context.Context, info peer.AddrInfo) {
	if info.ID == d.h.ID() {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, d.cfg.BootstrapTimeout)
		defer cancel()
		if err := d.h.Connect(ctx, info); err != nil {
			d.logger.Debug("failed to connect to peer", zap.Stringer("peer", info.ID), zap.Error(err))
			return
		}
		d.logger.Debug("connected to peer", zap.Stringer("peer", info.ID))
	}()
}

func (d *discovery) stop() {
	if d.mdns != nil {
		if err := d.mdns.Close(); err != nil {
			d.logger.Debug("failed to close mdns", zap.Error(err))
		}
	}
	d.wg.Wait()
}

type notifee struct {
	ctx context.Context
	d   *discovery
}

// HandlePeerFound is called by mdns for every peer seen on the local network.
func (n *notifee) HandlePeerFound(info peer.AddrInfo) {
	n.d.connect(n.ctx, info)
}
