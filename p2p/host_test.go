package p2p

import (
	"context"
	"testing"
	"time"

	"github.com/libp2p/go-libp2p/core/network"
	mocknet "github.com/libp2p/go-libp2p/p2p/net/mock"
	ma "github.com/multiformats/go-multiaddr"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestParseBootnodes(t *testing.T) {
	infos, err := ParseBootnodes([]string{
		"/ip4/10.0.0.1/tcp/7600/p2p/12D3KooWDS4mbE2Cqysjf6GBMtWnhcaoBYC6M3FNkTeZqCNFCNkf",
	})
	require.NoError(t, err)
	require.Len(t, infos, 1)
	require.Equal(t, "12D3KooWDS4mbE2Cqysjf6GBMtWnhcaoBYC6M3FNkTeZqCNFCNkf", infos[0].ID.String())

	_, err = ParseBootnodes([]string{"/ip4/10.0.0.1/tcp/7600"})
	require.Error(t, err)
	_, err = ParseBootnodes([]string{"not an address"})
	require.Error(t, err)
}

func TestBootnodes(t *testing.T) {
	mesh := mocknet.New()
	t.Cleanup(func() { mesh.Close() })
	boot, err := mesh.GenPeer()
	require.NoError(t, err)
	h, err := mesh.GenPeer()
	require.NoError(t, err)
	require.NoError(t, mesh.LinkAll())

	addr := boot.Addrs()[0].Encapsulate(ma.StringCast("/p2p/" + boot.ID().String()))
	cfg := DefaultConfig()
	cfg.MDNS = false
	cfg.Bootnodes = []string{addr.String()}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	fh, err := Upgrade(h, WithContext(ctx), WithConfig(cfg), WithLog(zaptest.NewLogger(t)))
	require.NoError(t, err)
	require.NoError(t, fh.Start())
	require.Eventually(t, func() bool {
		return fh.Network().Connectedness(boot.ID()) == network.Connected
	}, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, fh.Stop())
}
