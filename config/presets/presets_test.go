package presets

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/go-sessionmesh/config"
)

func TestGet(t *testing.T) {
	require.Equal(t, []string{"fastnet", "standalone"}, Options())

	conf, err := Get("fastnet")
	require.NoError(t, err)
	require.Less(t, conf.Session.LeaseTime, config.DefaultConfig().Session.LeaseTime)
	require.Less(t, conf.Session.PlayerLeaseJitter, conf.Session.PlayerLeaseTime)

	_, err = Get("mainnet")
	require.ErrorContains(t, err, "preset mainnet is not registered")
}

func TestStandaloneIsLocal(t *testing.T) {
	conf, err := Get("standalone")
	require.NoError(t, err)
	require.True(t, conf.P2P.MDNS)
	require.Empty(t, conf.P2P.Bootnodes)
	require.NotEmpty(t, conf.CreateSession)
}
