package session

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/spacemeshos/go-sessionmesh/common/types"
	"github.com/spacemeshos/go-sessionmesh/store"
)

func TestLoadCharacter(t *testing.T) {
	start := types.Location{X: 1, Y: 2}

	t.Run("new", func(t *testing.T) {
		st := NewMockStore(gomock.NewController(t))
		st.EXPECT().Load("alice").Return(nil, store.ErrNotFound)
		c, houses, err := LoadCharacter(st, "alice", "mage", start)
		require.NoError(t, err)
		require.Empty(t, houses)
		require.False(t, c.ID.Empty())
		require.Equal(t, "alice", c.Name)
		require.Equal(t, "mage", c.Class)
		require.Equal(t, start, c.Location)
		require.Equal(t, uint32(1), c.Stats.Level)
		require.True(t, c.Alive)
	})
	t.Run("stored", func(t *testing.T) {
		stored := NewCharacter("alice", "mage", types.Location{X: 7, Y: 7})
		stored.Stats.Experience = 250
		stored.Target = types.TargetMonster(types.MonsterKey{Template: "rat", Instance: 1}, 10)
		stored.InHouse = true
		stored.House = types.NewStamp()
		house := types.House{ID: stored.House, Owner: stored.ID, Location: stored.Location}

		st := NewMockStore(gomock.NewController(t))
		st.EXPECT().Load("alice").Return(&store.Record{
			Character: stored,
			Houses:    []types.House{house},
		}, nil)
		c, houses, err := LoadCharacter(st, "alice", "warrior", start)
		require.NoError(t, err)

		expected := stored
		expected.Target = types.CombatTarget{}
		expected.InHouse = false
		expected.House = types.EmptyStamp
		require.Empty(t, cmp.Diff(expected, c))
		require.Equal(t, []types.House{house}, houses)
	})
	t.Run("failure", func(t *testing.T) {
		failure := errors.New("disk on fire")
		st := NewMockStore(gomock.NewController(t))
		st.EXPECT().Load("alice").Return(nil, failure)
		_, _, err := LoadCharacter(st, "alice", "mage", start)
		require.ErrorIs(t, err, failure)
	})
}

func TestLevel(t *testing.T) {
	for _, tc := range []struct {
		experience uint64
		level      uint32
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{250, 3},
	} {
		require.Equal(t, tc.level, level(tc.experience), "experience %d", tc.experience)
	}
}
