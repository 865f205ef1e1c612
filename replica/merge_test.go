package replica

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/go-sessionmesh/common/types"
)

func sessionState(t *testing.T) (*State, types.Character) {
	host := newCharacter("host", types.Location{})
	s := newState(t, host)
	s.AddCharacter(newCharacter("guest", types.Location{X: 1}))
	s.AddMonster(newMonster("rat", 1, types.Location{X: 2}))
	s.AddMonster(newMonster("rat", 2, types.Location{X: 3}))
	s.AddMerchant(types.Merchant{Location: types.Location{Y: 1}, Category: "smith"})
	s.AddMarker(types.Marker{Location: types.Location{Y: 2}})
	s.AddHouse(types.House{ID: types.NewStamp(), Owner: host.ID, Location: types.Location{Y: 3}})
	return s, host
}

func TestMergeIntoJoiningNode(t *testing.T) {
	session, host := sessionState(t)
	joiner := newState(t, newCharacter("joiner", types.Location{X: 5}))
	before := joiner.Size()

	added := joiner.Merge(session.Fragment(0, 1))
	require.Equal(t, 7, added)
	after := joiner.Size()
	require.GreaterOrEqual(t, after.Total(), before.Total())
	require.Equal(t, Size{Characters: 3, Monsters: 2, Houses: 1, Merchants: 1, Markers: 1}, after)

	rh, ok := joiner.Character(host.ID)
	require.True(t, ok)
	require.Equal(t, host.Location, rh.Location)

	require.Zero(t, joiner.Merge(session.Fragment(0, 2)))
	require.Equal(t, after, joiner.Size())
}

func TestMergeKeepsPopulatedMonstersAndMerchants(t *testing.T) {
	session, _ := sessionState(t)
	joiner := newState(t, newCharacter("joiner", types.Location{}))
	wolf := newMonster("wolf", 1, types.Location{X: 9})
	joiner.AddMonster(wolf)
	joiner.AddMerchant(types.Merchant{Location: types.Location{X: 9}, Category: "tailor"})

	joiner.Merge(session.Fragment(0, 1))
	size := joiner.Size()
	require.Equal(t, 1, size.Monsters)
	require.Equal(t, 1, size.Merchants)
	_, ok := joiner.Monster(wolf.Key)
	require.True(t, ok)
	require.Equal(t, 1, size.Markers)
	require.Equal(t, 1, size.Houses)
	require.Equal(t, 3, size.Characters)
}

func TestMergeKeepsLocalCharacters(t *testing.T) {
	session, host := sessionState(t)
	joiner := newState(t, newCharacter("joiner", types.Location{}))
	stale := host
	stale.Location = types.Location{X: 100}
	joiner.AddCharacter(stale)

	joiner.Merge(session.Fragment(0, 1))
	rh, _ := joiner.Character(host.ID)
	require.Equal(t, stale.Location, rh.Location)
}
