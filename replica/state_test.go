package replica

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spacemeshos/go-sessionmesh/common/types"
)

func newCharacter(name string, loc types.Location) types.Character {
	return types.Character{
		ID:       types.NewStamp(),
		Name:     name,
		Class:    "warrior",
		Stats:    types.Stats{Level: 1, HP: 10, MaxHP: 10, Strength: 3},
		Location: loc,
		Alive:    true,
	}
}

func newMonster(template string, instance uint32, loc types.Location) types.Monster {
	return types.Monster{
		Key:      types.MonsterKey{Template: template, Instance: instance},
		Location: loc,
		Alive:    true,
		HP:       5,
		MaxHP:    5,
	}
}

func newState(tb testing.TB, self types.Character) *State {
	return New(self, WithLogger(zaptest.NewLogger(tb)))
}

func TestRemoveCharacterReleasesCombatAndHouse(t *testing.T) {
	a := newCharacter("a", types.Location{})
	b := newCharacter("b", types.Location{X: 1})
	c := newCharacter("c", types.Location{X: 2})
	rat := newMonster("rat", 1, types.Location{X: 1})
	house := types.House{ID: types.NewStamp(), Owner: c.ID, Location: types.Location{X: 2}}

	s := newState(t, a)
	require.True(t, s.AddCharacter(b))
	require.True(t, s.AddCharacter(c))
	require.False(t, s.AddCharacter(c))
	require.True(t, s.AddMonster(rat))
	require.True(t, s.AddHouse(house))

	require.NoError(t, s.EngageMonster(b.ID, rat.Key, 3))
	require.NoError(t, s.EnterHouse(c.ID, house.ID))
	h, _ := s.House(house.ID)
	require.True(t, h.Occupied(c.ID))

	require.True(t, s.RemoveCharacter(b.ID))
	m, _ := s.Monster(rat.Key)
	require.False(t, m.UnderAttack)
	require.True(t, m.Attacker.Empty())

	require.True(t, s.RemoveCharacter(c.ID))
	require.False(t, h.Occupied(c.ID))

	require.False(t, s.RemoveCharacter(a.ID), "own character is never removed")
	require.False(t, s.RemoveCharacter(b.ID))
	require.Equal(t, 1, s.Size().Characters)
}

func TestEngageCharacterReleasesPriorTargets(t *testing.T) {
	a := newCharacter("a", types.Location{})
	b := newCharacter("b", types.Location{X: 1})
	c := newCharacter("c", types.Location{X: 2})
	rat := newMonster("rat", 1, types.Location{X: 1})

	s := newState(t, a)
	s.AddCharacter(b)
	s.AddCharacter(c)
	s.AddMonster(rat)
	require.NoError(t, s.EngageMonster(b.ID, rat.Key, 1))
	require.NoError(t, s.EngageCharacter(b.ID, c.ID, 2))

	m, _ := s.Monster(rat.Key)
	require.False(t, m.UnderAttack)
	rb, _ := s.Character(b.ID)
	rc, _ := s.Character(c.ID)
	require.Equal(t, types.TargetCharacter(c.ID, 2), rb.Target)
	require.Equal(t, types.TargetCharacter(b.ID, 2), rc.Target)
	require.Equal(t, rb.Location, rc.Location)

	require.NoError(t, s.Disengage(c.ID))
	require.False(t, rb.Target.InCombat())
	require.False(t, rc.Target.InCombat())

	require.ErrorIs(t, s.EngageCharacter(b.ID, types.NewStamp(), 3), ErrUnknownCharacter)
	require.ErrorIs(t, s.EngageMonster(b.ID, types.MonsterKey{Template: "wolf"}, 3), ErrUnknownMonster)
	require.ErrorIs(t, s.EnterHouse(b.ID, types.NewStamp()), ErrUnknownHouse)
}

func TestHouseOccupancy(t *testing.T) {
	a := newCharacter("a", types.Location{})
	first := types.House{ID: types.NewStamp(), Owner: a.ID, Location: types.Location{X: 4}}
	second := types.House{ID: types.NewStamp(), Owner: a.ID, Location: types.Location{X: 9}}
	s := newState(t, a)
	s.AddHouse(first)
	s.AddHouse(second)

	require.NoError(t, s.EnterHouse(a.ID, first.ID))
	require.True(t, s.Self().InHouse)
	require.Equal(t, first.Location, s.Self().Location)

	require.NoError(t, s.EnterHouse(a.ID, second.ID))
	h1, _ := s.House(first.ID)
	h2, _ := s.House(second.ID)
	require.False(t, h1.Occupied(a.ID))
	require.True(t, h2.Occupied(a.ID))
	require.Equal(t, second.ID, s.Self().House)

	require.NoError(t, s.LeaveHouse(a.ID))
	require.False(t, s.Self().InHouse)
	require.True(t, s.Self().House.Empty())
	require.Equal(t, second.Location, s.Self().Location)
	require.Empty(t, h2.Occupants)
}

func TestApplyMonster(t *testing.T) {
	a := newCharacter("a", types.Location{})
	b := newCharacter("b", types.Location{X: 1})
	rat := newMonster("rat", 1, types.Location{X: 1})
	s := newState(t, a)
	s.AddCharacter(b)
	s.AddMonster(rat)
	require.NoError(t, s.EngageMonster(b.ID, rat.Key, 4))

	dead := rat
	dead.Alive = false
	dead.HP = 0
	res, err := s.ApplyMonster(dead)
	require.NoError(t, err)
	require.Empty(t, res.Lost)
	m, _ := s.Monster(rat.Key)
	require.False(t, m.Alive)
	require.False(t, m.UnderAttack)
	rb, _ := s.Character(b.ID)
	require.False(t, rb.Target.InCombat())

	_, err = s.ApplyMonster(rat)
	require.NoError(t, err)
	require.True(t, m.Alive)
	require.Equal(t, rat.MaxHP, m.HP)

	_, err = s.ApplyMonster(newMonster("wolf", 1, types.Location{}))
	require.ErrorIs(t, err, ErrUnknownMonster)
}

func TestApplyMonsterKilledUnderOwnCharacter(t *testing.T) {
	a := newCharacter("a", types.Location{X: 1})
	rat := newMonster("rat", 1, types.Location{X: 1})
	s := newState(t, a)
	s.AddMonster(rat)
	require.NoError(t, s.EngageMonster(a.ID, rat.Key, 4))

	dead := rat
	dead.Alive = false
	dead.HP = 0
	res, err := s.ApplyMonster(dead)
	require.NoError(t, err)
	require.Equal(t, []types.MonsterKey{rat.Key}, res.Lost)
	m, _ := s.Monster(rat.Key)
	require.False(t, m.Alive)
	require.False(t, m.UnderAttack)
	require.True(t, s.Self().Target.IsMonster(rat.Key), "own character is corrected by its owner")

	res, err = s.ApplyMonster(rat)
	require.NoError(t, err)
	require.Empty(t, res.Lost)
}

func TestMonstersAt(t *testing.T) {
	s := newState(t, newCharacter("a", types.Location{}))
	here := types.Location{X: 3, Y: 3}
	s.AddMonster(newMonster("wolf", 2, here))
	s.AddMonster(newMonster("rat", 7, here))
	dead := newMonster("rat", 1, here)
	dead.Alive = false
	s.AddMonster(dead)
	s.AddMonster(newMonster("rat", 2, types.Location{}))

	got := s.MonstersAt(here)
	require.Len(t, got, 2)
	require.Equal(t, "rat", got[0].Key.Template)
	require.Equal(t, "wolf", got[1].Key.Template)
}

func TestDigest(t *testing.T) {
	a := newCharacter("a", types.Location{})
	b := newCharacter("b", types.Location{X: 1})
	rat := newMonster("rat", 1, types.Location{X: 1})

	sa := newState(t, a)
	sa.AddCharacter(b)
	sa.AddMonster(rat)
	sa.AddMarker(types.Marker{Location: types.Location{Y: 8}})
	sb := newState(t, b)
	sb.AddCharacter(a)
	sb.AddMonster(rat)
	sb.AddMarker(types.Marker{Location: types.Location{Y: 8}})

	require.Equal(t, Digest(sa.Fragment(1, 5)), Digest(sb.Fragment(2, 9)))
	require.Equal(t, sa.Digest(), sb.Digest())

	require.NoError(t, sa.Move(a.ID, types.Location{X: 7}))
	require.NotEqual(t, sa.Digest(), sb.Digest())
}

func TestFragmentIsDetached(t *testing.T) {
	a := newCharacter("a", types.Location{})
	a.Inventory = []types.Item{{ID: "sword", Count: 1}}
	house := types.House{ID: types.NewStamp(), Owner: a.ID}
	s := newState(t, a)
	s.AddHouse(house)
	require.NoError(t, s.EnterHouse(a.ID, house.ID))

	f := s.Fragment(3, 11)
	require.Equal(t, uint32(3), f.Partition)
	require.Equal(t, types.Timestamp(11), f.Clock)
	require.Equal(t, a.ID, f.Self.ID)
	require.Empty(t, f.Characters)

	f.Self.Inventory[0].Count = 99
	f.Houses[0].Occupants[0] = types.EmptyStamp
	require.Equal(t, uint32(1), s.Self().Inventory[0].Count)
	h, _ := s.House(house.ID)
	require.True(t, h.Occupied(a.ID))
}
