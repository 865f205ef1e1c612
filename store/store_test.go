package store

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spacemeshos/go-sessionmesh/common/types"
	"github.com/spacemeshos/go-sessionmesh/database"
)

func TestStore(t *testing.T) {
	db := database.NewMemDatabase()
	t.Cleanup(func() { db.Close() })
	s := New(db, WithLogger(zaptest.NewLogger(t)))

	_, err := s.Load("ghost")
	require.ErrorIs(t, err, ErrNotFound)

	hero := types.Character{
		ID:        types.NewStamp(),
		Name:      "hero",
		Class:     "ranger",
		Stats:     types.Stats{Level: 3, Experience: 120, Gold: 40, HP: 20, MaxHP: 25},
		Inventory: []types.Item{{ID: "arrow", Count: 30}},
		Equipped:  []types.Equipment{{Slot: "hands", Item: "bow"}},
		Location:  types.Location{X: 4, Y: -2},
		Alive:     true,
	}
	rec := &Record{
		Character: hero,
		Houses: []types.House{{
			ID:       types.NewStamp(),
			Owner:    hero.ID,
			Location: types.Location{X: 1},
			Access:   types.Public,
		}},
	}
	require.NoError(t, s.Save(rec))
	require.NoError(t, s.Save(&Record{Character: types.Character{ID: types.NewStamp(), Name: "alt"}}))

	got, err := s.Load("hero")
	require.NoError(t, err)
	if diff := cmp.Diff(rec, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("loaded record mismatch (-want +got):\n%s", diff)
	}

	names, err := s.Names()
	require.NoError(t, err)
	require.Equal(t, []string{"alt", "hero"}, names)

	rec.Character.Stats.Gold = 90
	require.NoError(t, s.Save(rec))
	got, err = s.Load("hero")
	require.NoError(t, err)
	require.Equal(t, uint64(90), got.Character.Stats.Gold)
}
