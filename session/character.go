package session

import (
	"errors"
	"fmt"

	"github.com/spacemeshos/go-sessionmesh/common/types"
	"github.com/spacemeshos/go-sessionmesh/store"
)

// NewCharacter creates a level 1 character at start.
func NewCharacter(name, class string, start types.Location) types.Character {
	return types.Character{
		ID:    types.NewStamp(),
		Name:  name,
		Class: class,
		Stats: types.Stats{
			Level:     1,
			HP:        20,
			MaxHP:     20,
			Strength:  3,
			Dexterity: 3,
		},
		Location: start,
		Alive:    true,
	}
}

// LoadCharacter loads the character stored under name together with the
// houses it owns. A new character is created at start if nothing is stored.
// Any other failure is fatal for the character.
func LoadCharacter(st Store, name, class string, start types.Location) (types.Character, []types.House, error) {
	rec, err := st.Load(name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return NewCharacter(name, class, start), nil, nil
	case err != nil:
		return types.Character{}, nil, fmt.Errorf("load character %s: %w", name, err)
	}
	c := rec.Character
	c.Target = types.CombatTarget{}
	c.InHouse = false
	c.House = types.EmptyStamp
	return c, rec.Houses, nil
}

// level for the accumulated experience.
func level(experience uint64) uint32 {
	return 1 + uint32(experience/100)
}
