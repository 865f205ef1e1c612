package types

import (
	"slices"

	"go.uber.org/zap/zapcore"
)

//go:generate scalegen -types Stats,Item,Equipment,CombatTarget,Character

// TargetKind tags the variant held by a CombatTarget.
type TargetKind uint8

const (
	// NoTarget means the character is not in combat.
	NoTarget TargetKind = iota
	// MonsterTarget means the character is fighting a monster.
	MonsterTarget
	// CharacterTarget means the character is fighting another character.
	CharacterTarget
)

func (k TargetKind) String() string {
	switch k {
	case NoTarget:
		return "none"
	case MonsterTarget:
		return "monster"
	case CharacterTarget:
		return "character"
	}
	return "unknown"
}

// CombatTarget is either a monster key or a character stamp, never both.
type CombatTarget struct {
	Kind      TargetKind
	Monster   MonsterKey
	Character Stamp
	// Since is the logical time the engagement started.
	Since Timestamp
}

// TargetMonster builds a monster engagement.
func TargetMonster(key MonsterKey, since Timestamp) CombatTarget {
	return CombatTarget{Kind: MonsterTarget, Monster: key, Since: since}
}

// TargetCharacter builds a player versus player engagement.
func TargetCharacter(id Stamp, since Timestamp) CombatTarget {
	return CombatTarget{Kind: CharacterTarget, Character: id, Since: since}
}

// InCombat is true for any variant except NoTarget.
func (t CombatTarget) InCombat() bool {
	return t.Kind != NoTarget
}

// IsMonster is true if the target is the monster with the given key.
func (t CombatTarget) IsMonster(key MonsterKey) bool {
	return t.Kind == MonsterTarget && t.Monster == key
}

// IsCharacter is true if the target is the character with the given stamp.
func (t CombatTarget) IsCharacter(id Stamp) bool {
	return t.Kind == CharacterTarget && t.Character == id
}

// MarshalLogObject implements logging interface.
func (t CombatTarget) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddString("kind", t.Kind.String())
	switch t.Kind {
	case MonsterTarget:
		encoder.AddString("monster", t.Monster.String())
	case CharacterTarget:
		encoder.AddString("character", t.Character.ShortString())
	}
	encoder.AddUint64("since", uint64(t.Since))
	return nil
}

// Stats are the numeric attributes of a character.
type Stats struct {
	Level      uint32
	Experience uint64
	Gold       uint64
	HP         uint32
	MaxHP      uint32
	Strength   uint32
	Dexterity  uint32
}

// Item is a stack of one item type in an inventory.
type Item struct {
	ID    string `scale:"max=64"`
	Count uint32
}

// Equipment is an item equipped into a slot.
type Equipment struct {
	Slot string `scale:"max=32"`
	Item string `scale:"max=64"`
}

// Character is a player controlled entity. Exactly one node owns it at a time,
// every other node holds a replica.
type Character struct {
	ID        Stamp
	Name      string      `scale:"max=64"`
	Class     string      `scale:"max=32"`
	Stats     Stats
	Inventory []Item      `scale:"max=256"`
	Equipped  []Equipment `scale:"max=16"`
	Location  Location
	Alive     bool
	Target    CombatTarget
	InHouse   bool
	House     Stamp
}

// Copy returns a deep copy of the character.
func (c *Character) Copy() *Character {
	cp := *c
	cp.Inventory = slices.Clone(c.Inventory)
	cp.Equipped = slices.Clone(c.Equipped)
	return &cp
}

// Placement is true if both characters agree on where the character is and
// what it is doing. Stats and inventory are ignored.
func (c *Character) Placement(other *Character) bool {
	return c.ID == other.ID &&
		c.Location == other.Location &&
		c.Alive == other.Alive &&
		c.Target == other.Target &&
		c.InHouse == other.InHouse &&
		c.House == other.House
}

// MarshalLogObject implements logging interface.
func (c *Character) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddString("id", c.ID.ShortString())
	encoder.AddString("name", c.Name)
	encoder.AddString("location", c.Location.String())
	encoder.AddBool("alive", c.Alive)
	if err := encoder.AddObject("target", c.Target); err != nil {
		return err
	}
	if c.InHouse {
		encoder.AddString("house", c.House.ShortString())
	}
	return nil
}
