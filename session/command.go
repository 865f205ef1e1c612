package session

import (
	"errors"

	"github.com/spacemeshos/go-sessionmesh/common/types"
)

var (
	ErrUnknownCommand  = errors.New("unknown command")
	ErrNotJoined       = errors.New("not joined")
	ErrJoined          = errors.New("already joined")
	ErrUnknownSession  = errors.New("unknown session")
	ErrInvalidResponse = errors.New("invalid response")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrStopped         = errors.New("actor stopped")

	ErrInCombat       = errors.New("character is in combat")
	ErrNotInCombat    = errors.New("character is not in combat")
	ErrInHouse        = errors.New("character is in a house")
	ErrNotInHouse     = errors.New("character is not in a house")
	ErrDead           = errors.New("character is dead")
	ErrNotHere        = errors.New("target is at another location")
	ErrInvalidTarget  = errors.New("invalid target")
	ErrMonsterDead    = errors.New("monster is dead")
	ErrTargetEngaged  = errors.New("target is already engaged")
	ErrAccessDenied   = errors.New("house is private")
	ErrNotOwner       = errors.New("house is owned by another character")
	ErrUnknownHouse   = errors.New("unknown house")
	ErrUnknownMonster = errors.New("unknown monster")
	ErrUnknownTarget  = errors.New("unknown character")
)

// Command is an action of the own character. The set of commands is closed,
// every command is defined in this package.
type Command interface {
	String() string
	command()
}

// Move teleports the own character on the open-world map.
type Move struct {
	To types.Location
}

// AttackMonster starts a fight with an alive, unclaimed monster at the
// character's location.
type AttackMonster struct {
	Key types.MonsterKey
}

// AttackCharacter starts a fight with another character at the same location.
type AttackCharacter struct {
	Target types.Stamp
}

// Strike hits the monster the character fights.
type Strike struct{}

// Flee ends any fight.
type Flee struct{}

// BuildHouse builds a house owned by the character at its location.
type BuildHouse struct {
	Access types.AccessPolicy
}

// EnterHouse moves the character into a house at its location.
type EnterHouse struct {
	House types.Stamp
}

// LeaveHouse moves the character out of its house.
type LeaveHouse struct{}

// SetHouseAccess changes the access policy of a house owned by the character.
type SetHouseAccess struct {
	House  types.Stamp
	Access types.AccessPolicy
}

func (Move) command()            {}
func (AttackMonster) command()   {}
func (AttackCharacter) command() {}
func (Strike) command()          {}
func (Flee) command()            {}
func (BuildHouse) command()      {}
func (EnterHouse) command()      {}
func (LeaveHouse) command()      {}
func (SetHouseAccess) command()  {}

func (Move) String() string            { return "move" }
func (AttackMonster) String() string   { return "attack_monster" }
func (AttackCharacter) String() string { return "attack_character" }
func (Strike) String() string          { return "strike" }
func (Flee) String() string            { return "flee" }
func (BuildHouse) String() string      { return "build_house" }
func (EnterHouse) String() string      { return "enter_house" }
func (LeaveHouse) String() string      { return "leave_house" }
func (SetHouseAccess) String() string  { return "set_house_access" }
