package types

import (
	"fmt"

	"github.com/spacemeshos/go-scale"
	"go.uber.org/zap/zapcore"
)

// NotificationKind tags the state change described by a Notification.
type NotificationKind uint8

const (
	// Moved means the character changed location.
	Moved NotificationKind = iota + 1
	// EngagedMonster means the character claimed Monster.
	EngagedMonster
	// EngagedCharacter means the character attacked Opponent.
	EngagedCharacter
	// Disengaged means the character left combat.
	Disengaged
	// MonsterKilled means the character killed Monster.
	MonsterKilled
	// MonsterRespawned means Monster came back to life.
	MonsterRespawned
	// HouseBuilt means the character built House.
	HouseBuilt
	// HouseEntered means the character entered House.
	HouseEntered
	// HouseLeft means the character left House.
	HouseLeft
	// HouseAccess means the owner changed the access policy of House.
	HouseAccess
)

func (k NotificationKind) String() string {
	switch k {
	case Moved:
		return "moved"
	case EngagedMonster:
		return "engaged_monster"
	case EngagedCharacter:
		return "engaged_character"
	case Disengaged:
		return "disengaged"
	case MonsterKilled:
		return "monster_killed"
	case MonsterRespawned:
		return "monster_respawned"
	case HouseBuilt:
		return "house_built"
	case HouseEntered:
		return "house_entered"
	case HouseLeft:
		return "house_left"
	case HouseAccess:
		return "house_access"
	}
	return fmt.Sprintf("unknown(%d)", uint8(k))
}

// Notification carries the state of the entities touched by a command, as
// the commanding node sees them after executing it.
type Notification struct {
	Event     NotificationKind
	Character Character
	// Monster is set for EngagedMonster, MonsterKilled and MonsterRespawned.
	Monster *Monster
	// Opponent is set for EngagedCharacter.
	Opponent Stamp
	// House is set for the house notifications.
	House *House
}

// Kind implements Body.
func (*Notification) Kind() MessageKind { return NotificationMsg }

// MarshalLogObject implements logging interface.
func (n *Notification) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddString("event", n.Event.String())
	encoder.AddString("character", n.Character.ID.ShortString())
	if n.Monster != nil {
		encoder.AddString("monster", n.Monster.Key.String())
	}
	if !n.Opponent.Empty() {
		encoder.AddString("opponent", n.Opponent.ShortString())
	}
	if n.House != nil {
		encoder.AddString("house", n.House.ID.ShortString())
	}
	return nil
}

// EncodeScale implements scale codec interface.
func (nt *Notification) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		// not compact, as scale spec uses "full" uint8 for enums
		n, err := scale.EncodeByte(enc, byte(nt.Event))
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := nt.Character.EncodeScale(enc)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeOption(enc, nt.Monster)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := nt.Opponent.EncodeScale(enc)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeOption(enc, nt.House)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DecodeScale implements scale codec interface.
func (nt *Notification) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		field, n, err := scale.DecodeByte(dec)
		if err != nil {
			return total, err
		}
		total += n
		nt.Event = NotificationKind(field)
	}
	{
		n, err := nt.Character.DecodeScale(dec)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		field, n, err := scale.DecodeOption[Monster](dec)
		if err != nil {
			return total, err
		}
		total += n
		nt.Monster = field
	}
	{
		n, err := nt.Opponent.DecodeScale(dec)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		field, n, err := scale.DecodeOption[House](dec)
		if err != nil {
			return total, err
		}
		total += n
		nt.House = field
	}
	return total, nil
}
