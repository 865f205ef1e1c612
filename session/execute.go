package session

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/spacemeshos/go-sessionmesh/common/types"
)

// execute applies a command to the own character and returns the
// notification for the session. A rejected command may still return a
// notification if the own character had to be corrected.
func (a *Actor) execute(cmd Command) (*types.Notification, error) {
	self := a.state.Self()
	if !self.Alive {
		return nil, ErrDead
	}
	switch cmd := cmd.(type) {
	case Move:
		return a.move(self, cmd)
	case AttackMonster:
		return a.attackMonster(self, cmd)
	case AttackCharacter:
		return a.attackCharacter(self, cmd)
	case Strike:
		return a.strike(self)
	case Flee:
		if !self.Target.InCombat() {
			return nil, ErrNotInCombat
		}
		_ = a.state.Disengage(a.self)
		return &types.Notification{Event: types.Disengaged}, nil
	case BuildHouse:
		return a.buildHouse(self, cmd)
	case EnterHouse:
		return a.enterHouse(self, cmd)
	case LeaveHouse:
		if !self.InHouse {
			return nil, ErrNotInHouse
		}
		h, _ := a.state.House(self.House)
		_ = a.state.LeaveHouse(a.self)
		n := &types.Notification{Event: types.HouseLeft}
		if h != nil {
			n.House = h.Copy()
		}
		return n, nil
	case SetHouseAccess:
		return a.setHouseAccess(cmd)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
}

func (a *Actor) move(self *types.Character, cmd Move) (*types.Notification, error) {
	if self.Target.InCombat() {
		return nil, ErrInCombat
	}
	if self.InHouse {
		return nil, ErrInHouse
	}
	_ = a.state.Move(a.self, cmd.To)
	return &types.Notification{Event: types.Moved}, nil
}

func (a *Actor) attackMonster(self *types.Character, cmd AttackMonster) (*types.Notification, error) {
	if self.Target.InCombat() {
		return nil, ErrInCombat
	}
	if self.InHouse {
		return nil, ErrInHouse
	}
	m, ok := a.state.Monster(cmd.Key)
	switch {
	case !ok:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMonster, cmd.Key)
	case !m.Alive:
		return nil, ErrMonsterDead
	case m.UnderAttack:
		return nil, ErrTargetEngaged
	case m.Location != self.Location:
		return nil, ErrNotHere
	}
	if err := a.state.EngageMonster(a.self, cmd.Key, a.clock.Tick()); err != nil {
		return nil, err
	}
	declared := *m
	return &types.Notification{Event: types.EngagedMonster, Monster: &declared}, nil
}

func (a *Actor) attackCharacter(self *types.Character, cmd AttackCharacter) (*types.Notification, error) {
	if cmd.Target == a.self {
		return nil, ErrInvalidTarget
	}
	if self.Target.InCombat() {
		return nil, ErrInCombat
	}
	if self.InHouse {
		return nil, ErrInHouse
	}
	o, ok := a.state.Character(cmd.Target)
	switch {
	case !ok:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, cmd.Target)
	case !o.Alive:
		return nil, ErrDead
	case o.InHouse || o.Location != self.Location:
		return nil, ErrNotHere
	case o.Target.InCombat():
		return nil, ErrTargetEngaged
	}
	if err := a.state.EngageCharacter(a.self, cmd.Target, a.clock.Tick()); err != nil {
		return nil, err
	}
	return &types.Notification{Event: types.EngagedCharacter, Opponent: cmd.Target}, nil
}

// strike hits the monster the own character fights. A monster that runs out
// of hit points dies, rewards the character and respawns after a delay.
func (a *Actor) strike(self *types.Character) (*types.Notification, error) {
	if self.Target.Kind != types.MonsterTarget {
		return nil, ErrNotInCombat
	}
	m, ok := a.state.Monster(self.Target.Monster)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMonster, self.Target.Monster)
	}
	if !m.Alive || m.Attacker != a.self {
		err := ErrTargetEngaged
		if !m.Alive {
			err = ErrMonsterDead
		}
		_ = a.state.Disengage(a.self)
		return &types.Notification{Event: types.Disengaged}, err
	}
	damage := self.Stats.Strength + self.Stats.Level
	if damage < m.HP {
		m.HP -= damage
		declared := *m
		return &types.Notification{Event: types.EngagedMonster, Monster: &declared}, nil
	}
	_ = a.state.Disengage(a.self)
	m.Kill()
	if tmpl, ok := a.catalog.Template(m.Key.Template); ok {
		self.Stats.Experience += tmpl.Experience
		self.Stats.Gold += tmpl.Gold
		self.Stats.Level = level(self.Stats.Experience)
	}
	a.scheduleRespawn(m.Key)
	a.logger.Info("monster killed",
		zap.Stringer("monster", m.Key),
		zap.Uint64("experience", self.Stats.Experience),
		zap.Uint32("level", self.Stats.Level),
	)
	declared := *m
	return &types.Notification{Event: types.MonsterKilled, Monster: &declared}, nil
}

func (a *Actor) buildHouse(self *types.Character, cmd BuildHouse) (*types.Notification, error) {
	if self.Target.InCombat() {
		return nil, ErrInCombat
	}
	if self.InHouse {
		return nil, ErrInHouse
	}
	h := types.House{
		ID:       types.NewStamp(),
		Owner:    a.self,
		Location: self.Location,
		Access:   cmd.Access,
	}
	a.state.AddHouse(h)
	return &types.Notification{Event: types.HouseBuilt, House: &h}, nil
}

func (a *Actor) enterHouse(self *types.Character, cmd EnterHouse) (*types.Notification, error) {
	if self.Target.InCombat() {
		return nil, ErrInCombat
	}
	h, ok := a.state.House(cmd.House)
	switch {
	case !ok:
		return nil, fmt.Errorf("%w: %s", ErrUnknownHouse, cmd.House)
	case !h.Admits(a.self):
		return nil, ErrAccessDenied
	case h.Location != self.Location:
		return nil, ErrNotHere
	}
	_ = a.state.EnterHouse(a.self, cmd.House)
	return &types.Notification{Event: types.HouseEntered, House: h.Copy()}, nil
}

func (a *Actor) setHouseAccess(cmd SetHouseAccess) (*types.Notification, error) {
	h, ok := a.state.House(cmd.House)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHouse, cmd.House)
	}
	if h.Owner != a.self {
		return nil, ErrNotOwner
	}
	_ = a.state.SetAccess(cmd.House, cmd.Access)
	return &types.Notification{Event: types.HouseAccess, House: h.Copy()}, nil
}
