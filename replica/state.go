// Package replica holds a node's copy of the session and the algorithms that
// keep copies on different nodes converging.
package replica

import (
	"errors"
	"slices"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spacemeshos/go-sessionmesh/common/types"
)

var (
	ErrUnknownCharacter = errors.New("unknown character")
	ErrUnknownMonster   = errors.New("unknown monster")
	ErrUnknownHouse     = errors.New("unknown house")
)

// Opt configures a State.
type Opt func(*State)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Opt {
	return func(s *State) {
		s.logger = logger
	}
}

// State is the replicated session state of one node. The character passed to
// New is the node's own character: it is authoritative here and peers can
// never change it.
//
// State is not safe for concurrent use. It is owned by a single session actor.
type State struct {
	logger *zap.Logger
	self   types.Stamp

	characters map[types.Stamp]*types.Character
	monsters   map[types.MonsterKey]*types.Monster
	houses     map[types.Stamp]*types.House
	merchants  map[types.Merchant]struct{}
	markers    map[types.Location]struct{}
}

// New creates a state that contains only the own character.
func New(self types.Character, opts ...Opt) *State {
	s := &State{
		logger:     zap.NewNop(),
		self:       self.ID,
		characters: map[types.Stamp]*types.Character{self.ID: self.Copy()},
		monsters:   map[types.MonsterKey]*types.Monster{},
		houses:     map[types.Stamp]*types.House{},
		merchants:  map[types.Merchant]struct{}{},
		markers:    map[types.Location]struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SelfID returns the stamp of the own character.
func (s *State) SelfID() types.Stamp {
	return s.self
}

// Self returns the own character. The returned pointer may be mutated by the
// owner of the state.
func (s *State) Self() *types.Character {
	return s.characters[s.self]
}

// Character returns the replica of a character.
func (s *State) Character(id types.Stamp) (*types.Character, bool) {
	c, ok := s.characters[id]
	return c, ok
}

// Monster returns the replica of a monster.
func (s *State) Monster(key types.MonsterKey) (*types.Monster, bool) {
	m, ok := s.monsters[key]
	return m, ok
}

// House returns the replica of a house.
func (s *State) House(id types.Stamp) (*types.House, bool) {
	h, ok := s.houses[id]
	return h, ok
}

// Characters returns all characters, own character included, sorted by stamp.
func (s *State) Characters() []types.Stamp {
	ids := make([]types.Stamp, 0, len(s.characters))
	for id := range s.characters {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b types.Stamp) int { return a.Compare(b) })
	return ids
}

// Houses returns all houses sorted by stamp.
func (s *State) Houses() []types.Stamp {
	ids := make([]types.Stamp, 0, len(s.houses))
	for id := range s.houses {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b types.Stamp) int { return a.Compare(b) })
	return ids
}

// MonstersAt returns alive monsters at loc sorted by key.
func (s *State) MonstersAt(loc types.Location) []*types.Monster {
	var rst []*types.Monster
	for _, m := range s.monsters {
		if m.Alive && m.Location == loc {
			rst = append(rst, m)
		}
	}
	slices.SortFunc(rst, func(a, b *types.Monster) int { return a.Key.Compare(b.Key) })
	return rst
}

// Size is the number of entities of every kind.
type Size struct {
	Characters int
	Monsters   int
	Houses     int
	Merchants  int
	Markers    int
}

// Total number of entities.
func (sz Size) Total() int {
	return sz.Characters + sz.Monsters + sz.Houses + sz.Merchants + sz.Markers
}

// MarshalLogObject implements logging interface.
func (sz Size) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddInt("characters", sz.Characters)
	encoder.AddInt("monsters", sz.Monsters)
	encoder.AddInt("houses", sz.Houses)
	encoder.AddInt("merchants", sz.Merchants)
	encoder.AddInt("markers", sz.Markers)
	return nil
}

// Size returns entity counts.
func (s *State) Size() Size {
	return Size{
		Characters: len(s.characters),
		Monsters:   len(s.monsters),
		Houses:     len(s.houses),
		Merchants:  len(s.merchants),
		Markers:    len(s.markers),
	}
}

// AddCharacter adds a replica of a character unless it is already known.
func (s *State) AddCharacter(c types.Character) bool {
	if _, ok := s.characters[c.ID]; ok {
		return false
	}
	s.characters[c.ID] = c.Copy()
	return true
}

// RemoveCharacter drops a character whose lease expired or who left. Combat
// it was part of is released and it is removed from its house.
func (s *State) RemoveCharacter(id types.Stamp) bool {
	c, ok := s.characters[id]
	if !ok || id == s.self {
		return false
	}
	s.disengage(c, true)
	s.leaveHouse(c)
	delete(s.characters, id)
	return true
}

// AddMonster adds a monster unless the key is already known.
func (s *State) AddMonster(m types.Monster) bool {
	if _, ok := s.monsters[m.Key]; ok {
		return false
	}
	s.monsters[m.Key] = &m
	return true
}

// AddHouse adds a house unless it is already known.
func (s *State) AddHouse(h types.House) bool {
	if _, ok := s.houses[h.ID]; ok {
		return false
	}
	s.houses[h.ID] = h.Copy()
	return true
}

// AddMerchant adds a merchant.
func (s *State) AddMerchant(m types.Merchant) bool {
	if _, ok := s.merchants[m]; ok {
		return false
	}
	s.merchants[m] = struct{}{}
	return true
}

// AddMarker adds a marker.
func (s *State) AddMarker(m types.Marker) bool {
	if _, ok := s.markers[m.Location]; ok {
		return false
	}
	s.markers[m.Location] = struct{}{}
	return true
}

// Disengage clears the combat target of a character. A monster it was
// attacking is released, and an opponent character that targets it is
// released too unless that opponent is the own character.
func (s *State) Disengage(id types.Stamp) error {
	c, ok := s.characters[id]
	if !ok {
		return ErrUnknownCharacter
	}
	s.disengage(c, id == s.self)
	return nil
}

// EngageMonster binds a character and a monster to each other. Any previous
// engagement of the character and claim on the monster are released.
func (s *State) EngageMonster(id types.Stamp, key types.MonsterKey, since types.Timestamp) error {
	c, ok := s.characters[id]
	if !ok {
		return ErrUnknownCharacter
	}
	m, ok := s.monsters[key]
	if !ok {
		return ErrUnknownMonster
	}
	s.bindMonster(c, m, since)
	return nil
}

// EngageCharacter binds two characters to each other.
func (s *State) EngageCharacter(id, opponent types.Stamp, since types.Timestamp) error {
	c, ok := s.characters[id]
	if !ok {
		return ErrUnknownCharacter
	}
	o, ok := s.characters[opponent]
	if !ok {
		return ErrUnknownCharacter
	}
	s.bindCharacters(c, o, c.Location, since)
	return nil
}

// Move teleports a character.
func (s *State) Move(id types.Stamp, to types.Location) error {
	c, ok := s.characters[id]
	if !ok {
		return ErrUnknownCharacter
	}
	c.Location = to
	return nil
}

// EnterHouse moves a character into a house. A character is in at most one
// house, so it leaves the house it was in first.
func (s *State) EnterHouse(id, house types.Stamp) error {
	c, ok := s.characters[id]
	if !ok {
		return ErrUnknownCharacter
	}
	h, ok := s.houses[house]
	if !ok {
		return ErrUnknownHouse
	}
	s.enterHouse(c, h)
	return nil
}

// LeaveHouse moves a character out of its house to the house location.
func (s *State) LeaveHouse(id types.Stamp) error {
	c, ok := s.characters[id]
	if !ok {
		return ErrUnknownCharacter
	}
	s.leaveHouse(c)
	return nil
}

// SetAccess changes the access policy of a house.
func (s *State) SetAccess(house types.Stamp, access types.AccessPolicy) error {
	h, ok := s.houses[house]
	if !ok {
		return ErrUnknownHouse
	}
	h.Access = access
	return nil
}

// ApplyMonster overwrites the status of a known monster with a declared one,
// as reported by the node that killed or revived it. If the monster dies its
// attacker is released. The own character is left to its owner: a dead
// monster it still targets is reported as lost.
func (s *State) ApplyMonster(declared types.Monster) (SyncResult, error) {
	var res SyncResult
	m, ok := s.monsters[declared.Key]
	if !ok {
		return res, ErrUnknownMonster
	}
	if !declared.Alive && m.UnderAttack {
		if c, ok := s.characters[m.Attacker]; ok && c.ID != s.self && c.Target.IsMonster(m.Key) {
			c.Target = types.CombatTarget{}
		}
	}
	if !declared.Alive && s.Self().Target.IsMonster(m.Key) {
		res.Lost = append(res.Lost, m.Key)
	}
	m.Location = declared.Location
	m.HP = declared.HP
	switch {
	case !declared.Alive:
		m.Kill()
	case !m.Alive:
		m.Respawn()
		m.HP = declared.HP
	}
	return res, nil
}

// disengage clears the target of c and releases the other side. The own
// character is only touched when self is true.
func (s *State) disengage(c *types.Character, self bool) {
	switch c.Target.Kind {
	case types.MonsterTarget:
		if m, ok := s.monsters[c.Target.Monster]; ok && m.Attacker == c.ID {
			m.Release()
		}
	case types.CharacterTarget:
		o, ok := s.characters[c.Target.Character]
		if ok && o.Target.IsCharacter(c.ID) && (o.ID != s.self || self) {
			o.Target = types.CombatTarget{}
		}
	}
	if c.ID != s.self || self {
		c.Target = types.CombatTarget{}
	}
}

// bindMonster makes c the single attacker of m. Whoever attacked m before is
// released, except the own character.
func (s *State) bindMonster(c *types.Character, m *types.Monster, since types.Timestamp) {
	if m.UnderAttack && m.Attacker != c.ID {
		if prev, ok := s.characters[m.Attacker]; ok && prev.ID != s.self && prev.Target.IsMonster(m.Key) {
			prev.Target = types.CombatTarget{}
		}
	}
	if c.Target.InCombat() && !c.Target.IsMonster(m.Key) {
		s.disengage(c, c.ID == s.self)
	}
	m.Bind(c.ID, since)
	c.Target = types.TargetMonster(m.Key, since)
}

func (s *State) bindCharacters(c, o *types.Character, at types.Location, since types.Timestamp) {
	if !c.Target.IsCharacter(o.ID) {
		s.disengage(c, c.ID == s.self)
	}
	if !o.Target.IsCharacter(c.ID) {
		s.disengage(o, o.ID == s.self)
	}
	c.Location, o.Location = at, at
	c.Target = types.TargetCharacter(o.ID, since)
	o.Target = types.TargetCharacter(c.ID, since)
}

func (s *State) enterHouse(c *types.Character, h *types.House) {
	if c.InHouse && c.House == h.ID {
		h.AddOccupant(c.ID)
		return
	}
	s.leaveHouse(c)
	c.Location = h.Location
	c.InHouse = true
	c.House = h.ID
	h.AddOccupant(c.ID)
}

func (s *State) leaveHouse(c *types.Character) {
	if !c.InHouse {
		return
	}
	if h, ok := s.houses[c.House]; ok {
		h.RemoveOccupant(c.ID)
		c.Location = h.Location
	}
	c.InHouse = false
	c.House = types.EmptyStamp
}
