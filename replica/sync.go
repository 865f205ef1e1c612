package replica

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spacemeshos/go-sessionmesh/common/types"
)

// SyncResult reports what a synchronization pass found.
type SyncResult struct {
	// Added is the number of entities that were missing locally.
	Added int
	// Emergency is set when the peer's copy of the own character differs from
	// the authoritative one.
	Emergency bool
	// Inconsistent is set when the peer referenced an entity that is unknown
	// locally.
	Inconsistent bool
	// Unresolved is the unknown character or house. It is empty when the
	// unknown entity is a monster.
	Unresolved types.Stamp
	// Yielded lists monsters the own character lost to an earlier claim. The
	// own character still targets them until its owner corrects it.
	Yielded []types.MonsterKey
	// Lost lists dead monsters the own character still targets.
	Lost []types.MonsterKey
	// Killed and Revived list monsters whose death or respawn was learned
	// from the peer.
	Killed  []types.MonsterKey
	Revived []types.MonsterKey
	// Abandoned is set when the own character fights the sender, the sender
	// has seen that, and no longer fights back.
	Abandoned bool
}

// MarshalLogObject implements logging interface.
func (r *SyncResult) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddInt("added", r.Added)
	encoder.AddBool("emergency", r.Emergency)
	encoder.AddBool("inconsistent", r.Inconsistent)
	if !r.Unresolved.Empty() {
		encoder.AddString("unresolved", r.Unresolved.ShortString())
	}
	encoder.AddInt("yielded", len(r.Yielded))
	encoder.AddInt("lost", len(r.Lost))
	encoder.AddInt("killed", len(r.Killed))
	encoder.AddInt("revived", len(r.Revived))
	encoder.AddBool("abandoned", r.Abandoned)
	return nil
}

// Synchronize reconciles the state with a fragment broadcast by a peer. The
// steps run in a fixed order:
//
//  1. markers, houses, merchants and the sender's character missing locally
//     are added;
//  2. the local replica of the sender's character is resolved against the
//     sender's declaration;
//  3. the peer's copy of the own character is compared with the
//     authoritative one;
//  4. monsters that are not fought on either side adopt the peer's status.
//
// Synchronize never removes entities and never mutates the own character.
func (s *State) Synchronize(f *types.Fragment) SyncResult {
	var res SyncResult
	if f.Self.ID == s.self {
		return res
	}
	for _, m := range f.Markers {
		if s.AddMarker(m) {
			res.Added++
		}
	}
	for _, h := range f.Houses {
		if s.AddHouse(h) {
			res.Added++
		}
	}
	for _, m := range f.Merchants {
		if s.AddMerchant(m) {
			res.Added++
		}
	}
	if _, ok := s.characters[f.Self.ID]; !ok {
		c := f.Self
		c.Target = types.CombatTarget{}
		c.InHouse = false
		c.House = types.EmptyStamp
		s.characters[c.ID] = c.Copy()
		res.Added++
	}

	s.resolve(&f.Self, &res)

	self := s.Self()
	echo, ok := f.Character(s.self)
	if !ok || !echo.Placement(self) {
		res.Emergency = true
	}
	if ok && self.Target.IsCharacter(f.Self.ID) &&
		echo.Target == self.Target && !f.Self.Target.IsCharacter(s.self) {
		res.Abandoned = true
	}

	for i := range f.Monsters {
		s.reconcileMonster(&f.Monsters[i], &res)
	}
	s.logger.Debug("synchronized with peer fragment",
		zap.Inline(f),
		zap.Inline(&res),
	)
	return res
}

// Apply resolves the local replica of a character against a copy declared by
// its owner, the same way the sender's character is resolved during
// Synchronize. Unknown characters are not added.
func (s *State) Apply(declared *types.Character) SyncResult {
	var res SyncResult
	if declared.ID == s.self {
		return res
	}
	if _, ok := s.characters[declared.ID]; !ok {
		res.Inconsistent = true
		res.Unresolved = declared.ID
		return res
	}
	s.resolve(declared, &res)
	return res
}

func (s *State) resolve(declared *types.Character, res *SyncResult) {
	local := s.characters[declared.ID]
	local.Name = declared.Name
	local.Class = declared.Class
	local.Stats = declared.Stats
	local.Inventory = append(local.Inventory[:0], declared.Inventory...)
	local.Equipped = append(local.Equipped[:0], declared.Equipped...)
	local.Alive = declared.Alive

	switch declared.Target.Kind {
	case types.NoTarget:
		s.disengage(local, false)
		s.reconcileHouse(local, declared, res)
		local.Location = declared.Location
	case types.MonsterTarget:
		s.resolveMonsterClaim(local, declared, res)
	case types.CharacterTarget:
		s.resolveCharacterClaim(local, declared, res)
	}
}

// reconcileHouse makes the occupancy of local match the declaration. Entering
// places the character at the house before the caller teleports it to the
// declared location.
func (s *State) reconcileHouse(local, declared *types.Character, res *SyncResult) {
	if !declared.InHouse {
		s.leaveHouse(local)
		return
	}
	h, ok := s.houses[declared.House]
	if !ok {
		res.Inconsistent = true
		res.Unresolved = declared.House
		return
	}
	s.enterHouse(local, h)
}

// resolveMonsterClaim applies first-claim-wins: the earlier timestamp owns the
// monster, and on equal timestamps the lower attacker stamp does. A claim that
// loses, or names an unknown or dead monster, leaves the sender without a
// target.
func (s *State) resolveMonsterClaim(local, declared *types.Character, res *SyncResult) {
	s.leaveHouse(local)
	key := declared.Target.Monster
	m, ok := s.monsters[key]
	if !ok {
		res.Inconsistent = true
		s.disengage(local, false)
		local.Location = declared.Location
		return
	}
	since := declared.Target.Since
	if !m.Alive ||
		m.UnderAttack && m.Attacker != local.ID && !claimPrecedes(local.ID, since, m.Attacker, m.Since) {
		s.disengage(local, false)
		local.Location = declared.Location
		return
	}
	if m.UnderAttack && m.Attacker == s.self && local.ID != s.self {
		res.Yielded = append(res.Yielded, key)
		s.logger.Debug("own claim yields to earlier claim",
			zap.Stringer("monster", key),
			zap.Stringer("winner", local.ID),
			zap.Uint64("since", uint64(since)),
			zap.Uint64("own_since", uint64(m.Since)),
		)
	}
	local.Location = declared.Location
	m.Location = declared.Location
	s.bindMonster(local, m, since)
}

func (s *State) resolveCharacterClaim(local, declared *types.Character, res *SyncResult) {
	s.leaveHouse(local)
	opponent := declared.Target.Character
	self := s.Self()
	if opponent == s.self {
		// The claim is recorded as declared. The own character takes part
		// only if its owner accepted it.
		if !local.Target.IsCharacter(s.self) {
			s.disengage(local, false)
		}
		local.Location = declared.Location
		local.Target = declared.Target
		return
	}
	if self.Target.IsCharacter(opponent) || self.Target.IsCharacter(local.ID) {
		return
	}
	o, ok := s.characters[opponent]
	if !ok {
		res.Inconsistent = true
		res.Unresolved = opponent
		return
	}
	s.bindCharacters(local, o, declared.Location, declared.Target.Since)
}

func (s *State) reconcileMonster(declared *types.Monster, res *SyncResult) {
	m, ok := s.monsters[declared.Key]
	if !ok || m.UnderAttack || declared.UnderAttack {
		return
	}
	if m.Location == declared.Location && m.Alive == declared.Alive && m.HP == declared.HP {
		return
	}
	m.Location = declared.Location
	switch {
	case declared.Alive && !m.Alive:
		m.Respawn()
		res.Revived = append(res.Revived, m.Key)
	case !declared.Alive && m.Alive:
		m.Kill()
		res.Killed = append(res.Killed, m.Key)
	}
	m.HP = declared.HP
}

// claimPrecedes reports whether the claim of a since ta precedes the claim of
// b since tb.
func claimPrecedes(a types.Stamp, ta types.Timestamp, b types.Stamp, tb types.Timestamp) bool {
	if ta != tb {
		return ta < tb
	}
	return a.Compare(b) < 0
}
