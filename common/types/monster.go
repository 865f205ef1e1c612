package types

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

//go:generate scalegen -types MonsterKey,Monster

// MonsterKey addresses a monster by its template and instance number.
type MonsterKey struct {
	Template string `scale:"max=64"`
	Instance uint32
}

func (k MonsterKey) String() string {
	return fmt.Sprintf("%s#%d", k.Template, k.Instance)
}

// Compare orders keys by template and then by instance.
func (k MonsterKey) Compare(other MonsterKey) int {
	switch {
	case k.Template < other.Template:
		return -1
	case k.Template > other.Template:
		return 1
	case k.Instance < other.Instance:
		return -1
	case k.Instance > other.Instance:
		return 1
	}
	return 0
}

// Monster is not owned by any node. The earliest claim wins it.
type Monster struct {
	Key         MonsterKey
	Location    Location
	Alive       bool
	UnderAttack bool
	Attacker    Stamp
	Since       Timestamp
	HP          uint32
	MaxHP       uint32
}

// Release drops the current engagement.
func (m *Monster) Release() {
	m.UnderAttack = false
	m.Attacker = EmptyStamp
	m.Since = 0
}

// Bind records attacker as the single owner of the engagement.
func (m *Monster) Bind(attacker Stamp, since Timestamp) {
	m.UnderAttack = true
	m.Attacker = attacker
	m.Since = since
}

// Kill marks the monster dead and releases it.
func (m *Monster) Kill() {
	m.Release()
	m.Alive = false
	m.HP = 0
}

// Respawn revives the monster with the same identity.
func (m *Monster) Respawn() {
	m.Release()
	m.Alive = true
	m.HP = m.MaxHP
}

// MarshalLogObject implements logging interface.
func (m *Monster) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddString("key", m.Key.String())
	encoder.AddString("location", m.Location.String())
	encoder.AddBool("alive", m.Alive)
	if m.UnderAttack {
		encoder.AddString("attacker", m.Attacker.ShortString())
		encoder.AddUint64("since", uint64(m.Since))
	}
	encoder.AddUint32("hp", m.HP)
	return nil
}
