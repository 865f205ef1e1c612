package types

import (
	"slices"

	"go.uber.org/zap/zapcore"
)

//go:generate scalegen -types Fragment

// Fragment is one node's partial, point-in-time view of the session. It is
// the unit exchanged between nodes, never the full state of the session.
type Fragment struct {
	Partition uint32
	Clock     Timestamp
	// Self is the sender's own character, authoritative for its placement and combat.
	Self       Character
	Characters []Character `scale:"max=1024"`
	Monsters   []Monster   `scale:"max=4096"`
	Houses     []House     `scale:"max=1024"`
	Merchants  []Merchant  `scale:"max=1024"`
	Markers    []Marker    `scale:"max=4096"`
}

// Kind implements Body.
func (*Fragment) Kind() MessageKind { return FragmentMsg }

// Character finds a character replica inside the fragment, including Self.
func (f *Fragment) Character(id Stamp) (*Character, bool) {
	if f.Self.ID == id {
		return &f.Self, true
	}
	for i := range f.Characters {
		if f.Characters[i].ID == id {
			return &f.Characters[i], true
		}
	}
	return nil, false
}

// Normalize sorts every collection so that equal views encode identically.
func (f *Fragment) Normalize() {
	slices.SortFunc(f.Characters, func(a, b Character) int { return a.ID.Compare(b.ID) })
	slices.SortFunc(f.Monsters, func(a, b Monster) int { return a.Key.Compare(b.Key) })
	slices.SortFunc(f.Houses, func(a, b House) int { return a.ID.Compare(b.ID) })
	slices.SortFunc(f.Merchants, func(a, b Merchant) int { return compareLocations(a.Location, b.Location) })
	slices.SortFunc(f.Markers, func(a, b Marker) int { return compareLocations(a.Location, b.Location) })
	for i := range f.Houses {
		slices.SortFunc(f.Houses[i].Occupants, func(a, b Stamp) int { return a.Compare(b) })
	}
}

// MarshalLogObject implements logging interface.
func (f *Fragment) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddUint32("partition", f.Partition)
	encoder.AddUint64("clock", uint64(f.Clock))
	encoder.AddString("self", f.Self.ID.ShortString())
	encoder.AddInt("characters", len(f.Characters))
	encoder.AddInt("monsters", len(f.Monsters))
	encoder.AddInt("houses", len(f.Houses))
	encoder.AddInt("merchants", len(f.Merchants))
	encoder.AddInt("markers", len(f.Markers))
	return nil
}

func compareLocations(a, b Location) int {
	switch {
	case a.X < b.X:
		return -1
	case a.X > b.X:
		return 1
	case a.Y < b.Y:
		return -1
	case a.Y > b.Y:
		return 1
	}
	return 0
}
