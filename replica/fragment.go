package replica

import (
	"slices"

	"github.com/spacemeshos/go-sessionmesh/codec"
	"github.com/spacemeshos/go-sessionmesh/common/types"
	"github.com/spacemeshos/go-sessionmesh/hash"
)

// Fragment returns the node's current view for broadcast. The returned value
// shares no memory with the state.
func (s *State) Fragment(partition uint32, clock types.Timestamp) *types.Fragment {
	f := &types.Fragment{
		Partition:  partition,
		Clock:      clock,
		Self:       *s.Self().Copy(),
		Characters: make([]types.Character, 0, len(s.characters)-1),
		Monsters:   make([]types.Monster, 0, len(s.monsters)),
		Houses:     make([]types.House, 0, len(s.houses)),
		Merchants:  make([]types.Merchant, 0, len(s.merchants)),
		Markers:    make([]types.Marker, 0, len(s.markers)),
	}
	for id, c := range s.characters {
		if id != s.self {
			f.Characters = append(f.Characters, *c.Copy())
		}
	}
	for _, m := range s.monsters {
		f.Monsters = append(f.Monsters, *m)
	}
	for _, h := range s.houses {
		f.Houses = append(f.Houses, *h.Copy())
	}
	for m := range s.merchants {
		f.Merchants = append(f.Merchants, m)
	}
	for loc := range s.markers {
		f.Markers = append(f.Markers, types.Marker{Location: loc})
	}
	f.Normalize()
	return f
}

// Digest identifies the declared state of a fragment. Fragments of two nodes
// that agree on everything have equal digests: the clock and partition are
// ignored, and the sender's character is hashed together with the others.
func Digest(f *types.Fragment) hash.Digest {
	canonical := types.Fragment{
		Characters: append(slices.Clone(f.Characters), f.Self),
		Monsters:   slices.Clone(f.Monsters),
		Houses:     slices.Clone(f.Houses),
		Merchants:  slices.Clone(f.Merchants),
		Markers:    slices.Clone(f.Markers),
	}
	if f.Self.ID.Empty() {
		canonical.Characters = canonical.Characters[:len(canonical.Characters)-1]
	}
	canonical.Normalize()
	return hash.Sum(codec.MustEncode(&canonical))
}

// Digest of the local state.
func (s *State) Digest() hash.Digest {
	return Digest(s.Fragment(0, 0))
}
