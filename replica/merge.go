package replica

import (
	"go.uber.org/zap"

	"github.com/spacemeshos/go-sessionmesh/common/types"
)

// Merge absorbs the snapshot handed to a node when it joins a session and
// returns the number of entities added. It must run once per join.
//
// Markers, houses and characters missing locally are added. Merchants and
// monsters are adopted only when the local collection is empty: a node that
// already has them keeps its own.
func (s *State) Merge(incoming *types.Fragment) int {
	added := 0
	for _, m := range incoming.Markers {
		if s.AddMarker(m) {
			added++
		}
	}
	for _, h := range incoming.Houses {
		if s.AddHouse(h) {
			added++
		}
	}
	if len(s.merchants) == 0 {
		for _, m := range incoming.Merchants {
			if s.AddMerchant(m) {
				added++
			}
		}
	}
	if len(s.monsters) == 0 {
		for _, m := range incoming.Monsters {
			if s.AddMonster(m) {
				added++
			}
		}
	}
	if s.AddCharacter(incoming.Self) {
		added++
	}
	for _, c := range incoming.Characters {
		if s.AddCharacter(c) {
			added++
		}
	}
	s.logger.Debug("merged session snapshot",
		zap.Inline(incoming),
		zap.Int("added", added),
	)
	return added
}
