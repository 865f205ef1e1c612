package session

import (
	"fmt"

	"github.com/spacemeshos/go-sessionmesh/common/types"
)

// PresenceTopic carries session announcements and queries of a partition.
func PresenceTopic(partition uint32) string {
	return fmt.Sprintf("/sm/%d/presence", partition)
}

// GroupTopic carries everything exchanged by members of one session.
func GroupTopic(partition uint32, group types.Stamp) string {
	return fmt.Sprintf("/sm/%d/session/%s", partition, group)
}
