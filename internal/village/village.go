// Package village holds the village entity and its store. Each village is an
// independently owned settlement with one level per catalog building and a
// single upgrade slot gated by a timestamp.
package village

import (
	"github.com/talgya/villagecraft/internal/catalog"
	"github.com/talgya/villagecraft/internal/worldgen"
)

// Village is one player-owned settlement.
type Village struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`

	// Buildings maps every catalog building id to its current level.
	// The set of keys is fixed at creation; levels only ever increase.
	Buildings map[catalog.BuildingID]int `json:"buildings"`

	// UpgradeUnlockAt is the earliest unix time a new upgrade may start.
	// now >= UpgradeUnlockAt means the village is idle; an upgrade in
	// progress is encoded entirely by this timestamp being in the future.
	UpgradeUnlockAt int64 `json:"upgrade_unlock_at"`

	// Position is the village's site on the world map, fixed at creation.
	Position worldgen.HexCoord `json:"position"`

	CreatedAt int64 `json:"created_at"`
}

// Idle reports whether a new upgrade may start at the given time.
func (v *Village) Idle(now int64) bool {
	return now >= v.UpgradeUnlockAt
}

// Level returns the current level of a building.
func (v *Village) Level(id catalog.BuildingID) int {
	return v.Buildings[id]
}

// clone returns a deep copy so mutations can be staged and discarded.
func (v *Village) clone() *Village {
	cp := *v
	cp.Buildings = make(map[catalog.BuildingID]int, len(v.Buildings))
	for id, lvl := range v.Buildings {
		cp.Buildings[id] = lvl
	}
	return &cp
}
