// Package catalog holds the static building rules: max levels, upgrade costs,
// the shared level-to-duration schedule, and the prerequisite table.
// The catalog is loaded once at process start and never mutated afterwards.
package catalog

import (
	"errors"
	"fmt"
	"sort"
)

// BuildingID identifies a building type. Ids are small integers starting at 1.
type BuildingID uint8

// Sentinel errors for catalog lookups.
var (
	ErrUnknownBuilding = errors.New("unknown building")
	ErrUnknownLevel    = errors.New("unknown level")
)

// Prerequisite requires another building to have reached a minimum level.
// The zero value means "no prerequisite".
type Prerequisite struct {
	Building BuildingID `json:"building" yaml:"building"`
	MinLevel int        `json:"min_level" yaml:"level"`
}

// None reports whether the prerequisite is empty.
func (p Prerequisite) None() bool {
	return p.Building == 0 && p.MinLevel == 0
}

// Building describes one upgradeable building type.
type Building struct {
	ID          BuildingID   `json:"id" yaml:"id"`
	Name        string       `json:"name" yaml:"name"`
	MaxLevel    int          `json:"max_level" yaml:"max_level"`
	UpgradeCost int64        `json:"upgrade_cost" yaml:"upgrade_cost"` // Flat cost in crowns, independent of level
	Requires    Prerequisite `json:"requires,omitempty" yaml:"requires,omitempty"`
}

// Catalog is the immutable rule set for all buildings.
type Catalog struct {
	buildings map[BuildingID]Building
	order     []BuildingID // Ids sorted ascending for deterministic iteration
	durations []int64      // durations[i] = seconds for the upgrade that produces level i+1
}

// New builds a catalog from building definitions and the shared duration
// schedule. The schedule is indexed by the level being entered: durations[0]
// is the time for any building's upgrade from level 0 to level 1.
func New(buildings []Building, durations []int64) (*Catalog, error) {
	c := &Catalog{
		buildings: make(map[BuildingID]Building, len(buildings)),
		durations: append([]int64(nil), durations...),
	}
	for _, b := range buildings {
		if _, dup := c.buildings[b.ID]; dup {
			return nil, fmt.Errorf("duplicate building id %d", b.ID)
		}
		c.buildings[b.ID] = b
		c.order = append(c.order, b.ID)
	}
	sort.Slice(c.order, func(i, j int) bool { return c.order[i] < c.order[j] })

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// validate checks the catalog for completeness: every building needs a
// positive max level, a positive cost, a duration schedule that covers its
// max level, and a prerequisite (if any) that points at a known building.
func (c *Catalog) validate() error {
	if len(c.buildings) == 0 {
		return errors.New("catalog has no buildings")
	}
	for _, id := range c.order {
		b := c.buildings[id]
		if b.ID == 0 {
			return errors.New("building id 0 is reserved")
		}
		if b.Name == "" {
			return fmt.Errorf("building %d has no name", b.ID)
		}
		if b.MaxLevel <= 0 {
			return fmt.Errorf("building %d (%s) has max level %d", b.ID, b.Name, b.MaxLevel)
		}
		if b.MaxLevel > len(c.durations) {
			return fmt.Errorf("building %d (%s) max level %d exceeds duration schedule (%d levels)",
				b.ID, b.Name, b.MaxLevel, len(c.durations))
		}
		if b.UpgradeCost <= 0 {
			return fmt.Errorf("building %d (%s) has upgrade cost %d", b.ID, b.Name, b.UpgradeCost)
		}
		if !b.Requires.None() {
			req, ok := c.buildings[b.Requires.Building]
			if !ok {
				return fmt.Errorf("building %d (%s) requires unknown building %d",
					b.ID, b.Name, b.Requires.Building)
			}
			if b.Requires.MinLevel <= 0 || b.Requires.MinLevel > req.MaxLevel {
				return fmt.Errorf("building %d (%s) requires %s level %d (max %d)",
					b.ID, b.Name, req.Name, b.Requires.MinLevel, req.MaxLevel)
			}
		}
	}
	for i, d := range c.durations {
		if d <= 0 {
			return fmt.Errorf("duration for level %d is %d seconds", i+1, d)
		}
	}
	return nil
}

// Buildings returns all building definitions in ascending id order.
func (c *Catalog) Buildings() []Building {
	out := make([]Building, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.buildings[id])
	}
	return out
}

// Building returns the full definition for one building.
func (c *Catalog) Building(id BuildingID) (Building, error) {
	b, ok := c.buildings[id]
	if !ok {
		return Building{}, fmt.Errorf("building %d: %w", id, ErrUnknownBuilding)
	}
	return b, nil
}

// MaxLevel returns the level ceiling for a building.
func (c *Catalog) MaxLevel(id BuildingID) (int, error) {
	b, err := c.Building(id)
	if err != nil {
		return 0, err
	}
	return b.MaxLevel, nil
}

// UpgradeCost returns the flat upgrade cost for a building in crowns.
func (c *Catalog) UpgradeCost(id BuildingID) (int64, error) {
	b, err := c.Building(id)
	if err != nil {
		return 0, err
	}
	return b.UpgradeCost, nil
}

// UpgradeDuration returns how long the upgrade producing the given level
// takes, in seconds. The schedule is shared by every building: only levels
// a building can transition into are valid keys.
func (c *Catalog) UpgradeDuration(level int) (int64, error) {
	if level < 1 || level > len(c.durations) {
		return 0, fmt.Errorf("level %d: %w", level, ErrUnknownLevel)
	}
	return c.durations[level-1], nil
}

// Prerequisite returns the building's prerequisite. A zero-value pair means
// the building has none.
func (c *Catalog) Prerequisite(id BuildingID) (Prerequisite, error) {
	b, err := c.Building(id)
	if err != nil {
		return Prerequisite{}, err
	}
	return b.Requires, nil
}

// MaxLevels returns the number of levels covered by the duration schedule.
func (c *Catalog) MaxLevels() int {
	return len(c.durations)
}
