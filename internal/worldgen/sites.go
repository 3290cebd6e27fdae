// Village site selection. The atlas scores every habitable hex once, orders
// the candidates deterministically, and hands out one site per new village
// with a minimum spacing between neighbors.
package worldgen

import (
	"errors"
	"math"
	"sort"
	"sync"
)

// minSiteDistance is the minimum hex distance between two village sites.
const minSiteDistance = 2

// ErrNoSites is returned when every candidate site has been claimed.
var ErrNoSites = errors.New("no village sites left")

// Site is a scored candidate location for a village.
type Site struct {
	Coord HexCoord `json:"coord"`
	Score float64  `json:"score"`
}

// Atlas assigns map positions to villages in descending desirability order.
type Atlas struct {
	mu         sync.Mutex
	candidates []Site
	claimed    map[HexCoord]bool
}

// NewAtlas scores all habitable hexes on the map and prepares the claim
// order. The order is deterministic: score descending, coordinates as the
// tiebreak.
func NewAtlas(m *Map) *Atlas {
	var candidates []Site
	for coord, hex := range m.Hexes {
		if !hex.Terrain.Habitable() {
			continue
		}
		candidates = append(candidates, Site{
			Coord: coord,
			Score: siteScore(m, coord, hex),
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Coord.Q != b.Coord.Q {
			return a.Coord.Q < b.Coord.Q
		}
		return a.Coord.R < b.Coord.R
	})
	return &Atlas{
		candidates: candidates,
		claimed:    make(map[HexCoord]bool),
	}
}

// Claim marks a coordinate as taken, e.g. when restoring villages from
// persisted state.
func (a *Atlas) Claim(coord HexCoord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.claimed[coord] = true
}

// NextSite returns the best unclaimed site that keeps the minimum distance
// from every claimed one, and claims it.
func (a *Atlas) NextSite() (HexCoord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, s := range a.candidates {
		if a.claimed[s.Coord] || a.tooCloseLocked(s.Coord) {
			continue
		}
		a.claimed[s.Coord] = true
		return s.Coord, nil
	}
	return HexCoord{}, ErrNoSites
}

func (a *Atlas) tooCloseLocked(coord HexCoord) bool {
	for taken := range a.claimed {
		if Distance(coord, taken) < minSiteDistance {
			return true
		}
	}
	return false
}

// siteScore evaluates how desirable a hex is for a village.
// Prefers coast (trade), fertile plains, and varied surroundings.
func siteScore(m *Map, coord HexCoord, hex *Hex) float64 {
	score := 0.0

	switch hex.Terrain {
	case TerrainCoast:
		score += 4.0 // Harbors are prime locations
	case TerrainPlains:
		score += 3.0
	case TerrainForest:
		score += 1.5
	case TerrainDesert:
		score += 0.5
	}

	// Bonus for nearby terrain diversity.
	terrainTypes := make(map[Terrain]bool)
	for _, nc := range coord.Neighbors() {
		if n := m.Get(nc); n != nil && n.Terrain != TerrainOcean {
			terrainTypes[n.Terrain] = true
		}
	}
	score += float64(len(terrainTypes)) * 0.3

	// Rainfall roughly tracks fertility.
	score += math.Log1p(hex.Rainfall) * 0.5

	return score
}
