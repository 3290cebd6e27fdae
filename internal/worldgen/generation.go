// Terrain generation using layered simplex noise. Elevation and rainfall maps
// are sampled independently, then terrain is derived from both.
package worldgen

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds map generation parameters.
type GenConfig struct {
	Radius      int     // Hex grid radius
	Seed        int64   // Noise seed; the same seed always yields the same map
	SeaLevel    float64 // Elevation threshold for ocean (0.0–1.0)
	MountainLvl float64 // Elevation threshold for mountains (0.0–1.0)
}

// DefaultGenConfig returns the standard world size.
func DefaultGenConfig(seed int64) GenConfig {
	return GenConfig{
		Radius:      22,
		Seed:        seed,
		SeaLevel:    0.25,
		MountainLvl: 0.72,
	}
}

// SmallTestConfig returns a tiny world for tests.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Radius:      6,
		Seed:        42,
		SeaLevel:    0.25,
		MountainLvl: 0.75,
	}
}

// Generate creates a complete terrain map. Generation is deterministic for a
// given config.
func Generate(cfg GenConfig) *Map {
	elevNoise := opensimplex.NewNormalized(cfg.Seed)
	rainNoise := opensimplex.NewNormalized(cfg.Seed + 1)

	m := NewMap(cfg.Radius)

	for q := -cfg.Radius; q <= cfg.Radius; q++ {
		for r := -cfg.Radius; r <= cfg.Radius; r++ {
			coord := HexCoord{Q: q, R: r}
			// Cube coordinate constraint: max(|q|,|r|,|s|) <= radius.
			if Distance(coord, HexCoord{}) > cfg.Radius {
				continue
			}

			// Hex axial → cartesian for noise sampling:
			// x = q + r*0.5, y = r * sqrt(3)/2
			x := float64(q) + float64(r)*0.5
			y := float64(r) * math.Sqrt(3.0) / 2.0

			elev := octaveNoise(elevNoise, x, y, 4, 0.08, 0.5)
			rain := octaveNoise(rainNoise, x, y, 3, 0.06, 0.5)

			// Continental shaping: lower elevation near the edge so the map
			// ends in an ocean border.
			distFromCenter := math.Sqrt(x*x+y*y) / float64(cfg.Radius)
			edgeFalloff := 1.0 - math.Pow(distFromCenter, 3.5)
			if edgeFalloff < 0 {
				edgeFalloff = 0
			}
			elev *= edgeFalloff

			m.Set(&Hex{
				Coord:     coord,
				Terrain:   deriveTerrain(elev, rain, cfg),
				Elevation: elev,
				Rainfall:  rain,
			})
		}
	}

	markCoastalHexes(m)
	return m
}

// deriveTerrain determines terrain type from elevation and rainfall.
func deriveTerrain(elev, rain float64, cfg GenConfig) Terrain {
	if elev < cfg.SeaLevel {
		return TerrainOcean
	}
	if elev > cfg.MountainLvl {
		return TerrainMountain
	}
	if rain < 0.25 {
		return TerrainDesert
	}
	if rain > 0.5 && elev > 0.4 {
		return TerrainForest
	}
	return TerrainPlains
}

// markCoastalHexes reclassifies land hexes adjacent to ocean as coast.
func markCoastalHexes(m *Map) {
	for coord, hex := range m.Hexes {
		if hex.Terrain == TerrainOcean || hex.Terrain == TerrainMountain {
			continue
		}
		for _, nc := range coord.Neighbors() {
			if n := m.Get(nc); n != nil && n.Terrain == TerrainOcean {
				hex.Terrain = TerrainCoast
				break
			}
		}
	}
}

// octaveNoise samples multi-octave simplex noise normalized to [0, 1].
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxValue := 0.0
	freq := frequency

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*freq, y*freq) * amplitude
		maxValue += amplitude
		amplitude *= persistence
		freq *= 2
	}

	return total / maxValue
}
