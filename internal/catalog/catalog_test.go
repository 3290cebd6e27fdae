package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogIsComplete(t *testing.T) {
	cat := Default()

	require.Len(t, cat.Buildings(), 8)
	for _, b := range cat.Buildings() {
		max, err := cat.MaxLevel(b.ID)
		require.NoError(t, err)
		assert.Positive(t, max)

		cost, err := cat.UpgradeCost(b.ID)
		require.NoError(t, err)
		assert.Positive(t, cost)

		// Every reachable level has a duration.
		for lvl := 1; lvl <= max; lvl++ {
			d, err := cat.UpgradeDuration(lvl)
			require.NoError(t, err)
			assert.Positive(t, d)
		}
	}
}

func TestDefaultCatalogValues(t *testing.T) {
	cat := Default()

	cost, err := cat.UpgradeCost(TownHall)
	require.NoError(t, err)
	assert.Equal(t, int64(500), cost)

	d, err := cat.UpgradeDuration(1)
	require.NoError(t, err)
	assert.Equal(t, int64(60), d)

	req, err := cat.Prerequisite(Barracks)
	require.NoError(t, err)
	assert.Equal(t, Prerequisite{Building: TownHall, MinLevel: 2}, req)

	req, err = cat.Prerequisite(Farm)
	require.NoError(t, err)
	assert.True(t, req.None(), "farm has no prerequisite")
}

func TestUnknownBuilding(t *testing.T) {
	cat := Default()

	_, err := cat.MaxLevel(99)
	assert.ErrorIs(t, err, ErrUnknownBuilding)
	_, err = cat.UpgradeCost(99)
	assert.ErrorIs(t, err, ErrUnknownBuilding)
	_, err = cat.Prerequisite(99)
	assert.ErrorIs(t, err, ErrUnknownBuilding)
}

func TestUnknownLevel(t *testing.T) {
	cat := Default()

	for _, lvl := range []int{0, -1, 11} {
		_, err := cat.UpgradeDuration(lvl)
		assert.ErrorIs(t, err, ErrUnknownLevel, "level %d", lvl)
	}
}

func TestValidationRejectsBadCatalogs(t *testing.T) {
	durations := []int64{60, 120}

	tests := []struct {
		name      string
		buildings []Building
		durations []int64
	}{
		{
			name:      "empty",
			buildings: nil,
			durations: durations,
		},
		{
			name: "duplicate id",
			buildings: []Building{
				{ID: 1, Name: "A", MaxLevel: 1, UpgradeCost: 10},
				{ID: 1, Name: "B", MaxLevel: 1, UpgradeCost: 10},
			},
			durations: durations,
		},
		{
			name: "max level beyond schedule",
			buildings: []Building{
				{ID: 1, Name: "A", MaxLevel: 3, UpgradeCost: 10},
			},
			durations: durations,
		},
		{
			name: "zero cost",
			buildings: []Building{
				{ID: 1, Name: "A", MaxLevel: 1, UpgradeCost: 0},
			},
			durations: durations,
		},
		{
			name: "prerequisite on unknown building",
			buildings: []Building{
				{ID: 1, Name: "A", MaxLevel: 1, UpgradeCost: 10,
					Requires: Prerequisite{Building: 7, MinLevel: 1}},
			},
			durations: durations,
		},
		{
			name: "prerequisite above target max level",
			buildings: []Building{
				{ID: 1, Name: "A", MaxLevel: 2, UpgradeCost: 10},
				{ID: 2, Name: "B", MaxLevel: 1, UpgradeCost: 10,
					Requires: Prerequisite{Building: 1, MinLevel: 5}},
			},
			durations: durations,
		},
		{
			name: "non-positive duration",
			buildings: []Building{
				{ID: 1, Name: "A", MaxLevel: 1, UpgradeCost: 10},
			},
			durations: []int64{0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.buildings, tt.durations)
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	yaml := `
buildings:
  - id: 1
    name: Keep
    max_level: 3
    upgrade_cost: 100
  - id: 2
    name: Stable
    max_level: 2
    upgrade_cost: 50
    requires:
      building: 1
      level: 2
upgrade_durations: [30, 60, 90]
`
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cat, err := LoadFile(path)
	require.NoError(t, err)

	require.Len(t, cat.Buildings(), 2)
	max, err := cat.MaxLevel(1)
	require.NoError(t, err)
	assert.Equal(t, 3, max)

	req, err := cat.Prerequisite(2)
	require.NoError(t, err)
	assert.Equal(t, Prerequisite{Building: 1, MinLevel: 2}, req)

	d, err := cat.UpgradeDuration(3)
	require.NoError(t, err)
	assert.Equal(t, int64(90), d)
}

func TestLoadFileRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("buildings: []\nupgrade_durations: [60]\n"), 0644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}
