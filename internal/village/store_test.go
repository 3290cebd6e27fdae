package village

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/villagecraft/internal/catalog"
	"github.com/talgya/villagecraft/internal/worldgen"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(nil)
	require.NoError(t, err)
	return s
}

func TestCreateAssignsDenseIDs(t *testing.T) {
	s := newStore(t)
	cat := catalog.Default()

	for want := uint64(1); want <= 4; want++ {
		v, err := s.Create(cat, "Village", "", worldgen.HexCoord{}, 100)
		require.NoError(t, err)
		assert.Equal(t, want, v.ID)
	}
	assert.Equal(t, 4, s.Count())
}

func TestCreateInitializesBuildings(t *testing.T) {
	s := newStore(t)
	cat := catalog.Default()

	v, err := s.Create(cat, "Ironhaven", "founding charter", worldgen.HexCoord{Q: 2, R: -1}, 100)
	require.NoError(t, err)

	assert.Equal(t, "Ironhaven", v.Name)
	assert.Equal(t, "founding charter", v.Description)
	assert.Equal(t, int64(100), v.UpgradeUnlockAt)
	assert.Equal(t, worldgen.HexCoord{Q: 2, R: -1}, v.Position)
	assert.Len(t, v.Buildings, len(cat.Buildings()))
	for _, b := range cat.Buildings() {
		assert.Zero(t, v.Buildings[b.ID])
	}
}

func TestGetNotFound(t *testing.T) {
	s := newStore(t)
	_, err := s.Get(1)
	assert.ErrorIs(t, err, ErrVillageNotFound)
}

func TestGetReturnsCopy(t *testing.T) {
	s := newStore(t)
	v, err := s.Create(catalog.Default(), "Ironhaven", "", worldgen.HexCoord{}, 100)
	require.NoError(t, err)

	v.Buildings[catalog.TownHall] = 9

	fresh, err := s.Get(v.ID)
	require.NoError(t, err)
	assert.Zero(t, fresh.Buildings[catalog.TownHall], "mutating a returned copy must not touch stored state")
}

func TestMutateAppliesChanges(t *testing.T) {
	s := newStore(t)
	v, err := s.Create(catalog.Default(), "Ironhaven", "", worldgen.HexCoord{}, 100)
	require.NoError(t, err)

	err = s.Mutate(v.ID, func(v *Village) error {
		v.Buildings[catalog.TownHall] = 1
		v.UpgradeUnlockAt = 160
		return nil
	})
	require.NoError(t, err)

	got, err := s.Get(v.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Buildings[catalog.TownHall])
	assert.Equal(t, int64(160), got.UpgradeUnlockAt)
}

func TestMutateDiscardsOnError(t *testing.T) {
	s := newStore(t)
	v, err := s.Create(catalog.Default(), "Ironhaven", "", worldgen.HexCoord{}, 100)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.Mutate(v.ID, func(v *Village) error {
		v.Buildings[catalog.TownHall] = 5
		v.UpgradeUnlockAt = 999
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Get(v.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Buildings[catalog.TownHall], "failed mutation leaves no trace")
	assert.Equal(t, int64(100), got.UpgradeUnlockAt)
}

func TestMutateSerializesPerVillage(t *testing.T) {
	s := newStore(t)
	v, err := s.Create(catalog.Default(), "Contested", "", worldgen.HexCoord{}, 100)
	require.NoError(t, err)

	// Concurrent read-modify-write increments must not lose updates.
	const writers = 32
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Mutate(v.ID, func(v *Village) error {
				v.Buildings[catalog.Farm]++
				return nil
			})
		}()
	}
	wg.Wait()

	got, err := s.Get(v.ID)
	require.NoError(t, err)
	assert.Equal(t, writers, got.Buildings[catalog.Farm])
}

func TestRemove(t *testing.T) {
	s := newStore(t)
	v, err := s.Create(catalog.Default(), "Doomed", "", worldgen.HexCoord{}, 100)
	require.NoError(t, err)

	require.NoError(t, s.Remove(v.ID))
	_, err = s.Get(v.ID)
	assert.ErrorIs(t, err, ErrVillageNotFound)

	// A removed id is never handed out again.
	next, err := s.Create(catalog.Default(), "Next", "", worldgen.HexCoord{}, 100)
	require.NoError(t, err)
	assert.Equal(t, v.ID+1, next.ID)
}

func TestListOrdersByID(t *testing.T) {
	s := newStore(t)
	for _, name := range []string{"First", "Second", "Third"} {
		_, err := s.Create(catalog.Default(), name, "", worldgen.HexCoord{}, 100)
		require.NoError(t, err)
	}

	all := s.List()
	require.Len(t, all, 3)
	assert.Equal(t, "First", all[0].Name)
	assert.Equal(t, "Second", all[1].Name)
	assert.Equal(t, "Third", all[2].Name)
}
