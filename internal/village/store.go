package village

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/talgya/villagecraft/internal/catalog"
	"github.com/talgya/villagecraft/internal/worldgen"
)

// ErrVillageNotFound is returned when a village id is not in the store.
var ErrVillageNotFound = errors.New("village not found")

// Persister is the write-through backend for the store. A nil Persister
// keeps the store purely in memory.
type Persister interface {
	SaveVillage(*Village) error
	DeleteVillage(id uint64) error
	LoadVillages() ([]*Village, error)
}

// Store holds all villages, keyed by a dense sequential id starting at 1.
// Each village is an independent unit of concurrency: mutations on different
// villages run in parallel, mutations on the same village are serialized by
// a per-village lock.
type Store struct {
	persist Persister

	mu       sync.RWMutex
	villages map[uint64]*entry
	nextID   uint64
}

type entry struct {
	mu sync.Mutex
	v  *Village
}

// NewStore creates a store, restoring any persisted villages. The id counter
// resumes above the highest persisted id.
func NewStore(persist Persister) (*Store, error) {
	s := &Store{
		persist:  persist,
		villages: make(map[uint64]*entry),
		nextID:   1,
	}
	if persist == nil {
		return s, nil
	}
	saved, err := persist.LoadVillages()
	if err != nil {
		return nil, fmt.Errorf("load villages: %w", err)
	}
	for _, v := range saved {
		s.villages[v.ID] = &entry{v: v}
		if v.ID >= s.nextID {
			s.nextID = v.ID + 1
		}
	}
	return s, nil
}

// Create allocates the next sequential id and persists a village with every
// catalog building at level 0 and no upgrade lock.
func (s *Store) Create(cat *catalog.Catalog, name, description string, pos worldgen.HexCoord, now int64) (*Village, error) {
	buildings := make(map[catalog.BuildingID]int, len(cat.Buildings()))
	for _, b := range cat.Buildings() {
		buildings[b.ID] = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v := &Village{
		ID:              s.nextID,
		Name:            name,
		Description:     description,
		Buildings:       buildings,
		UpgradeUnlockAt: now,
		Position:        pos,
		CreatedAt:       now,
	}
	if s.persist != nil {
		if err := s.persist.SaveVillage(v); err != nil {
			return nil, fmt.Errorf("persist village: %w", err)
		}
	}
	s.nextID++
	s.villages[v.ID] = &entry{v: v}
	return v.clone(), nil
}

// Remove deletes a village record. Used only to roll back a creation whose
// ownership mint failed; the consumed id is not handed out again.
func (s *Store) Remove(id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.villages[id]; !ok {
		return fmt.Errorf("village %d: %w", id, ErrVillageNotFound)
	}
	if s.persist != nil {
		if err := s.persist.DeleteVillage(id); err != nil {
			return fmt.Errorf("delete village: %w", err)
		}
	}
	delete(s.villages, id)
	return nil
}

// Get returns a copy of the village. Callers cannot mutate stored state
// through the returned value; all writes go through Mutate.
func (s *Store) Get(id uint64) (*Village, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.v.clone(), nil
}

// List returns copies of all villages in ascending id order.
func (s *Store) List() []*Village {
	s.mu.RLock()
	ids := make([]uint64, 0, len(s.villages))
	for id := range s.villages {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]*Village, 0, len(ids))
	for _, id := range ids {
		if v, err := s.Get(id); err == nil {
			out = append(out, v)
		}
	}
	return out
}

// Count returns the number of villages.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.villages)
}

// Mutate applies fn to the village as one atomic read-modify-write. fn
// receives a draft copy; if fn returns an error or the write-through fails,
// no change is observable by any other caller. The per-village lock is held
// for the whole call, so validate-then-mutate sequences inside fn cannot
// interleave with a concurrent mutation of the same village.
func (s *Store) Mutate(id uint64, fn func(*Village) error) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	draft := e.v.clone()
	if err := fn(draft); err != nil {
		return err
	}
	if s.persist != nil {
		if err := s.persist.SaveVillage(draft); err != nil {
			return fmt.Errorf("persist village: %w", err)
		}
	}
	e.v = draft
	return nil
}

func (s *Store) lookup(id uint64) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.villages[id]
	if !ok {
		return nil, fmt.Errorf("village %d: %w", id, ErrVillageNotFound)
	}
	return e, nil
}
