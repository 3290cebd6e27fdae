// Package registry is the ownership registry binding each village to the
// identity that owns it. One token per village, minted at creation; the
// upgrade engine only ever asks "who owns this village".
package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Sentinel errors for registry operations.
var (
	ErrAlreadyMinted = errors.New("ownership token already minted")
	ErrNotMinted     = errors.New("no ownership token for village")
)

// Persister is the write-through backend for ownership rows. A nil Persister
// keeps the registry purely in memory.
type Persister interface {
	SaveOwner(villageID uint64, owner uuid.UUID) error
	LoadOwners() (map[uint64]uuid.UUID, error)
}

// Registry maps village ids to owning identities.
type Registry struct {
	persist Persister

	mu     sync.RWMutex
	owners map[uint64]uuid.UUID
}

// New creates a registry, restoring any persisted ownership rows.
func New(persist Persister) (*Registry, error) {
	r := &Registry{
		persist: persist,
		owners:  make(map[uint64]uuid.UUID),
	}
	if persist == nil {
		return r, nil
	}
	saved, err := persist.LoadOwners()
	if err != nil {
		return nil, fmt.Errorf("load owners: %w", err)
	}
	for id, owner := range saved {
		r.owners[id] = owner
	}
	return r, nil
}

// Mint binds a new village to its owner. A village can be minted only once.
func (r *Registry) Mint(villageID uint64, owner uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.owners[villageID]; ok {
		return fmt.Errorf("village %d: %w", villageID, ErrAlreadyMinted)
	}
	if r.persist != nil {
		if err := r.persist.SaveOwner(villageID, owner); err != nil {
			return fmt.Errorf("persist owner: %w", err)
		}
	}
	r.owners[villageID] = owner
	return nil
}

// OwnerOf returns the identity that owns a village.
func (r *Registry) OwnerOf(villageID uint64) (uuid.UUID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owner, ok := r.owners[villageID]
	if !ok {
		return uuid.Nil, fmt.Errorf("village %d: %w", villageID, ErrNotMinted)
	}
	return owner, nil
}

// Transfer reassigns a village's token from its current owner to another
// identity. The upgrade engine never calls this; it exists for external
// trading flows.
func (r *Registry) Transfer(villageID uint64, from, to uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	owner, ok := r.owners[villageID]
	if !ok {
		return fmt.Errorf("village %d: %w", villageID, ErrNotMinted)
	}
	if owner != from {
		return fmt.Errorf("village %d owned by %s, not %s", villageID, owner, from)
	}
	if r.persist != nil {
		if err := r.persist.SaveOwner(villageID, to); err != nil {
			return fmt.Errorf("persist owner: %w", err)
		}
	}
	r.owners[villageID] = to
	return nil
}
