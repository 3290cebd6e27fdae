// Package engine implements village creation and the building upgrade rules:
// ownership checks, the single upgrade slot per village, prerequisites, level
// ceilings, and payment.
package engine

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/talgya/villagecraft/internal/catalog"
	"github.com/talgya/villagecraft/internal/clock"
	"github.com/talgya/villagecraft/internal/events"
	"github.com/talgya/villagecraft/internal/ledger"
	"github.com/talgya/villagecraft/internal/registry"
	"github.com/talgya/villagecraft/internal/village"
	"github.com/talgya/villagecraft/internal/worldgen"
)

// Validation errors for upgrade requests. Errors owned by collaborators
// (village.ErrVillageNotFound, catalog.ErrUnknownBuilding,
// ledger.ErrInsufficientFunds) pass through unchanged.
var (
	ErrNotOwner           = errors.New("actor does not own village")
	ErrUpgradeInProgress  = errors.New("upgrade already in progress")
	ErrMaxLevelReached    = errors.New("building at max level")
	ErrPrerequisiteNotMet = errors.New("prerequisite not met")
)

// Registry is the ownership registry consumed by the engine.
type Registry interface {
	Mint(villageID uint64, owner uuid.UUID) error
	OwnerOf(villageID uint64) (uuid.UUID, error)
}

// Ledger moves payment from the actor to the treasury. Transfer must be
// atomic and must fail with ledger.ErrInsufficientFunds when the payer
// cannot cover the amount.
type Ledger interface {
	Transfer(from, to uuid.UUID, amount int64) error
}

// Publisher receives notifications after a mutation commits. Implementations
// must not block.
type Publisher interface {
	Publish(events.Event)
}

// SitePicker assigns map positions to new villages.
type SitePicker interface {
	NextSite() (worldgen.HexCoord, error)
}

// Engine ties the catalog, store, and collaborators together.
type Engine struct {
	cat   *catalog.Catalog
	store *village.Store
	reg   Registry
	ledg  Ledger
	clk   clock.Clock
	bus   Publisher
	sites SitePicker
}

// New creates an engine. bus and sites may be nil; a nil bus drops events
// and a nil sites places every village at the origin.
func New(cat *catalog.Catalog, store *village.Store, reg Registry, ledg Ledger, clk clock.Clock, bus Publisher, sites SitePicker) *Engine {
	return &Engine{
		cat:   cat,
		store: store,
		reg:   reg,
		ledg:  ledg,
		clk:   clk,
		bus:   bus,
		sites: sites,
	}
}

// Catalog exposes the read-only building rules.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.cat
}

// BuildVillage allocates a new village, mints its ownership token for the
// actor, and emits a village-created event. The village allocation is rolled
// back if minting fails: a village with no owning token never survives.
func (e *Engine) BuildVillage(actor uuid.UUID, name, description string) (uint64, error) {
	now := e.clk.Now()

	pos := worldgen.HexCoord{}
	if e.sites != nil {
		var err error
		pos, err = e.sites.NextSite()
		if err != nil {
			return 0, fmt.Errorf("place village: %w", err)
		}
	}

	v, err := e.store.Create(e.cat, name, description, pos, now)
	if err != nil {
		return 0, err
	}

	if err := e.reg.Mint(v.ID, actor); err != nil {
		// The id stays consumed; only the record is rolled back.
		if rerr := e.store.Remove(v.ID); rerr != nil {
			return 0, fmt.Errorf("mint token: %w (rollback: %v)", err, rerr)
		}
		return 0, fmt.Errorf("mint token: %w", err)
	}

	e.publish(events.Event{
		Kind:      events.KindVillageCreated,
		VillageID: v.ID,
		Actor:     actor,
		At:        now,
	})
	return v.ID, nil
}

// UpgradeBuilding advances one building by one level. The checks run in a
// fixed order so the same request always fails with the same error:
// village exists, building known, actor owns, village idle, below max level,
// prerequisite met, funds sufficient. All checks and the mutation execute
// under the village's lock against one clock reading; a failed check leaves
// no trace.
func (e *Engine) UpgradeBuilding(actor uuid.UUID, villageID uint64, buildingID catalog.BuildingID) error {
	now := e.clk.Now()

	var (
		newLevel int
		cost     int64
		debited  bool
	)
	err := e.store.Mutate(villageID, func(v *village.Village) error {
		maxLevel, err := e.cat.MaxLevel(buildingID)
		if err != nil {
			return err
		}

		owner, err := e.reg.OwnerOf(villageID)
		switch {
		case errors.Is(err, registry.ErrNotMinted):
			// An unminted village has no owner, so nobody may upgrade it.
			return fmt.Errorf("village %d: %w", villageID, ErrNotOwner)
		case err != nil:
			return fmt.Errorf("resolve owner of village %d: %w", villageID, err)
		case owner != actor:
			return fmt.Errorf("village %d: %w", villageID, ErrNotOwner)
		}

		if !v.Idle(now) {
			return fmt.Errorf("village %d locked until %d: %w", villageID, v.UpgradeUnlockAt, ErrUpgradeInProgress)
		}

		level := v.Level(buildingID)
		if level >= maxLevel {
			return fmt.Errorf("building %d at level %d: %w", buildingID, level, ErrMaxLevelReached)
		}

		req, err := e.cat.Prerequisite(buildingID)
		if err != nil {
			return err
		}
		if !req.None() && v.Level(req.Building) < req.MinLevel {
			return fmt.Errorf("building %d needs building %d at level %d: %w",
				buildingID, req.Building, req.MinLevel, ErrPrerequisiteNotMet)
		}

		cost, err = e.cat.UpgradeCost(buildingID)
		if err != nil {
			return err
		}
		newLevel = level + 1
		duration, err := e.cat.UpgradeDuration(newLevel)
		if err != nil {
			return err
		}

		// Payment doubles as the funds check and is the last step before
		// the mutation, so a validation failure never debits anything.
		if err := e.ledg.Transfer(actor, ledger.Treasury, cost); err != nil {
			return err
		}
		debited = true

		v.Buildings[buildingID] = newLevel
		v.UpgradeUnlockAt = now + duration
		return nil
	})
	if err != nil {
		if debited {
			// The village write failed after payment went through; put the
			// funds back so the caller sees no state change at all.
			if rerr := e.ledg.Transfer(ledger.Treasury, actor, cost); rerr != nil {
				return fmt.Errorf("%w (refund: %v)", err, rerr)
			}
		}
		return err
	}

	e.publish(events.Event{
		Kind:       events.KindBuildingUpgraded,
		VillageID:  villageID,
		Actor:      actor,
		BuildingID: buildingID,
		Level:      newLevel,
		At:         now,
	})
	return nil
}

func (e *Engine) publish(ev events.Event) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
}
