// Package persistence provides SQLite-based storage for villages, ledger
// accounts, ownership rows, and the event audit log.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/villagecraft/internal/catalog"
	"github.com/talgya/villagecraft/internal/events"
	"github.com/talgya/villagecraft/internal/village"
	"github.com/talgya/villagecraft/internal/worldgen"
)

// DB wraps a SQLite connection. It backs the village store, the ledger, and
// the ownership registry through their Persister interfaces.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS villages (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		pos_q INTEGER NOT NULL,
		pos_r INTEGER NOT NULL,
		upgrade_unlock_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		buildings_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		balance INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS owners (
		village_id INTEGER PRIMARY KEY,
		owner TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		at INTEGER NOT NULL,
		kind TEXT NOT NULL,
		village_id INTEGER NOT NULL,
		actor TEXT NOT NULL,
		building_id INTEGER NOT NULL,
		level INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_at ON events(at);
	CREATE INDEX IF NOT EXISTS idx_events_village ON events(village_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveVillage upserts one village row.
func (db *DB) SaveVillage(v *village.Village) error {
	buildingsJSON, err := json.Marshal(v.Buildings)
	if err != nil {
		return fmt.Errorf("marshal buildings: %w", err)
	}
	_, err = db.conn.Exec(`INSERT INTO villages
		(id, name, description, pos_q, pos_r, upgrade_unlock_at, created_at, buildings_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			upgrade_unlock_at = excluded.upgrade_unlock_at,
			buildings_json = excluded.buildings_json`,
		v.ID, v.Name, v.Description, v.Position.Q, v.Position.R,
		v.UpgradeUnlockAt, v.CreatedAt, string(buildingsJSON),
	)
	if err != nil {
		return fmt.Errorf("save village %d: %w", v.ID, err)
	}
	return nil
}

// DeleteVillage removes one village row.
func (db *DB) DeleteVillage(id uint64) error {
	_, err := db.conn.Exec("DELETE FROM villages WHERE id = ?", id)
	return err
}

// LoadVillages reads all village rows.
func (db *DB) LoadVillages() ([]*village.Village, error) {
	type row struct {
		ID              uint64 `db:"id"`
		Name            string `db:"name"`
		Description     string `db:"description"`
		PosQ            int    `db:"pos_q"`
		PosR            int    `db:"pos_r"`
		UpgradeUnlockAt int64  `db:"upgrade_unlock_at"`
		CreatedAt       int64  `db:"created_at"`
		BuildingsJSON   string `db:"buildings_json"`
	}

	var rows []row
	if err := db.conn.Select(&rows, "SELECT * FROM villages ORDER BY id"); err != nil {
		return nil, err
	}

	villages := make([]*village.Village, 0, len(rows))
	for _, r := range rows {
		var buildings map[catalog.BuildingID]int
		if err := json.Unmarshal([]byte(r.BuildingsJSON), &buildings); err != nil {
			return nil, fmt.Errorf("unmarshal buildings for village %d: %w", r.ID, err)
		}
		villages = append(villages, &village.Village{
			ID:              r.ID,
			Name:            r.Name,
			Description:     r.Description,
			Buildings:       buildings,
			UpgradeUnlockAt: r.UpgradeUnlockAt,
			Position:        worldgen.HexCoord{Q: r.PosQ, R: r.PosR},
			CreatedAt:       r.CreatedAt,
		})
	}
	return villages, nil
}

// SaveAccount upserts one ledger account balance.
func (db *DB) SaveAccount(id uuid.UUID, balance int64) error {
	_, err := db.conn.Exec(`INSERT INTO accounts (id, balance) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET balance = excluded.balance`,
		id.String(), balance,
	)
	return err
}

// LoadAccounts reads all ledger balances.
func (db *DB) LoadAccounts() (map[uuid.UUID]int64, error) {
	type row struct {
		ID      string `db:"id"`
		Balance int64  `db:"balance"`
	}
	var rows []row
	if err := db.conn.Select(&rows, "SELECT * FROM accounts"); err != nil {
		return nil, err
	}
	balances := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			return nil, fmt.Errorf("account id %q: %w", r.ID, err)
		}
		balances[id] = r.Balance
	}
	return balances, nil
}

// SaveOwner upserts one village ownership row.
func (db *DB) SaveOwner(villageID uint64, owner uuid.UUID) error {
	_, err := db.conn.Exec(`INSERT INTO owners (village_id, owner) VALUES (?, ?)
		ON CONFLICT(village_id) DO UPDATE SET owner = excluded.owner`,
		villageID, owner.String(),
	)
	return err
}

// LoadOwners reads all ownership rows.
func (db *DB) LoadOwners() (map[uint64]uuid.UUID, error) {
	type row struct {
		VillageID uint64 `db:"village_id"`
		Owner     string `db:"owner"`
	}
	var rows []row
	if err := db.conn.Select(&rows, "SELECT * FROM owners"); err != nil {
		return nil, err
	}
	owners := make(map[uint64]uuid.UUID, len(rows))
	for _, r := range rows {
		owner, err := uuid.Parse(r.Owner)
		if err != nil {
			return nil, fmt.Errorf("owner of village %d: %w", r.VillageID, err)
		}
		owners[r.VillageID] = owner
	}
	return owners, nil
}

// AppendEvent writes one event to the audit log.
func (db *DB) AppendEvent(e events.Event) error {
	_, err := db.conn.Exec(`INSERT INTO events (at, kind, village_id, actor, building_id, level)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.At, string(e.Kind), e.VillageID, e.Actor.String(), e.BuildingID, e.Level,
	)
	return err
}

// RecentEvents returns the newest events, most recent first.
func (db *DB) RecentEvents(limit int) ([]events.Event, error) {
	type row struct {
		ID         int64  `db:"id"`
		At         int64  `db:"at"`
		Kind       string `db:"kind"`
		VillageID  uint64 `db:"village_id"`
		Actor      string `db:"actor"`
		BuildingID uint8  `db:"building_id"`
		Level      int    `db:"level"`
	}
	var rows []row
	err := db.conn.Select(&rows, "SELECT * FROM events ORDER BY id DESC LIMIT ?", limit)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]events.Event, 0, len(rows))
	for _, r := range rows {
		actor, err := uuid.Parse(r.Actor)
		if err != nil {
			return nil, fmt.Errorf("event %d actor: %w", r.ID, err)
		}
		out = append(out, events.Event{
			Kind:       events.Kind(r.Kind),
			VillageID:  r.VillageID,
			Actor:      actor,
			BuildingID: catalog.BuildingID(r.BuildingID),
			Level:      r.Level,
			At:         r.At,
		})
	}
	return out, nil
}
