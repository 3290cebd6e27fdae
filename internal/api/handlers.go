package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/talgya/villagecraft/internal/catalog"
	"github.com/talgya/villagecraft/internal/worldgen"
)

// actorID extracts the acting player's identity from the X-Player-ID header.
func actorID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(r.Header.Get("X-Player-ID")))
	return id, err == nil
}

func pathUint(r *http.Request, name string) (uint64, bool) {
	n, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	return n, err == nil
}

type buildVillageRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type buildVillageResponse struct {
	ID       uint64            `json:"id"`
	Name     string            `json:"name"`
	Position worldgen.HexCoord `json:"position"`
}

func (s *Server) handleBuildVillage(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing or invalid X-Player-ID header")
		return
	}

	var req buildVillageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	id, err := s.Engine.BuildVillage(actor, req.Name, req.Description)
	if err != nil {
		slog.Warn("build village failed", "actor", actor, "error", err)
		writeError(w, errorStatus(err), err.Error())
		return
	}

	v, err := s.Store.Get(id)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	slog.Info("village built", "id", id, "name", v.Name, "owner", actor)
	writeJSON(w, http.StatusCreated, buildVillageResponse{
		ID:       v.ID,
		Name:     v.Name,
		Position: v.Position,
	})
}

type upgradeRequest struct {
	BuildingID catalog.BuildingID `json:"building_id"`
}

type upgradeResponse struct {
	BuildingID catalog.BuildingID `json:"building_id"`
	Level      int                `json:"level"`
	UnlockAt   int64              `json:"unlock_at"`
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing or invalid X-Player-ID header")
		return
	}
	villageID, ok := pathUint(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid village id")
		return
	}

	var req upgradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.Engine.UpgradeBuilding(actor, villageID, req.BuildingID); err != nil {
		slog.Warn("upgrade rejected", "village", villageID, "building", req.BuildingID, "error", err)
		writeError(w, errorStatus(err), err.Error())
		return
	}

	v, err := s.Store.Get(villageID)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	slog.Info("building upgraded",
		"village", villageID, "building", req.BuildingID, "level", v.Level(req.BuildingID))
	writeJSON(w, http.StatusOK, upgradeResponse{
		BuildingID: req.BuildingID,
		Level:      v.Level(req.BuildingID),
		UnlockAt:   v.UpgradeUnlockAt,
	})
}

type villageSummary struct {
	ID       uint64            `json:"id"`
	Name     string            `json:"name"`
	Owner    uuid.UUID         `json:"owner"`
	Position worldgen.HexCoord `json:"position"`
}

func (s *Server) handleVillages(w http.ResponseWriter, r *http.Request) {
	all := s.Store.List()
	out := make([]villageSummary, 0, len(all))
	for _, v := range all {
		owner, err := s.Registry.OwnerOf(v.ID)
		if err != nil {
			continue
		}
		out = append(out, villageSummary{
			ID:       v.ID,
			Name:     v.Name,
			Owner:    owner,
			Position: v.Position,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(out),
		"villages": out,
	})
}

type villageDetail struct {
	ID              uint64                     `json:"id"`
	Name            string                     `json:"name"`
	Description     string                     `json:"description"`
	Owner           uuid.UUID                  `json:"owner"`
	Buildings       map[catalog.BuildingID]int `json:"buildings"`
	UpgradeUnlockAt int64                      `json:"upgrade_unlock_at"`
	Position        worldgen.HexCoord          `json:"position"`
	CreatedAt       int64                      `json:"created_at"`
}

func (s *Server) handleVillageDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid village id")
		return
	}
	v, err := s.Store.Get(id)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	owner, err := s.Registry.OwnerOf(id)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, villageDetail{
		ID:              v.ID,
		Name:            v.Name,
		Description:     v.Description,
		Owner:           owner,
		Buildings:       v.Buildings,
		UpgradeUnlockAt: v.UpgradeUnlockAt,
		Position:        v.Position,
		CreatedAt:       v.CreatedAt,
	})
}

type catalogEntry struct {
	ID          catalog.BuildingID    `json:"id"`
	Name        string                `json:"name"`
	MaxLevel    int                   `json:"max_level"`
	UpgradeCost int64                 `json:"upgrade_cost"`
	Requires    *catalog.Prerequisite `json:"requires,omitempty"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	cat := s.Engine.Catalog()

	durations := make([]int64, cat.MaxLevels())
	for lvl := 1; lvl <= cat.MaxLevels(); lvl++ {
		d, _ := cat.UpgradeDuration(lvl)
		durations[lvl-1] = d
	}

	buildings := make([]catalogEntry, 0)
	for _, b := range cat.Buildings() {
		entry := catalogEntry{
			ID:          b.ID,
			Name:        b.Name,
			MaxLevel:    b.MaxLevel,
			UpgradeCost: b.UpgradeCost,
		}
		if !b.Requires.None() {
			req := b.Requires
			entry.Requires = &req
		}
		buildings = append(buildings, entry)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"buildings":         buildings,
		"upgrade_durations": durations,
	})
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	if s.World == nil {
		writeError(w, http.StatusNotFound, "no world map")
		return
	}
	counts := make(map[string]int)
	for t, c := range s.World.TerrainCounts() {
		counts[worldgen.TerrainName(t)] = c
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"radius":  s.World.Radius,
		"hexes":   s.World.HexCount(),
		"terrain": counts,
	})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	player, err := uuid.Parse(r.PathValue("player"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid player id")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"player":  player,
		"balance": s.Ledger.Balance(player),
	})
}

type depositRequest struct {
	Player uuid.UUID `json:"player"`
	Amount int64     `json:"amount"`
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.Ledger.Deposit(req.Player, req.Amount); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	slog.Info("deposit", "player", req.Player, "amount", req.Amount)
	writeJSON(w, http.StatusOK, map[string]any{
		"player":  req.Player,
		"balance": s.Ledger.Balance(req.Player),
	})
}
