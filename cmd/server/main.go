// Command server runs the villagecraft game server.
package main

import (
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/talgya/villagecraft/internal/api"
	"github.com/talgya/villagecraft/internal/catalog"
	"github.com/talgya/villagecraft/internal/clock"
	"github.com/talgya/villagecraft/internal/config"
	"github.com/talgya/villagecraft/internal/engine"
	"github.com/talgya/villagecraft/internal/events"
	"github.com/talgya/villagecraft/internal/ledger"
	"github.com/talgya/villagecraft/internal/persistence"
	"github.com/talgya/villagecraft/internal/registry"
	"github.com/talgya/villagecraft/internal/village"
	"github.com/talgya/villagecraft/internal/worldgen"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	slog.Info("villagecraft starting", "port", cfg.Port, "db", cfg.DBPath)

	// ── Catalog ───────────────────────────────────────────────────────
	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		cat, err = catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			slog.Error("failed to load catalog", "path", cfg.CatalogPath, "error", err)
			os.Exit(1)
		}
		slog.Info("catalog loaded", "path", cfg.CatalogPath, "buildings", len(cat.Buildings()))
	}

	// ── Database ──────────────────────────────────────────────────────
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		slog.Error("failed to create database directory", "path", filepath.Dir(cfg.DBPath), "error", err)
		os.Exit(1)
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// ── World Map (always regenerated — deterministic from seed) ──────
	genCfg := worldgen.DefaultGenConfig(cfg.WorldSeed)
	genCfg.Radius = cfg.WorldRadius
	worldMap := worldgen.Generate(genCfg)
	for t, c := range worldMap.TerrainCounts() {
		slog.Info("terrain", "type", worldgen.TerrainName(t), "count", c)
	}
	atlas := worldgen.NewAtlas(worldMap)

	// ── State ─────────────────────────────────────────────────────────
	store, err := village.NewStore(db)
	if err != nil {
		slog.Error("failed to load villages", "error", err)
		os.Exit(1)
	}
	// Sites of restored villages are already taken.
	for _, v := range store.List() {
		atlas.Claim(v.Position)
	}
	slog.Info("villages loaded", "count", store.Count())

	reg, err := registry.New(db)
	if err != nil {
		slog.Error("failed to load ownership registry", "error", err)
		os.Exit(1)
	}
	ledg, err := ledger.New(db)
	if err != nil {
		slog.Error("failed to load ledger", "error", err)
		os.Exit(1)
	}

	bus := events.NewBus()
	eng := engine.New(cat, store, reg, ledg, clock.Wall{}, bus, atlas)

	// ── Audit log ─────────────────────────────────────────────────────
	auditCh, _ := bus.Subscribe(256)
	go func() {
		for ev := range auditCh {
			if err := db.AppendEvent(ev); err != nil {
				slog.Error("append event", "error", err)
			}
		}
	}()

	// ── HTTP API ──────────────────────────────────────────────────────
	server := &api.Server{
		Engine:   eng,
		Store:    store,
		Ledger:   ledg,
		Registry: reg,
		Bus:      bus,
		World:    worldMap,
		Port:     cfg.Port,
		AdminKey: cfg.AdminKey,
		Origins:  cfg.CORSOrigins,
	}
	server.Start()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	slog.Info("shutting down")
}

func logLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
