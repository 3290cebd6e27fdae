// Package api serves the village game over HTTP.
// GET endpoints are public (read-only observation). Mutating endpoints
// identify the acting player by the X-Player-ID header; admin endpoints
// require a bearer token.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/talgya/villagecraft/internal/catalog"
	"github.com/talgya/villagecraft/internal/engine"
	"github.com/talgya/villagecraft/internal/events"
	"github.com/talgya/villagecraft/internal/ledger"
	"github.com/talgya/villagecraft/internal/registry"
	"github.com/talgya/villagecraft/internal/village"
	"github.com/talgya/villagecraft/internal/worldgen"
)

// Server serves the game API.
type Server struct {
	Engine   *engine.Engine
	Store    *village.Store
	Ledger   *ledger.Ledger
	Registry *registry.Registry
	Bus      *events.Bus
	World    *worldgen.Map
	Port     int
	AdminKey string   // Bearer token for admin endpoints. Empty = admin disabled.
	Origins  []string // Extra allowed CORS origins.
}

// Handler builds the full route table.
func (s *Server) Handler() http.Handler {
	// One bucket of mutations per player per minute keeps a runaway client
	// from hammering the upgrade path.
	writeLimiter := NewRateLimiter(30, time.Minute)

	mux := http.NewServeMux()

	// Public read-only endpoints.
	mux.HandleFunc("GET /api/v1/catalog", s.handleCatalog)
	mux.HandleFunc("GET /api/v1/villages", s.handleVillages)
	mux.HandleFunc("GET /api/v1/villages/{id}", s.handleVillageDetail)
	mux.HandleFunc("GET /api/v1/map", s.handleMap)
	mux.HandleFunc("GET /api/v1/balance/{player}", s.handleBalance)
	mux.HandleFunc("GET /api/v1/stream", s.handleStream)

	// Player endpoints.
	mux.HandleFunc("POST /api/v1/villages", RateLimitMiddleware(writeLimiter, s.handleBuildVillage))
	mux.HandleFunc("POST /api/v1/villages/{id}/upgrade", RateLimitMiddleware(writeLimiter, s.handleUpgrade))

	// Admin endpoints (bearer token).
	mux.HandleFunc("POST /api/v1/deposit", s.adminOnly(s.handleDeposit))

	return s.corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := http.ListenAndServe(addr, s.Handler()); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// adminOnly requires a matching bearer token. With no AdminKey configured
// the endpoint is disabled entirely.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			writeError(w, http.StatusForbidden, "admin endpoints disabled")
			return
		}
		auth := r.Header.Get("Authorization")
		if auth != "Bearer "+s.AdminKey {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next(w, r)
	}
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Localhost dev servers are always allowed; extra origins come from config.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	allowed := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	for _, origin := range s.Origins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowed[origin] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Player-ID")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// errorStatus maps domain errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, village.ErrVillageNotFound),
		errors.Is(err, catalog.ErrUnknownBuilding),
		errors.Is(err, catalog.ErrUnknownLevel),
		errors.Is(err, registry.ErrNotMinted):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, engine.ErrUpgradeInProgress),
		errors.Is(err, engine.ErrMaxLevelReached),
		errors.Is(err, engine.ErrPrerequisiteNotMet),
		errors.Is(err, registry.ErrAlreadyMinted):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}
