package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/villagecraft/internal/catalog"
	"github.com/talgya/villagecraft/internal/clock"
	"github.com/talgya/villagecraft/internal/engine"
	"github.com/talgya/villagecraft/internal/events"
	"github.com/talgya/villagecraft/internal/ledger"
	"github.com/talgya/villagecraft/internal/registry"
	"github.com/talgya/villagecraft/internal/village"
	"github.com/talgya/villagecraft/internal/worldgen"
)

const adminKey = "test-admin-key"

type testServer struct {
	*httptest.Server
	clock  *clock.Fake
	ledger *ledger.Ledger
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := village.NewStore(nil)
	require.NoError(t, err)
	ledg, err := ledger.New(nil)
	require.NoError(t, err)
	reg, err := registry.New(nil)
	require.NoError(t, err)

	clk := clock.NewFake(1_700_000_000)
	bus := events.NewBus()
	world := worldgen.Generate(worldgen.SmallTestConfig())
	eng := engine.New(catalog.Default(), store, reg, ledg, clk, bus, worldgen.NewAtlas(world))

	s := &Server{
		Engine:   eng,
		Store:    store,
		Ledger:   ledg,
		Registry: reg,
		Bus:      bus,
		World:    world,
		AdminKey: adminKey,
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return &testServer{Server: ts, clock: clk, ledger: ledg}
}

func (ts *testServer) request(t *testing.T, method, path string, player uuid.UUID, body any) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if player != uuid.Nil {
		req.Header.Set("X-Player-ID", player.String())
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (ts *testServer) buildVillage(t *testing.T, player uuid.UUID, name string) uint64 {
	t.Helper()
	resp := ts.request(t, http.MethodPost, "/api/v1/villages", player, map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decode[struct {
		ID uint64 `json:"id"`
	}](t, resp)
	return body.ID
}

func TestBuildAndInspectVillage(t *testing.T) {
	ts := newTestServer(t)
	player := uuid.New()

	id := ts.buildVillage(t, player, "Ironhaven")
	assert.Equal(t, uint64(1), id)

	resp := ts.request(t, http.MethodGet, fmt.Sprintf("/api/v1/villages/%d", id), uuid.Nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detail := decode[struct {
		Name      string         `json:"name"`
		Owner     uuid.UUID      `json:"owner"`
		Buildings map[string]int `json:"buildings"`
	}](t, resp)
	assert.Equal(t, "Ironhaven", detail.Name)
	assert.Equal(t, player, detail.Owner)
	assert.Len(t, detail.Buildings, 8)
	for _, lvl := range detail.Buildings {
		assert.Zero(t, lvl)
	}
}

func TestBuildVillageRequiresActor(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.request(t, http.MethodPost, "/api/v1/villages", uuid.Nil, map[string]string{"name": "Nobody"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestUpgradeFlow(t *testing.T) {
	ts := newTestServer(t)
	player := uuid.New()
	require.NoError(t, ts.ledger.Deposit(player, 1_000))
	id := ts.buildVillage(t, player, "Ironhaven")

	resp := ts.request(t, http.MethodPost, fmt.Sprintf("/api/v1/villages/%d/upgrade", id), player,
		map[string]int{"building_id": int(catalog.TownHall)})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[struct {
		Level    int   `json:"level"`
		UnlockAt int64 `json:"unlock_at"`
	}](t, resp)
	assert.Equal(t, 1, body.Level)
	assert.Equal(t, int64(1_700_000_060), body.UnlockAt)
	assert.Equal(t, int64(500), ts.ledger.Balance(player))

	// The slot is busy now.
	resp = ts.request(t, http.MethodPost, fmt.Sprintf("/api/v1/villages/%d/upgrade", id), player,
		map[string]int{"building_id": int(catalog.Farm)})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	ts.clock.Advance(60)
	resp = ts.request(t, http.MethodPost, fmt.Sprintf("/api/v1/villages/%d/upgrade", id), player,
		map[string]int{"building_id": int(catalog.Farm)})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestUpgradeErrorMapping(t *testing.T) {
	ts := newTestServer(t)
	owner := uuid.New()
	stranger := uuid.New()
	require.NoError(t, ts.ledger.Deposit(owner, 100))
	id := ts.buildVillage(t, owner, "Ironhaven")

	tests := []struct {
		name     string
		path     string
		player   uuid.UUID
		building catalog.BuildingID
		status   int
	}{
		{"missing village", "/api/v1/villages/999/upgrade", owner, catalog.TownHall, http.StatusNotFound},
		{"unknown building", fmt.Sprintf("/api/v1/villages/%d/upgrade", id), owner, 99, http.StatusNotFound},
		{"not owner", fmt.Sprintf("/api/v1/villages/%d/upgrade", id), stranger, catalog.TownHall, http.StatusForbidden},
		{"prerequisite not met", fmt.Sprintf("/api/v1/villages/%d/upgrade", id), owner, catalog.Barracks, http.StatusConflict},
		{"insufficient funds", fmt.Sprintf("/api/v1/villages/%d/upgrade", id), owner, catalog.TownHall, http.StatusPaymentRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.request(t, http.MethodPost, tt.path, tt.player, map[string]int{"building_id": int(tt.building)})
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestCatalogEndpoint(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.request(t, http.MethodGet, "/api/v1/catalog", uuid.Nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[struct {
		Buildings []struct {
			ID   uint8  `json:"id"`
			Name string `json:"name"`
		} `json:"buildings"`
		UpgradeDurations []int64 `json:"upgrade_durations"`
	}](t, resp)
	require.Len(t, body.Buildings, 8)
	assert.Equal(t, "Town Hall", body.Buildings[0].Name)
	require.Len(t, body.UpgradeDurations, 10)
	assert.Equal(t, int64(60), body.UpgradeDurations[0])
}

func TestDepositRequiresAdminToken(t *testing.T) {
	ts := newTestServer(t)
	player := uuid.New()
	payload := map[string]any{"player": player, "amount": 500}

	resp := ts.request(t, http.MethodPost, "/api/v1/deposit", uuid.Nil, payload)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	data, _ := json.Marshal(payload)
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/deposit", bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+adminKey)
	authed, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer authed.Body.Close()
	assert.Equal(t, http.StatusOK, authed.StatusCode)
	assert.Equal(t, int64(500), ts.ledger.Balance(player))
}

func TestStreamDeliversEvents(t *testing.T) {
	ts := newTestServer(t)
	player := uuid.New()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// Give the stream handler a moment to register its subscription.
	time.Sleep(100 * time.Millisecond)

	id := ts.buildVillage(t, player, "Ironhaven")

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var ev events.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, events.KindVillageCreated, ev.Kind)
	assert.Equal(t, id, ev.VillageID)
	assert.Equal(t, player, ev.Actor)
}
