package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/zoo-sim/internal/config"
	"github.com/talgya/zoo-sim/internal/engine"
	"github.com/talgya/zoo-sim/internal/entropy"
	"github.com/talgya/zoo-sim/internal/persistence"
)

const testKey = "secret"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Seed = 7
	cfg.Economy.StartingFunds = 20000
	sim := engine.NewSimulation(cfg, entropy.NewSequence(0.99))
	sim.SeedStarterZoo()
	return &Server{
		Sim:      sim,
		Eng:      engine.NewEngine(engine.DefaultInterval),
		AdminKey: testKey,
	}
}

func do(t *testing.T, h http.Handler, method, path, body, key string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestStatus(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s.Handler(), http.MethodGet, "/api/v1/status", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[map[string]any](t, rec)
	assert.EqualValues(t, 1, got["day"])
	assert.EqualValues(t, 3, got["animals"])
	assert.EqualValues(t, 1, got["speed"])
	assert.EqualValues(t, 20000, got["balance"])
}

func TestAnimals_Filters(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	all := decode[[]engine.AnimalView](t, do(t, h, http.MethodGet, "/api/v1/animals", "", ""))
	assert.Len(t, all, 3)

	lions := decode[[]engine.AnimalView](t, do(t, h, http.MethodGet, "/api/v1/animals?species=lion", "", ""))
	require.Len(t, lions, 1)
	assert.Equal(t, "Leo", lions[0].Name)

	critical := decode[[]engine.AnimalView](t, do(t, h, http.MethodGet, "/api/v1/animals?critical=true", "", ""))
	assert.Empty(t, critical)
}

func TestReadEndpoints(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	for _, path := range []string{
		"/api/v1/finance", "/api/v1/rating", "/api/v1/enclosures", "/api/v1/staff",
		"/api/v1/visitors", "/api/v1/weather", "/api/v1/research", "/api/v1/milestones",
		"/api/v1/events",
	} {
		rec := do(t, h, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"), path)
	}
}

func TestAdminAuth(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/speed", `{"speed":5}`, "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/speed", `{"speed":5}`, testKey)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5.0, s.Eng.Speed())

	rec = do(t, h, http.MethodPost, "/api/v1/speed", `{"speed":5000}`, testKey)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// GET passes through without a token.
	rec = do(t, h, http.MethodGet, "/api/v1/speed", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	s.AdminKey = ""
	rec = do(t, s.Handler(), http.MethodPost, "/api/v1/speed", `{"speed":1}`, testKey)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPause(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/pause", `{"paused":true}`, testKey)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, s.Sim.Status().Paused)

	rec = do(t, h, http.MethodPost, "/api/v1/pause", `{"paused":false}`, testKey)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, s.Sim.Status().Paused)
}

func TestAction(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/action",
		`{"type":"buy_animal","species":"Giraffe","name":"Gina","enclosure":1}`, testKey)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[map[string]any](t, rec)
	assert.EqualValues(t, 4, got["id"])
	assert.EqualValues(t, 19000, got["balance"])

	cases := []struct {
		body string
		code int
	}{
		{`{"type":"buy_animal","species":"Giraffe","name":"Gus","enclosure":99}`, http.StatusNotFound},
		{`{"type":"buy_animal","species":"","name":"Gus"}`, http.StatusBadRequest},
		{`{"type":"take_loan","amount":-5}`, http.StatusBadRequest},
		{`{"type":"force_weather","weather":"Sandstorm"}`, http.StatusBadRequest},
		{`{"type":"fire","id":404}`, http.StatusNotFound},
		{`{"type":"teleport"}`, http.StatusBadRequest},
		{`not json`, http.StatusBadRequest},
	}
	for _, c := range cases {
		rec := do(t, h, http.MethodPost, "/api/v1/action", c.body, testKey)
		assert.Equal(t, c.code, rec.Code, c.body)
	}

	rec = do(t, h, http.MethodPost, "/api/v1/action", `{"type":"skip_day"}`, testKey)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, s.Sim.Status().Day)
}

func TestAction_InsufficientFunds(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	s.Sim.Do(func() { s.Sim.Ledger.Spend(s.Sim.Ledger.Balance(), 0, "drain") })

	rec := do(t, h, http.MethodPost, "/api/v1/action", `{"type":"build_enclosure","name":"Reptile House"}`, testKey)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestEvents_CategoryAndLimit(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 5; i++ {
		s.Sim.Feed.Publish(engine.Event{Category: "test", Description: "ping"})
	}
	s.Sim.Feed.Publish(engine.Event{Category: "other"})

	got := decode[[]engine.Event](t, do(t, s.Handler(), http.MethodGet, "/api/v1/events?category=test&limit=3", "", ""))
	require.Len(t, got, 3)
	for _, e := range got {
		assert.Equal(t, "test", e.Category)
	}
}

func TestSave(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s.Handler(), http.MethodPost, "/api/v1/save", "", testKey)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	dir := t.TempDir()
	db, err := persistence.Open(filepath.Join(dir, "zoo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s.DB = db
	s.SnapshotDir = filepath.Join(dir, "snapshots")

	h := s.Handler()
	rec = do(t, h, http.MethodPost, "/api/v1/save", "", testKey)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	has, err := db.HasWorldState()
	require.NoError(t, err)
	assert.True(t, has)

	_, st, err := persistence.ReadSnapshot(persistence.SnapshotPath(s.SnapshotDir, 1))
	require.NoError(t, err)
	assert.Equal(t, s.Sim.WorldID.String(), st.WorldID)

	// Six saves per minute.
	for i := 0; i < 5; i++ {
		do(t, h, http.MethodPost, "/api/v1/save", "", testKey)
	}
	rec = do(t, h, http.MethodPost, "/api/v1/save", "", testKey)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestCORS(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/status", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStream(t *testing.T) {
	s := newTestServer(t)
	s.Sim.Feed.Publish(engine.Event{Category: "test", Description: "before"})

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/stream?since=0"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	// Replay covers everything already buffered, ending with "before".
	var e engine.Event
	for e.Description != "before" {
		require.NoError(t, conn.ReadJSON(&e))
	}

	s.Sim.Feed.Publish(engine.Event{Category: "test", Description: "after"})
	require.NoError(t, conn.ReadJSON(&e))
	assert.Equal(t, "after", e.Description)

	conn.Close()
	assert.Eventually(t, func() bool { return s.Sim.Feed.Subscribers() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestRateLimiter_SlidingWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	ok, _ := rl.Allow("a")
	assert.True(t, ok)
	now = now.Add(20 * time.Second)
	ok, _ = rl.Allow("a")
	assert.True(t, ok)

	ok, wait := rl.Allow("a")
	assert.False(t, ok)
	assert.Equal(t, 40*time.Second, wait)

	// Another caller has its own budget.
	ok, _ = rl.Allow("b")
	assert.True(t, ok)

	// The first call ages out; the second still counts.
	now = now.Add(41 * time.Second)
	ok, _ = rl.Allow("a")
	assert.True(t, ok)
	ok, _ = rl.Allow("a")
	assert.False(t, ok)
}

func TestRateLimiter_NonPositiveSettingsUseDefaults(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	assert.Equal(t, DefaultSaveLimit, rl.limit)
	assert.Equal(t, DefaultSaveWindow, rl.window)
}

func TestSave_ConfiguredLimitPerAdmin(t *testing.T) {
	s := newTestServer(t)
	dir := t.TempDir()
	db, err := persistence.Open(filepath.Join(dir, "zoo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s.DB = db
	s.SaveLimit = 1
	s.SaveWindow = time.Hour

	h := s.Handler()
	rec := do(t, h, http.MethodPost, "/api/v1/save", "", testKey)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/v1/save", "", testKey)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "3600", rec.Header().Get("Retry-After"))
}

func TestCallerKey(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.RemoteAddr = "10.1.2.3:5555"
	assert.Equal(t, "anon@10.1.2.3", callerKey(r))

	r.Header.Set("Authorization", "Bearer one")
	first := callerKey(r)
	assert.True(t, strings.HasPrefix(first, "admin:"))
	assert.True(t, strings.HasSuffix(first, "@10.1.2.3"))
	assert.NotContains(t, first, "one")

	r.Header.Set("Authorization", "Bearer two")
	assert.NotEqual(t, first, callerKey(r))
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.1.2.3:5555"
	assert.Equal(t, "10.1.2.3", clientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(r))
}
