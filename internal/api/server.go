// Package api provides the HTTP API for observing and steering the zoo.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/zoo-sim/internal/animals"
	"github.com/talgya/zoo-sim/internal/engine"
	"github.com/talgya/zoo-sim/internal/enclosures"
	"github.com/talgya/zoo-sim/internal/persistence"
	"github.com/talgya/zoo-sim/internal/staff"
)

// Server serves the zoo over HTTP.
type Server struct {
	Sim         *engine.Simulation
	Eng         *engine.Engine
	DB          *persistence.DB // nil disables /save
	SnapshotDir string          // empty disables snapshot files on /save
	Port        int
	AdminKey    string        // Bearer token for POST endpoints. Empty = POST disabled.
	SaveLimit   int           // saves per caller per SaveWindow; 0 uses DefaultSaveLimit
	SaveWindow  time.Duration // 0 uses DefaultSaveWindow

	// Active stream connection count (atomic).
	streamConns int32
	upgrader    websocket.Upgrader
}

// Handler builds the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	saveLimiter := NewRateLimiter(s.SaveLimit, s.SaveWindow)

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4 * 1024,
		WriteBufferSize: 16 * 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/finance", s.handleFinance)
	mux.HandleFunc("/api/v1/rating", s.handleRating)
	mux.HandleFunc("/api/v1/animals", s.handleAnimals)
	mux.HandleFunc("/api/v1/enclosures", s.handleEnclosures)
	mux.HandleFunc("/api/v1/staff", s.handleStaff)
	mux.HandleFunc("/api/v1/visitors", s.handleVisitors)
	mux.HandleFunc("/api/v1/weather", s.handleWeather)
	mux.HandleFunc("/api/v1/research", s.handleResearch)
	mux.HandleFunc("/api/v1/milestones", s.handleMilestones)
	mux.HandleFunc("/api/v1/events", s.handleEvents)

	// Websocket notification stream.
	mux.HandleFunc("/api/v1/stream", s.handleStream)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/pause", s.adminOnly(s.handlePause))
	mux.HandleFunc("/api/v1/save", s.adminOnly(saveLimiter.Limit(s.handleSave)))
	mux.HandleFunc("/api/v1/action", s.adminOnly(s.handleAction))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	handler := s.Handler()
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of extra allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that support both GET and POST).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no admin key set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		engine.Status
		Speed   float64 `json:"speed"`
		Running bool    `json:"running"`
		Streams int32   `json:"streams"`
	}{Status: s.Sim.Status()}
	if s.Eng != nil {
		resp.Speed = s.Eng.Speed()
		resp.Running = s.Eng.Running()
	}
	resp.Streams = s.activeStreams()
	writeJSON(w, resp)
}

func (s *Server) handleFinance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Finance(queryLimit(r, 50, 500)))
}

func (s *Server) handleRating(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.RatingInfo())
}

func (s *Server) handleAnimals(w http.ResponseWriter, r *http.Request) {
	list := s.Sim.AnimalList()

	if species := r.URL.Query().Get("species"); species != "" {
		filtered := list[:0]
		for _, a := range list {
			if strings.EqualFold(a.Species, species) {
				filtered = append(filtered, a)
			}
		}
		list = filtered
	}
	if r.URL.Query().Get("critical") == "true" {
		filtered := list[:0]
		for _, a := range list {
			if a.Critical {
				filtered = append(filtered, a)
			}
		}
		list = filtered
	}
	writeJSON(w, list)
}

func (s *Server) handleEnclosures(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.EnclosureList())
}

func (s *Server) handleStaff(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.StaffList())
}

func (s *Server) handleVisitors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.VisitorReport())
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.WeatherInfo())
}

func (s *Server) handleResearch(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.ResearchInfo())
}

func (s *Server) handleMilestones(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.MilestoneList())
}

// handleEvents returns recent feed events. source=db reads the stored history instead.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 50, engine.DefaultFeedSize)

	var events []engine.Event
	if r.URL.Query().Get("source") == "db" {
		if s.DB == nil {
			http.Error(w, "database not available", http.StatusServiceUnavailable)
			return
		}
		stored, err := s.DB.RecentEvents(limit)
		if err != nil {
			slog.Error("event history query failed", "error", err)
			http.Error(w, "event history unavailable", http.StatusInternalServerError)
			return
		}
		events = stored
	} else {
		events = s.Sim.Feed.Recent(0)
	}

	if category := r.URL.Query().Get("category"); category != "" {
		var filtered []engine.Event
		for _, e := range events {
			if e.Category == category {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	start := 0
	if len(events) > limit {
		start = len(events) - limit
	}
	writeJSON(w, events[start:])
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if s.Eng == nil {
		http.Error(w, "engine not available", http.StatusServiceUnavailable)
		return
	}
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Paused bool `json:"paused"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Paused {
			s.Sim.Pause()
		} else {
			s.Sim.Resume()
		}
		slog.Info("pause toggled", "paused", req.Paused)
	}
	writeJSON(w, map[string]bool{"paused": s.Sim.Status().Paused})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	st := s.Sim.Snapshot()
	if err := s.DB.SaveWorldState(st); err != nil {
		slog.Error("save failed", "error", err)
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}
	resp := map[string]any{
		"day":     st.Day,
		"message": "world saved",
	}
	if s.SnapshotDir != "" {
		path := persistence.SnapshotPath(s.SnapshotDir, st.Day)
		if err := persistence.WriteSnapshot(path, st); err != nil {
			slog.Error("snapshot file failed", "path", path, "error", err)
		} else {
			resp["snapshot"] = path
		}
	}
	writeJSON(w, resp)
}

// actionRequest is the body of POST /api/v1/action. Fields are read per type.
type actionRequest struct {
	Type      string  `json:"type"`
	Species   string  `json:"species,omitempty"`
	Name      string  `json:"name,omitempty"`
	Role      string  `json:"role,omitempty"`
	ID        uint64  `json:"id,omitempty"`
	Enclosure uint64  `json:"enclosure,omitempty"`
	Capacity  int     `json:"capacity,omitempty"`
	Amount    int64   `json:"amount,omitempty"`
	Topic     string  `json:"topic,omitempty"`
	Weather   string  `json:"weather,omitempty"`
	Scale     float64 `json:"scale,omitempty"`
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	result := map[string]any{"type": req.Type}
	var err error

	switch req.Type {
	case "buy_animal":
		var id animals.ID
		id, err = s.Sim.BuyAnimal(req.Species, req.Name, req.Enclosure)
		result["id"] = id
	case "move_animal":
		err = s.Sim.MoveAnimal(animals.ID(req.ID), req.Enclosure)
	case "feed_animal":
		err = s.Sim.FeedAnimal(animals.ID(req.ID))
	case "build_enclosure":
		var id enclosures.ID
		id, err = s.Sim.BuildEnclosure(req.Name, req.Capacity)
		result["id"] = id
	case "repair_enclosure":
		var cost int64
		cost, err = s.Sim.RepairEnclosure(enclosures.ID(req.ID))
		result["cost"] = cost
	case "hire":
		var id staff.ID
		id, err = s.Sim.Hire(req.Role, req.Name)
		result["id"] = id
	case "fire":
		err = s.Sim.Fire(staff.ID(req.ID))
	case "assign_staff":
		err = s.Sim.AssignStaff(staff.ID(req.ID), req.Enclosure)
	case "start_research":
		err = s.Sim.StartResearch(req.Topic)
	case "cancel_research":
		err = s.Sim.CancelResearch()
	case "take_loan":
		err = s.Sim.TakeLoan(req.Amount)
	case "repay_loan":
		err = s.Sim.RepayLoan(req.Amount)
	case "force_weather":
		err = s.Sim.ForceWeather(req.Weather)
	case "time_scale":
		err = s.Sim.SetTimeScale(req.Scale)
	case "skip_day":
		s.Sim.SkipDay()
	default:
		http.Error(w, fmt.Sprintf("unknown action type %q", req.Type), http.StatusBadRequest)
		return
	}

	if err != nil {
		slog.Warn("action rejected", "type", req.Type, "error", err)
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	slog.Info("action applied", "type", req.Type)
	result["balance"] = s.Sim.Status().Balance
	writeJSON(w, result)
}

// statusFor maps simulation errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInsufficientFunds):
		return http.StatusConflict
	case errors.Is(err, engine.ErrInvalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func queryLimit(r *http.Request, def, maxLimit int) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= maxLimit {
			return n
		}
	}
	return def
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
