// Command zoosim runs the zoo management simulation with its HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/talgya/zoo-sim/internal/api"
	"github.com/talgya/zoo-sim/internal/config"
	"github.com/talgya/zoo-sim/internal/engine"
	"github.com/talgya/zoo-sim/internal/persistence"
)

func main() {
	configPath := flag.String("config", "", "YAML tuning file (defaults when empty)")
	restorePath := flag.String("restore", "", "snapshot file to start from when the database is empty")
	debug := flag.Bool("debug", false, "log at debug level")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll(filepath.Dir(cfg.Persistence.DBPath), 0o755)
	db, err := persistence.Open(cfg.Persistence.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.Persistence.DBPath)

	// ── Simulation ────────────────────────────────────────────────────
	sim := engine.NewSimulation(cfg, nil)

	has, err := db.HasWorldState()
	if err != nil {
		slog.Error("failed to inspect database", "error", err)
		os.Exit(1)
	}
	switch {
	case has:
		slog.Info("found saved zoo, loading...")
		st, err := db.LoadWorldState()
		if err != nil {
			slog.Error("failed to load zoo", "error", err)
			os.Exit(1)
		}
		if err := sim.Restore(st); err != nil {
			slog.Error("failed to restore zoo", "error", err)
			os.Exit(1)
		}
	case *restorePath != "":
		hdr, st, err := persistence.ReadSnapshot(*restorePath)
		if err != nil {
			slog.Error("failed to read snapshot", "path", *restorePath, "error", err)
			os.Exit(1)
		}
		if err := sim.Restore(st); err != nil {
			slog.Error("failed to restore snapshot", "error", err)
			os.Exit(1)
		}
		slog.Info("restored from snapshot", "path", *restorePath, "day", hdr.Day, "saved_at", hdr.SavedAt)
	default:
		slog.Info("no saved zoo found, opening a new one...")
		sim.SeedStarterZoo()
	}

	status := sim.Status()
	slog.Info("zoo ready",
		"world", status.WorldID,
		"day", status.Day,
		"time", status.Time,
		"animals", status.Animals,
		"enclosures", status.Enclosures,
		"staff", status.Staff,
		"balance", status.Balance,
	)

	s := &saver{db: db, sim: sim, snapshotDir: cfg.Persistence.SnapshotDir}
	if !has {
		s.save("initial")
	}

	if cfg.Persistence.SaveEveryDay {
		sim.OnDayEnd = func(day int) {
			s.save(fmt.Sprintf("day %d", day))
		}
	}

	eng := engine.NewEngine(time.Duration(cfg.Clock.FrameMs) * time.Millisecond)
	eng.OnFrame = sim.Frame

	// ── HTTP API ──────────────────────────────────────────────────────
	adminKey := os.Getenv(cfg.API.AdminKeyEnv)
	if adminKey == "" {
		slog.Warn("admin key not set, admin POST endpoints will be disabled", "env", cfg.API.AdminKeyEnv)
	}

	apiServer := &api.Server{
		Sim:         sim,
		Eng:         eng,
		DB:          db,
		SnapshotDir: cfg.Persistence.SnapshotDir,
		Port:        cfg.API.Port,
		AdminKey:    adminKey,
		SaveLimit:   cfg.API.SaveLimit,
		SaveWindow:  time.Duration(cfg.API.SaveWindow) * time.Second,
	}
	apiServer.Start()

	// ── Start ─────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\nThe zoo is open: %d animals in %d enclosures, %d staff.\n",
		status.Animals, status.Enclosures, status.Staff)
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.API.Port)
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Run(ctx)

	slog.Info("final save...")
	s.save("shutdown")

	fmt.Println("Simulation stopped. Zoo saved.")
}

// saver writes the zoo to the database, a snapshot file, and the event history.
// Only events published since the previous save are appended.
type saver struct {
	db          *persistence.DB
	sim         *engine.Simulation
	snapshotDir string
	lastSeq     uint64
}

func (s *saver) save(reason string) {
	st := s.sim.Snapshot()
	if err := s.db.SaveWorldState(st); err != nil {
		slog.Error("save failed", "reason", reason, "error", err)
		return
	}

	pending := s.sim.Feed.Since(s.lastSeq)
	if err := s.db.SaveEvents(pending); err != nil {
		slog.Error("event history save failed", "reason", reason, "error", err)
	} else if len(pending) > 0 {
		s.lastSeq = pending[len(pending)-1].Seq
	}

	if s.snapshotDir != "" {
		path := persistence.SnapshotPath(s.snapshotDir, st.Day)
		if err := persistence.WriteSnapshot(path, st); err != nil {
			slog.Error("snapshot failed", "path", path, "error", err)
		}
	}
	slog.Info("zoo saved", "reason", reason, "day", st.Day, "events", len(pending))
}
