// Package persistence stores zoo saves in SQLite and as compressed snapshot files.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/zoo-sim/internal/animals"
	"github.com/talgya/zoo-sim/internal/engine"
	"github.com/talgya/zoo-sim/internal/enclosures"
	"github.com/talgya/zoo-sim/internal/milestones"
	"github.com/talgya/zoo-sim/internal/staff"
)

// DB wraps a SQLite connection for zoo persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer; SQLite serializes anyway.
	conn.SetMaxOpenConns(1)

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
	CREATE TABLE IF NOT EXISTS world (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		world_id TEXT NOT NULL,
		balance INTEGER NOT NULL,
		debt INTEGER NOT NULL,
		day INTEGER NOT NULL,
		time_of_day REAL NOT NULL,
		season INTEGER NOT NULL,
		time_scale REAL NOT NULL,
		paused INTEGER NOT NULL,
		weather TEXT NOT NULL,
		weather_timer REAL NOT NULL,
		last_incident TEXT NOT NULL,
		rating REAL NOT NULL,
		visitors INTEGER NOT NULL,
		satisfaction REAL NOT NULL,
		visitors_all_time INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS animals (
		id INTEGER PRIMARY KEY,
		species TEXT NOT NULL,
		name TEXT NOT NULL,
		enclosure_id INTEGER NOT NULL,
		needs_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS enclosures (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		capacity INTEGER NOT NULL,
		condition REAL NOT NULL,
		maintenance INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS staff (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		role INTEGER NOT NULL,
		salary INTEGER NOT NULL,
		skill REAL NOT NULL,
		enclosure_id INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS milestones (
		id TEXT PRIMARY KEY,
		ord INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS research (
		topic TEXT PRIMARY KEY,
		active INTEGER NOT NULL,
		elapsed REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seq INTEGER NOT NULL,
		day INTEGER NOT NULL,
		time TEXT NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL,
		meta_json TEXT
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_day ON events(day);
	CREATE INDEX IF NOT EXISTS idx_animals_enclosure ON animals(enclosure_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type worldRow struct {
	WorldID         string  `db:"world_id"`
	Balance         int64   `db:"balance"`
	Debt            int64   `db:"debt"`
	Day             int     `db:"day"`
	TimeOfDay       float64 `db:"time_of_day"`
	Season          int     `db:"season"`
	TimeScale       float64 `db:"time_scale"`
	Paused          bool    `db:"paused"`
	Weather         string  `db:"weather"`
	WeatherTimer    float64 `db:"weather_timer"`
	LastIncident    string  `db:"last_incident"`
	Rating          float64 `db:"rating"`
	Visitors        int     `db:"visitors"`
	Satisfaction    float64 `db:"satisfaction"`
	VisitorsAllTime int64   `db:"visitors_all_time"`
}

type animalRow struct {
	ID        uint64 `db:"id"`
	Species   string `db:"species"`
	Name      string `db:"name"`
	Enclosure uint64 `db:"enclosure_id"`
	Needs     string `db:"needs_json"`
}

type researchRow struct {
	Topic   string  `db:"topic"`
	Active  bool    `db:"active"`
	Elapsed float64 `db:"elapsed"`
}

// HasWorldState reports whether a save exists.
func (db *DB) HasWorldState() (bool, error) {
	var n int
	if err := db.conn.Get(&n, "SELECT COUNT(*) FROM world"); err != nil {
		return false, fmt.Errorf("count world: %w", err)
	}
	return n > 0, nil
}

// SaveWorldState replaces the stored save with st in one transaction.
func (db *DB) SaveWorldState(st engine.SaveState) error {
	slog.Info("saving world state", "day", st.Day, "animals", len(st.Animals), "enclosures", len(st.Enclosures), "staff", len(st.Staff))

	tx, err := db.conn.Beginx()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"world", "animals", "enclosures", "staff", "milestones", "research"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	w := worldRow{
		WorldID:         st.WorldID,
		Balance:         st.Balance,
		Debt:            st.Debt,
		Day:             st.Day,
		TimeOfDay:       st.TimeOfDay,
		Season:          st.Season,
		TimeScale:       st.TimeScale,
		Paused:          st.Paused,
		Weather:         st.Weather,
		WeatherTimer:    st.WeatherTimer,
		LastIncident:    st.LastIncident,
		Rating:          st.Rating,
		Visitors:        st.Visitors,
		Satisfaction:    st.Satisfaction,
		VisitorsAllTime: st.VisitorsAllTime,
	}
	if _, err := tx.NamedExec(`INSERT INTO world
		(id, world_id, balance, debt, day, time_of_day, season, time_scale, paused,
		 weather, weather_timer, last_incident, rating, visitors, satisfaction, visitors_all_time)
		VALUES (1, :world_id, :balance, :debt, :day, :time_of_day, :season, :time_scale, :paused,
		 :weather, :weather_timer, :last_incident, :rating, :visitors, :satisfaction, :visitors_all_time)`, w); err != nil {
		return fmt.Errorf("insert world: %w", err)
	}

	for _, a := range st.Animals {
		needs, err := json.Marshal(a.Needs)
		if err != nil {
			return fmt.Errorf("encode needs of animal %d: %w", a.ID, err)
		}
		row := animalRow{ID: uint64(a.ID), Species: a.Species, Name: a.Name, Enclosure: a.Enclosure, Needs: string(needs)}
		if _, err := tx.NamedExec(`INSERT INTO animals (id, species, name, enclosure_id, needs_json)
			VALUES (:id, :species, :name, :enclosure_id, :needs_json)`, row); err != nil {
			return fmt.Errorf("insert animal %d: %w", a.ID, err)
		}
	}

	for _, e := range st.Enclosures {
		if _, err := tx.NamedExec(`INSERT INTO enclosures (id, name, capacity, condition, maintenance)
			VALUES (:id, :name, :capacity, :condition, :maintenance)`, e); err != nil {
			return fmt.Errorf("insert enclosure %d: %w", e.ID, err)
		}
	}

	for _, m := range st.Staff {
		if _, err := tx.NamedExec(`INSERT INTO staff (id, name, role, salary, skill, enclosure_id)
			VALUES (:id, :name, :role, :salary, :skill, :enclosure_id)`, m); err != nil {
			return fmt.Errorf("insert staff %d: %w", m.ID, err)
		}
	}

	for i, id := range st.Milestones {
		if _, err := tx.Exec("INSERT INTO milestones (id, ord) VALUES (?, ?)", string(id), i); err != nil {
			return fmt.Errorf("insert milestone %s: %w", id, err)
		}
	}

	for _, topic := range st.ResearchCompleted {
		if _, err := tx.Exec("INSERT INTO research (topic, active, elapsed) VALUES (?, 0, 0)", topic); err != nil {
			return fmt.Errorf("insert research %s: %w", topic, err)
		}
	}
	if st.Research != "" {
		if _, err := tx.Exec("INSERT INTO research (topic, active, elapsed) VALUES (?, 1, ?)", st.Research, st.ResearchElapsed); err != nil {
			return fmt.Errorf("insert active research: %w", err)
		}
	}

	if _, err := tx.Exec("INSERT OR REPLACE INTO world_meta (key, value) VALUES ('saved_at', ?)",
		time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	slog.Info("world state saved", "world_id", st.WorldID)
	return nil
}

// LoadWorldState reads the stored save.
func (db *DB) LoadWorldState() (engine.SaveState, error) {
	var st engine.SaveState

	var w worldRow
	if err := db.conn.Get(&w, "SELECT world_id, balance, debt, day, time_of_day, season, time_scale, paused, weather, weather_timer, last_incident, rating, visitors, satisfaction, visitors_all_time FROM world WHERE id = 1"); err != nil {
		return st, fmt.Errorf("load world: %w", err)
	}
	st = engine.SaveState{
		WorldID:         w.WorldID,
		Balance:         w.Balance,
		Debt:            w.Debt,
		Day:             w.Day,
		TimeOfDay:       w.TimeOfDay,
		Season:          w.Season,
		TimeScale:       w.TimeScale,
		Paused:          w.Paused,
		Weather:         w.Weather,
		WeatherTimer:    w.WeatherTimer,
		LastIncident:    w.LastIncident,
		Rating:          w.Rating,
		Visitors:        w.Visitors,
		Satisfaction:    w.Satisfaction,
		VisitorsAllTime: w.VisitorsAllTime,
	}

	var rows []animalRow
	if err := db.conn.Select(&rows, "SELECT id, species, name, enclosure_id, needs_json FROM animals ORDER BY id"); err != nil {
		return st, fmt.Errorf("load animals: %w", err)
	}
	for _, r := range rows {
		rec := animals.Record{ID: animals.ID(r.ID), Species: r.Species, Name: r.Name, Enclosure: r.Enclosure}
		if err := json.Unmarshal([]byte(r.Needs), &rec.Needs); err != nil {
			return st, fmt.Errorf("decode needs of animal %d: %w", r.ID, err)
		}
		st.Animals = append(st.Animals, rec)
	}

	var encl []enclosures.Enclosure
	if err := db.conn.Select(&encl, "SELECT id, name, capacity, condition, maintenance FROM enclosures ORDER BY id"); err != nil {
		return st, fmt.Errorf("load enclosures: %w", err)
	}
	st.Enclosures = encl

	var members []staff.Member
	if err := db.conn.Select(&members, "SELECT id, name, role, salary, skill, enclosure_id FROM staff ORDER BY id"); err != nil {
		return st, fmt.Errorf("load staff: %w", err)
	}
	st.Staff = members

	var ids []string
	if err := db.conn.Select(&ids, "SELECT id FROM milestones ORDER BY ord"); err != nil {
		return st, fmt.Errorf("load milestones: %w", err)
	}
	for _, id := range ids {
		st.Milestones = append(st.Milestones, milestones.ID(id))
	}

	var research []researchRow
	if err := db.conn.Select(&research, "SELECT topic, active, elapsed FROM research ORDER BY rowid"); err != nil {
		return st, fmt.Errorf("load research: %w", err)
	}
	for _, r := range research {
		if r.Active {
			st.Research, st.ResearchElapsed = r.Topic, r.Elapsed
			continue
		}
		st.ResearchCompleted = append(st.ResearchCompleted, r.Topic)
	}

	slog.Info("world state loaded", "world_id", st.WorldID, "day", st.Day, "animals", len(st.Animals))
	return st, nil
}

// SaveEvents appends feed events. Callers pass only events not yet stored,
// since feed sequence numbers restart with each process.
func (db *DB) SaveEvents(events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		var meta []byte
		if len(e.Meta) > 0 {
			if meta, err = json.Marshal(e.Meta); err != nil {
				return fmt.Errorf("encode meta of event %d: %w", e.Seq, err)
			}
		}
		_, err := tx.Exec(
			"INSERT INTO events (seq, day, time, category, description, meta_json) VALUES (?, ?, ?, ?, ?, ?)",
			e.Seq, e.Day, e.Time, e.Category, e.Description, string(meta),
		)
		if err != nil {
			return fmt.Errorf("insert event %d: %w", e.Seq, err)
		}
	}
	return tx.Commit()
}

// RecentEvents returns the most recent N stored events, newest first.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	var rows []struct {
		Seq         uint64 `db:"seq"`
		Day         int    `db:"day"`
		Time        string `db:"time"`
		Category    string `db:"category"`
		Description string `db:"description"`
		Meta        string `db:"meta_json"`
	}
	err := db.conn.Select(&rows,
		"SELECT seq, day, time, category, description, COALESCE(meta_json, '') AS meta_json FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}

	out := make([]engine.Event, 0, len(rows))
	for _, r := range rows {
		e := engine.Event{Seq: r.Seq, Day: r.Day, Time: r.Time, Category: r.Category, Description: r.Description}
		if r.Meta != "" {
			_ = json.Unmarshal([]byte(r.Meta), &e.Meta)
		}
		out = append(out, e)
	}
	return out, nil
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}
