// Package persistence stores the last loaded game configuration in SQLite so
// a restart can recreate the same scenario. Game history is not kept.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrNoPreferences is returned by LoadPreferences before anything was saved.
var ErrNoPreferences = errors.New("no saved preferences")

// Defaults used when nothing has been saved yet.
const (
	DefaultScenarioID = "elim_1"
)

// DefaultPlayerTypes is the player type per seat used when nothing has been
// saved yet.
var DefaultPlayerTypes = []string{"human", "random"}

// Preferences is the last configuration a game was started with.
type Preferences struct {
	ScenarioID  string    `json:"scenario_id"`
	PlayerTypes []string  `json:"player_types"`
	GameID      string    `json:"game_id"`
	Seed        int64     `json:"seed"`
	Rows        int       `json:"rows"`
	Columns     int       `json:"columns"`
	SavedAt     time.Time `json:"saved_at"`
}

// DefaultPreferences returns the preferences of a first run.
func DefaultPreferences() Preferences {
	return Preferences{
		ScenarioID:  DefaultScenarioID,
		PlayerTypes: append([]string(nil), DefaultPlayerTypes...),
		Rows:        10,
		Columns:     10,
	}
}

// preferencesRow is the table layout of Preferences.
type preferencesRow struct {
	ID          int    `db:"id"`
	ScenarioID  string `db:"scenario_id"`
	PlayerTypes string `db:"player_types_json"`
	GameID      string `db:"game_id"`
	Seed        int64  `db:"seed"`
	Rows        int    `db:"board_rows"`
	Columns     int    `db:"board_columns"`
	SavedAt     int64  `db:"saved_at"`
}

// DB wraps a SQLite connection for preference storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
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
	CREATE TABLE IF NOT EXISTS preferences (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		scenario_id TEXT NOT NULL,
		player_types_json TEXT NOT NULL,
		game_id TEXT NOT NULL,
		seed INTEGER NOT NULL,
		board_rows INTEGER NOT NULL,
		board_columns INTEGER NOT NULL,
		saved_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SavePreferences replaces the stored preferences.
func (db *DB) SavePreferences(p Preferences) error {
	types, err := json.Marshal(p.PlayerTypes)
	if err != nil {
		return fmt.Errorf("marshal player types: %w", err)
	}
	if p.SavedAt.IsZero() {
		p.SavedAt = time.Now()
	}

	row := preferencesRow{
		ID:          1,
		ScenarioID:  p.ScenarioID,
		PlayerTypes: string(types),
		GameID:      p.GameID,
		Seed:        p.Seed,
		Rows:        p.Rows,
		Columns:     p.Columns,
		SavedAt:     p.SavedAt.Unix(),
	}
	_, err = db.conn.NamedExec(`
		INSERT OR REPLACE INTO preferences
			(id, scenario_id, player_types_json, game_id, seed, board_rows, board_columns, saved_at)
		VALUES
			(:id, :scenario_id, :player_types_json, :game_id, :seed, :board_rows, :board_columns, :saved_at)`,
		row,
	)
	if err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	slog.Debug("preferences saved", "scenario", p.ScenarioID, "game", p.GameID, "seed", p.Seed)
	return nil
}

// LoadPreferences returns the stored preferences, or ErrNoPreferences.
func (db *DB) LoadPreferences() (Preferences, error) {
	var row preferencesRow
	err := db.conn.Get(&row, "SELECT * FROM preferences WHERE id = 1")
	if errors.Is(err, sql.ErrNoRows) {
		return Preferences{}, ErrNoPreferences
	}
	if err != nil {
		return Preferences{}, fmt.Errorf("load preferences: %w", err)
	}

	var types []string
	if err := json.Unmarshal([]byte(row.PlayerTypes), &types); err != nil {
		return Preferences{}, fmt.Errorf("decode player types: %w", err)
	}
	return Preferences{
		ScenarioID:  row.ScenarioID,
		PlayerTypes: types,
		GameID:      row.GameID,
		Seed:        row.Seed,
		Rows:        row.Rows,
		Columns:     row.Columns,
		SavedAt:     time.Unix(row.SavedAt, 0),
	}, nil
}

// LoadPreferencesOrDefault is LoadPreferences falling back to defaults
// when nothing was saved.
func (db *DB) LoadPreferencesOrDefault() (Preferences, error) {
	p, err := db.LoadPreferences()
	if errors.Is(err, ErrNoPreferences) {
		return DefaultPreferences(), nil
	}
	return p, err
}

// SaveMeta stores a key-value pair.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a value stored with SaveMeta.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	return value, err
}
