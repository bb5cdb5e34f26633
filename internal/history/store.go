package history

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/noxical/noxical/internal/build"
)

// Store keeps the build log in SQLite.
type Store struct {
	db *sql.DB
}

// Build is one recorded build.
type Build struct {
	ID          string
	Reason      string
	StartedAt   time.Time
	DurationMs  int64
	Success     bool
	Diagnostics []string
}

// NewStore opens (and if needed creates) the build log at dbPath.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends one build outcome to the log.
func (s *Store) Record(o build.Outcome) error {
	_, err := s.db.Exec(`
		INSERT INTO builds (id, reason, started_at, duration_ms, success, diagnostics)
		VALUES (?, ?, ?, ?, ?, ?)
	`, o.ID, string(o.Reason), o.StartedAt, o.Duration.Milliseconds(), o.Success,
		strings.Join(o.Diagnostics, "\n"))
	return err
}

// Recent returns the most recent builds, newest first.
func (s *Store) Recent(limit int) ([]Build, error) {
	rows, err := s.db.Query(`
		SELECT id, reason, started_at, duration_ms, success, diagnostics
		FROM builds ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var builds []Build
	for rows.Next() {
		var b Build
		var diags string
		if err := rows.Scan(&b.ID, &b.Reason, &b.StartedAt, &b.DurationMs, &b.Success, &diags); err != nil {
			return nil, err
		}
		if diags != "" {
			b.Diagnostics = strings.Split(diags, "\n")
		}
		builds = append(builds, b)
	}
	return builds, rows.Err()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS builds (
			id TEXT PRIMARY KEY,
			reason TEXT NOT NULL,
			started_at TIMESTAMP NOT NULL,
			duration_ms INTEGER NOT NULL,
			success BOOLEAN NOT NULL,
			diagnostics TEXT
		)
	`)
	return err
}
