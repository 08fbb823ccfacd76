// Package hostdb tracks the remote hosts this client has paired with.
// The settings layer only ever reads the count; pairing and unpairing
// happen through the control API and CLI.
package hostdb

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned when a requested host does not exist.
var ErrNotFound = errors.New("host not found")

// Host is one paired remote machine.
type Host struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Address  string    `json:"address"`
	PairedAt time.Time `json:"paired_at"`
}

// Store wraps a SQLite database holding the paired-host registry.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the registry database in dataDir and runs any
// pending migrations. Pass ":memory:" as dataDir for an in-memory
// database (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "lunalink.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		var version int
		if _, err := fmt.Sscanf(entry.Name(), "%d_", &version); err != nil {
			return fmt.Errorf("parsing migration version from %q: %w", entry.Name(), err)
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}
	return nil
}

// Add registers a newly paired host. A missing ID gets a fresh UUID and
// a missing PairedAt gets the current time; the stored host is returned.
func (s *Store) Add(h Host) (Host, error) {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	if h.PairedAt.IsZero() {
		h.PairedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO hosts (id, name, address, paired_at) VALUES (?, ?, ?, ?)`,
		h.ID, h.Name, h.Address, h.PairedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return Host{}, fmt.Errorf("adding host: %w", err)
	}
	return h, nil
}

// Get returns one host by ID.
func (s *Store) Get(id string) (Host, error) {
	var h Host
	var pairedAt string
	err := s.db.QueryRow(
		`SELECT id, name, address, paired_at FROM hosts WHERE id = ?`, id,
	).Scan(&h.ID, &h.Name, &h.Address, &pairedAt)
	if err == sql.ErrNoRows {
		return Host{}, ErrNotFound
	}
	if err != nil {
		return Host{}, err
	}
	t, err := time.Parse(time.RFC3339, pairedAt)
	if err != nil {
		return Host{}, fmt.Errorf("parsing paired_at: %w", err)
	}
	h.PairedAt = t
	return h, nil
}

// Remove unpairs a host. Removing an unknown ID returns ErrNotFound.
func (s *Store) Remove(id string) error {
	res, err := s.db.Exec(`DELETE FROM hosts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all paired hosts, most recently paired first.
func (s *Store) List() ([]Host, error) {
	rows, err := s.db.Query(`SELECT id, name, address, paired_at FROM hosts ORDER BY paired_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hosts []Host
	for rows.Next() {
		var h Host
		var pairedAt string
		if err := rows.Scan(&h.ID, &h.Name, &h.Address, &pairedAt); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, pairedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing paired_at: %w", err)
		}
		h.PairedAt = t
		hosts = append(hosts, h)
	}
	return hosts, rows.Err()
}

// Count returns the number of paired hosts. This is the read-only
// signal the settings screen displays.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM hosts`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
