// Package settings persists the extension settings and the import history
// in a local sqlite database. Settings live in a namespaced key-value table;
// loading backfills defaults for missing keys only and never overwrites a
// key the user already has.
package settings

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

// Namespace under which the extension keeps its keys.
const Namespace = "chub"

// Defaults.
const (
	DefaultFindCount = 10
	DefaultNSFW      = false
)

const (
	keyFindCount = "findCount"
	keyNSFW      = "nsfw"
)

// Settings is the process-wide user preference set.
type Settings struct {
	FindCount int  // page size
	NSFW      bool // maturity filter default
}

// ImportRecord is one logged import attempt.
type ImportRecord struct {
	FullPath    string
	Filename    string
	ContentType string
	Status      string
	At          time.Time
}

// Store wraps the sqlite database.
type Store struct {
	db *sql.DB
}

// Open opens (and migrates) the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open settings db: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS settings (
	ns    TEXT NOT NULL,
	key   TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (ns, key)
);
CREATE TABLE IF NOT EXISTS imports (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	full_path    TEXT NOT NULL,
	filename     TEXT,
	content_type TEXT,
	status       TEXT NOT NULL,
	at           TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrate settings db: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Load returns the current settings. Keys missing from the table are
// inserted with their defaults; present keys are left exactly as stored.
func (s *Store) Load(ctx context.Context) (Settings, error) {
	out := Settings{FindCount: DefaultFindCount, NSFW: DefaultNSFW}

	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM settings WHERE ns = ?`, Namespace)
	if err != nil {
		return out, fmt.Errorf("load settings: %w", err)
	}
	defer rows.Close()

	seen := map[string]bool{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return out, fmt.Errorf("scan setting: %w", err)
		}
		seen[key] = true
		switch key {
		case keyFindCount:
			if n, err := strconv.Atoi(value); err == nil && n > 0 {
				out.FindCount = n
			}
		case keyNSFW:
			if b, err := strconv.ParseBool(value); err == nil {
				out.NSFW = b
			}
		}
	}
	if err := rows.Err(); err != nil {
		return out, fmt.Errorf("load settings: %w", err)
	}

	// backfill only what was absent
	if !seen[keyFindCount] {
		if err := s.put(ctx, keyFindCount, strconv.Itoa(out.FindCount)); err != nil {
			return out, err
		}
	}
	if !seen[keyNSFW] {
		if err := s.put(ctx, keyNSFW, strconv.FormatBool(out.NSFW)); err != nil {
			return out, err
		}
	}
	return out, nil
}

// Save upserts the full settings set.
func (s *Store) Save(ctx context.Context, v Settings) error {
	if v.FindCount < 1 {
		v.FindCount = DefaultFindCount
	}
	if err := s.put(ctx, keyFindCount, strconv.Itoa(v.FindCount)); err != nil {
		return err
	}
	return s.put(ctx, keyNSFW, strconv.FormatBool(v.NSFW))
}

func (s *Store) put(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (ns, key, value) VALUES (?, ?, ?)
		 ON CONFLICT (ns, key) DO UPDATE SET value = excluded.value`,
		Namespace, key, value)
	if err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}
	return nil
}

// RecordImport appends one import attempt to the history.
func (s *Store) RecordImport(ctx context.Context, fullPath, filename, contentType, status string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO imports (full_path, filename, content_type, status) VALUES (?, ?, ?, ?)`,
		fullPath, filename, contentType, status)
	if err != nil {
		return fmt.Errorf("record import: %w", err)
	}
	return nil
}

// RecentImports returns the newest import attempts, most recent first.
func (s *Store) RecentImports(ctx context.Context, limit int) ([]ImportRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT full_path, COALESCE(filename,''), COALESCE(content_type,''), status, at
		 FROM imports ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	defer rows.Close()

	var out []ImportRecord
	for rows.Next() {
		var r ImportRecord
		if err := rows.Scan(&r.FullPath, &r.Filename, &r.ContentType, &r.Status, &r.At); err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
