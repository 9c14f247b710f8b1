package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/acidgreenservers/noosphere-reflect/internal/merge"
	"github.com/acidgreenservers/noosphere-reflect/internal/model"
)

// Migrations are applied in version order and each step is idempotent.
// Backfills walk the table in id-keyed batches rather than loading it whole,
// so upgrades stay flat in memory on large databases.

type migration struct {
	version     int
	description string
	up          func(s *Store) error
}

var migrations = []migration{
	{1, "initial schema", migrateInitial},
	{2, "add normalized_title and unique index, backfill from name", migrateNormalizedTitle},
	{3, "add message_count, backfill counts and export status", migrateMessageCount},
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version    INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		s.log.Info().Int("version", m.version).Str("description", m.description).Msg("applying migration")
		if err := m.up(s); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.description, err)
		}
		_, err := s.db.Exec("INSERT INTO schema_version (version, applied_at) VALUES (?, ?)",
			m.version, time.Now().UTC().Format(timeLayout))
		if err != nil {
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
	}
	return nil
}

func migrateInitial(s *Store) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			date       TEXT NOT NULL DEFAULT '',
			data       TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS settings (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS memories (
			id         TEXT PRIMARY KEY,
			content    TEXT NOT NULL,
			tags       TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL DEFAULT ''
		);`)
	return err
}

func migrateNormalizedTitle(s *Store) error {
	if !s.columnExists("sessions", "normalized_title") {
		if _, err := s.db.Exec("ALTER TABLE sessions ADD COLUMN normalized_title TEXT NOT NULL DEFAULT ''"); err != nil {
			return err
		}
	}

	err := s.walkSessions(func(id string, data []byte) ([]string, []any, error) {
		var row struct {
			Name string
		}
		if err := s.db.QueryRow("SELECT name FROM sessions WHERE id = ?", id).Scan(&row.Name); err != nil {
			return nil, nil, err
		}
		slug, err := merge.NormalizeTitle(row.Name)
		if err != nil {
			slug = "untitled-" + id
		}
		// disambiguate backfill collisions with an id suffix; live imports
		// use the rename protocol instead
		var taken int
		if err := s.db.QueryRow(
			"SELECT COUNT(*) FROM sessions WHERE normalized_title = ? AND id != ?", slug, id,
		).Scan(&taken); err != nil {
			return nil, nil, err
		}
		if taken > 0 {
			slug = slug + "-" + shortID(id)
		}
		return []string{"normalized_title"}, []any{slug}, nil
	})
	if err != nil {
		return err
	}

	_, err = s.db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_title ON sessions (normalized_title)")
	return err
}

func migrateMessageCount(s *Store) error {
	if !s.columnExists("sessions", "message_count") {
		if _, err := s.db.Exec("ALTER TABLE sessions ADD COLUMN message_count INTEGER NOT NULL DEFAULT 0"); err != nil {
			return err
		}
	}

	return s.walkSessions(func(id string, data []byte) ([]string, []any, error) {
		var cd model.ChatData
		if err := json.Unmarshal(data, &cd); err != nil {
			// leave unreadable rows at the default count
			return nil, nil, nil
		}
		changed := false
		if cd.Metadata != nil && cd.Metadata.ExportStatus == "" {
			cd.Metadata.ExportStatus = model.StatusNotExported
			changed = true
		}
		cols := []string{"message_count"}
		vals := []any{len(cd.Messages)}
		if changed {
			raw, err := json.Marshal(cd)
			if err != nil {
				return nil, nil, err
			}
			cols = append(cols, "data")
			vals = append(vals, string(raw))
		}
		return cols, vals, nil
	})
}

// walkSessions streams the sessions table in id-keyed batches and applies
// the per-row update fn returns. fn may return nil columns to skip a row.
func (s *Store) walkSessions(fn func(id string, data []byte) ([]string, []any, error)) error {
	const batchSize = 200

	type row struct {
		id   string
		data string
	}

	lastID := ""
	for {
		rows, err := s.db.Query(
			"SELECT id, data FROM sessions WHERE id > ? ORDER BY id LIMIT ?",
			lastID, batchSize)
		if err != nil {
			return err
		}

		var batch []row
		for rows.Next() {
			var r row
			if err := rows.Scan(&r.id, &r.data); err != nil {
				rows.Close()
				return err
			}
			lastID = r.id
			batch = append(batch, r)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()

		for _, r := range batch {
			cols, vals, err := fn(r.id, []byte(r.data))
			if err != nil {
				return err
			}
			if len(cols) == 0 {
				continue
			}
			set := ""
			for i, c := range cols {
				if i > 0 {
					set += ", "
				}
				set += c + " = ?"
			}
			vals = append(vals, r.id)
			if _, err := s.db.Exec("UPDATE sessions SET "+set+" WHERE id = ?", vals...); err != nil {
				return err
			}
		}

		if len(batch) < batchSize {
			return nil
		}
	}
}

func (s *Store) columnExists(table, column string) bool {
	rows, err := s.db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		return false
	}
	defer rows.Close()
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return false
		}
		if name == column {
			return true
		}
	}
	return false
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
