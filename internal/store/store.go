// Package store is the persistent session store: a keyed, versioned sqlite
// record store with a secondary uniqueness constraint on the normalized
// title and a monotonic schema-migration discipline.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/acidgreenservers/noosphere-reflect/internal/merge"
	"github.com/acidgreenservers/noosphere-reflect/internal/model"
)

const pragmas = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA cache_size = -64000;
PRAGMA busy_timeout = 5000;
`

const timeLayout = time.RFC3339Nano

// Store wraps the sqlite handle. It is constructed explicitly and injected;
// there is no package-level singleton.
type Store struct {
	db  *sql.DB
	log zerolog.Logger

	mu     sync.Mutex
	titles map[string]*sync.Mutex
}

// Open opens (creating if needed) the store database and applies pending
// migrations.
func Open(dbPath string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(pragmas); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	s := &Store{
		db:     db,
		log:    log,
		titles: make(map[string]*sync.Mutex),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// titleLock returns the mutex guarding one normalized title. The
// check-then-act sequence in Put runs under it so two concurrent imports
// racing for the same identity serialize instead of both observing "no
// owner"; the sqlite UNIQUE index stays as a backstop.
func (s *Store) titleLock(slug string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.titles[slug]
	if !ok {
		l = &sync.Mutex{}
		s.titles[slug] = l
	}
	return l
}

// Put writes a session, enforcing the normalized-title invariant. When
// another session already owns the title, that owner is renamed with a
// timestamp suffix (and its slug regenerated), the rename is written, and
// only then is the original write performed. The just-imported content keeps
// the canonical title; the older record survives under the disambiguated
// one.
func (s *Store) Put(ctx context.Context, sess *model.Session) error {
	if sess.NormalizedTitle == "" {
		slug, err := merge.NormalizeTitle(sess.Title())
		if err != nil {
			return err
		}
		sess.NormalizedTitle = slug
	}

	lock := s.titleLock(sess.NormalizedTitle)
	lock.Lock()
	defer lock.Unlock()

	owner, err := s.GetByNormalizedTitle(ctx, sess.NormalizedTitle)
	if err != nil {
		return err
	}
	if owner != nil && owner.ID != sess.ID {
		if err := s.renameOwner(ctx, owner); err != nil {
			return fmt.Errorf("rename title owner: %w", err)
		}
	}
	return s.write(ctx, sess)
}

func (s *Store) renameOwner(ctx context.Context, owner *model.Session) error {
	renamed := fmt.Sprintf("%s (Copy %s)", owner.Title(), time.Now().Format("2006-01-02 15:04:05"))
	slug, err := merge.NormalizeTitle(renamed)
	if err != nil {
		return err
	}
	owner.SetTitle(renamed)
	owner.NormalizedTitle = slug
	owner.UpdatedAt = time.Now().UTC()

	s.log.Info().
		Str("session", owner.ID).
		Str("title", renamed).
		Msg("renamed existing session to free its title")

	// the rename must land before the caller's write is retried
	return s.write(ctx, owner)
}

func (s *Store) write(ctx context.Context, sess *model.Session) error {
	now := time.Now().UTC()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	if sess.UpdatedAt.IsZero() {
		sess.UpdatedAt = now
	}

	data, err := json.Marshal(sess.Data)
	if err != nil {
		return fmt.Errorf("encode session data: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, name, date, normalized_title, data, message_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			date = excluded.date,
			normalized_title = excluded.normalized_title,
			data = excluded.data,
			message_count = excluded.message_count,
			updated_at = excluded.updated_at`,
		sess.ID,
		sess.Name,
		sess.Date,
		sess.NormalizedTitle,
		string(data),
		len(sess.Data.Messages),
		sess.CreatedAt.Format(timeLayout),
		sess.UpdatedAt.Format(timeLayout),
	)
	return err
}

const sessionCols = "id, name, date, normalized_title, data, created_at, updated_at"

func (s *Store) scanSession(row *sql.Row) (*model.Session, error) {
	var sess model.Session
	var data, createdAt, updatedAt string
	err := row.Scan(&sess.ID, &sess.Name, &sess.Date, &sess.NormalizedTitle, &data, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &sess.Data); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sess.ID, err)
	}
	sess.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	sess.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
	return &sess, nil
}

// Get returns the session with the given id, or nil when absent.
func (s *Store) Get(ctx context.Context, id string) (*model.Session, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+sessionCols+" FROM sessions WHERE id = ?", id)
	return s.scanSession(row)
}

// GetByNormalizedTitle returns the session owning a title slug, or nil.
func (s *Store) GetByNormalizedTitle(ctx context.Context, slug string) (*model.Session, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+sessionCols+" FROM sessions WHERE normalized_title = ?", slug)
	return s.scanSession(row)
}

// Summary is the listing row for a session, cheap enough to load in bulk.
type Summary struct {
	ID              string
	Name            string
	Date            string
	NormalizedTitle string
	MessageCount    int
	UpdatedAt       time.Time
}

// List returns summaries of all sessions, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, date, normalized_title, message_count, updated_at
		FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var updatedAt string
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.Date, &sum.NormalizedTitle, &sum.MessageCount, &updatedAt); err != nil {
			return nil, err
		}
		sum.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Info is the minimal row the indexer polls: identity plus last-updated.
type Info struct {
	ID        string
	UpdatedAt time.Time
}

// Infos returns id and updated_at for every session. The indexer loads full
// payloads one at a time afterwards.
func (s *Store) Infos(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, updated_at FROM sessions")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Info
	for rows.Next() {
		var info Info
		var updatedAt string
		if err := rows.Scan(&info.ID, &updatedAt); err != nil {
			return nil, err
		}
		info.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
		out = append(out, info)
	}
	return out, rows.Err()
}

// Delete removes a session by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	return err
}

// Count returns the number of stored sessions.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions").Scan(&n)
	return n, err
}

// GetSettings loads the app settings record, returning defaults when none
// has been written.
func (s *Store) GetSettings(ctx context.Context) (model.AppSettings, error) {
	var settings model.AppSettings
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE key = 'app'").Scan(&raw)
	if err == sql.ErrNoRows {
		return settings, nil
	}
	if err != nil {
		return settings, err
	}
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return settings, fmt.Errorf("decode settings: %w", err)
	}
	return settings, nil
}

// SetSettings persists the app settings record.
func (s *Store) SetSettings(ctx context.Context, settings model.AppSettings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES ('app', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, string(raw))
	return err
}

// ListMemories returns all auxiliary note records.
func (s *Store) ListMemories(ctx context.Context) ([]model.Memory, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, content, tags, created_at FROM memories ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Memory
	for rows.Next() {
		var m model.Memory
		var tags string
		if err := rows.Scan(&m.ID, &m.Content, &tags, &m.CreatedAt); err != nil {
			return nil, err
		}
		if tags != "" {
			if err := json.Unmarshal([]byte(tags), &m.Tags); err != nil {
				return nil, fmt.Errorf("decode memory %s tags: %w", m.ID, err)
			}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// PutMemory upserts one note record.
func (s *Store) PutMemory(ctx context.Context, m model.Memory) error {
	tags := ""
	if len(m.Tags) > 0 {
		raw, err := json.Marshal(m.Tags)
		if err != nil {
			return err
		}
		tags = string(raw)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memories (id, content, tags, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			tags = excluded.tags`,
		m.ID, m.Content, tags, m.CreatedAt)
	return err
}
