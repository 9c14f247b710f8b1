// Package index maintains the full-text index over stored conversations:
// one document per message, carrying the session title alongside the body so
// title matches can outrank body matches. The index lives in its own sqlite
// database and survives restarts; only sessions updated since their last
// indexing are reprocessed.
package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/acidgreenservers/noosphere-reflect/internal/model"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA cache_size = -64000;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS docs (
    session_id TEXT NOT NULL,
    doc_id     INTEGER NOT NULL,
    role       TEXT NOT NULL,
    title      TEXT NOT NULL DEFAULT '',
    model      TEXT NOT NULL DEFAULT '',
    ts         TEXT NOT NULL DEFAULT '',
    text       TEXT NOT NULL,
    PRIMARY KEY (session_id, doc_id)
);

CREATE VIRTUAL TABLE IF NOT EXISTS docs_fts USING fts5(
    title,
    text,
    content=docs,
    content_rowid=rowid,
    tokenize='unicode61'
);

-- triggers to keep FTS in sync
CREATE TRIGGER IF NOT EXISTS docs_ai AFTER INSERT ON docs BEGIN
    INSERT INTO docs_fts(rowid, title, text) VALUES (new.rowid, new.title, new.text);
END;

CREATE TRIGGER IF NOT EXISTS docs_ad AFTER DELETE ON docs BEGIN
    INSERT INTO docs_fts(docs_fts, rowid, title, text) VALUES('delete', old.rowid, old.title, old.text);
END;

CREATE TRIGGER IF NOT EXISTS docs_au AFTER UPDATE ON docs BEGIN
    INSERT INTO docs_fts(docs_fts, rowid, title, text) VALUES('delete', old.rowid, old.title, old.text);
    INSERT INTO docs_fts(rowid, title, text) VALUES (new.rowid, new.title, new.text);
END;

CREATE TABLE IF NOT EXISTS indexed (
    session_id TEXT PRIMARY KEY,
    indexed_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT
);
`

// schemaVersion should be bumped whenever document construction changes, to
// force a full re-index.
const schemaVersion = "1"

// maxTextSize caps how much of a message body is indexed.
const maxTextSize = 8 * 1024

const timeLayout = time.RFC3339Nano

// Index wraps the index database handle.
type Index struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens (creating if needed) the index database.
func Open(dbPath string, log zerolog.Logger) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init index schema: %w", err)
	}

	ix := &Index{db: db, log: log}
	ix.migrateSchemaVersion()
	return ix, nil
}

func (ix *Index) migrateSchemaVersion() {
	var ver string
	err := ix.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&ver)
	if err != nil || ver != schemaVersion {
		// force a full re-index by forgetting indexing timestamps
		ix.db.Exec("DELETE FROM indexed")
		ix.db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion)
	}
}

func (ix *Index) Close() error {
	return ix.db.Close()
}

// Raw exposes the handle for search queries and self-checks.
func (ix *Index) Raw() *sql.DB {
	return ix.db
}

// Status reports what IndexIfChanged did with a session.
type Status string

const (
	StatusIndexed Status = "indexed"
	StatusSkipped Status = "no changes"
)

// IndexIfChanged refreshes one session's documents unless its last-updated
// timestamp is not newer than the recorded last-indexed timestamp. On
// refresh the session's prior documents are discarded by id and re-added.
func (ix *Index) IndexIfChanged(sess *model.Session) (Status, error) {
	var lastStr string
	err := ix.db.QueryRow(
		"SELECT indexed_at FROM indexed WHERE session_id = ?", sess.ID,
	).Scan(&lastStr)
	if err != nil && err != sql.ErrNoRows {
		return "", err
	}
	if err == nil {
		last, perr := time.Parse(timeLayout, lastStr)
		if perr == nil && !sess.UpdatedAt.After(last) {
			return StatusSkipped, nil
		}
	}

	tx, err := ix.db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM docs WHERE session_id = ?", sess.ID); err != nil {
		return "", err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO docs (session_id, doc_id, role, title, model, ts, text)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	title := sess.Title()
	modelName := ""
	if sess.Data.Metadata != nil {
		modelName = sess.Data.Metadata.Model
	}
	ts := sess.UpdatedAt.UTC().Format(timeLayout)

	for i, msg := range sess.Data.Messages {
		text := msg.Content
		if len(text) > maxTextSize {
			text = text[:maxTextSize]
		}
		if _, err := stmt.Exec(sess.ID, i, string(msg.Type), title, modelName, ts, text); err != nil {
			return "", err
		}
	}

	_, err = tx.Exec(`
		INSERT INTO indexed (session_id, indexed_at) VALUES (?, ?)
		ON CONFLICT(session_id) DO UPDATE SET indexed_at = excluded.indexed_at`,
		sess.ID, ts)
	if err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return StatusIndexed, nil
}

// DeleteSession drops a session's documents and its indexing record.
func (ix *Index) DeleteSession(sessionID string) error {
	tx, err := ix.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM docs WHERE session_id = ?", sessionID); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM indexed WHERE session_id = ?", sessionID); err != nil {
		return err
	}
	return tx.Commit()
}

// Prune removes index entries for sessions no longer in the store.
func (ix *Index) Prune(valid map[string]struct{}) (int, error) {
	rows, err := ix.db.Query("SELECT session_id FROM indexed")
	if err != nil {
		return 0, err
	}
	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		if _, ok := valid[id]; !ok {
			stale = append(stale, id)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	for _, id := range stale {
		if err := ix.DeleteSession(id); err != nil {
			return len(stale), err
		}
	}
	return len(stale), nil
}

// SessionCount returns how many sessions have index records.
func (ix *Index) SessionCount() (int, error) {
	var n int
	err := ix.db.QueryRow("SELECT COUNT(*) FROM indexed").Scan(&n)
	return n, err
}

// DocCount returns the number of indexed documents.
func (ix *Index) DocCount() (int, error) {
	var n int
	err := ix.db.QueryRow("SELECT COUNT(*) FROM docs").Scan(&n)
	return n, err
}
