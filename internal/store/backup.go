package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/acidgreenservers/noosphere-reflect/internal/merge"
	"github.com/acidgreenservers/noosphere-reflect/internal/model"
)

// ExportBackup bundles every session, the settings record, and all memories
// with a version stamp.
func (s *Store) ExportBackup(ctx context.Context) (*model.Backup, error) {
	summaries, err := s.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	backup := &model.Backup{
		Version:    BackupVersion,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
	}

	for _, sum := range summaries {
		sess, err := s.Get(ctx, sum.ID)
		if err != nil {
			return nil, fmt.Errorf("load session %s: %w", sum.ID, err)
		}
		if sess == nil {
			continue
		}
		backup.Sessions = append(backup.Sessions, *sess)
	}

	backup.Settings, err = s.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	backup.Memories, err = s.ListMemories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load memories: %w", err)
	}
	return backup, nil
}

// ImportStats reports what a bundle restore wrote.
type ImportStats struct {
	Sessions int
	Memories int
}

func (s ImportStats) String() string {
	return fmt.Sprintf("restored %d sessions, %d memories", s.Sessions, s.Memories)
}

// ImportBackup validates and sanitizes a bundle, then replays each session
// through Put so duplicate-title collisions during restore are handled by
// the same rename protocol as live imports. One validation failure rejects
// the whole bundle; nothing is written.
func (s *Store) ImportBackup(ctx context.Context, b *model.Backup) (ImportStats, error) {
	var stats ImportStats

	if err := ValidateBackup(b); err != nil {
		return stats, err
	}
	SanitizeBackup(b)

	for i := range b.Sessions {
		sess := b.Sessions[i]
		if sess.ID == "" {
			sess.ID = uuid.NewString()
		}
		// slugs are regenerated rather than trusted from the bundle
		slug, err := merge.NormalizeTitle(sess.Title())
		if err != nil {
			slug = "untitled-" + shortID(sess.ID)
		}
		sess.NormalizedTitle = slug

		if err := s.Put(ctx, &sess); err != nil {
			return stats, fmt.Errorf("import session %s: %w", sess.ID, err)
		}
		stats.Sessions++
	}

	for _, m := range b.Memories {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if err := s.PutMemory(ctx, m); err != nil {
			return stats, fmt.Errorf("import memory %s: %w", m.ID, err)
		}
		stats.Memories++
	}

	if err := s.SetSettings(ctx, b.Settings); err != nil {
		return stats, fmt.Errorf("import settings: %w", err)
	}
	return stats, nil
}
