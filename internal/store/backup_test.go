package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acidgreenservers/noosphere-reflect/internal/model"
)

func TestBackupRoundtrip(t *testing.T) {
	src := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, src.Put(ctx, testSession("s1", "First", "q1", "a1")))
	require.NoError(t, src.Put(ctx, testSession("s2", "Second", "q2")))
	require.NoError(t, src.PutMemory(ctx, model.Memory{ID: "m1", Content: "note"}))
	require.NoError(t, src.SetSettings(ctx, model.AppSettings{Theme: "dark"}))

	b, err := src.ExportBackup(ctx)
	require.NoError(t, err)
	assert.Equal(t, BackupVersion, b.Version)
	assert.NotEmpty(t, b.ExportedAt)
	assert.Len(t, b.Sessions, 2)
	assert.Len(t, b.Memories, 1)

	dst := openTestStore(t)
	stats, err := dst.ImportBackup(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Sessions)
	assert.Equal(t, 1, stats.Memories)

	got, err := dst.GetByNormalizedTitle(ctx, "first")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Data.Messages, 2)

	settings, err := dst.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dark", settings.Theme)
}

func TestImportBackupRejectsInvalidAtomically(t *testing.T) {
	dst := openTestStore(t)
	ctx := context.Background()

	b := validBackup()
	b.Sessions[0].Data.Messages[0].Type = "system"

	_, err := dst.ImportBackup(ctx, b)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	n, err := dst.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "a rejected bundle must write nothing")
}

func TestImportBackupSanitizes(t *testing.T) {
	dst := openTestStore(t)
	ctx := context.Background()

	b := validBackup()
	b.Sessions[0].Data.Messages[0].Content = `q<script>alert(1)</script>`

	_, err := dst.ImportBackup(ctx, b)
	require.NoError(t, err)

	got, err := dst.GetByNormalizedTitle(ctx, "good-chat")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "q", got.Data.Messages[0].Content)
}

func TestImportBackupGeneratesMissingIDs(t *testing.T) {
	dst := openTestStore(t)
	ctx := context.Background()

	b := validBackup()
	b.Sessions[0].ID = ""
	b.Memories[0].ID = ""

	stats, err := dst.ImportBackup(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sessions)

	got, err := dst.GetByNormalizedTitle(ctx, "good-chat")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.NotEmpty(t, got.ID)
}

func TestImportBackupCollidingTitleRenames(t *testing.T) {
	dst := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, dst.Put(ctx, testSession("live", "Good Chat", "live q")))

	_, err := dst.ImportBackup(ctx, validBackup())
	require.NoError(t, err)

	// the restored session takes the slug; the live one is renamed, not lost
	owner, err := dst.GetByNormalizedTitle(ctx, "good-chat")
	require.NoError(t, err)
	require.NotNil(t, owner)
	assert.Equal(t, "s1", owner.ID)

	live, err := dst.Get(ctx, "live")
	require.NoError(t, err)
	require.NotNil(t, live)
	assert.Contains(t, live.Name, "(Copy ")
}
