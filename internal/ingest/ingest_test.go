package ingest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acidgreenservers/noosphere-reflect/internal/detect"
	"github.com/acidgreenservers/noosphere-reflect/internal/parse"
	"github.com/acidgreenservers/noosphere-reflect/internal/store"
)

func newTestIngestor(t *testing.T) (*Ingestor, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "store.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New(st, zerolog.Nop()), st
}

const chatExport = `# Sorting in Go

Source: https://chatgpt.com/c/abc123

## Prompt:
How do I sort a slice?

## Response:
Use sort.Slice.

---
Powered by ChatGPT Exporter
`

const chatExportGrown = `# Sorting in Go

Source: https://chatgpt.com/c/abc123

## Prompt:
How do I sort a slice?

## Response:
Use sort.Slice.

## Prompt:
And stable sort?

## Response:
sort.SliceStable.

---
Powered by ChatGPT Exporter
`

func TestIngestCreatesSession(t *testing.T) {
	in, st := newTestIngestor(t)
	ctx := context.Background()

	outcome, err := in.Ingest(ctx, chatExport, "")
	require.NoError(t, err)
	assert.True(t, outcome.Created)
	assert.Equal(t, "Sorting in Go", outcome.Title)
	assert.Equal(t, detect.PlatformChatGPT, outcome.Platform)
	assert.Equal(t, detect.High, outcome.Confidence)
	assert.Equal(t, 2, outcome.Appended)
	require.NotEmpty(t, outcome.SessionID)

	sess, err := st.Get(ctx, outcome.SessionID)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "sorting-in-go", sess.NormalizedTitle)
	assert.Len(t, sess.Data.Messages, 2)
}

func TestIngestMergesGrownExport(t *testing.T) {
	in, st := newTestIngestor(t)
	ctx := context.Background()

	first, err := in.Ingest(ctx, chatExport, "")
	require.NoError(t, err)

	second, err := in.Ingest(ctx, chatExportGrown, "")
	require.NoError(t, err)
	assert.True(t, second.Merged)
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, 2, second.Appended)
	assert.Equal(t, 2, second.Skipped)

	sess, err := st.Get(ctx, first.SessionID)
	require.NoError(t, err)
	assert.Len(t, sess.Data.Messages, 4)
	assert.Equal(t, "And stable sort?", sess.Data.Messages[2].Content)
}

func TestIngestNoOpLeavesSessionUntouched(t *testing.T) {
	in, st := newTestIngestor(t)
	ctx := context.Background()

	first, err := in.Ingest(ctx, chatExport, "")
	require.NoError(t, err)
	before, err := st.Get(ctx, first.SessionID)
	require.NoError(t, err)

	again, err := in.Ingest(ctx, chatExport, "")
	require.NoError(t, err)
	assert.True(t, again.NoChange)
	assert.False(t, again.Merged)
	assert.Equal(t, 2, again.Skipped)

	after, err := st.Get(ctx, first.SessionID)
	require.NoError(t, err)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt, "a no-op merge must not touch the record")
	assert.Equal(t, before.Data, after.Data)
}

func TestIngestPlatformOverride(t *testing.T) {
	in, _ := newTestIngestor(t)

	raw := "## Prompt:\nq\n\n## Response:\na\n"
	outcome, err := in.Ingest(context.Background(), raw, detect.PlatformClaude)
	require.NoError(t, err)
	assert.Equal(t, detect.PlatformClaude, outcome.Platform)
}

func TestIngestTitleFromFirstPrompt(t *testing.T) {
	in, _ := newTestIngestor(t)

	raw := "## Prompt:\nHow do I parse HTML in Go?\nmore detail here\n\n## Response:\nUse x/net/html.\n"
	outcome, err := in.Ingest(context.Background(), raw, "")
	require.NoError(t, err)
	assert.Equal(t, "How do I parse HTML in Go?", outcome.Title)
}

func TestIngestUntitledFallback(t *testing.T) {
	in, _ := newTestIngestor(t)

	// the only prompt line normalizes to nothing
	raw := "## Response:\nan answer with no prompt\n"
	outcome, err := in.Ingest(context.Background(), raw, "")
	require.NoError(t, err)
	assert.Equal(t, untitledName, outcome.Title)
}

func TestIngestRejectsUnsupported(t *testing.T) {
	in, _ := newTestIngestor(t)

	_, err := in.Ingest(context.Background(), "plain prose with no structure", "")
	var inc *detect.InconclusiveError
	require.ErrorAs(t, err, &inc)
}

func TestIngestRejectsNoTurns(t *testing.T) {
	in, _ := newTestIngestor(t)

	// detected as markdown via a fenced block, but no role headers
	_, err := in.Ingest(context.Background(), "```go\nfmt.Println()\n```\n", "")
	var noTurns *parse.NoTurnsError
	require.ErrorAs(t, err, &noTurns)
}

func TestIngestMergesMetadata(t *testing.T) {
	in, st := newTestIngestor(t)
	ctx := context.Background()

	first, err := in.Ingest(ctx, "# Tagged Chat\n\n## Prompt:\nq\n\n## Response:\na\n", "")
	require.NoError(t, err)

	grown := "# Tagged Chat\n\n**Model:** Gemini Pro\n\n## Prompt:\nq\n\n## Response:\na\n\n## Prompt:\nq2\n\n## Response:\na2\n"
	_, err = in.Ingest(ctx, grown, "")
	require.NoError(t, err)

	sess, err := st.Get(ctx, first.SessionID)
	require.NoError(t, err)
	assert.Contains(t, sess.Data.Metadata.Tags, "gemini")
}
