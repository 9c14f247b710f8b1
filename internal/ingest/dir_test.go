package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const attributedMarkdown = `# Reimported Chat

**Model:** Claude

## Prompt:
q

## Response:
a

---
Exported by Noosphere Reflect
`

const attributedJSON = `{
	"exportedWith": "Noosphere Reflect",
	"messages": [
		{"type": "prompt", "content": "q"},
		{"type": "response", "content": "a"}
	],
	"metadata": {"title": "JSON Chat", "model": "Claude", "date": "2026-01-01"}
}`

func TestImportDir(t *testing.T) {
	in, st := newTestIngestor(t)
	dir := t.TempDir()

	writeFile(t, dir, "good.md", attributedMarkdown)
	writeFile(t, dir, "good.json", attributedJSON)
	writeFile(t, dir, "foreign.md", "# Foreign\n\n## Prompt:\nq\n\n## Response:\na\n")
	writeFile(t, dir, "notes.txt", "ignored extension")

	results, stats, err := in.ImportDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Len(t, results, 3, ".txt files are not considered")
	assert.Equal(t, 2, stats.Created)
	assert.Equal(t, 1, stats.Rejected)
	assert.Zero(t, stats.Failed)

	n, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestImportDirRejectionIsAttributionError(t *testing.T) {
	in, _ := newTestIngestor(t)
	dir := t.TempDir()
	writeFile(t, dir, "foreign.md", "## Prompt:\nq\n\n## Response:\na\n")

	results, stats, err := in.ImportDir(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, results, 1)
	var attrErr *AttributionError
	require.ErrorAs(t, results[0].Err, &attrErr)
	assert.Contains(t, results[0].Err.Error(), "attribution marker")
	assert.Equal(t, 1, stats.Rejected)
}

func TestImportDirBadFileDoesNotAbortBatch(t *testing.T) {
	in, st := newTestIngestor(t)
	dir := t.TempDir()

	// carries the marker but parses to nothing
	writeFile(t, dir, "broken.md", "no structure at all\n\nExported by Noosphere Reflect\n")
	writeFile(t, dir, "good.md", attributedMarkdown)

	_, stats, err := in.ImportDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Created)
	assert.Equal(t, 1, stats.Failed)

	n, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestImportDirJSONAttributionProbe(t *testing.T) {
	in, _ := newTestIngestor(t)
	dir := t.TempDir()

	writeFile(t, dir, "wrong.json", `{"exportedWith": "Some Other Tool", "messages": []}`)

	results, stats, err := in.ImportDir(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, stats.Rejected)
}

func TestVerifyAttribution(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		content string
		ok      bool
	}{
		{"json with marker", "a.json", attributedJSON, true},
		{"json without marker", "a.json", `{"messages":[]}`, false},
		{"markdown with footer", "a.md", attributedMarkdown, true},
		{"markdown without footer", "a.md", "# T\n## Prompt:\nq", false},
		{"html with footer", "a.html", "<html><body>Exported by Noosphere Reflect</body></html>", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := verifyAttribution(tt.path, tt.content)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestWatchIngestsDroppedFile(t *testing.T) {
	in, st := newTestIngestor(t)
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := make(chan FileResult, 4)
	done := make(chan error, 1)
	go func() {
		done <- in.Watch(ctx, dir, func(r FileResult) { results <- r })
	}()

	// let the watcher register before dropping the file
	time.Sleep(100 * time.Millisecond)
	writeFile(t, dir, "drop.md", "# Dropped Chat\n\n## Prompt:\nq\n\n## Response:\na\n")

	select {
	case r := <-results:
		require.NoError(t, r.Err)
		assert.True(t, r.Outcome.Created)
	case <-time.After(5 * time.Second):
		t.Fatal("no ingest result before timeout")
	}

	n, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	cancel()
	require.NoError(t, <-done)
}
