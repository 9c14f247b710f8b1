package search

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acidgreenservers/noosphere-reflect/internal/index"
	"github.com/acidgreenservers/noosphere-reflect/internal/model"
)

func seedIndex(t *testing.T) *index.Index {
	t.Helper()
	ix, err := index.Open(filepath.Join(t.TempDir(), "index.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { ix.Close() })

	now := time.Now().UTC()
	sessions := []*model.Session{
		{
			ID: "s1", Name: "Goroutine Basics", UpdatedAt: now,
			Data: model.ChatData{
				Messages: []model.ChatMessage{
					{Type: model.MessagePrompt, Content: "what is a goroutine exactly"},
					{Type: model.MessageResponse, Content: "a goroutine is a lightweight thread managed by the runtime"},
				},
				Metadata: &model.ChatMetadata{Title: "Goroutine Basics", Model: "Claude"},
			},
		},
		{
			ID: "s2", Name: "Channel Patterns", UpdatedAt: now.Add(-48 * time.Hour),
			Data: model.ChatData{
				Messages: []model.ChatMessage{
					{Type: model.MessagePrompt, Content: "show me fan-in with channels"},
					{Type: model.MessageResponse, Content: "merge several channels into one with a goroutine per input"},
				},
				Metadata: &model.ChatMetadata{Title: "Channel Patterns", Model: "ChatGPT"},
			},
		},
	}
	for _, sess := range sessions {
		_, err := ix.IndexIfChanged(sess)
		require.NoError(t, err)
	}
	return ix
}

func TestSearchFindsBodyText(t *testing.T) {
	ix := seedIndex(t)

	results, err := Search(ix, "lightweight", Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "s1", results[0].SessionID)
	assert.Equal(t, "response", results[0].Role)
	assert.Contains(t, results[0].Snippet, ">>>lightweight<<<")
}

func TestSearchTitleOutranksBody(t *testing.T) {
	ix := seedIndex(t)

	// "goroutine" is in s1's title and in both bodies; the title match must
	// come first
	results, err := Search(ix, "goroutine", Options{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "s1", results[0].SessionID)
}

func TestSearchPrefixMatching(t *testing.T) {
	ix := seedIndex(t)

	results, err := Search(ix, "gorout", Options{})
	require.NoError(t, err)
	assert.NotEmpty(t, results, "prefix of a term still matches")
}

func TestSearchShortQueryReturnsNothing(t *testing.T) {
	ix := seedIndex(t)

	for _, q := range []string{"", "g", " a "} {
		results, err := Search(ix, q, Options{})
		require.NoError(t, err, "query %q", q)
		assert.Empty(t, results)
	}
}

func TestSearchRoleFilter(t *testing.T) {
	ix := seedIndex(t)

	results, err := Search(ix, "goroutine", Options{Role: "prompt"})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.Equal(t, "prompt", r.Role)
	}
}

func TestSearchDateFilter(t *testing.T) {
	ix := seedIndex(t)

	since := time.Now().UTC().Add(-time.Hour)
	results, err := Search(ix, "channels", Options{Since: since})
	require.NoError(t, err)
	assert.Empty(t, results, "s2 was updated two days ago")

	results, err = Search(ix, "channels", Options{Since: since.Add(-72 * time.Hour)})
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestSearchKeywordFilter(t *testing.T) {
	ix := seedIndex(t)

	results, err := Search(ix, "goroutine", Options{Keywords: []string{"chatgpt"}})
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, "s2", r.SessionID, "keyword matches model name case-insensitively")
	}
	require.NotEmpty(t, results)
}

func TestSearchLimit(t *testing.T) {
	ix := seedIndex(t)

	results, err := Search(ix, "goroutine", Options{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchNoResults(t *testing.T) {
	ix := seedIndex(t)

	results, err := Search(ix, "nonexistentterm", Options{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBuildMatchQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hello", `"hello"*`},
		{"two terms", `"two"* "terms"*`},
		{`quo"te`, `"quo""te"*`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, buildMatchQuery(tt.in))
	}
}

func TestMakeSnippet(t *testing.T) {
	t.Run("marks the hit", func(t *testing.T) {
		got := makeSnippet("the quick brown fox jumps", "brown", 5)
		assert.Contains(t, got, ">>>brown<<<")
	})

	t.Run("truncates around the hit", func(t *testing.T) {
		long := strings.Repeat("a", 100) + " target " + strings.Repeat("b", 100)
		got := makeSnippet(long, "target", 10)
		assert.True(t, strings.HasPrefix(got, "..."))
		assert.True(t, strings.HasSuffix(got, "..."))
		assert.Contains(t, got, ">>>target<<<")
	})

	t.Run("falls back to first term", func(t *testing.T) {
		got := makeSnippet("only the second word here", "missing second", 10)
		assert.Contains(t, got, ">>>second<<<")
	})

	t.Run("prefix fallback when nothing matches", func(t *testing.T) {
		long := strings.Repeat("x", 200)
		got := makeSnippet(long, "absent", 30)
		assert.Equal(t, strings.Repeat("x", 60)+"...", got)
	})

	t.Run("multibyte safe", func(t *testing.T) {
		got := makeSnippet("héllo wörld çontext target here", "target", 5)
		assert.Contains(t, got, ">>>target<<<")
	})
}
