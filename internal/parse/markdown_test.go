package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acidgreenservers/noosphere-reflect/internal/detect"
	"github.com/acidgreenservers/noosphere-reflect/internal/model"
)

const chatgptExport = `# Sorting in Go

Source: https://chatgpt.com/c/abc123

## Prompt:
How do I sort a slice of structs?

## Response:
Use sort.Slice with a less function.

---
Powered by ChatGPT Exporter
`

func TestMarkdownParseTwoTurns(t *testing.T) {
	p := ForPlatform(detect.PlatformChatGPT)
	data, err := p.Parse(chatgptExport)
	require.NoError(t, err)

	require.Len(t, data.Messages, 2)
	assert.Equal(t, model.MessagePrompt, data.Messages[0].Type)
	assert.Equal(t, "How do I sort a slice of structs?", data.Messages[0].Content)
	assert.Equal(t, model.MessageResponse, data.Messages[1].Type)
	assert.Equal(t, "Use sort.Slice with a less function.", data.Messages[1].Content)

	require.NotNil(t, data.Metadata)
	assert.Equal(t, "Sorting in Go", data.Metadata.Title)
	assert.Equal(t, "ChatGPT", data.Metadata.Model)
	assert.Equal(t, "https://chatgpt.com/c/abc123", data.Metadata.SourceURL)
	assert.Contains(t, data.Metadata.Tags, "chatgpt")
	assert.Equal(t, model.StatusNotExported, data.Metadata.ExportStatus)
}

func TestMarkdownFooterStripped(t *testing.T) {
	p := ForPlatform(detect.PlatformChatGPT)
	data, err := p.Parse(chatgptExport)
	require.NoError(t, err)

	last := data.Messages[len(data.Messages)-1].Content
	assert.NotContains(t, last, "Powered by")
	assert.NotContains(t, last, "---")
}

func TestMarkdownMetadataFields(t *testing.T) {
	raw := "**Title:** Deep Dive\n**Model:** Claude Opus\n**Author:** ada\n**Date:** 2026-03-01\n**Source:** <https://claude.ai/chat/x1>\n\n## Prompt:\nq\n\n## Response:\na\n"
	p := ForPlatform(detect.PlatformClaude)
	data, err := p.Parse(raw)
	require.NoError(t, err)

	m := data.Metadata
	require.NotNil(t, m)
	assert.Equal(t, "Deep Dive", m.Title)
	assert.Equal(t, "Claude Opus", m.Model)
	assert.Equal(t, "ada", m.Author)
	assert.Equal(t, "2026-03-01", m.Date)
	assert.Equal(t, "https://claude.ai/chat/x1", m.SourceURL)
	assert.Contains(t, m.Tags, "claude")
}

func TestMarkdownDefaultModel(t *testing.T) {
	raw := "## Prompt:\nq\n\n## Response:\na\n"

	tests := []struct {
		platform detect.Platform
		want     string
	}{
		{detect.PlatformClaude, "Claude"},
		{detect.PlatformGrok, "Grok"},
		{detect.PlatformGeneric, "Unknown Model"},
	}
	for _, tt := range tests {
		data, err := ForPlatform(tt.platform).Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, tt.want, data.Metadata.Model, "platform %s", tt.platform)
	}
}

func TestMarkdownHeaderVocabulary(t *testing.T) {
	raw := "### Human\nfirst question\n\n### Assistant\nfirst answer\n\n### Question:\nsecond\n\n### Answer:\nresponse two\n"
	data, err := ForPlatform(detect.PlatformGeneric).Parse(raw)
	require.NoError(t, err)

	require.Len(t, data.Messages, 4)
	assert.Equal(t, model.MessagePrompt, data.Messages[0].Type)
	assert.Equal(t, model.MessageResponse, data.Messages[1].Type)
	assert.Equal(t, model.MessagePrompt, data.Messages[2].Type)
	assert.Equal(t, model.MessageResponse, data.Messages[3].Type)
}

func TestMarkdownEmptyTurnsDropped(t *testing.T) {
	raw := "## Prompt:\n\n## Response:\nonly answer\n"
	data, err := ForPlatform(detect.PlatformGeneric).Parse(raw)
	require.NoError(t, err)
	require.Len(t, data.Messages, 1)
	assert.Equal(t, "only answer", data.Messages[0].Content)
}

func TestMarkdownNoTurns(t *testing.T) {
	_, err := ForPlatform(detect.PlatformGeneric).Parse("# Title only\n\nplain prose, no role headers\n")
	var noTurns *NoTurnsError
	require.ErrorAs(t, err, &noTurns)
	assert.Equal(t, detect.PlatformGeneric, noTurns.Platform)
}

func TestForResultDispatch(t *testing.T) {
	tests := []struct {
		res  detect.Result
		want detect.Platform
	}{
		{detect.Result{Kind: detect.KindJSON}, detect.PlatformGeneric},
		{detect.Result{Kind: detect.KindMarkdown, Platform: detect.PlatformGemini}, detect.PlatformGemini},
		{detect.Result{Kind: detect.KindMarkdown, Platform: detect.PlatformDeepSeek}, detect.PlatformDeepSeek},
		{detect.Result{Kind: detect.KindMarkdown, Platform: "unknown"}, detect.PlatformGeneric},
	}
	for _, tt := range tests {
		p := ForResult(tt.res)
		require.NotNil(t, p)
		assert.Equal(t, tt.want, p.Platform())
	}
}
