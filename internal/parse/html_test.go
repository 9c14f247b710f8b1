package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acidgreenservers/noosphere-reflect/internal/detect"
	"github.com/acidgreenservers/noosphere-reflect/internal/model"
)

func TestHTMLChatGPT(t *testing.T) {
	raw := `<!DOCTYPE html><html><head><title>GPT Export</title></head><body>
		<div data-message-author-role="user"><p>first question</p></div>
		<div data-message-author-role="assistant"><p>first answer</p></div>
	</body></html>`

	data, err := newHTMLParser(detect.PlatformChatGPT).Parse(raw)
	require.NoError(t, err)

	require.Len(t, data.Messages, 2)
	assert.Equal(t, model.MessagePrompt, data.Messages[0].Type)
	assert.Equal(t, "first question", data.Messages[0].Content)
	assert.Equal(t, model.MessageResponse, data.Messages[1].Type)
	assert.Equal(t, "first answer", data.Messages[1].Content)
	assert.Equal(t, "GPT Export", data.Metadata.Title)
	assert.Equal(t, "ChatGPT", data.Metadata.Model)
}

func TestHTMLClaude(t *testing.T) {
	raw := `<html><body>
		<div class="font-user-message">question here</div>
		<div class="font-claude-message">answer here</div>
	</body></html>`

	data, err := newHTMLParser(detect.PlatformClaude).Parse(raw)
	require.NoError(t, err)
	require.Len(t, data.Messages, 2)
	assert.Equal(t, model.MessagePrompt, data.Messages[0].Type)
	assert.Equal(t, model.MessageResponse, data.Messages[1].Type)
	assert.Equal(t, "Claude", data.Metadata.Model)
	assert.Contains(t, data.Metadata.Tags, "claude")
}

func TestHTMLGemini(t *testing.T) {
	raw := `<html><body>
		<user-query>what is a goroutine</user-query>
		<model-response>a lightweight thread managed by the runtime</model-response>
	</body></html>`

	data, err := newHTMLParser(detect.PlatformGemini).Parse(raw)
	require.NoError(t, err)
	require.Len(t, data.Messages, 2)
	assert.Equal(t, "what is a goroutine", data.Messages[0].Content)
}

func TestHTMLGeneric(t *testing.T) {
	raw := `<html><body>
		<div class="message user">hi</div>
		<div class="message assistant">hello</div>
		<div data-role="user">again</div>
	</body></html>`

	data, err := newHTMLParser(detect.PlatformGeneric).Parse(raw)
	require.NoError(t, err)
	require.Len(t, data.Messages, 3)
	assert.Equal(t, model.MessagePrompt, data.Messages[0].Type)
	assert.Equal(t, model.MessageResponse, data.Messages[1].Type)
	assert.Equal(t, model.MessagePrompt, data.Messages[2].Type)
}

func TestHTMLPreBecomesFence(t *testing.T) {
	raw := `<html><body>
		<div data-message-author-role="assistant">
			<p>use this:</p>
			<pre>fmt.Println("hi")</pre>
		</div>
	</body></html>`

	data, err := newHTMLParser(detect.PlatformChatGPT).Parse(raw)
	require.NoError(t, err)
	require.Len(t, data.Messages, 1)
	assert.Contains(t, data.Messages[0].Content, "```\nfmt.Println(\"hi\")\n```")
}

func TestHTMLNestedMatchNotDuplicated(t *testing.T) {
	raw := `<html><body>
		<div data-message-author-role="assistant">
			outer
			<div data-message-author-role="assistant">inner</div>
		</div>
	</body></html>`

	data, err := newHTMLParser(detect.PlatformChatGPT).Parse(raw)
	require.NoError(t, err)
	require.Len(t, data.Messages, 1)
	assert.Contains(t, data.Messages[0].Content, "inner")
}

func TestHTMLScriptIgnored(t *testing.T) {
	raw := `<html><body>
		<div data-message-author-role="user">real text<script>alert(1)</script></div>
	</body></html>`

	data, err := newHTMLParser(detect.PlatformChatGPT).Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "real text", data.Messages[0].Content)
}

func TestHTMLNoTurns(t *testing.T) {
	_, err := newHTMLParser(detect.PlatformClaude).Parse(`<html><body><p>nothing</p></body></html>`)
	var noTurns *NoTurnsError
	require.ErrorAs(t, err, &noTurns)
}
