package parse

import (
	"regexp"
	"strings"

	"github.com/acidgreenservers/noosphere-reflect/internal/detect"
	"github.com/acidgreenservers/noosphere-reflect/internal/model"
)

// fallbackModel labels conversations whose export carries no model field.
const fallbackModel = "Unknown Model"

var (
	// turnHeaderRe matches role headers like "## Prompt:" or "### Assistant".
	// The label vocabulary covers the generic role names plus the display
	// names platforms put in their own exports.
	turnHeaderRe = regexp.MustCompile(`(?mi)^#{1,6}\s*(prompt|user|human|question|you|response|ai|assistant|model|answer|chatgpt|claude|gemini|grok|deepseek|bot)\s*:?\s*$`)

	titleHeadingRe = regexp.MustCompile(`(?m)^#\s+(.+?)\s*$`)
	titleFieldRe   = regexp.MustCompile(`(?mi)^\*{0,2}title:?\*{0,2}\s*(.+?)\s*$`)
	modelFieldRe   = regexp.MustCompile(`(?mi)^\*{0,2}model:?\*{0,2}\s*(.+?)\s*$`)
	authorFieldRe  = regexp.MustCompile(`(?mi)^\*{0,2}author:?\*{0,2}\s*(.+?)\s*$`)
	dateFieldRe    = regexp.MustCompile(`(?mi)^\*{0,2}date:?\*{0,2}\s*(.+?)\s*$`)
	sourceFieldRe  = regexp.MustCompile(`(?mi)^\*{0,2}source:?\*{0,2}\s*<?(https?://\S+?)>?\s*$`)
	headURLRe      = regexp.MustCompile(`https?://\S+`)

	footerLineRe = regexp.MustCompile(`(?i)^((powered by|exported (by|from|with))\s.*|-{3,})$`)
)

// promptLabels is the subset of turn-header labels that mark user turns;
// everything else in the vocabulary is a response.
var promptLabels = map[string]bool{
	"prompt":   true,
	"user":     true,
	"human":    true,
	"question": true,
	"you":      true,
}

// knownModels are appended to the tag set when recognized in the model field.
var knownModels = []string{"ChatGPT", "Claude", "Gemini", "Grok", "DeepSeek"}

// markdownParser is the shared implementation behind the markdown export
// family. Platform parsers are thin specializations that set a default model
// label and, for Gemini, a post-pass translating its thinking blockquotes.
type markdownParser struct {
	platform     detect.Platform
	defaultModel string
	responsePass func(content string) string
}

func newMarkdownParser(platform detect.Platform, defaultModel string, responsePass func(string) string) *markdownParser {
	return &markdownParser{
		platform:     platform,
		defaultModel: defaultModel,
		responsePass: responsePass,
	}
}

func (p *markdownParser) Platform() detect.Platform {
	return p.platform
}

func (p *markdownParser) Parse(raw string) (*model.ChatData, error) {
	body := stripFooter(raw)
	meta := extractMetadata(body, p.defaultModel)
	messages := extractTurns(body)
	if len(messages) == 0 {
		return nil, &NoTurnsError{Platform: p.platform}
	}

	for i := range messages {
		if messages[i].Type != model.MessageResponse {
			continue
		}
		messages[i].Content = normalizeThoughts(messages[i].Content)
		if p.responsePass != nil {
			messages[i].Content = p.responsePass(messages[i].Content)
		}
	}

	return &model.ChatData{Messages: messages, Metadata: meta}, nil
}

// extractMetadata runs independent regex probes over the document head. Each
// probe is optional; a recognized model is additionally appended to the tag
// set.
func extractMetadata(body, defaultModel string) *model.ChatMetadata {
	meta := &model.ChatMetadata{
		ExportStatus: model.StatusNotExported,
	}

	if m := titleHeadingRe.FindStringSubmatch(body); m != nil {
		meta.Title = m[1]
	} else if m := titleFieldRe.FindStringSubmatch(body); m != nil {
		meta.Title = m[1]
	}

	if m := modelFieldRe.FindStringSubmatch(body); m != nil {
		meta.Model = m[1]
	} else if defaultModel != "" {
		meta.Model = defaultModel
	} else {
		meta.Model = fallbackModel
	}

	if m := authorFieldRe.FindStringSubmatch(body); m != nil {
		meta.Author = m[1]
	}
	if m := dateFieldRe.FindStringSubmatch(body); m != nil {
		meta.Date = m[1]
	}
	if m := sourceFieldRe.FindStringSubmatch(body); m != nil {
		meta.SourceURL = m[1]
	} else {
		head := body
		if len(head) > 800 {
			head = head[:800]
		}
		meta.SourceURL = headURLRe.FindString(head)
	}

	for _, known := range knownModels {
		if strings.Contains(strings.ToLower(meta.Model), strings.ToLower(known)) {
			meta.Tags = append(meta.Tags, strings.ToLower(known))
			break
		}
	}

	return meta
}

// extractTurns splits the document at role headers. Each header's span up to
// the next header (or end of input) becomes one message; label membership in
// promptLabels decides the type.
func extractTurns(body string) []model.ChatMessage {
	locs := turnHeaderRe.FindAllStringSubmatchIndex(body, -1)
	var messages []model.ChatMessage
	for i, loc := range locs {
		label := strings.ToLower(body[loc[2]:loc[3]])
		start := loc[1]
		end := len(body)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		content := strings.TrimSpace(body[start:end])
		if content == "" {
			continue
		}
		msgType := model.MessageResponse
		if promptLabels[label] {
			msgType = model.MessagePrompt
		}
		messages = append(messages, model.ChatMessage{
			Type:    msgType,
			Content: content,
		})
	}
	return messages
}

// stripFooter removes trailing attribution/divider lines so the last turn
// does not absorb the export footer.
func stripFooter(body string) string {
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	end := len(lines)
	for end > 0 {
		line := strings.TrimSpace(lines[end-1])
		if line == "" || footerLineRe.MatchString(line) {
			end--
			continue
		}
		break
	}
	return strings.Join(lines[:end], "\n")
}
