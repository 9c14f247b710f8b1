package parse

import (
	"strings"

	"github.com/acidgreenservers/noosphere-reflect/internal/detect"
	"github.com/acidgreenservers/noosphere-reflect/internal/model"
)

// speakerParser handles exports structured as alternating "User:" and
// "<Name>:" line prefixes instead of markdown headers.
type speakerParser struct {
	platform detect.Platform
	name     string
}

func newSpeakerParser(platform detect.Platform, name string) *speakerParser {
	return &speakerParser{platform: platform, name: name}
}

func (p *speakerParser) Platform() detect.Platform {
	return p.platform
}

func (p *speakerParser) Parse(raw string) (*model.ChatData, error) {
	body := stripFooter(raw)
	meta := extractMetadata(body, p.name)

	userPrefix := "User:"
	namePrefix := p.name + ":"

	var messages []model.ChatMessage
	var cur *model.ChatMessage
	flush := func() {
		if cur == nil {
			return
		}
		cur.Content = strings.TrimSpace(cur.Content)
		if cur.Content != "" {
			messages = append(messages, *cur)
		}
		cur = nil
	}

	for _, line := range strings.Split(body, "\n") {
		switch {
		case strings.HasPrefix(line, userPrefix):
			flush()
			cur = &model.ChatMessage{
				Type:    model.MessagePrompt,
				Content: strings.TrimSpace(strings.TrimPrefix(line, userPrefix)),
			}
		case strings.HasPrefix(line, namePrefix):
			flush()
			cur = &model.ChatMessage{
				Type:    model.MessageResponse,
				Content: strings.TrimSpace(strings.TrimPrefix(line, namePrefix)),
			}
		default:
			if cur != nil {
				cur.Content += "\n" + line
			}
		}
	}
	flush()

	if len(messages) == 0 {
		return nil, &NoTurnsError{Platform: p.platform}
	}

	for i := range messages {
		if messages[i].Type == model.MessageResponse {
			messages[i].Content = normalizeThoughts(messages[i].Content)
		}
	}

	return &model.ChatData{Messages: messages, Metadata: meta}, nil
}
