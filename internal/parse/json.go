package parse

import (
	"encoding/json"
	"fmt"

	"github.com/acidgreenservers/noosphere-reflect/internal/detect"
	"github.com/acidgreenservers/noosphere-reflect/internal/model"
)

// jsonParser reads structured-data exports already in (or close to) the
// canonical shape: a ChatData object or a bare message array. Role names
// from other tools are coerced onto the canonical prompt/response pair.
type jsonParser struct{}

func (p *jsonParser) Platform() detect.Platform {
	return detect.PlatformGeneric
}

func (p *jsonParser) Parse(raw string) (*model.ChatData, error) {
	var data model.ChatData
	err := json.Unmarshal([]byte(raw), &data)
	if err != nil {
		var messages []model.ChatMessage
		if err2 := json.Unmarshal([]byte(raw), &messages); err2 != nil {
			return nil, fmt.Errorf("decode JSON export: %w", err)
		}
		data = model.ChatData{Messages: messages}
	} else if len(data.Messages) == 0 && data.Metadata == nil {
		// an object without our fields may still be a bare message array
		// wrapped differently; give the array shape a chance
		var messages []model.ChatMessage
		if err2 := json.Unmarshal([]byte(raw), &messages); err2 == nil {
			data = model.ChatData{Messages: messages}
		}
	}

	var kept []model.ChatMessage
	for _, m := range data.Messages {
		t, ok := coerceType(m.Type)
		if !ok {
			continue
		}
		m.Type = t
		kept = append(kept, m)
	}
	if len(kept) == 0 {
		return nil, &NoTurnsError{Platform: detect.PlatformGeneric}
	}
	data.Messages = kept

	if data.Metadata != nil && data.Metadata.Model == "" {
		data.Metadata.Model = fallbackModel
	}

	for i := range data.Messages {
		if data.Messages[i].Type == model.MessageResponse {
			data.Messages[i].Content = normalizeThoughts(data.Messages[i].Content)
		}
	}

	return &data, nil
}

func coerceType(t model.MessageType) (model.MessageType, bool) {
	switch t {
	case model.MessagePrompt, "user", "human", "question":
		return model.MessagePrompt, true
	case model.MessageResponse, "assistant", "ai", "model", "answer":
		return model.MessageResponse, true
	default:
		return "", false
	}
}
