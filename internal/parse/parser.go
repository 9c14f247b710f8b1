// Package parse turns raw conversation exports into the canonical ChatData
// shape. One parser exists per platform/format; the registry maps a
// detection result to the implementation that understands it.
package parse

import (
	"fmt"

	"github.com/acidgreenservers/noosphere-reflect/internal/detect"
	"github.com/acidgreenservers/noosphere-reflect/internal/model"
)

// Parser is the uniform contract all platform parsers implement.
type Parser interface {
	Platform() detect.Platform
	Parse(raw string) (*model.ChatData, error)
}

// NoTurnsError reports that a parser ran but extracted zero conversational
// turns. The platform name is carried for diagnosis.
type NoTurnsError struct {
	Platform detect.Platform
}

func (e *NoTurnsError) Error() string {
	return fmt.Sprintf("no conversational turns detected (platform: %s)", e.Platform)
}

// markdownParsers maps text platforms to their parser constructors.
var markdownParsers = map[detect.Platform]func() Parser{
	detect.PlatformChatGPT:  func() Parser { return newMarkdownParser(detect.PlatformChatGPT, "ChatGPT", nil) },
	detect.PlatformClaude:   func() Parser { return newMarkdownParser(detect.PlatformClaude, "Claude", nil) },
	detect.PlatformGrok:     func() Parser { return newMarkdownParser(detect.PlatformGrok, "Grok", nil) },
	detect.PlatformGemini:   func() Parser { return newMarkdownParser(detect.PlatformGemini, "Gemini", geminiThinking) },
	detect.PlatformDeepSeek: func() Parser { return newSpeakerParser(detect.PlatformDeepSeek, "DeepSeek") },
	detect.PlatformGeneric:  func() Parser { return newMarkdownParser(detect.PlatformGeneric, "", nil) },
}

// ForResult selects the parser for a detection result. Unknown text
// platforms fall back to the generic markdown parser.
func ForResult(res detect.Result) Parser {
	switch res.Kind {
	case detect.KindJSON:
		return &jsonParser{}
	case detect.KindHTML:
		return newHTMLParser(res.Platform)
	default:
		return ForPlatform(res.Platform)
	}
}

// ForPlatform returns the markdown-family parser for a platform, used when
// the caller overrides detection.
func ForPlatform(platform detect.Platform) Parser {
	if ctor, ok := markdownParsers[platform]; ok {
		return ctor()
	}
	return markdownParsers[detect.PlatformGeneric]()
}
