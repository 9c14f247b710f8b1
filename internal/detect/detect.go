// Package detect classifies raw conversation exports by encoding and, for
// textual input, by originating platform. Detection is a pure function over
// the input text: an ordered chain of independent heuristics where the first
// match wins.
package detect

import (
	"regexp"
	"strings"
)

// Kind is the raw encoding of an export.
type Kind string

const (
	KindJSON     Kind = "json"
	KindHTML     Kind = "html"
	KindMarkdown Kind = "markdown"
)

// Platform identifies the AI service an export came from.
type Platform string

const (
	PlatformChatGPT  Platform = "chatgpt"
	PlatformClaude   Platform = "claude"
	PlatformGemini   Platform = "gemini"
	PlatformGrok     Platform = "grok"
	PlatformDeepSeek Platform = "deepseek"
	PlatformGeneric  Platform = "generic"
)

// Confidence is how strongly the detector believes its guess.
type Confidence int

const (
	Low Confidence = iota
	Medium
	High
)

func (c Confidence) String() string {
	switch c {
	case High:
		return "high"
	case Medium:
		return "medium"
	default:
		return "low"
	}
}

// Result is the detector's classification. Platform is empty for non-text
// encodings whose platform is resolved by the parser itself.
type Result struct {
	Kind       Kind
	Platform   Platform
	Confidence Confidence
	Reason     string
}

// InconclusiveError reports input with no recognizable structure. Callers
// surface it as "unsupported format".
type InconclusiveError struct {
	Reason string
}

func (e *InconclusiveError) Error() string {
	return "unsupported format: " + e.Reason
}

// signature pairs a platform URL expected near the top of an export with an
// attribution phrase expected near the bottom. Both present means high
// confidence; the URL alone means medium.
type signature struct {
	platform Platform
	url      string
	footer   string
}

var signatures = []signature{
	{PlatformChatGPT, "chatgpt.com/c/", "Powered by ChatGPT Exporter"},
	{PlatformChatGPT, "chat.openai.com/", "Powered by ChatGPT Exporter"},
	{PlatformClaude, "claude.ai/chat/", "Exported from Claude"},
	{PlatformGemini, "gemini.google.com/app/", "Exported from Gemini"},
	{PlatformGrok, "grok.com/chat/", "Exported from Grok"},
}

// edgeWindow bounds how far from the start/end of the document the URL and
// footer signatures are looked for.
const edgeWindow = 800

var (
	roleHeaderRe = regexp.MustCompile(`(?mi)^#{1,4}\s*(prompt|user|human|question|you|response|ai|assistant|model|answer|chatgpt|claude|gemini|grok|bot)\b`)
	fencedRe     = regexp.MustCompile("(?m)^```")
	userLineRe   = regexp.MustCompile(`(?m)^User:\s`)
	nameLineRe   = regexp.MustCompile(`(?m)^([A-Z][A-Za-z]+):\s`)
)

// Detect classifies raw input. It has no side effects; callers may override
// the selected platform before parsing.
func Detect(raw string) (Result, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Result{}, &InconclusiveError{Reason: "empty input"}
	}

	// 1. Structured data: a leading brace or bracket.
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return Result{
			Kind:       KindJSON,
			Confidence: High,
			Reason:     "leading JSON marker",
		}, nil
	}

	// 2. HTML document markers.
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html") {
		return Result{
			Kind:       KindHTML,
			Platform:   htmlPlatform(lower),
			Confidence: High,
			Reason:     "leading HTML marker",
		}, nil
	}

	head := trimmed
	if len(head) > edgeWindow {
		head = head[:edgeWindow]
	}
	tail := trimmed
	if len(tail) > edgeWindow {
		tail = tail[len(tail)-edgeWindow:]
	}

	// 3. Platform signature pair: URL near the top, attribution phrase near
	// the bottom.
	for _, sig := range signatures {
		if !strings.Contains(head, sig.url) {
			continue
		}
		if strings.Contains(tail, sig.footer) {
			return Result{
				Kind:       KindMarkdown,
				Platform:   sig.platform,
				Confidence: High,
				Reason:     "platform URL and export footer",
			}, nil
		}
		return Result{
			Kind:       KindMarkdown,
			Platform:   sig.platform,
			Confidence: Medium,
			Reason:     "platform URL without export footer",
		}, nil
	}

	// 4. Bespoke heuristics for platforms without footer signatures.
	if p, ok := speakerLinePlatform(trimmed); ok {
		return Result{
			Kind:       KindMarkdown,
			Platform:   p,
			Confidence: Medium,
			Reason:     "speaker-prefixed line structure",
		}, nil
	}

	// 5. Generic turn structure with no platform identity.
	if roleHeaderRe.MatchString(trimmed) || fencedRe.MatchString(trimmed) {
		return Result{
			Kind:       KindMarkdown,
			Platform:   PlatformGeneric,
			Confidence: Low,
			Reason:     "generic turn markers",
		}, nil
	}

	return Result{}, &InconclusiveError{Reason: "no turn-delimiting structure found"}
}

// htmlPlatform sniffs an HTML document body for a platform hint.
func htmlPlatform(lower string) Platform {
	switch {
	case strings.Contains(lower, "chatgpt.com") || strings.Contains(lower, "chat.openai.com"):
		return PlatformChatGPT
	case strings.Contains(lower, "claude.ai"):
		return PlatformClaude
	case strings.Contains(lower, "gemini.google.com"):
		return PlatformGemini
	case strings.Contains(lower, "grok.com"):
		return PlatformGrok
	default:
		return PlatformGeneric
	}
}

// speakerLinePlatform recognizes exports structured as alternating "User:"
// and "<Name>:" line prefixes, the convention of a few platforms that emit
// no footer attribution.
func speakerLinePlatform(text string) (Platform, bool) {
	if !userLineRe.MatchString(text) {
		return "", false
	}
	for _, m := range nameLineRe.FindAllStringSubmatch(text, -1) {
		if m[1] == "DeepSeek" {
			return PlatformDeepSeek, true
		}
	}
	return "", false
}
