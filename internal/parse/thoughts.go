package parse

import (
	"regexp"
	"strings"
)

// Thought sections arrive in several source notations: an XML-style wrapper,
// a fenced "thought" code block, or (on Gemini) a leading thinking
// blockquote. All are normalized to the same wrapper, spliced back as a
// prefix of the visible content, so downstream rendering treats thoughts
// uniformly.

const (
	thoughtOpen  = "<thought>"
	thoughtClose = "</thought>"
)

var (
	thoughtXMLRe   = regexp.MustCompile(`(?s)<(?:thought|thinking)>\s*(.*?)\s*</(?:thought|thinking)>`)
	thoughtFenceRe = regexp.MustCompile("(?s)```(?:thought|thinking)[ \\t]*\\n(.*?)\\n?```")
	geminiCueRe    = regexp.MustCompile(`(?i)^>\s*(show\s+)?thinking\b`)
)

func wrapThought(thought string) string {
	return thoughtOpen + "\n" + thought + "\n" + thoughtClose
}

// normalizeThoughts strips the first thought section found in a response
// body and re-splices it, normalized, ahead of the remaining content.
func normalizeThoughts(content string) string {
	for _, re := range []*regexp.Regexp{thoughtXMLRe, thoughtFenceRe} {
		loc := re.FindStringSubmatchIndex(content)
		if loc == nil {
			continue
		}
		thought := strings.TrimSpace(content[loc[2]:loc[3]])
		visible := strings.TrimSpace(content[:loc[0]] + content[loc[1]:])
		if thought == "" {
			return visible
		}
		if visible == "" {
			return wrapThought(thought)
		}
		return wrapThought(thought) + "\n\n" + visible
	}
	return content
}

// geminiThinking translates Gemini's native convention, a leading blockquote
// opened by a "Thinking" cue line, into the normalized thought wrapper.
func geminiThinking(content string) string {
	lines := strings.Split(content, "\n")
	if len(lines) == 0 || !geminiCueRe.MatchString(lines[0]) {
		return content
	}

	var thought []string
	rest := len(lines)
	for i := 1; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(trimmed, ">") {
			rest = i
			break
		}
		thought = append(thought, strings.TrimSpace(strings.TrimPrefix(trimmed, ">")))
		rest = i + 1
	}

	visible := strings.TrimSpace(strings.Join(lines[rest:], "\n"))
	thoughtText := strings.TrimSpace(strings.Join(thought, "\n"))
	if thoughtText == "" {
		return visible
	}
	if visible == "" {
		return wrapThought(thoughtText)
	}
	return wrapThought(thoughtText) + "\n\n" + visible
}
