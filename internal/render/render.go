// Package render formats sessions and search results for the terminal.
package render

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/acidgreenservers/noosphere-reflect/internal/model"
	"github.com/acidgreenservers/noosphere-reflect/internal/search"
	"github.com/acidgreenservers/noosphere-reflect/internal/store"
)

var (
	stylePrompt   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	styleResponse = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	styleThought  = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Faint(true)
	styleTitle    = lipgloss.NewStyle().Bold(true)
	styleDim      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	styleHit      = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

var thoughtRe = regexp.MustCompile(`(?s)^<thought>\n(.*?)\n</thought>\n*`)

// Session renders a full conversation with role labels, thought sections
// dimmed.
func Session(sess *model.Session) string {
	var b strings.Builder

	b.WriteString(styleTitle.Render(sess.Title()) + "\n")
	if meta := sess.Data.Metadata; meta != nil {
		line := meta.Model
		if meta.Date != "" {
			line += "  " + meta.Date
		}
		if len(meta.Tags) > 0 {
			line += "  [" + strings.Join(meta.Tags, ", ") + "]"
		}
		b.WriteString(styleDim.Render(line) + "\n")
	}
	b.WriteString(styleDim.Render(fmt.Sprintf("%d messages  id=%s", len(sess.Data.Messages), sess.ID)) + "\n\n")

	for _, msg := range sess.Data.Messages {
		label := styleResponse.Render("Response")
		if msg.Type == model.MessagePrompt {
			label = stylePrompt.Render("Prompt")
		}
		b.WriteString(label + "\n")

		content := msg.Content
		if m := thoughtRe.FindStringSubmatch(content); m != nil {
			b.WriteString(indent(styleThought.Render(m[1]), "  ") + "\n")
			content = thoughtRe.ReplaceAllString(content, "")
		}
		b.WriteString(indent(strings.TrimSpace(content), "  ") + "\n\n")
	}
	return b.String()
}

// Results renders ranked search hits, one per line pair.
func Results(results []search.Result) string {
	var b strings.Builder
	for i, r := range results {
		b.WriteString(fmt.Sprintf("%s %s %s\n",
			styleDim.Render(fmt.Sprintf("%2d.", i+1)),
			styleTitle.Render(r.Title),
			styleDim.Render(fmt.Sprintf("(%s, %s)", r.Model, r.Role)),
		))
		b.WriteString("    " + HighlightSnippet(oneLine(r.Snippet)) + "\n")
	}
	return b.String()
}

// Summaries renders the session listing.
func Summaries(sums []store.Summary) string {
	var b strings.Builder
	for _, s := range sums {
		b.WriteString(fmt.Sprintf("%s  %s  %s\n",
			styleDim.Render(s.UpdatedAt.Format("2006-01-02 15:04")),
			styleTitle.Render(s.Name),
			styleDim.Render(fmt.Sprintf("%d msgs  id=%s", s.MessageCount, s.ID)),
		))
	}
	return b.String()
}

// HighlightSnippet converts the snippet hit markers into styled text.
func HighlightSnippet(s string) string {
	for {
		start := strings.Index(s, ">>>")
		end := strings.Index(s, "<<<")
		if start < 0 || end < 0 || end < start {
			return s
		}
		s = s[:start] + styleHit.Render(s[start+3:end]) + s[end+3:]
	}
}

func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\t", " ")
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
