package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/acidgreenservers/noosphere-reflect/internal/model"
)

// MarkdownExporter writes the "## Prompt:"/"## Response:" turn-header format
// the markdown parser family reads, closed by the attribution footer.
type MarkdownExporter struct{}

func (e *MarkdownExporter) Export(sess *model.Session, w io.Writer) error {
	data := exportData(sess)
	meta := data.Metadata

	var b strings.Builder
	if meta.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", meta.Title)
	}
	if meta.Model != "" {
		fmt.Fprintf(&b, "**Model:** %s\n", meta.Model)
	}
	if meta.Date != "" {
		fmt.Fprintf(&b, "**Date:** %s\n", meta.Date)
	}
	if meta.Author != "" {
		fmt.Fprintf(&b, "**Author:** %s\n", meta.Author)
	}
	if meta.SourceURL != "" {
		fmt.Fprintf(&b, "**Source:** %s\n", meta.SourceURL)
	}
	b.WriteString("\n")

	for _, msg := range data.Messages {
		if msg.Type == model.MessagePrompt {
			b.WriteString("## Prompt:\n")
		} else {
			b.WriteString("## Response:\n")
		}
		b.WriteString(strings.TrimSpace(msg.Content))
		b.WriteString("\n\n")
	}

	b.WriteString("---\n")
	b.WriteString(Footer + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func (e *MarkdownExporter) Extension() string {
	return "md"
}
