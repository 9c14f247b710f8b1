// Package export writes sessions back out as files. Every format embeds a
// Reflect attribution marker; directory import accepts only files carrying
// one, proving they came from this tool's own export path.
package export

import (
	"fmt"
	"io"

	"github.com/acidgreenservers/noosphere-reflect/internal/model"
)

const (
	// ToolName is embedded in JSON exports.
	ToolName = "Noosphere Reflect"
	// Footer is appended to markdown exports.
	Footer = "Exported by Noosphere Reflect"
)

// Exporter writes one session in a specific format.
type Exporter interface {
	Export(sess *model.Session, w io.Writer) error
	Extension() string
}

// New returns the exporter for a format name.
func New(format string) (Exporter, error) {
	switch format {
	case "json":
		return &JSONExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: json, md, yaml)", format)
	}
}

// exportData returns a copy of the session's data with export status set.
func exportData(sess *model.Session) model.ChatData {
	data := sess.Data
	if data.Metadata != nil {
		meta := *data.Metadata
		meta.ExportStatus = model.StatusExported
		if meta.Title == "" {
			meta.Title = sess.Name
		}
		data.Metadata = &meta
	} else {
		data.Metadata = &model.ChatMetadata{
			Title:        sess.Name,
			Model:        "Unknown Model",
			Date:         sess.Date,
			ExportStatus: model.StatusExported,
		}
	}
	return data
}
