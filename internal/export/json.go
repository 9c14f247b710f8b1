package export

import (
	"encoding/json"
	"io"

	"github.com/acidgreenservers/noosphere-reflect/internal/model"
)

// JSONExporter writes the canonical ChatData shape wrapped with the tool
// attribution field. The wrapper stays parseable by the JSON parser, so
// exported files round-trip through import.
type JSONExporter struct{}

type jsonEnvelope struct {
	ExportedWith string              `json:"exportedWith"`
	Messages     []model.ChatMessage `json:"messages"`
	Metadata     *model.ChatMetadata `json:"metadata,omitempty"`
}

func (e *JSONExporter) Export(sess *model.Session, w io.Writer) error {
	data := exportData(sess)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonEnvelope{
		ExportedWith: ToolName,
		Messages:     data.Messages,
		Metadata:     data.Metadata,
	})
}

func (e *JSONExporter) Extension() string {
	return "json"
}
