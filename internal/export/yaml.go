package export

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/acidgreenservers/noosphere-reflect/internal/model"
)

// YAMLExporter writes the canonical shape as YAML for tooling that prefers
// it over JSON.
type YAMLExporter struct{}

type yamlEnvelope struct {
	ExportedWith string              `yaml:"exportedWith"`
	Messages     []model.ChatMessage `yaml:"messages"`
	Metadata     *model.ChatMetadata `yaml:"metadata,omitempty"`
}

func (e *YAMLExporter) Export(sess *model.Session, w io.Writer) error {
	data := exportData(sess)
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(yamlEnvelope{
		ExportedWith: ToolName,
		Messages:     data.Messages,
		Metadata:     data.Metadata,
	})
}

func (e *YAMLExporter) Extension() string {
	return "yaml"
}
