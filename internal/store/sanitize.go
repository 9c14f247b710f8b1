package store

import (
	"github.com/microcosm-cc/bluemonday"

	"github.com/acidgreenservers/noosphere-reflect/internal/model"
)

// contentPolicy strips script/style elements, inline event-handler
// attributes, and javascript:/data: URL schemes from imported content. The
// normalized thought wrapper must survive sanitization, so it is allowed
// explicitly.
var contentPolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("thought")
	return p
}()

// SanitizeText cleans one piece of untrusted content.
func SanitizeText(s string) string {
	return contentPolicy.Sanitize(s)
}

// SanitizeBackup cleans all message and note content in a bundle in place.
// It runs after validation and before any write.
func SanitizeBackup(b *model.Backup) {
	for i := range b.Sessions {
		data := &b.Sessions[i].Data
		for j := range data.Messages {
			data.Messages[j].Content = SanitizeText(data.Messages[j].Content)
		}
		if data.Metadata != nil {
			data.Metadata.Title = SanitizeText(data.Metadata.Title)
		}
	}
	for i := range b.Memories {
		b.Memories[i].Content = SanitizeText(b.Memories[i].Content)
	}
}
