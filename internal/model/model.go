// Package model defines the canonical conversation shapes shared by the
// detector, parsers, merge engine, store, and indexer. Every parser, no
// matter which platform or encoding it reads, produces a ChatData.
package model

import "time"

// MessageType is the role of a conversational turn.
type MessageType string

const (
	MessagePrompt   MessageType = "prompt"
	MessageResponse MessageType = "response"
)

// ExportStatus records whether a conversation has been exported to a file.
type ExportStatus string

const (
	StatusExported    ExportStatus = "exported"
	StatusNotExported ExportStatus = "not_exported"
)

// Artifact is a file attachment carried by a session or a single message.
// FileData is opaque to the core; it is stored and round-tripped as-is.
type Artifact struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	FileSize int64  `json:"fileSize"`
	FileData string `json:"fileData"`
	Hash     string `json:"hash,omitempty"`
}

// ChatMessage is one turn of a conversation.
type ChatMessage struct {
	Type      MessageType `json:"type"`
	Content   string      `json:"content"`
	IsEdited  bool        `json:"isEdited,omitempty"`
	Artifacts []Artifact  `json:"artifacts,omitempty"`
}

// ChatMetadata carries the conversation-level fields extracted by parsers.
type ChatMetadata struct {
	Title        string       `json:"title"`
	Model        string       `json:"model"`
	Date         string       `json:"date"`
	Tags         []string     `json:"tags,omitempty"`
	Author       string       `json:"author,omitempty"`
	SourceURL    string       `json:"sourceUrl,omitempty"`
	Artifacts    []Artifact   `json:"artifacts,omitempty"`
	ExportStatus ExportStatus `json:"exportStatus,omitempty"`
}

// ChatData is the canonical parser output.
type ChatData struct {
	Messages []ChatMessage `json:"messages"`
	Metadata *ChatMetadata `json:"metadata,omitempty"`
}

// Session is the persisted unit: one ChatData plus identity. NormalizedTitle
// is the merge/dedup key; at most one session may hold a given value.
type Session struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Date            string    `json:"date"`
	NormalizedTitle string    `json:"normalizedTitle"`
	Data            ChatData  `json:"data"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Title returns the metadata title when present, falling back to the legacy
// display name.
func (s *Session) Title() string {
	if s.Data.Metadata != nil && s.Data.Metadata.Title != "" {
		return s.Data.Metadata.Title
	}
	return s.Name
}

// SetTitle updates both the metadata title and the legacy display name.
func (s *Session) SetTitle(title string) {
	s.Name = title
	if s.Data.Metadata != nil {
		s.Data.Metadata.Title = title
	}
}

// AppSettings are the user settings bundled into backups.
type AppSettings struct {
	Theme         string `json:"theme,omitempty"`
	DefaultFormat string `json:"defaultFormat,omitempty"`
	LogLevel      string `json:"logLevel,omitempty"`
}

// Memory is an auxiliary note-like record carried alongside sessions.
type Memory struct {
	ID        string   `json:"id"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags,omitempty"`
	CreatedAt string   `json:"createdAt,omitempty"`
}

// Backup is the full-database bundle written by export and consumed by
// restore.
type Backup struct {
	Sessions   []Session   `json:"sessions"`
	Settings   AppSettings `json:"settings"`
	Memories   []Memory    `json:"memories"`
	Version    int         `json:"version"`
	ExportedAt string      `json:"exportedAt"`
}
