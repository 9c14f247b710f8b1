package store

import (
	"fmt"

	"github.com/acidgreenservers/noosphere-reflect/internal/model"
)

// BackupVersion stamps exported bundles. Imports accept anything from 1 up
// to the current version.
const BackupVersion = 3

// Ceilings applied to imported bundles. Anything over these is treated as a
// malformed or hostile payload and the whole bundle is rejected.
const (
	maxSessions   = 50000
	maxMemories   = 10000
	maxMessages   = 20000
	maxArtifacts  = 256
	maxTags       = 64
	maxTitleLen   = 1024
	maxFieldLen   = 4096
	maxContentLen = 4 << 20
)

// MaxJSONDepth bounds the nesting of a backup file before decoding.
const MaxJSONDepth = 48

// ValidationError is a field-path-qualified schema violation. One violation
// fails the entire bundle; nothing is partially imported.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed at %s: %s", e.Field, e.Reason)
}

// CheckDepth rejects JSON whose nesting exceeds max before it is decoded,
// blocking pathological payloads. String contents are skipped.
func CheckDepth(data []byte, max int) error {
	depth := 0
	inString := false
	escaped := false
	for _, b := range data {
		if inString {
			switch {
			case escaped:
				escaped = false
			case b == '\\':
				escaped = true
			case b == '"':
				inString = false
			}
			continue
		}
		switch b {
		case '"':
			inString = true
		case '{', '[':
			depth++
			if depth > max {
				return &ValidationError{Field: "$", Reason: fmt.Sprintf("nesting depth exceeds %d", max)}
			}
		case '}', ']':
			depth--
		}
	}
	return nil
}

// ValidateBackup checks a decoded bundle against the schema ceilings and
// enum memberships.
func ValidateBackup(b *model.Backup) error {
	if b.Version < 1 || b.Version > BackupVersion {
		return &ValidationError{Field: "version", Reason: fmt.Sprintf("unsupported version %d", b.Version)}
	}
	if len(b.Sessions) > maxSessions {
		return &ValidationError{Field: "sessions", Reason: fmt.Sprintf("more than %d entries", maxSessions)}
	}
	if len(b.Memories) > maxMemories {
		return &ValidationError{Field: "memories", Reason: fmt.Sprintf("more than %d entries", maxMemories)}
	}

	for i := range b.Sessions {
		if err := validateSession(fmt.Sprintf("sessions[%d]", i), &b.Sessions[i]); err != nil {
			return err
		}
	}
	for i, m := range b.Memories {
		if len(m.Content) > maxContentLen {
			return &ValidationError{Field: fmt.Sprintf("memories[%d].content", i), Reason: "exceeds maximum length"}
		}
		if len(m.Tags) > maxTags {
			return &ValidationError{Field: fmt.Sprintf("memories[%d].tags", i), Reason: fmt.Sprintf("more than %d entries", maxTags)}
		}
	}
	return nil
}

func validateSession(path string, sess *model.Session) error {
	if len(sess.Name) > maxTitleLen {
		return &ValidationError{Field: path + ".name", Reason: "exceeds maximum length"}
	}
	if len(sess.Data.Messages) > maxMessages {
		return &ValidationError{Field: path + ".data.messages", Reason: fmt.Sprintf("more than %d entries", maxMessages)}
	}

	for i, msg := range sess.Data.Messages {
		mpath := fmt.Sprintf("%s.data.messages[%d]", path, i)
		switch msg.Type {
		case model.MessagePrompt, model.MessageResponse:
		default:
			return &ValidationError{Field: mpath + ".type", Reason: fmt.Sprintf("unknown type %q", msg.Type)}
		}
		if len(msg.Content) > maxContentLen {
			return &ValidationError{Field: mpath + ".content", Reason: "exceeds maximum length"}
		}
		if len(msg.Artifacts) > maxArtifacts {
			return &ValidationError{Field: mpath + ".artifacts", Reason: fmt.Sprintf("more than %d entries", maxArtifacts)}
		}
	}

	if meta := sess.Data.Metadata; meta != nil {
		mpath := path + ".metadata"
		if len(meta.Title) > maxTitleLen {
			return &ValidationError{Field: mpath + ".title", Reason: "exceeds maximum length"}
		}
		for _, f := range []struct{ name, val string }{
			{"model", meta.Model},
			{"date", meta.Date},
			{"author", meta.Author},
			{"sourceUrl", meta.SourceURL},
		} {
			if len(f.val) > maxFieldLen {
				return &ValidationError{Field: mpath + "." + f.name, Reason: "exceeds maximum length"}
			}
		}
		if len(meta.Tags) > maxTags {
			return &ValidationError{Field: mpath + ".tags", Reason: fmt.Sprintf("more than %d entries", maxTags)}
		}
		if len(meta.Artifacts) > maxArtifacts {
			return &ValidationError{Field: mpath + ".artifacts", Reason: fmt.Sprintf("more than %d entries", maxArtifacts)}
		}
		switch meta.ExportStatus {
		case "", model.StatusExported, model.StatusNotExported:
		default:
			return &ValidationError{Field: mpath + ".exportStatus", Reason: fmt.Sprintf("unknown status %q", meta.ExportStatus)}
		}
	}
	return nil
}
