// Package ingest orchestrates the import path: detect the format, parse
// into the canonical shape, reconcile against any session sharing the same
// title identity, and write through the store.
package ingest

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/acidgreenservers/noosphere-reflect/internal/detect"
	"github.com/acidgreenservers/noosphere-reflect/internal/merge"
	"github.com/acidgreenservers/noosphere-reflect/internal/model"
	"github.com/acidgreenservers/noosphere-reflect/internal/parse"
	"github.com/acidgreenservers/noosphere-reflect/internal/store"
)

const untitledName = "Untitled Conversation"

// Ingestor runs the import pipeline against one store.
type Ingestor struct {
	store *store.Store
	log   zerolog.Logger
}

func New(st *store.Store, log zerolog.Logger) *Ingestor {
	return &Ingestor{store: st, log: log}
}

// Outcome reports what one ingest did.
type Outcome struct {
	SessionID  string
	Title      string
	Platform   detect.Platform
	Confidence detect.Confidence
	Created    bool
	Merged     bool
	NoChange   bool
	Appended   int
	Skipped    int
}

// Ingest processes one raw export. A non-empty override platform bypasses
// the detector's platform choice but not its encoding classification.
// Detection and parse failures surface to the caller; nothing partial is
// stored.
func (in *Ingestor) Ingest(ctx context.Context, raw string, override detect.Platform) (*Outcome, error) {
	res, err := detect.Detect(raw)
	if err != nil {
		return nil, err
	}
	if override != "" {
		res.Platform = override
	}

	parser := parse.ForResult(res)
	data, err := parser.Parse(raw)
	if err != nil {
		return nil, err
	}

	title := conversationTitle(data)
	slug, err := merge.NormalizeTitle(title)
	if err != nil {
		title = untitledName
		slug, _ = merge.NormalizeTitle(title)
	}

	outcome := &Outcome{
		Title:      title,
		Platform:   res.Platform,
		Confidence: res.Confidence,
	}

	existing, err := in.store.GetByNormalizedTitle(ctx, slug)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if existing == nil {
		sess := &model.Session{
			ID:              uuid.NewString(),
			Name:            title,
			Date:            sessionDate(data, now),
			NormalizedTitle: slug,
			Data:            *data,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := in.store.Put(ctx, sess); err != nil {
			return nil, err
		}
		outcome.SessionID = sess.ID
		outcome.Created = true
		outcome.Appended = len(data.Messages)
		in.log.Info().Str("session", sess.ID).Str("title", title).
			Stringer("confidence", res.Confidence).Msg("session created")
		return outcome, nil
	}

	r := merge.Messages(existing.Data.Messages, data.Messages)
	outcome.SessionID = existing.ID
	outcome.Skipped = r.Skipped

	if !r.HasNewMessages {
		// everything incoming was already present; the stored session must
		// stay byte-identical
		outcome.NoChange = true
		in.log.Debug().Str("session", existing.ID).Int("skipped", r.Skipped).
			Msg("merge was a no-op")
		return outcome, nil
	}

	existing.Data.Messages = r.Messages
	mergeMetadata(existing, data)
	existing.UpdatedAt = now

	if err := in.store.Put(ctx, existing); err != nil {
		return nil, err
	}
	outcome.Merged = true
	outcome.Appended = len(data.Messages) - r.Skipped
	in.log.Info().Str("session", existing.ID).Int("appended", outcome.Appended).
		Int("skipped", r.Skipped).Msg("session merged")
	return outcome, nil
}

func mergeMetadata(existing *model.Session, incoming *model.ChatData) {
	if incoming.Metadata == nil {
		return
	}
	if existing.Data.Metadata == nil {
		existing.Data.Metadata = incoming.Metadata
		return
	}
	em, im := existing.Data.Metadata, incoming.Metadata
	em.Tags = merge.Tags(em.Tags, im.Tags)
	em.Artifacts = merge.Artifacts(em.Artifacts, im.Artifacts)
	if em.SourceURL == "" {
		em.SourceURL = im.SourceURL
	}
	if em.Author == "" {
		em.Author = im.Author
	}
}

// conversationTitle prefers the parsed metadata title, then the opening of
// the first prompt, then a fixed fallback.
func conversationTitle(data *model.ChatData) string {
	if data.Metadata != nil && strings.TrimSpace(data.Metadata.Title) != "" {
		return strings.TrimSpace(data.Metadata.Title)
	}
	for _, msg := range data.Messages {
		if msg.Type != model.MessagePrompt {
			continue
		}
		line := strings.TrimSpace(strings.SplitN(msg.Content, "\n", 2)[0])
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) > 60 {
			line = string([]rune(line)[:60])
		}
		return line
	}
	return untitledName
}

func sessionDate(data *model.ChatData, now time.Time) string {
	if data.Metadata != nil && data.Metadata.Date != "" {
		return data.Metadata.Date
	}
	return now.Format("2006-01-02")
}
