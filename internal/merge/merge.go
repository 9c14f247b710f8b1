// Package merge decides conversation identity and computes conflict-free
// unions of message lists. Identity is a normalized title slug; message
// equality is a role-plus-text fingerprint.
package merge

import (
	"errors"
	"regexp"
	"strings"

	"github.com/acidgreenservers/noosphere-reflect/internal/model"
)

// ErrEmptyTitle is returned when a title has no content to normalize.
var ErrEmptyTitle = errors.New("title is empty")

var (
	nonSlugRe   = regexp.MustCompile(`[^\w\s-]`)
	spaceRunRe  = regexp.MustCompile(`\s+`)
	hyphenRunRe = regexp.MustCompile(`-{2,}`)
)

// NormalizeTitle derives the identity slug for a conversation title:
// lowercase, word characters / spaces / hyphens only, whitespace runs and
// repeated hyphens collapsed to a single hyphen, outer hyphens trimmed.
// The result is stable under re-normalization.
func NormalizeTitle(title string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", ErrEmptyTitle
	}
	slug := strings.ToLower(title)
	slug = nonSlugRe.ReplaceAllString(slug, "")
	slug = spaceRunRe.ReplaceAllString(slug, "-")
	slug = hyphenRunRe.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "", ErrEmptyTitle
	}
	return slug, nil
}

// HashMessage fingerprints a message by role and whitespace-normalized
// content. IsEdited and artifacts are deliberately excluded: two messages
// with the same role and text are the same message regardless of attachment
// or edit-flag differences.
func HashMessage(m model.ChatMessage) string {
	content := spaceRunRe.ReplaceAllString(m.Content, " ")
	return string(m.Type) + ":" + strings.TrimSpace(content)
}

// Result reports what a merge did.
type Result struct {
	Messages       []model.ChatMessage
	Skipped        int
	HasNewMessages bool
}

// Messages appends the non-duplicate tail of incoming onto existing.
// Existing messages are never reordered or removed; incoming order is
// preserved. Duplicates are counted in Skipped. When HasNewMessages is
// false and Skipped is positive the caller must treat the merge as a no-op
// and persist nothing.
func Messages(existing, incoming []model.ChatMessage) Result {
	seen := make(map[string]struct{}, len(existing))
	for _, m := range existing {
		seen[HashMessage(m)] = struct{}{}
	}

	result := make([]model.ChatMessage, len(existing), len(existing)+len(incoming))
	copy(result, existing)

	skipped := 0
	appended := false
	for _, m := range incoming {
		h := HashMessage(m)
		if _, ok := seen[h]; ok {
			skipped++
			continue
		}
		seen[h] = struct{}{}
		result = append(result, m)
		appended = true
	}

	return Result{
		Messages:       result,
		Skipped:        skipped,
		HasNewMessages: appended,
	}
}

// Artifacts unions two artifact lists keyed by ID, keeping the first
// occurrence of each.
func Artifacts(existing, incoming []model.Artifact) []model.Artifact {
	seen := make(map[string]struct{}, len(existing))
	var out []model.Artifact
	for _, a := range existing {
		if _, ok := seen[a.ID]; ok {
			continue
		}
		seen[a.ID] = struct{}{}
		out = append(out, a)
	}
	for _, a := range incoming {
		if _, ok := seen[a.ID]; ok {
			continue
		}
		seen[a.ID] = struct{}{}
		out = append(out, a)
	}
	return out
}

// Tags unions two tag sets, preserving first-seen order.
func Tags(existing, incoming []string) []string {
	seen := make(map[string]struct{}, len(existing))
	var out []string
	for _, lists := range [][]string{existing, incoming} {
		for _, t := range lists {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}
