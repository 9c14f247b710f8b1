// Package search answers ranked full-text queries against the index. Title
// matches outrank body matches and every query term is prefix-expanded for
// typo tolerance.
package search

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/acidgreenservers/noosphere-reflect/internal/index"
)

const (
	// minQueryLen is the minimum query length in runes; shorter queries
	// return no results.
	minQueryLen = 2
	// maxResults caps any result set.
	maxResults = 50
	// titleWeight biases bm25 ranking toward title matches.
	titleWeight = 5.0
)

// Result is one ranked hit: a single message with its session context.
type Result struct {
	SessionID string
	DocID     int
	Title     string
	Model     string
	Role      string
	UpdatedAt string
	Snippet   string
	Rank      float64
}

// Options are the post-filters applied to hits.
type Options struct {
	Role     string    // "" = all, "prompt", "response"
	Since    time.Time // zero = no lower bound
	Until    time.Time // zero = no upper bound
	Keywords []string  // any must appear in title or model
	Limit    int
}

// Search runs a ranked query. An empty result is not an error.
func Search(ix *index.Index, query string, opts Options) ([]Result, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minQueryLen {
		return nil, nil
	}

	limit := opts.Limit
	if limit <= 0 || limit > maxResults {
		limit = maxResults
	}

	conditions := []string{"docs_fts MATCH ?"}
	args := []any{buildMatchQuery(query)}

	if opts.Role != "" {
		conditions = append(conditions, "d.role = ?")
		args = append(args, opts.Role)
	}

	// fetch extra rows so post-filtering still fills the limit
	args = append(args, limit*3)

	sqlQuery := fmt.Sprintf(`
		SELECT
			d.session_id,
			d.doc_id,
			d.title,
			d.model,
			d.role,
			d.ts,
			d.text,
			bm25(docs_fts, %.1f, 1.0) AS rank
		FROM docs_fts
		JOIN docs d ON docs_fts.rowid = d.rowid
		WHERE %s
		ORDER BY rank
		LIMIT ?`, titleWeight, strings.Join(conditions, " AND "))

	rows, err := ix.Raw().Query(sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var text string
		if err := rows.Scan(&r.SessionID, &r.DocID, &r.Title, &r.Model, &r.Role, &r.UpdatedAt, &text, &r.Rank); err != nil {
			return nil, err
		}
		if !matchesFilters(&r, opts) {
			continue
		}
		r.Snippet = makeSnippet(text, query, 30)
		results = append(results, r)
		if len(results) >= limit {
			break
		}
	}
	return results, rows.Err()
}

// buildMatchQuery quotes each term and appends the FTS5 prefix operator so
// partial and slightly-misspelled words still match on their stem.
func buildMatchQuery(query string) string {
	terms := strings.Fields(query)
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ReplaceAll(t, `"`, `""`)
		quoted = append(quoted, `"`+t+`"*`)
	}
	return strings.Join(quoted, " ")
}

func matchesFilters(r *Result, opts Options) bool {
	if !opts.Since.IsZero() || !opts.Until.IsZero() {
		ts, err := time.Parse(time.RFC3339Nano, r.UpdatedAt)
		if err != nil {
			return false
		}
		if !opts.Since.IsZero() && ts.Before(opts.Since) {
			return false
		}
		if !opts.Until.IsZero() && ts.After(opts.Until) {
			return false
		}
	}

	if len(opts.Keywords) > 0 {
		haystack := strings.ToLower(r.Title + " " + r.Model)
		found := false
		for _, kw := range opts.Keywords {
			if strings.Contains(haystack, strings.ToLower(kw)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// makeSnippet extracts a snippet centered on the first occurrence of the
// query (or its first term) in text, falling back to a content prefix when
// nothing matches directly, which can happen under prefix matching.
func makeSnippet(text, query string, contextChars int) string {
	lower := strings.ToLower(text)
	needle := strings.ToLower(query)
	idx := strings.Index(lower, needle)
	if idx < 0 {
		for _, term := range strings.Fields(needle) {
			if i := strings.Index(lower, term); i >= 0 {
				idx = i
				needle = term
				break
			}
		}
	}

	runes := []rune(text)
	if idx < 0 {
		if len(runes) > contextChars*2 {
			return string(runes[:contextChars*2]) + "..."
		}
		return text
	}

	runePos := utf8.RuneCountInString(text[:idx])
	needleLen := utf8.RuneCountInString(needle)
	start := runePos - contextChars
	if start < 0 {
		start = 0
	}
	end := runePos + needleLen + contextChars
	if end > len(runes) {
		end = len(runes)
	}

	prefix := ""
	if start > 0 {
		prefix = "..."
	}
	suffix := ""
	if end < len(runes) {
		suffix = "..."
	}

	snippet := string(runes[start:runePos]) +
		">>>" + string(runes[runePos:runePos+needleLen]) + "<<<" +
		string(runes[runePos+needleLen:end])
	return prefix + snippet + suffix
}
