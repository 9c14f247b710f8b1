package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/acidgreenservers/noosphere-reflect/internal/export"
)

// AttributionError marks a file rejected because it lacks the Reflect
// attribution marker proving it came from this tool's own export path.
type AttributionError struct {
	Path string
}

func (e *AttributionError) Error() string {
	return fmt.Sprintf("%s: missing %s attribution marker", e.Path, export.ToolName)
}

// FileResult is the per-file outcome of a directory import.
type FileResult struct {
	Path    string
	Outcome *Outcome
	Err     error
}

// BatchStats totals a directory import.
type BatchStats struct {
	Created  int
	Merged   int
	NoChange int
	Rejected int
	Failed   int
}

func (b BatchStats) String() string {
	return fmt.Sprintf("created=%d merged=%d unchanged=%d rejected=%d failed=%d",
		b.Created, b.Merged, b.NoChange, b.Rejected, b.Failed)
}

var importExts = map[string]bool{
	".json":     true,
	".md":       true,
	".markdown": true,
	".html":     true,
}

// ImportDir ingests every export file in dir. Each file must carry the
// attribution marker; a file that fails the check (or fails to parse) is
// recorded and skipped without aborting the batch.
func (in *Ingestor) ImportDir(ctx context.Context, dir string) ([]FileResult, BatchStats, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, BatchStats{}, fmt.Errorf("read dir: %w", err)
	}

	var results []FileResult
	var stats BatchStats
	for _, entry := range entries {
		if entry.IsDir() || !importExts[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		res := in.importFile(ctx, path)
		results = append(results, res)

		switch {
		case res.Err != nil:
			if _, ok := res.Err.(*AttributionError); ok {
				stats.Rejected++
			} else {
				stats.Failed++
			}
			in.log.Warn().Err(res.Err).Str("file", path).Msg("file skipped")
		case res.Outcome.Created:
			stats.Created++
		case res.Outcome.Merged:
			stats.Merged++
		default:
			stats.NoChange++
		}
	}
	return results, stats, nil
}

func (in *Ingestor) importFile(ctx context.Context, path string) FileResult {
	raw, err := os.ReadFile(path)
	if err != nil {
		return FileResult{Path: path, Err: err}
	}
	content := string(raw)

	if err := verifyAttribution(path, content); err != nil {
		return FileResult{Path: path, Err: err}
	}

	outcome, err := in.Ingest(ctx, content, "")
	return FileResult{Path: path, Outcome: outcome, Err: err}
}

// verifyAttribution checks the format-specific marker: the tool name in a
// JSON field, the footer phrase in markdown/HTML.
func verifyAttribution(path, content string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		var probe struct {
			ExportedWith string `json:"exportedWith"`
		}
		if err := json.Unmarshal([]byte(content), &probe); err != nil || probe.ExportedWith != export.ToolName {
			return &AttributionError{Path: path}
		}
	default:
		if !strings.Contains(content, export.Footer) {
			return &AttributionError{Path: path}
		}
	}
	return nil
}
