package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay gives the writing process time to finish before a dropped
// file is read.
const settleDelay = 200 * time.Millisecond

// debounceWindow suppresses the duplicate write events editors and
// downloaders emit for one file.
const debounceWindow = 2 * time.Second

// Watch ingests export files dropped into dir until ctx is done. Unlike
// directory import, watched files are fresh platform exports, so no
// attribution marker is required. onResult receives every attempt.
func (in *Ingestor) Watch(ctx context.Context, dir string, onResult func(FileResult)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}
	in.log.Info().Str("dir", dir).Msg("watching for exports")

	lastSeen := make(map[string]time.Time)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !importExts[strings.ToLower(filepath.Ext(event.Name))] {
				continue
			}
			if last, ok := lastSeen[event.Name]; ok && time.Since(last) < debounceWindow {
				continue
			}
			lastSeen[event.Name] = time.Now()

			time.Sleep(settleDelay)
			raw, err := os.ReadFile(event.Name)
			if err != nil {
				in.log.Warn().Err(err).Str("file", event.Name).Msg("read failed")
				continue
			}
			outcome, err := in.Ingest(ctx, string(raw), "")
			if onResult != nil {
				onResult(FileResult{Path: event.Name, Outcome: outcome, Err: err})
			}
			if err != nil {
				in.log.Warn().Err(err).Str("file", event.Name).Msg("ingest failed")
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			in.log.Error().Err(err).Msg("watcher error")
		}
	}
}
