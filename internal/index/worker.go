package index

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/acidgreenservers/noosphere-reflect/internal/store"
)

// Stats summarizes one indexing pass.
type Stats struct {
	Scanned int
	Indexed int
	Skipped int
	Pruned  int
	Errors  int
}

func (s Stats) String() string {
	return fmt.Sprintf("scanned=%d indexed=%d skipped=%d pruned=%d errors=%d",
		s.Scanned, s.Indexed, s.Skipped, s.Pruned, s.Errors)
}

// yieldPause is the deliberate gap between sessions: it keeps a large
// backlog from starving interactive work and lets a fully-loaded session
// payload be reclaimed before the next one loads.
const yieldPause = 5 * time.Millisecond

// Sync runs one full indexing pass over the store. Sessions are loaded and
// processed one at a time; a per-session failure is logged and skipped, it
// never aborts the pass. Cancellation is honored between sessions only.
func Sync(ctx context.Context, st *store.Store, ix *Index, log zerolog.Logger) (Stats, error) {
	var stats Stats

	infos, err := st.Infos(ctx)
	if err != nil {
		return stats, fmt.Errorf("list sessions: %w", err)
	}
	stats.Scanned = len(infos)

	valid := make(map[string]struct{}, len(infos))
	for _, info := range infos {
		valid[info.ID] = struct{}{}
	}

	for _, info := range infos {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		sess, err := st.Get(ctx, info.ID)
		if err != nil {
			stats.Errors++
			log.Warn().Err(err).Str("session", info.ID).Msg("load for indexing failed")
			continue
		}
		if sess == nil {
			continue
		}

		status, err := ix.IndexIfChanged(sess)
		if err != nil {
			stats.Errors++
			log.Warn().Err(err).Str("session", info.ID).Msg("indexing failed")
			continue
		}
		if status == StatusSkipped {
			stats.Skipped++
		} else {
			stats.Indexed++
		}

		time.Sleep(yieldPause)
	}

	pruned, err := ix.Prune(valid)
	if err != nil {
		return stats, fmt.Errorf("prune: %w", err)
	}
	stats.Pruned = pruned

	return stats, nil
}

// Worker drives Sync off the main execution context: an initial pass, then
// one per interval, plus on-demand passes requested through Kick.
type Worker struct {
	store    *store.Store
	ix       *Index
	log      zerolog.Logger
	interval time.Duration

	kick   chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker creates a worker; interval <= 0 defaults to 30s.
func NewWorker(st *store.Store, ix *Index, log zerolog.Logger, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Worker{
		store:    st,
		ix:       ix,
		log:      log,
		interval: interval,
		kick:     make(chan struct{}, 1),
	}
}

// Start launches the background loop.
func (w *Worker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	w.wg.Add(1)
	go w.run(ctx)
	w.log.Info().Dur("interval", w.interval).Msg("index worker started")
}

// Stop cancels the loop and waits for it to exit. A pass in flight stops at
// its next between-session check.
func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.log.Info().Msg("index worker stopped")
}

// Kick requests an immediate pass. It never blocks; a pending request is
// enough.
func (w *Worker) Kick() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	w.pass(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.pass(ctx)
		case <-w.kick:
			w.pass(ctx)
		}
	}
}

func (w *Worker) pass(ctx context.Context) {
	stats, err := Sync(ctx, w.store, w.ix, w.log)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.log.Error().Err(err).Msg("index pass failed")
		return
	}
	if stats.Indexed > 0 || stats.Pruned > 0 || stats.Errors > 0 {
		w.log.Info().Stringer("stats", stats).Msg("index pass complete")
	}
}
