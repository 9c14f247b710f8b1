package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/acidgreenservers/noosphere-reflect/internal/index"
	"github.com/acidgreenservers/noosphere-reflect/internal/ingest"
)

func watchCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a directory and import new exports as they appear",
		Long: `Watch a drop directory (the configured watch_dir by default) and run every
new export file through the import pipeline. The search index is refreshed
in the background. Stop with Ctrl-C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			ix, err := a.openIndex()
			if err != nil {
				return err
			}
			defer ix.Close()

			if dir == "" {
				dir = a.cfg.WatchDir
			}

			worker := index.NewWorker(st, ix, a.log, 0)
			worker.Start()
			defer worker.Stop()

			in := ingest.New(st, a.log)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return in.Watch(ctx, dir, func(r ingest.FileResult) {
				if r.Err != nil {
					fmt.Fprintf(os.Stderr, "  SKIP %s: %v\n", r.Path, r.Err)
					return
				}
				printOutcome(r.Outcome)
				worker.Kick()
			})
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory to watch (default: configured watch_dir)")
	return cmd
}
