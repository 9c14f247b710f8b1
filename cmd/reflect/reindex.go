package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/acidgreenservers/noosphere-reflect/internal/index"
)

func reindexCmd() *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Bring the search index up to date with the archive",
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

			if full {
				if _, err := ix.Raw().Exec("DELETE FROM indexed"); err != nil {
					return fmt.Errorf("reset index state: %w", err)
				}
			}

			stats, err := index.Sync(cmd.Context(), st, ix, a.log)
			if err != nil {
				return fmt.Errorf("reindex: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Done. %s\n", stats)
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Rebuild every session, not just changed ones")
	return cmd
}
