package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/acidgreenservers/noosphere-reflect/internal/index"
	"github.com/acidgreenservers/noosphere-reflect/internal/render"
	"github.com/acidgreenservers/noosphere-reflect/internal/search"
)

func searchCmd() *cobra.Command {
	var role, since, until string
	var keywords []string
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search across archived conversations",
		Long: `Search the archive. Title matches rank above body matches and query terms
match on prefixes, so minor typos still find their target. With a terminal
on stdout the output is styled; piped output is TSV:
  sessionId, docId, title, model, role, snippet`,
		Args: cobra.ExactArgs(1),
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

			// refresh the index before searching so new imports are visible
			if _, err := index.Sync(cmd.Context(), st, ix, a.log); err != nil {
				a.log.Warn().Err(err).Msg("index refresh failed")
			}

			opts := search.Options{
				Role:     role,
				Keywords: keywords,
				Limit:    limit,
			}
			if since != "" {
				opts.Since, err = time.Parse("2006-01-02", since)
				if err != nil {
					return fmt.Errorf("parse --since: %w", err)
				}
			}
			if until != "" {
				opts.Until, err = time.Parse("2006-01-02", until)
				if err != nil {
					return fmt.Errorf("parse --until: %w", err)
				}
			}

			results, err := search.Search(ix, args[0], opts)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(os.Stderr, "No results found.")
				return nil
			}

			if stdoutIsTerminal() {
				fmt.Print(render.Results(results))
				return nil
			}
			for _, r := range results {
				fmt.Printf("%s\t%d\t%s\t%s\t%s\t%s\n",
					r.SessionID, r.DocID, r.Title, r.Model, r.Role, oneLineTSV(r.Snippet))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "Filter by message type (prompt/response)")
	cmd.Flags().StringVar(&since, "since", "", "Only sessions updated since date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&until, "until", "", "Only sessions updated until date (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&keywords, "keyword", nil, "Keep results whose title or model contains a keyword")
	cmd.Flags().IntVar(&limit, "limit", 50, "Max results")
	return cmd
}

func oneLineTSV(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' {
			r = ' '
		}
		out = append(out, r)
	}
	return string(out)
}
