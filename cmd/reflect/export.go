package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/acidgreenservers/noosphere-reflect/internal/export"
	"github.com/acidgreenservers/noosphere-reflect/internal/model"
)

func exportCmd() *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "export <session-id|title>",
		Short: "Write a session out as json, markdown, or yaml",
		Long: `Exported files carry an attribution marker, so they can be re-imported
later with 'reflect import --dir' and merged back into the archive.`,
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

			sess, err := resolveSession(cmd.Context(), st, args[0])
			if err != nil {
				return err
			}

			ex, err := export.New(format)
			if err != nil {
				return err
			}

			if out == "" {
				out = sess.NormalizedTitle + "." + ex.Extension()
			} else if info, serr := os.Stat(out); serr == nil && info.IsDir() {
				out = filepath.Join(out, sess.NormalizedTitle+"."+ex.Extension())
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			defer f.Close()

			if err := ex.Export(sess, f); err != nil {
				return fmt.Errorf("export: %w", err)
			}

			// record the export on the stored session too
			if sess.Data.Metadata != nil {
				sess.Data.Metadata.ExportStatus = model.StatusExported
				if err := st.Put(cmd.Context(), sess); err != nil {
					a.log.Warn().Err(err).Msg("update export status")
				}
			}

			fmt.Fprintf(os.Stderr, "Exported %q to %s\n", sess.Name, out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "md", "Output format (json, md, yaml)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Output file or directory (default: <title>.<ext> in cwd)")
	return cmd
}
