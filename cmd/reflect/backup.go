package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/acidgreenservers/noosphere-reflect/internal/model"
	"github.com/acidgreenservers/noosphere-reflect/internal/store"
)

func backupCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write the whole archive to a single JSON bundle",
		Args:  cobra.NoArgs,
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

			b, err := st.ExportBackup(cmd.Context())
			if err != nil {
				return fmt.Errorf("export backup: %w", err)
			}

			if out == "" {
				out = fmt.Sprintf("reflect-backup-%s.json", time.Now().Format("2006-01-02"))
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			defer f.Close()

			enc := json.NewEncoder(f)
			enc.SetIndent("", "  ")
			if err := enc.Encode(b); err != nil {
				return fmt.Errorf("write backup: %w", err)
			}

			fmt.Fprintf(os.Stderr, "Backed up %d sessions to %s\n", len(b.Sessions), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "Output file (default: reflect-backup-<date>.json)")
	return cmd
}

func restoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <backup.json>",
		Short: "Import a backup bundle into the archive",
		Long: `Restore validates the whole bundle before touching the store: a single
malformed session rejects the file. Restored sessions merge with existing
ones by title, so restoring on top of a live archive is safe.`,
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

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			if err := store.CheckDepth(raw, store.MaxJSONDepth); err != nil {
				return fmt.Errorf("reject backup: %w", err)
			}

			var b model.Backup
			if err := json.Unmarshal(raw, &b); err != nil {
				return fmt.Errorf("parse backup: %w", err)
			}

			stats, err := st.ImportBackup(cmd.Context(), &b)
			if err != nil {
				return fmt.Errorf("restore: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Done. %s\n", stats)
			return nil
		},
	}
}
