package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/acidgreenservers/noosphere-reflect/internal/detect"
	"github.com/acidgreenservers/noosphere-reflect/internal/ingest"
)

func importCmd() *cobra.Command {
	var platform string

	cmd := &cobra.Command{
		Use:   "import <file-or-dir>",
		Short: "Import conversation exports into the archive",
		Long: `Import a single export file, or a directory of files previously exported
by reflect. Single files may be JSON, platform HTML, or markdown exports;
the format and platform are detected automatically. Directory imports only
accept files carrying the reflect attribution marker.`,
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

			in := ingest.New(st, a.log)
			ctx := cmd.Context()

			info, err := os.Stat(args[0])
			if err != nil {
				return err
			}

			if info.IsDir() {
				results, stats, err := in.ImportDir(ctx, args[0])
				if err != nil {
					return err
				}
				for _, r := range results {
					if r.Err != nil {
						fmt.Fprintf(os.Stderr, "  SKIP %s: %v\n", r.Path, r.Err)
					}
				}
				fmt.Fprintf(os.Stderr, "Done. %s\n", stats)
				return nil
			}

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			outcome, err := in.Ingest(ctx, string(raw), detect.Platform(platform))
			if err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}
			printOutcome(outcome)
			return nil
		},
	}

	cmd.Flags().StringVar(&platform, "platform", "", "Override platform detection (chatgpt/claude/gemini/grok/deepseek/generic)")
	return cmd
}

func printOutcome(o *ingest.Outcome) {
	switch {
	case o.Created:
		fmt.Printf("Created %q (%d messages, platform=%s confidence=%s)\n",
			o.Title, o.Appended, o.Platform, o.Confidence)
	case o.Merged:
		fmt.Printf("Merged into %q (+%d messages, %d duplicates skipped)\n",
			o.Title, o.Appended, o.Skipped)
	default:
		fmt.Printf("No changes for %q (%d duplicates skipped)\n", o.Title, o.Skipped)
	}
}
