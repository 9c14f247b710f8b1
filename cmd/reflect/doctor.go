package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify paths, DBs, FTS5, and show stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			fmt.Println("=== Paths ===")
			checkFile("Store", a.cfg.StorePath)
			checkFile("Index", a.cfg.IndexPath)
			checkDir("Watch dir", a.cfg.WatchDir)

			fmt.Println("\n=== Archive ===")
			if _, err := os.Stat(a.cfg.StorePath); os.IsNotExist(err) {
				fmt.Println("  Status: NOT FOUND (run 'reflect import' first)")
				return nil
			}
			st, err := a.openStore()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			count, err := st.Count(cmd.Context())
			if err != nil {
				return fmt.Errorf("count sessions: %w", err)
			}
			fmt.Printf("  Sessions: %d\n", count)

			mems, err := st.ListMemories(cmd.Context())
			if err != nil {
				return fmt.Errorf("list memories: %w", err)
			}
			fmt.Printf("  Memories: %d\n", len(mems))

			fmt.Println("\n=== Search Index ===")
			ix, err := a.openIndex()
			if err != nil {
				return fmt.Errorf("open index: %w", err)
			}
			defer ix.Close()

			ixSessions, err := ix.SessionCount()
			if err != nil {
				return fmt.Errorf("count indexed sessions: %w", err)
			}
			docCount, err := ix.DocCount()
			if err != nil {
				return fmt.Errorf("count docs: %w", err)
			}
			fmt.Printf("  Sessions: %d\n", ixSessions)
			fmt.Printf("  Docs:     %d\n", docCount)
			if ixSessions == count {
				fmt.Println("  Status: OK (synced)")
			} else {
				fmt.Printf("  Status: BEHIND (archive=%d, index=%d; run 'reflect reindex')\n", count, ixSessions)
			}

			var ftsCount int
			err = ix.Raw().QueryRow("SELECT COUNT(*) FROM docs_fts").Scan(&ftsCount)
			if err != nil {
				fmt.Printf("  FTS5 error: %v\n", err)
			} else if ftsCount == docCount {
				fmt.Printf("  FTS5 entries: %d (synced)\n", ftsCount)
			} else {
				fmt.Printf("  FTS5 entries: %d (MISMATCH, docs=%d)\n", ftsCount, docCount)
			}

			for _, p := range []struct{ name, path string }{
				{"Store", a.cfg.StorePath},
				{"Index", a.cfg.IndexPath},
			} {
				if info, err := os.Stat(p.path); err == nil {
					fmt.Printf("\n=== %s Size: %.1f MB ===\n", p.name, float64(info.Size())/1024/1024)
				}
			}
			return nil
		},
	}
}

func checkFile(name, path string) {
	if _, err := os.Stat(path); err != nil {
		fmt.Printf("  %s: %s (NOT FOUND)\n", name, path)
	} else {
		fmt.Printf("  %s: %s (OK)\n", name, path)
	}
}

func checkDir(name, path string) {
	if info, err := os.Stat(path); err != nil {
		fmt.Printf("  %s: %s (NOT FOUND)\n", name, path)
	} else if !info.IsDir() {
		fmt.Printf("  %s: %s (NOT A DIRECTORY)\n", name, path)
	} else {
		fmt.Printf("  %s: %s (OK)\n", name, path)
	}
}
