package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/acidgreenservers/noosphere-reflect/internal/config"
	"github.com/acidgreenservers/noosphere-reflect/internal/index"
	"github.com/acidgreenservers/noosphere-reflect/internal/logging"
	"github.com/acidgreenservers/noosphere-reflect/internal/store"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "reflect",
		Short:   "Noosphere Reflect - archive, merge, and search AI conversation exports",
		Version: version,
	}

	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(reindexCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(backupCmd())
	rootCmd.AddCommand(restoreCmd())
	rootCmd.AddCommand(doctorCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app bundles the config and logger every command starts from.
type app struct {
	cfg *config.Config
	log zerolog.Logger
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	console := term.IsTerminal(int(os.Stderr.Fd()))
	return &app{
		cfg: cfg,
		log: logging.New(cfg.LogLevel, console),
	}, nil
}

func (a *app) openStore() (*store.Store, error) {
	st, err := store.Open(a.cfg.StorePath, a.log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

func (a *app) openIndex() (*index.Index, error) {
	ix, err := index.Open(a.cfg.IndexPath, a.log)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	return ix, nil
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
