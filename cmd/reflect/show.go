package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/acidgreenservers/noosphere-reflect/internal/merge"
	"github.com/acidgreenservers/noosphere-reflect/internal/model"
	"github.com/acidgreenservers/noosphere-reflect/internal/render"
	"github.com/acidgreenservers/noosphere-reflect/internal/store"
)

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id|title>",
		Short: "Print a full conversation",
		Args:  cobra.ExactArgs(1),
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

			fmt.Print(render.Session(sess))
			return nil
		},
	}
}

// resolveSession looks a session up by id first, then by normalized title.
func resolveSession(ctx context.Context, st *store.Store, ref string) (*model.Session, error) {
	sess, err := st.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		if slug, nerr := merge.NormalizeTitle(ref); nerr == nil {
			sess, err = st.GetByNormalizedTitle(ctx, slug)
			if err != nil {
				return nil, err
			}
		}
	}
	if sess == nil {
		return nil, fmt.Errorf("no session matches %q", ref)
	}
	return sess, nil
}
