package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/acidgreenservers/noosphere-reflect/internal/render"
)

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List archived sessions sorted by update time",
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

			sums, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(sums) == 0 {
				fmt.Println("No sessions archived yet. Run 'reflect import <file>' first.")
				return nil
			}

			if stdoutIsTerminal() {
				fmt.Print(render.Summaries(sums))
				return nil
			}
			for _, s := range sums {
				fmt.Printf("%s\t%s\t%d\t%s\n", s.ID, s.Name, s.MessageCount, s.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}
