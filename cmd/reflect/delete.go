package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func deleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <session-id|title>",
		Short: "Remove a session from the archive and the search index",
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

			if !yes {
				fmt.Fprintf(os.Stderr, "Delete %q (%d messages)? [y/N] ", sess.Name, len(sess.Data.Messages))
				line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
				if strings.ToLower(strings.TrimSpace(line)) != "y" {
					fmt.Fprintln(os.Stderr, "Aborted.")
					return nil
				}
			}

			if err := st.Delete(cmd.Context(), sess.ID); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}

			ix, err := a.openIndex()
			if err != nil {
				a.log.Warn().Err(err).Msg("open index; stale entries will be pruned on next reindex")
				return nil
			}
			defer ix.Close()
			if err := ix.DeleteSession(sess.ID); err != nil {
				a.log.Warn().Err(err).Msg("remove from index")
			}

			fmt.Fprintf(os.Stderr, "Deleted %q.\n", sess.Name)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
