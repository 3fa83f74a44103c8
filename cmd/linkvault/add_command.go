package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var priority int

	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Save a link and schedule it for processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := ctx.client().addPost(args[0], priority)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if result.Created {
				fmt.Fprintf(out, "Saved post %d (%s)\n", result.Post.ID, result.Post.Status)
			} else {
				fmt.Fprintf(out, "Already saved as post %d; scheduled again\n", result.Post.ID)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&priority, "priority", "p", 0, "Queue priority; higher runs first")
	return cmd
}
