package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "Show posts waiting on or moving through the pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			queue, err := ctx.client().queue()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d waiting in queue\n", queue.Waiting)
			if len(queue.Posts) == 0 {
				return nil
			}
			rows := make([][]string, 0, len(queue.Posts))
			for _, post := range queue.Posts {
				rows = append(rows, []string{
					strconv.FormatInt(post.ID, 10),
					post.Status,
					post.URL,
				})
			}
			fmt.Fprintln(out, renderTable([]string{"ID", "Status", "URL"}, rows, 0))
			return nil
		},
	}
}

func newRetryCommand(ctx *commandContext) *cobra.Command {
	var priority int

	cmd := &cobra.Command{
		Use:   "retry <id>",
		Short: "Schedule a fresh pipeline run for a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid post id %q", args[0])
			}
			if err := ctx.client().retryPost(id, priority); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Post %d queued for retry\n", id)
			return nil
		},
	}

	cmd.Flags().IntVarP(&priority, "priority", "p", 0, "Queue priority; higher runs first")
	return cmd
}
