package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var statuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := ctx.client().listPosts(statuses)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(result.Posts) == 0 {
				fmt.Fprintln(out, "No posts saved")
				return nil
			}
			rows := make([][]string, 0, len(result.Posts))
			for _, post := range result.Posts {
				title := post.Title
				if len(title) > 48 {
					title = title[:45] + "..."
				}
				rows = append(rows, []string{
					strconv.FormatInt(post.ID, 10),
					post.Status,
					title,
					post.URL,
				})
			}
			fmt.Fprintln(out, renderTable([]string{"ID", "Status", "Title", "URL"}, rows, 0))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Filter by post status (repeatable)")
	return cmd
}
