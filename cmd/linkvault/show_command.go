package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"linkvault/internal/api"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one post with its task, content, and media",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid post id %q", args[0])
			}
			detail, err := ctx.client().describePost(id)
			if err != nil {
				return err
			}
			renderDetail(cmd, detail)
			return nil
		},
	}
}

func renderDetail(cmd *cobra.Command, detail api.PostDetail) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Post %d: %s\n", detail.Post.ID, detail.Post.URL)
	if detail.Post.Title != "" {
		fmt.Fprintf(out, "Title:    %s\n", detail.Post.Title)
	}
	fmt.Fprintf(out, "Status:   %s\n", detail.Post.Status)
	fmt.Fprintf(out, "Task:     %s (%.0f%%)\n", detail.Task.Status, detail.Task.Progress*100)
	if detail.Task.RetryCount > 0 {
		fmt.Fprintf(out, "Retries:  %d\n", detail.Task.RetryCount)
	}
	if detail.Task.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:    %s\n", detail.Task.ErrorMessage)
	}

	if content := detail.Content; content != nil {
		if content.Summary != "" {
			fmt.Fprintf(out, "Summary:  %s\n", content.Summary)
		}
		if len(content.Labels) > 0 {
			fmt.Fprintf(out, "Labels:   %s\n", strings.Join(content.Labels, ", "))
		}
		if content.AuthorName != "" {
			fmt.Fprintf(out, "Author:   %s\n", content.AuthorName)
		}
	}

	if detail.Media.Total > 0 {
		fmt.Fprintf(out, "Media:    %d total, %d completed, %d failed, %d skipped\n",
			detail.Media.Total, detail.Media.Completed, detail.Media.Failed, detail.Media.Skipped)
	}
	if len(detail.Items) > 0 {
		rows := make([][]string, 0, len(detail.Items))
		for _, item := range detail.Items {
			size := ""
			if item.ByteSize > 0 {
				size = humanize.Bytes(uint64(item.ByteSize))
			}
			rows = append(rows, []string{
				strconv.Itoa(item.SortOrder),
				item.Type,
				item.Status,
				size,
				item.LocalPath,
			})
		}
		fmt.Fprintln(out, renderTable([]string{"#", "Type", "Status", "Size", "Path"}, rows, 0, 3))
	}
}
