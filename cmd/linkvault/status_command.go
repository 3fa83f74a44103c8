package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

const (
	ansiGreen = "\x1b[32m"
	ansiRed   = "\x1b[31m"
	ansiReset = "\x1b[0m"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			status, err := ctx.client().status()
			if err != nil {
				return err
			}

			state := "running"
			color := ansiGreen
			if !status.Running {
				state = "stopped"
				color = ansiRed
			}
			if shouldColorize(out) {
				state = color + state + ansiReset
			}
			fmt.Fprintf(out, "Daemon:   %s (pid %d)\n", state, status.PID)
			fmt.Fprintf(out, "Queue:    %d waiting\n", status.QueueLength)
			fmt.Fprintf(out, "Database: %s\n", status.DBPath)
			fmt.Fprintf(out, "Lock:     %s\n", status.LockFilePath)
			return nil
		},
	}
}

func newGroupsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List enrichment groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := ctx.client().groups()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(result.Groups) == 0 {
				fmt.Fprintln(out, "No groups yet")
				return nil
			}
			rows := make([][]string, 0, len(result.Groups))
			for _, group := range result.Groups {
				rows = append(rows, []string{
					group.Name,
					strconv.Itoa(group.PostCount),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Group", "Posts"}, rows, 1))
			return nil
		},
	}
}
