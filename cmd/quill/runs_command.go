package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"quill/internal/runlog"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent run history",
		RunE: func(cmd *cobra.Command, args []string) error {
			history, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer history.Close()

			runs, err := history.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.ID,
					run.StartedAt.Local().Format(time.DateTime),
					formatDuration(run),
					run.Outcome,
					strconv.Itoa(run.Transcribed),
					strconv.Itoa(run.Skipped),
					strconv.Itoa(run.Failed),
				})
			}
			out := renderTable(
				[]string{"ID", "Started", "Duration", "Outcome", "Transcribed", "Skipped", "Failed"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignRight, alignRight},
			)
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")

	cmd.AddCommand(newRunsShowCommand(ctx))
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the per-item records of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			history, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer history.Close()

			items, err := history.RunItems(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No items recorded for run %s\n", args[0])
				return nil
			}

			rows := make([][]string, 0, len(items))
			for _, item := range items {
				rows = append(rows, []string{item.EntryID, item.Slot, item.Status, item.Detail})
			}
			out := renderTable(
				[]string{"Entry", "Slot", "Status", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			)
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func formatDuration(run runlog.RunRow) string {
	if run.FinishedAt.IsZero() || run.StartedAt.IsZero() {
		return "-"
	}
	d := run.FinishedAt.Sub(run.StartedAt).Round(time.Second)
	if d < 0 {
		return "-"
	}
	return d.String()
}
