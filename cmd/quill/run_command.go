package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute one pipeline pass",
		Long: "List the audio folder, transcribe every recording whose answer " +
			"cell is still empty, write the results to the sheet, and send the " +
			"run summary. Safe to re-run at any time.",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			p, err := ctx.buildPipeline(runCtx)
			if err != nil {
				return err
			}
			defer p.Close()

			run, err := p.runner.Run(runCtx)
			if err != nil {
				return err
			}
			counts := run.Counts()
			fmt.Fprintf(cmd.OutOrStdout(), "Run %s: %d transcribed, %d skipped, %d failed\n",
				run.ID, counts.Transcribed, counts.Skipped, counts.Failed)
			return nil
		},
	}
}
