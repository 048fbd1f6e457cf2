package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"quill/internal/schedule"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	var immediate bool

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the pipeline on the configured schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			p, err := ctx.buildPipeline(runCtx)
			if err != nil {
				return err
			}
			defer p.Close()

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			scheduler := schedule.New(cfg.Schedule.Cron, p, logger)
			if err := scheduler.Start(runCtx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "quill daemon running, schedule %s\n", cfg.Schedule.Cron)

			if immediate {
				scheduler.RunNow(runCtx)
			}

			<-runCtx.Done()
			fmt.Fprintln(cmd.OutOrStdout(), "shutting down")
			scheduler.Stop()
			return nil
		},
	}

	cmd.Flags().BoolVar(&immediate, "immediate", true, "Run one pass at startup instead of waiting for the first tick")
	return cmd
}
