package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"quill/internal/notifications"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test email notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Email.Enabled {
				fmt.Fprintln(cmd.OutOrStdout(), "Email notifications are disabled in the configuration")
				return nil
			}

			svc := notifications.NewService(cfg)
			if err := svc.Test(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	}
}
