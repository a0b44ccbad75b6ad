package main

import (
	"fmt"

	"showdown/config"
	"showdown/handler/showdown"

	"github.com/spf13/cobra"
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List submissions waiting in the approvals channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Cfg
		s, err := newSession(cfg)
		if err != nil {
			return err
		}
		surface := showdown.NewSurface(s, showdown.SurfaceConfig{
			GuildID:          cfg.GuildID,
			ApprovalsChannel: cfg.Channels.Approvals,
			LogChannel:       cfg.Channels.Log,
			ErrorChannel:     cfg.Channels.Errors,
		})
		queued, err := surface.Pending(cmd.Context())
		if err != nil {
			return fmt.Errorf("scan approvals channel: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), showdown.FormatPending(cfg.GuildID, queued))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pendingCmd)
}
