package main

import (
	"fmt"

	"showdown/command"
	"showdown/config"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"
)

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "Manage the bot's slash commands in the guild",
}

var commandsUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Register every slash command, replacing what is there",
	RunE: func(cmd *cobra.Command, args []string) error {
		return overwriteCommands(cmd, command.AllCommands())
	},
}

var commandsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every slash command of the bot from the guild",
	RunE: func(cmd *cobra.Command, args []string) error {
		return overwriteCommands(cmd, []*discordgo.ApplicationCommand{})
	},
}

func init() {
	commandsCmd.AddCommand(commandsUpdateCmd, commandsClearCmd)
	rootCmd.AddCommand(commandsCmd)
}

func overwriteCommands(cmd *cobra.Command, cmds []*discordgo.ApplicationCommand) error {
	cfg := config.Cfg
	s, err := newSession(cfg)
	if err != nil {
		return err
	}
	appID, err := applicationID(s, cfg)
	if err != nil {
		return err
	}
	synced, err := s.ApplicationCommandBulkOverwrite(appID, cfg.GuildID, cmds, discordgo.WithContext(cmd.Context()))
	if err != nil {
		return fmt.Errorf("overwrite commands: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Synced %d commands.\n", len(synced))
	return nil
}
