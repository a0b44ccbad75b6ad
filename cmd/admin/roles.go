package main

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"showdown/config"
	"showdown/roster"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"
)

var roleSyncDryRun bool

var competitorRoleCmd = &cobra.Command{
	Use:   "competitor-role",
	Short: "Manage the competitor role",
}

var competitorRoleSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Give the competitor role to registered players and take it from everyone else",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Cfg
		if cfg.Roles.Competitor == "" {
			return fmt.Errorf("roles.competitor is not configured")
		}
		snap, err := loadRoster(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		s, err := newSession(cfg)
		if err != nil {
			return err
		}
		res, err := syncCompetitorRole(cmd.Context(), s, cfg.GuildID, cfg.Roles.Competitor, snap, roleSyncDryRun, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %d, removed %d, %d registered players not in the guild.\n",
			res.added, res.removed, len(res.missing))
		return nil
	},
}

func init() {
	competitorRoleSyncCmd.Flags().BoolVar(&roleSyncDryRun, "dry-run", false, "print the changes without applying them")
	competitorRoleCmd.AddCommand(competitorRoleSyncCmd)
	rootCmd.AddCommand(competitorRoleCmd)
}

// guildMembers is the part of *discordgo.Session the role sync uses.
type guildMembers interface {
	GuildMembers(guildID, after string, limit int, options ...discordgo.RequestOption) ([]*discordgo.Member, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error
}

type syncResult struct {
	added   int
	removed int
	missing []string
}

const membersPage = 1000

func syncCompetitorRole(ctx context.Context, s guildMembers, guildID, roleID string, snap *roster.Snapshot, dryRun bool, out io.Writer) (syncResult, error) {
	var res syncResult
	seen := make(map[string]bool)
	after := ""
	for {
		members, err := s.GuildMembers(guildID, after, membersPage, discordgo.WithContext(ctx))
		if err != nil {
			return res, fmt.Errorf("list guild members: %w", err)
		}
		for _, m := range members {
			if m.User == nil || m.User.Bot {
				continue
			}
			_, registered := snap.Player(strings.ToLower(m.User.Username))
			hasRole := slices.Contains(m.Roles, roleID)
			if registered {
				seen[strings.ToLower(m.User.Username)] = true
			}
			switch {
			case registered && !hasRole:
				fmt.Fprintf(out, "+ %s\n", m.User.Username)
				if !dryRun {
					if err := s.GuildMemberRoleAdd(guildID, m.User.ID, roleID, discordgo.WithContext(ctx)); err != nil {
						return res, fmt.Errorf("add role to %s: %w", m.User.Username, err)
					}
				}
				res.added++
			case !registered && hasRole:
				fmt.Fprintf(out, "- %s\n", m.User.Username)
				if !dryRun {
					if err := s.GuildMemberRoleRemove(guildID, m.User.ID, roleID, discordgo.WithContext(ctx)); err != nil {
						return res, fmt.Errorf("remove role from %s: %w", m.User.Username, err)
					}
				}
				res.removed++
			}
		}
		if len(members) < membersPage {
			break
		}
		after = members[len(members)-1].User.ID
	}

	for _, p := range snap.Players() {
		if !seen[strings.ToLower(p.Username)] {
			res.missing = append(res.missing, p.Username)
		}
	}
	slices.Sort(res.missing)
	for _, name := range res.missing {
		fmt.Fprintf(out, "? %s is registered but not in the guild\n", name)
	}
	return res, nil
}
