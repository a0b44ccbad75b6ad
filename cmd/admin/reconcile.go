package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"showdown/db"
	"showdown/model"

	"github.com/spf13/cobra"
)

var (
	reconcileAll  bool
	resolveBy     string
	decisionLimit int
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Inspect and resolve backend entries that need manual reconciliation",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		return openLedger()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) { db.Close() },
}

var reconcileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List open reconciliation entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := db.ListUnreconciled(cmd.Context(), reconcileAll)
		if err != nil {
			return err
		}
		writeUnreconciled(cmd.OutOrStdout(), entries)
		return nil
	},
}

var reconcileShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one reconciliation entry including its submission token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q", args[0])
		}
		u, err := db.GetUnreconciled(cmd.Context(), id)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ID:        %d\nOperation: %s\nUser:      %s\nKind:      %s\nEntries:   %s\nCreated:   %s\nCause:     %s\nToken:     %s\n",
			u.ID, u.Operation, u.User, u.Kind, joinIDs(u.IDs), u.CreatedAt.Format(time.RFC3339), u.Cause, u.Token)
		return nil
	},
}

var reconcileResolveCmd = &cobra.Command{
	Use:   "resolve <id>",
	Short: "Mark a reconciliation entry as fixed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q", args[0])
		}
		if strings.TrimSpace(resolveBy) == "" {
			return fmt.Errorf("--by is required")
		}
		if err := db.ResolveUnreconciled(cmd.Context(), id, resolveBy); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Resolved %d.\n", id)
		return nil
	},
}

var decisionsCmd = &cobra.Command{
	Use:   "decisions",
	Short: "Show the most recent review decisions",
	RunE: func(cmd *cobra.Command, args []string) error {
		decisions, err := db.ListDecisions(cmd.Context(), decisionLimit)
		if err != nil {
			return err
		}
		writeDecisions(cmd.OutOrStdout(), decisions)
		return nil
	},
}

func init() {
	reconcileListCmd.Flags().BoolVar(&reconcileAll, "all", false, "include resolved entries")
	reconcileResolveCmd.Flags().StringVar(&resolveBy, "by", "", "who fixed the entries")
	decisionsCmd.Flags().IntVar(&decisionLimit, "limit", 20, "number of decisions to show")
	reconcileCmd.AddCommand(reconcileListCmd, reconcileShowCmd, reconcileResolveCmd, decisionsCmd)
	rootCmd.AddCommand(reconcileCmd)
}

func joinIDs(ids []model.EntryID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ",")
}

func writeUnreconciled(out io.Writer, entries []*model.Unreconciled) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "Nothing to reconcile.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tOP\tUSER\tKIND\tENTRIES\tCREATED\tRESOLVED")
	for _, u := range entries {
		resolved := "-"
		if u.ResolvedAt != nil {
			resolved = u.ResolvedBy + " " + u.ResolvedAt.Format(time.DateOnly)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			u.ID, u.Operation, u.User, u.Kind, joinIDs(u.IDs), u.CreatedAt.Format(time.DateTime), resolved)
	}
	w.Flush()
}

func writeDecisions(out io.Writer, decisions []*model.Decision) {
	if len(decisions) == 0 {
		fmt.Fprintln(out, "No decisions recorded.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tOP\tREVIEWER\tUSER\tKIND\tAPPLIED\tFAILED")
	for _, d := range decisions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			d.CreatedAt.Format(time.DateTime), d.Operation, d.Reviewer, d.User, d.Kind, joinIDs(d.Applied), joinIDs(d.Failed))
	}
	w.Flush()
}
