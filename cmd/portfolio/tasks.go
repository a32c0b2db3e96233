package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Zachkp/portfolio/internal/analytics"
	"github.com/Zachkp/portfolio/internal/bounty"
)

var seedAfterMigrate bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := openApp(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()

		if seedAfterMigrate {
			if err := a.repo.Seed(cmd.Context(), a.log); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Database %s is up to date\n", a.cfg.DatabasePath)
		return nil
	},
}

var bountySyncCmd = &cobra.Command{
	Use:   "bounty-sync",
	Short: "Refresh all active bug-bounty profiles once",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := openApp(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()

		run, err := a.syncer().Sync(cmd.Context(), bounty.TriggerCLI)
		if err != nil {
			return err
		}
		profiles, err := a.repo.ListProfiles(cmd.Context(), true)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Synced %d profiles, %d failed, in %s\n\n",
			run.Updated, run.Failed, run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PLATFORM\tUSERNAME\tREPUTATION\tBUGS\tSTATUS")
		for _, p := range profiles {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", p.Platform, p.Username, p.Reputation, p.BugsFound(), p.SyncStatus)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		sum := bounty.Summarize(profiles)
		fmt.Fprintf(out, "\nTotal: %d bugs, reputation %d, earnings $%.2f\n", sum.BugsFound, sum.Reputation, sum.Earnings)
		return nil
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete visitor data older than the retention period",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := openApp(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := analytics.Cleanup(cmd.Context(), a.repo, a.cfg.RetentionMonths, time.Now(), a.log)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d sessions older than %d months\n", n, a.cfg.RetentionMonths)
		return nil
	},
}
