package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vertextoedge/yt-fetch/internal/service/maintenance"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent transfers from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.store == nil {
				return errors.New("journal is disabled, set journal.path")
			}
			transfers, err := a.store.Recent(limit)
			if err != nil {
				return err
			}
			stats, err := a.store.Stats()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tKIND\tMODE\tSTATUS\tATTEMPTS\tBYTES\tDURATION\tSTARTED")
			for _, t := range transfers {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
					t.ID, t.Kind, t.Mode, t.Status, t.Attempts, t.BytesWritten,
					t.Duration().Round(time.Millisecond), t.StartedAt.Format(time.DateTime))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "\n%d total, %d completed, %d failed, %d cancelled, %d bytes\n",
				stats.Total, stats.Completed, stats.Failed, stats.Cancelled, stats.Bytes)
			return err
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of transfers to show")
	cmd.AddCommand(newPruneCmd(a))
	return cmd
}

func newPruneCmd(a *app) *cobra.Command {
	var retention, staleAfter time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Fail abandoned transfers and delete old records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.store == nil {
				return errors.New("journal is disabled, set journal.path")
			}
			cfg := &maintenance.Config{
				StaleAfter: a.cfg.Journal.GetStaleAfter(),
				Retention:  a.cfg.Journal.GetRetention(),
			}
			if staleAfter > 0 {
				cfg.StaleAfter = staleAfter
			}
			if retention > 0 {
				cfg.Retention = retention
			}

			report, err := maintenance.New(cfg, a.store, a.logger).RunOnce()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d abandoned, %d pruned\n", report.Abandoned, report.Pruned)
			return err
		},
	}

	cmd.Flags().DurationVar(&retention, "retention", 0, "Override journal.retention")
	cmd.Flags().DurationVar(&staleAfter, "stale-after", 0, "Override journal.stale_after")
	return cmd
}
