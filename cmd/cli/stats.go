package main

import (
	"fmt"
	"strconv"

	"github.com/dvloznov/ledger/internal/analytics"
	"github.com/dvloznov/ledger/internal/ledger/inmemory"
	"github.com/dvloznov/ledger/internal/report"
	"github.com/spf13/cobra"
)

func newStatsCmd(app *cliApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Monthly and yearly summaries",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "monthly <YYYY-MM>",
			Short: "Income, expense, net, average and top categories of a month as JSON",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, stop := app.commandContext(cmd)
				defer stop()

				if _, err := app.load(ctx); err != nil {
					return err
				}
				return report.WriteMonthlyJSON(cmd.OutOrStdout(), analytics.NewEngine(app.store).Monthly(args[0]))
			},
		},
		&cobra.Command{
			Use:   "yearly <YYYY>",
			Short: "Per-month income, expense and net of a year",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				year, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid year %q", args[0])
				}

				ctx, stop := app.commandContext(cmd)
				defer stop()

				if _, err := app.load(ctx); err != nil {
					return err
				}
				return report.WriteYearlyTable(cmd.OutOrStdout(), analytics.NewEngine(app.store).Yearly(year))
			},
		},
		&cobra.Command{
			Use:   "remote-month <YYYY-MM>",
			Short: "Monthly summary computed from the BigQuery export table",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, stop := app.commandContext(cmd)
				defer stop()

				repo, err := app.bigQuery(ctx)
				if err != nil {
					return err
				}
				defer repo.Close()

				txs, err := repo.QueryMonth(ctx, args[0])
				if err != nil {
					return err
				}

				remote := inmemory.NewStore()
				for _, tx := range txs {
					remote.Add(tx)
				}
				return report.WriteMonthlyJSON(cmd.OutOrStdout(), analytics.NewEngine(remote).Monthly(args[0]))
			},
		},
	)

	return cmd
}
