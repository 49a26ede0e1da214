package main

import (
	"fmt"

	"github.com/dvloznov/ledger/internal/analytics"
	"github.com/dvloznov/ledger/internal/report"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newListCmd(app *cliApp) *cobra.Command {
	var (
		filter    analytics.Filter
		minAmount string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List loaded transactions ordered by date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := app.commandContext(cmd)
			defer stop()

			if minAmount != "" {
				d, err := decimal.NewFromString(minAmount)
				if err != nil {
					return fmt.Errorf("invalid --min-amount %q: %w", minAmount, err)
				}
				filter.MinAmount = &d
			}

			if _, err := app.load(ctx); err != nil {
				return err
			}

			txs := analytics.NewEngine(app.store).Query(filter)
			return report.WriteTransactions(cmd.OutOrStdout(), txs)
		},
	}

	cmd.Flags().StringVar(&filter.Month, "month", "", "Only transactions in this month (YYYY-MM)")
	cmd.Flags().StringVar(&filter.Category, "category", "", "Only categories containing this text")
	cmd.Flags().StringVar(&filter.Search, "search", "", "Only payees or categories containing this text")
	cmd.Flags().StringVar(&minAmount, "min-amount", "", "Only amounts greater than or equal to this value")

	return cmd
}
