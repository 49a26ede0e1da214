package main

import (
	"fmt"

	"github.com/dvloznov/ledger/internal/categorize"
	"github.com/dvloznov/ledger/internal/export"
	"github.com/spf13/cobra"
)

func newCategorizeCmd(app *cliApp) *cobra.Command {
	var (
		output    string
		overwrite bool
	)

	cmd := &cobra.Command{
		Use:   "categorize",
		Short: "Ask Gemini to categorize Uncategorized transactions",
		Long: `Categorize sends the payees of every Uncategorized transaction to Gemini and
applies the suggested categories. Use --output to save the result, since the
ledger only lives for the duration of the command. Credentials come from
GOOGLE_API_KEY or the Vertex AI environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := app.commandContext(cmd)
			defer stop()

			if _, err := app.load(ctx); err != nil {
				return err
			}

			categorizer, err := categorize.NewGeminiCategorizer(ctx, app.cfg.Categorize.Model)
			if err != nil {
				return err
			}

			n, err := categorize.Apply(ctx, app.store, categorizer)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d records.\n", n)

			if output == "" {
				return nil
			}

			format, err := export.ParseFormat(formatFromPath(output))
			if err != nil {
				return err
			}
			storage, err := app.storageFor(ctx, output)
			if err != nil {
				return err
			}
			return export.NewExporter(storage).ExportFile(ctx, output, format, app.store.Snapshot(), overwrite)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the categorized ledger here (.csv, .json or .xlsx)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing local file")

	return cmd
}
