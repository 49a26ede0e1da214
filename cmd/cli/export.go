package main

import (
	"errors"
	"fmt"

	"github.com/dvloznov/ledger/internal/export"
	"github.com/spf13/cobra"
)

const formatBigQuery = "bigquery"

func newExportCmd(app *cliApp) *cobra.Command {
	var (
		formatName string
		output     string
		overwrite  bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the loaded transactions to a file, a gs:// URI or BigQuery",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := app.commandContext(cmd)
			defer stop()

			if _, err := app.load(ctx); err != nil {
				return err
			}
			txs := app.store.Snapshot()

			if formatName == formatBigQuery {
				repo, err := app.bigQuery(ctx)
				if err != nil {
					return err
				}
				defer repo.Close()

				runID, err := repo.ExportTransactions(ctx, txs)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d transactions to BigQuery (run %s).\n", len(txs), runID)
				return nil
			}

			format, err := export.ParseFormat(formatName)
			if err != nil {
				return err
			}
			if output == "" {
				return errors.New("--output is required")
			}

			storage, err := app.storageFor(ctx, output)
			if err != nil {
				return err
			}

			err = export.NewExporter(storage).ExportFile(ctx, output, format, txs, overwrite)
			if errors.Is(err, export.ErrExists) {
				return fmt.Errorf("%s already exists, pass --overwrite to replace it", output)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d transactions to %s.\n", len(txs), output)
			return nil
		},
	}

	cmd.Flags().StringVar(&formatName, "format", "csv", "Export format: csv, json, xlsx or bigquery")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination path or gs:// URI (not used for bigquery)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing local file")

	return cmd
}
