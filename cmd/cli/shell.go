package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/dvloznov/ledger/internal/categorize"
	"github.com/dvloznov/ledger/internal/export"
	"github.com/dvloznov/ledger/internal/logger"
	"github.com/dvloznov/ledger/internal/shell"
	"github.com/spf13/cobra"
)

func newShellCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive console over the ledger",
		Long: `Shell starts an interactive console. Type 'help' for the commands.
Ctrl-C cancels the running command and returns to the prompt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logger.WithContext(cmd.Context(), app.log)

			loadCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
			_, err := app.load(loadCtx)
			stop()
			if err != nil {
				return err
			}

			// gs:// imports and exports typed at the prompt need a client up
			// front; one is opened when a bucket is configured.
			if app.cfg.GCS.Bucket != "" {
				if _, err := app.storageFor(ctx, "gs://"+app.cfg.GCS.Bucket); err != nil {
					return err
				}
			}

			importer, err := app.newImporter(ctx)
			if err != nil {
				return err
			}

			var opts []shell.Option
			if categorizer, err := categorize.NewGeminiCategorizer(ctx, app.cfg.Categorize.Model); err == nil {
				opts = append(opts, shell.WithCategorizer(categorizer))
			} else {
				app.log.Debug().Err(err).Msg("Category suggestions disabled")
			}

			router := shell.NewRouter(app.store, importer, export.NewExporter(app.storage),
				cmd.InOrStdin(), cmd.OutOrStdout(), opts...)

			return router.Run(ctx, func(parent context.Context) (context.Context, context.CancelFunc) {
				return signal.NotifyContext(parent, os.Interrupt)
			})
		},
	}
}
