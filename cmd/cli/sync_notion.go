package main

import (
	"fmt"

	"github.com/dvloznov/ledger/internal/notionsync"
	"github.com/spf13/cobra"
)

func newSyncNotionCmd(app *cliApp) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "sync-notion",
		Short: "Mirror the loaded transactions into a Notion database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := app.commandContext(cmd)
			defer stop()

			if app.cfg.Notion.DatabaseID == "" {
				return fmt.Errorf("notion.database_id is not set (config file or NOTION_DB_ID)")
			}
			client, err := notionsync.NewNotionClient(app.cfg.Notion.Token)
			if err != nil {
				return err
			}

			if _, err := app.load(ctx); err != nil {
				return err
			}

			res, err := notionsync.SyncTransactions(ctx, app.store.Snapshot(), client, app.cfg.Notion.DatabaseID, dryRun)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created: %d, Updated: %d, Archived: %d, Failed: %d\n",
				res.Created, res.Updated, res.Archived, res.Failed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview changes without writing to Notion")

	return cmd
}
