package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newImportCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file> [file...]",
		Short: "Import CSV files and print the counters",
		Long: `Import reads every file concurrently, one worker per file up to --workers,
and prints "Imported: X, Duplicates: Y, Malformed: Z". Bad lines and
unreadable files are logged and skipped. Ctrl-C stops the import and prints
the counters reached so far.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := app.commandContext(cmd)
			defer stop()

			paths := append(append([]string{}, app.files...), args...)

			importer, err := app.newImporter(ctx, paths...)
			if err != nil {
				return err
			}

			res := importer.ImportAll(ctx, paths)
			fmt.Fprintln(cmd.OutOrStdout(), res.String())
			return nil
		},
	}
}
