package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dvloznov/ledger/internal/config"
	"github.com/dvloznov/ledger/internal/gcs"
	infraBQ "github.com/dvloznov/ledger/internal/infra/bigquery"
	"github.com/dvloznov/ledger/internal/ledger/inmemory"
	"github.com/dvloznov/ledger/internal/logger"
	"github.com/dvloznov/ledger/internal/pipeline"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// cliApp holds the state shared by every command of one invocation.
type cliApp struct {
	configPath string
	workers    int
	logLevel   string
	files      []string

	cfg     config.Config
	log     zerolog.Logger
	store   *inmemory.Store
	storage gcs.StorageService
}

func newRootCmd() *cobra.Command {
	app := &cliApp{}

	root := &cobra.Command{
		Use:   "ledger",
		Short: "Personal ledger: import bank CSV exports and report on them",
		Long: `ledger imports CSV transaction exports concurrently into an in-memory
ledger and reports on them. Files given with --file are loaded before the
command runs; local paths and gs:// URIs are both accepted.

Examples:
  ledger import jan.csv feb.csv
  ledger list --month 2025-01 -f jan.csv
  ledger stats yearly 2025 -f jan.csv -f feb.csv
  ledger export --format xlsx --output ledger.xlsx -f jan.csv
  ledger shell -f jan.csv`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&app.configPath, "config", "", "Path to a YAML configuration file")
	flags.IntVar(&app.workers, "workers", 0, "Number of files imported in parallel (overrides config)")
	flags.StringVar(&app.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	flags.StringArrayVarP(&app.files, "file", "f", nil, "CSV file to load before running the command (repeatable)")

	root.AddCommand(
		newImportCmd(app),
		newListCmd(app),
		newStatsCmd(app),
		newExportCmd(app),
		newCategorizeCmd(app),
		newSyncNotionCmd(app),
		newShellCmd(app),
		newVersionCmd(),
	)

	return root
}

func (a *cliApp) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("workers") {
		cfg.Import.Workers = a.workers
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Logs go to stderr so command output on stdout stays clean.
	log, err := logger.NewWithOptions(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log
	a.store = inmemory.NewStore()
	return nil
}

func (a *cliApp) close() {
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			a.log.Warn().Err(err).Msg("Failed to close storage client")
		}
	}
}

// commandContext returns a context carrying the logger that is cancelled on
// SIGINT or SIGTERM.
func (a *cliApp) commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := logger.WithContext(cmd.Context(), a.log)
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// storageFor opens a Cloud Storage client when any path is a gs:// URI.
func (a *cliApp) storageFor(ctx context.Context, paths ...string) (gcs.StorageService, error) {
	if a.storage != nil {
		return a.storage, nil
	}

	remote := false
	for _, p := range paths {
		if gcs.IsURI(p) {
			remote = true
			break
		}
	}
	if !remote {
		return nil, nil
	}

	client, err := gcs.NewClient(ctx, a.cfg.GCS.CredentialsFile)
	if err != nil {
		return nil, err
	}
	a.storage = client
	return client, nil
}

func (a *cliApp) newImporter(ctx context.Context, paths ...string) (*pipeline.Importer, error) {
	storage, err := a.storageFor(ctx, paths...)
	if err != nil {
		return nil, err
	}
	return pipeline.NewImporter(a.store, pipeline.NewRoutingSource(storage),
		pipeline.WithWorkers(a.cfg.Import.Workers)), nil
}

// load imports the --file inputs into the store.
func (a *cliApp) load(ctx context.Context) (pipeline.Result, error) {
	if len(a.files) == 0 {
		return pipeline.Result{}, nil
	}

	importer, err := a.newImporter(ctx, a.files...)
	if err != nil {
		return pipeline.Result{}, err
	}
	res := importer.ImportAll(ctx, a.files)
	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("loading input files: %w", err)
	}
	return res, nil
}

func (a *cliApp) bigQuery(ctx context.Context) (*infraBQ.TransactionRepository, error) {
	bq := a.cfg.BigQuery
	if bq.ProjectID == "" {
		return nil, fmt.Errorf("bigquery.project_id is not set (config file or GOOGLE_CLOUD_PROJECT)")
	}
	return infraBQ.NewTransactionRepository(ctx, bq.ProjectID, bq.Dataset, bq.Table, a.cfg.GCS.CredentialsFile)
}
