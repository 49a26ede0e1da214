package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/ledger/internal/config"
	"github.com/dvloznov/ledger/internal/gcs"
	"github.com/dvloznov/ledger/internal/ledger/inmemory"
	"github.com/dvloznov/ledger/internal/logger"
	"github.com/dvloznov/ledger/internal/notionsync"
	"github.com/dvloznov/ledger/internal/pipeline"
)

func main() {
	log := logger.New()

	// Parse CLI flags
	configPath := flag.String("config", "", "Path to a YAML configuration file")
	notionToken := flag.String("notion-token", "", "Notion API token (or NOTION_TOKEN)")
	notionDBID := flag.String("notion-db-id", "", "Notion database ID (or NOTION_DB_ID)")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: sync-notion [flags] <file.csv> [file.csv ...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *notionToken != "" {
		cfg.Notion.Token = *notionToken
	}
	if *notionDBID != "" {
		cfg.Notion.DatabaseID = *notionDBID
	}

	configured, err := logger.NewWithOptions(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid log settings")
	}
	log = configured

	// Validate required flags
	if flag.NArg() == 0 {
		log.Fatal().Msg("Error: at least one CSV file is required")
	}
	if cfg.Notion.Token == "" {
		log.Fatal().Msg("Error: --notion-token is required")
	}
	if cfg.Notion.DatabaseID == "" {
		log.Fatal().Msg("Error: --notion-db-id is required")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Add logger to context
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Strs("files", flag.Args()).
		Bool("dry_run", *dryRun).
		Msg("Starting Notion sync")

	var storage gcs.StorageService
	for _, path := range flag.Args() {
		if !gcs.IsURI(path) {
			continue
		}
		client, err := gcs.NewClient(ctx, cfg.GCS.CredentialsFile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create storage client")
		}
		defer client.Close()
		storage = client
		break
	}

	store := inmemory.NewStore()
	importer := pipeline.NewImporter(store, pipeline.NewRoutingSource(storage),
		pipeline.WithWorkers(cfg.Import.Workers))
	res := importer.ImportAll(ctx, flag.Args())
	if ctx.Err() != nil {
		log.Fatal().Msg("Cancelled before sync")
	}
	fmt.Println(res.String())

	// Initialize Notion client
	notionClient, err := notionsync.NewNotionClient(cfg.Notion.Token)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Notion client")
	}

	// Sync transactions
	result, err := notionsync.SyncTransactions(ctx, store.Snapshot(), notionClient, cfg.Notion.DatabaseID, *dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Printf("Created: %d, Updated: %d, Archived: %d, Failed: %d\n",
		result.Created, result.Updated, result.Archived, result.Failed)
}
