package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/ledger/internal/api"
	"github.com/dvloznov/ledger/internal/config"
	"github.com/dvloznov/ledger/internal/gcs"
	"github.com/dvloznov/ledger/internal/ledger/inmemory"
	"github.com/dvloznov/ledger/internal/logger"
	"github.com/dvloznov/ledger/internal/pipeline"
)

type fileList []string

func (f *fileList) String() string     { return "" }
func (f *fileList) Set(v string) error { *f = append(*f, v); return nil }

func main() {
	// Parse command-line flags
	var files fileList
	var (
		configPath = flag.String("config", "", "Path to a YAML configuration file")
		port       = flag.String("port", "", "HTTP server port (overrides config)")
	)
	flag.Var(&files, "file", "CSV file to import at startup (repeatable)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *port != "" {
		cfg.HTTP.Port = *port
	}

	log, err := logger.NewWithOptions(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to create logger")
	}

	ctx := logger.WithContext(context.Background(), log)

	// Cloud Storage is only needed for gs:// imports.
	var storage gcs.StorageService
	if cfg.GCS.Bucket != "" {
		client, err := gcs.NewClient(ctx, cfg.GCS.CredentialsFile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create storage client")
		}
		defer client.Close()
		storage = client
	} else {
		log.Warn().Msg("No GCS bucket configured - gs:// imports will be rejected")
	}

	store := inmemory.NewStore()
	importer := pipeline.NewImporter(store, pipeline.NewRoutingSource(storage),
		pipeline.WithWorkers(cfg.Import.Workers))

	if len(files) > 0 {
		startupCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		res := importer.ImportAll(startupCtx, files)
		stop()
		log.Info().Int64("imported", res.Imported).Msg("Startup import finished")
	}

	server := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      api.NewRouter(store, importer, log),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.HTTP.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown; in-flight imports finish or are cancelled with their requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
