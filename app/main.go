package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/feed-ingest/app/api"
	"github.com/lysyi3m/feed-ingest/app/cfg"
	"github.com/lysyi3m/feed-ingest/app/database"
	"github.com/lysyi3m/feed-ingest/app/feed"
	"github.com/lysyi3m/feed-ingest/app/importer"
	"github.com/lysyi3m/feed-ingest/app/metrics"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting feed ingest server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "migration_version", version, "dirty", dirty)

	rules, err := importer.LoadRules(appCfg.RulesFile)
	if err != nil {
		slog.Error("Failed to load rewrite rules", "error", err)
		os.Exit(1)
	}

	userRepo := database.NewUserRepo(db)
	articleRepo := database.NewArticleRepo(db)

	httpClient := &http.Client{}
	recorder := metrics.NewPrometheus()
	reporter := importer.NewSlogReporter()

	fetcher := feed.NewFetcher(httpClient, reporter, recorder)
	parser := feed.NewParser(reporter, recorder)

	var extractor *feed.Extractor
	if appCfg.ExtractContent {
		extractor = feed.NewExtractor(httpClient)
	}

	rewriter := importer.NewRewriter(articleRepo, httpClient, rules, appCfg.BaseUrl)
	assembler := importer.NewAssembler(rewriter)
	replyFilter := importer.NewReplyFilter(rules)
	duplicates := importer.NewDuplicateDetector(articleRepo)

	imp := importer.NewImporter(userRepo, articleRepo, fetcher, parser, extractor,
		replyFilter, duplicates, assembler, recorder, reporter)

	scheduler := importer.NewScheduler(imp)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Import scheduler started",
		"interval", appCfg.SchedulerInterval,
		"batch_size", appCfg.BatchSize,
		"fetch_workers", appCfg.FetchWorkers,
		"parse_workers", appCfg.ParseWorkers)

	handler := api.NewHandler(userRepo, articleRepo, imp)
	server := api.NewServer(handler, appCfg.APIAccessKey, recorder.Handler())

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("HTTP server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}
