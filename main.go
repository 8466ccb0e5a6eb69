package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oljwatch/job-harvester/common/config"
	"github.com/oljwatch/job-harvester/common/db"
	"github.com/oljwatch/job-harvester/common/logger"
	"github.com/oljwatch/job-harvester/common/services"
	"github.com/oljwatch/job-harvester/pipeline"
	"github.com/oljwatch/job-harvester/scheduler"
	"github.com/oljwatch/job-harvester/scraper"
	"github.com/oljwatch/job-harvester/summarize"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	flagLimit         int
	flagSkipSummaries bool
)

func main() {
	root := &cobra.Command{
		Use:   "job-harvester",
		Short: "Harvests job postings, summarizes them and serves a query API",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := godotenv.Load(); err != nil {
				log.Warn().Err(err).Msg("Error loading .env file, using environment variables")
			}
			logger.Setup(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_PRETTY") == "true")
		},
	}

	harvestCmd := &cobra.Command{
		Use:   "harvest",
		Short: "Run one harvest: discover, fetch, summarize and store new jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHarvest(cmd.Context())
		},
	}
	harvestCmd.Flags().IntVar(&flagLimit, "limit", 0, "cap the number of postings processed this run (0 = all)")
	harvestCmd.Flags().BoolVar(&flagSkipSummaries, "skip-summaries", false, "skip summary generation")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the query API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Serve the query API and run harvests on a cron schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchedule(cmd.Context())
		},
	}

	root.AddCommand(harvestCmd, serveCmd, scheduleCmd)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := root.ExecuteContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}

func loadConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.LoadFromEnv()
	return cfg
}

// buildPipeline assembles the harvest pipeline from configuration. The
// returned cleanup releases the summarizer connection, if one was made.
func buildPipeline(ctx context.Context, cfg config.Config, dbConn *db.DB) (*pipeline.Pipeline, func(), error) {
	cleanup := func() {}

	var summarizer pipeline.Summarizer
	if flagSkipSummaries {
		log.Info().Msg("Summary generation disabled for this run")
	} else {
		gemini, err := summarize.NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		cleanup = func() {
			if err := gemini.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close Gemini client")
			}
		}
		summarizer = summarize.NewOrchestrator(gemini, int(cfg.Gemini.Workers), cfg.Gemini.CallTimeout)
	}

	p := pipeline.New(scraper.NewClient(cfg), services.NewJobRepository(dbConn), pipeline.Config{
		Summarizer: summarizer,
		Notifier:   pipeline.NewNotifier(cfg),
		Lock:       pipeline.NewRunLock(dbConn.Redis),
		Limit:      flagLimit,
		DelayMin:   cfg.Scraper.DelayMin,
		DelayMax:   cfg.Scraper.DelayMax,
	})
	return p, cleanup, nil
}

func runHarvest(ctx context.Context) error {
	cfg := loadConfig()

	dbConn, err := db.SetupDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	p, cleanup, err := buildPipeline(ctx, cfg, dbConn)
	if err != nil {
		return err
	}
	defer cleanup()

	stats, err := p.Run(ctx)
	if err != nil {
		return err
	}

	log.Info().
		Int("discovered", stats.Discovered).
		Int("new", stats.New).
		Int64("inserted", stats.Inserted).
		Int64("purged", stats.Purged).
		Msg("Harvest complete")
	return nil
}

func runServe(ctx context.Context) error {
	cfg := loadConfig()

	dbConn, err := db.SetupDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	return serveAPI(ctx, cfg, dbConn, nil)
}

func runSchedule(ctx context.Context) error {
	cfg := loadConfig()

	dbConn, err := db.SetupDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	p, cleanup, err := buildPipeline(ctx, cfg, dbConn)
	if err != nil {
		return err
	}
	defer cleanup()

	sched := scheduler.New(func(ctx context.Context) {
		if _, err := p.Run(ctx); err != nil {
			log.Error().Err(err).Msg("Scheduled harvest failed")
		}
	}, cfg.Scraper.Schedule)

	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	return serveAPI(ctx, cfg, dbConn, pipeline.NewRunLock(dbConn.Redis))
}

// serveAPI runs the HTTP server until ctx is cancelled, then shuts it
// down gracefully.
func serveAPI(ctx context.Context, cfg config.Config, dbConn *db.DB, lock *pipeline.RunLock) error {
	server, err := NewAppHttpServer(cfg)
	if err != nil {
		return err
	}

	server.SetDB(dbConn)
	if lock == nil {
		lock = pipeline.NewRunLock(dbConn.Redis)
	}
	server.SetRunLock(lock)
	server.setupRoute()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.start()
	}()

	log.Info().Str("address", cfg.Listen.Addr()).Msg("Server started successfully")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
		return err
	}

	log.Info().Msg("Server gracefully stopped")
	return nil
}
