// wabatch dispatches a CSV of WhatsApp Cloud API messages: templates and
// interactive CTAs, sequentially or through a rate-limited worker pool.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kursadbilgin/wabatch/internal/batch"
	"github.com/kursadbilgin/wabatch/internal/client"
	"github.com/kursadbilgin/wabatch/internal/config"
	"github.com/kursadbilgin/wabatch/internal/domain"
	"github.com/kursadbilgin/wabatch/internal/infra/postgresql"
	"github.com/kursadbilgin/wabatch/internal/infra/postgresql/migrations"
	infraredis "github.com/kursadbilgin/wabatch/internal/infra/redis"
	"github.com/kursadbilgin/wabatch/internal/mediacache"
	"github.com/kursadbilgin/wabatch/internal/observability"
	"github.com/kursadbilgin/wabatch/internal/outcome"
	"github.com/kursadbilgin/wabatch/internal/processor"
	"github.com/kursadbilgin/wabatch/internal/progress"
	"github.com/kursadbilgin/wabatch/internal/repository"
	"github.com/kursadbilgin/wabatch/internal/source"
	"github.com/kursadbilgin/wabatch/internal/statusserver"
)

const progressQueue = "wabatch.progress"

func main() {
	var (
		inputPath  = flag.String("input", "", "path to the input CSV (required)")
		dryRun     = flag.Bool("dry-run", false, "build and log payloads without sending")
		concurrent = flag.Bool("concurrent", false, "dispatch through the worker pool")
		rate       = flag.Int("rate", 0, "messages per second ceiling (default from RATE_PER_SEC)")
		workers    = flag.Int("workers", 0, "worker pool size, 0 derives from rate")
		delayMS    = flag.Int("delay-ms", -1, "pause after each delivery in ms (default from DELAY_MS)")
		maxRows    = flag.Int("max", 0, "cap on rows read from the input, 0 for all")
		outPath    = flag.String("out", "", "outcome log path, default logs/out_<unix>.jsonl")
	)
	flag.Parse()

	if *inputPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger, runParams{
		inputPath:  *inputPath,
		outPath:    *outPath,
		dryRun:     *dryRun,
		concurrent: *concurrent,
		rate:       *rate,
		workers:    *workers,
		delayMS:    *delayMS,
		maxRows:    *maxRows,
	}); err != nil {
		logger.Fatal("batch dispatch failed", zap.Error(err))
	}
}

type runParams struct {
	inputPath  string
	outPath    string
	dryRun     bool
	concurrent bool
	rate       int
	workers    int
	delayMS    int
	maxRows    int
}

func run(cfg *config.Config, logger *zap.Logger, params runParams) error {
	batchID := uuid.NewString()
	ctx := observability.WithBatchID(context.Background(), batchID)
	logger = observability.WithContextLogger(logger, ctx)

	if !params.dryRun {
		if err := cfg.ValidateForSend(); err != nil {
			return err
		}
	}

	rows, err := source.ReadCSV(params.inputPath, params.maxRows)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("input %s has no rows", params.inputPath)
	}

	opts := batch.Options{
		DryRun:     params.dryRun,
		Concurrent: params.concurrent,
		Rate:       cfg.RatePerSec,
		Workers:    cfg.Workers,
		Delay:      cfg.Delay(),
	}
	if params.rate > 0 {
		opts.Rate = params.rate
	}
	if params.workers > 0 {
		opts.Workers = params.workers
	}
	if params.delayMS >= 0 {
		opts.Delay = time.Duration(params.delayMS) * time.Millisecond
	}

	metrics := observability.NewMetrics()

	cache, closeCache, err := newMediaCache(cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	waClient, err := client.New(client.Config{
		Token:         cfg.WhatsAppToken,
		PhoneNumberID: cfg.WhatsAppPhoneNumberID,
		APIVersion:    cfg.WhatsAppAPIVersion,
		BaseURL:       cfg.WhatsAppBaseURL,
	}, cache)
	if err != nil {
		return err
	}
	waClient.SetMetrics(metrics)

	outPath := params.outPath
	if outPath == "" {
		if err := os.MkdirAll(cfg.OutcomeDir, 0o755); err != nil {
			return fmt.Errorf("failed to create outcome dir: %w", err)
		}
		outPath = filepath.Join(cfg.OutcomeDir, fmt.Sprintf("out_%d.jsonl", time.Now().Unix()))
	}
	outcomeLog, err := outcome.Open(outPath)
	if err != nil {
		return err
	}

	observers := []progress.Observer{consoleObserver(len(rows))}

	if cfg.ProgressAMQPURL != "" {
		publisher, err := progress.NewAMQPPublisher(cfg.ProgressAMQPURL, progressQueue, logger)
		if err != nil {
			return err
		}
		defer publisher.Close()
		observers = append(observers, publisher.Observer())
	}

	ctrl := batch.NewControl()

	if cfg.StatusAddr != "" {
		server := statusserver.New(ctrl, metrics, logger)
		observers = append(observers, server.Observer())
		go func() {
			if err := server.Listen(cfg.StatusAddr); err != nil {
				logger.Error("status server stopped", zap.Error(err))
			}
		}()
		defer server.Shutdown() //nolint:errcheck
	}

	var runRepo repository.RunRepository
	if cfg.DatabaseDSN != "" {
		db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
		if err != nil {
			return err
		}
		if err := migrations.Migrate(db); err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		runRepo = repository.NewGormRunRepo(db)
	}

	dispatcher, err := batch.NewDispatcher(
		processor.New(waClient),
		waClient,
		nil,
		outcomeLog,
		opts,
		logger,
	)
	if err != nil {
		return err
	}
	dispatcher.SetMetrics(metrics)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go handleSignals(ctrl, cancel, logger)

	result, err := dispatcher.Run(ctx, rows, progress.MultiObserver(observers...), ctrl)
	if err != nil {
		return err
	}

	if runRepo != nil {
		saveCtx, saveCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer saveCancel()
		if err := runRepo.Create(saveCtx, batchID, params.inputPath, params.concurrent, result); err != nil {
			logger.Warn("failed to persist run history", zap.Error(err))
		}
	}

	printSummary(result, outPath)
	return nil
}

func newMediaCache(cfg *config.Config, logger *zap.Logger) (mediacache.Cache, func(), error) {
	if cfg.RedisURL != "" {
		rdb, err := infraredis.NewRedis(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		cache, err := mediacache.NewRedisCache(rdb, 0)
		if err != nil {
			rdb.Close()
			return nil, nil, err
		}
		logger.Info("using redis media cache")
		return cache, func() { rdb.Close() }, nil
	}

	cache, err := mediacache.NewFileCache(cfg.MediaCachePath)
	if err != nil {
		return nil, nil, err
	}
	return cache, func() {}, nil
}

// handleSignals turns the first interrupt into a cooperative cancel and the
// second into a hard context cancellation.
func handleSignals(ctrl *batch.Control, cancel context.CancelFunc, logger *zap.Logger) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	<-sigCh
	logger.Warn("interrupt received, finishing in-flight rows")
	ctrl.Cancel()

	<-sigCh
	logger.Warn("second interrupt, aborting")
	cancel()
}

func consoleObserver(total int) progress.Observer {
	return func(snap domain.ProgressSnapshot) {
		line := fmt.Sprintf("[%d/%d] %s %s", snap.Index, total, snap.Phone, snap.Status)
		if snap.Message != "" {
			line += " " + snap.Message
		}
		fmt.Println(line)
	}
}

func printSummary(result domain.BatchResult, outPath string) {
	mode := "live"
	if result.DryRun {
		mode = "dry-run"
	}
	suffix := ""
	if result.Aborted {
		suffix = " (aborted)"
	}
	fmt.Printf("done%s: mode=%s sent=%d skipped=%d errors=%d elapsed=%.1fs rate=%.1f msg/s log=%s\n",
		suffix, mode, result.Sent, result.Skipped, result.Errors,
		result.Elapsed().Seconds(), result.Rate(), outPath)
}
