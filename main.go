package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"svk-scraper/config"
	"svk-scraper/metrics"
	"svk-scraper/models"
	"svk-scraper/pipeline"
	"svk-scraper/scheduler"
	"svk-scraper/scraper/svk"
	"svk-scraper/storage"
	"svk-scraper/utils"
)

const (
	exitOK     = 0
	exitConfig = 1
	exitFetch  = 2
	exitMerge  = 3
	exitWrite  = 4
)

func main() {
	os.Exit(run())
}

func run() int {
	days := flag.Int("days", 0, "number of days to scrape (default DAYS_TO_SCRAPE)")
	startDate := flag.String("start-date", "", "newest date to scrape, YYYY-MM-DD (default: the page's current date)")
	headless := flag.Bool("headless", true, "run the browser headless")
	schedule := flag.String("schedule", "", `cron spec for repeated runs in UTC, e.g. "0 6 * * *" (default SCHEDULE; empty runs once)`)
	flag.Parse()

	boot := utils.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		boot.Error("Configuration error: %v", err)
		return exitConfig
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "headless" {
			cfg.Headless = *headless
		}
	})
	if *schedule != "" {
		cfg.Schedule = *schedule
	}

	logger, err := utils.NewLoggerWithOptions(utils.LogOptions{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogFormat,
		File:     cfg.LogFile,
	})
	if err != nil {
		boot.Error("Logger setup failed: %v", err)
		return exitConfig
	}
	defer logger.Sync()

	req := pipeline.Request{Days: cfg.DefaultDays}
	if *days > 0 {
		req.Days = *days
	} else if *days < 0 {
		logger.Error("-days must be positive, got %d", *days)
		return exitConfig
	}
	if *startDate != "" {
		d, err := time.ParseInLocation(models.DateLayout, *startDate, time.UTC)
		if err != nil {
			logger.Error("Invalid -start-date %q: expected YYYY-MM-DD", *startDate)
			return exitConfig
		}
		req.StartDate = d
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("=== SVK Power Data Scraper starting ===")
	logger.Info("Config: area %s | days %d | auto-adjust %v | headless %v | data dir %s",
		cfg.AreaCode, req.Days, cfg.AutoAdjustDays, cfg.Headless, cfg.DataDir)

	runner, cleanup, err := buildRunner(ctx, cfg, logger)
	if err != nil {
		logger.Error("Setup failed: %v", err)
		return exitConfig
	}
	defer cleanup()

	if cfg.Schedule == "" {
		_, err := runner.Run(ctx, req)
		return exitCode(err)
	}
	return runScheduled(ctx, cfg.Schedule, runner, req, logger)
}

func buildRunner(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*pipeline.Runner, func(), error) {
	raw, err := storage.NewRawSnapshotWriter(cfg.RawDir())
	if err != nil {
		return nil, nil, err
	}

	mirrors := []storage.ReadingWriter{storage.NewExcelWriter(cfg.ExcelPath())}
	if cfg.ParquetEnabled {
		mirrors = append(mirrors, storage.NewParquetWriter(cfg.ParquetPath()))
	}

	cleanup := func() {}
	var recorder pipeline.RunRecorder
	if cfg.PostgresEnabled {
		pg, err := storage.NewPostgresWriter(ctx, cfg.DSN(), cfg.AreaCode)
		if err != nil {
			logger.Error("Make sure PostgreSQL is reachable at %s:%s", cfg.PostgresHost, cfg.PostgresPort)
			return nil, nil, err
		}
		mirrors = append(mirrors, pg)
		recorder = pg
		cleanup = func() { _ = pg.Close() }
	}

	runner := pipeline.New(pipeline.Options{
		Fetcher:        svk.New(cfg, logger),
		Master:         storage.NewMasterStore(cfg.MasterPath()),
		Raw:            raw,
		Mirrors:        mirrors,
		Recorder:       recorder,
		SummaryPath:    cfg.SummaryPath(),
		Area:           cfg.AreaCode,
		AutoAdjustDays: cfg.AutoAdjustDays,
		MaxDays:        cfg.MaxDays,
		Metrics:        metrics.New(),
		MetricsPath:    cfg.MetricsTextfile,
		Logger:         logger,
	})
	return runner, cleanup, nil
}

func runScheduled(ctx context.Context, spec string, runner *pipeline.Runner, req pipeline.Request, logger *utils.Logger) int {
	cr := scheduler.New(logger)
	id, err := cr.Add(ctx, spec, func(jobCtx context.Context) {
		if _, err := runner.Run(jobCtx, req); err != nil {
			logger.Warn("Scheduled run failed (exit status would be %d), waiting for next tick", exitCode(err))
		}
	})
	if err != nil {
		logger.Error("Invalid schedule %q: %v", spec, err)
		return exitConfig
	}

	logger.Info("Schedule %q active, next run at %s UTC", spec, cr.Next(id).Format(models.DateTimeLayout))
	cr.Start()
	<-ctx.Done()
	logger.Info("Shutdown signal received, waiting for a running job to finish")
	cr.Stop()
	return exitOK
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	stage, _ := pipeline.StageOf(err)
	switch stage {
	case pipeline.StageFetch:
		return exitFetch
	case pipeline.StageMerge:
		return exitMerge
	case pipeline.StageWrite:
		return exitWrite
	default:
		return exitConfig
	}
}
