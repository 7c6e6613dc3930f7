package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"trail_catalog/internal/config"
	"trail_catalog/internal/domain"
	"trail_catalog/internal/publisher"
	"trail_catalog/internal/scheduler"
	"trail_catalog/internal/service"
	"trail_catalog/internal/source/aretrails"
	"trail_catalog/internal/storage/postgres"
)

const (
	exitOK        = 0
	exitFailure   = 1
	exitTransport = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to config file")
	csvPath := flag.String("csv", "", "override output.csv_path")
	saveRaw := flag.Bool("save-raw", false, "also dump the fetched payload as JSON")
	interval := flag.Duration("interval", 0, "override schedule.interval; 0 keeps the config value")
	flag.Parse()

	// Setup logger
	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return exitFailure
	}
	if *csvPath != "" {
		cfg.Output.CSVPath = *csvPath
	}
	if *saveRaw {
		cfg.Output.SaveRaw = true
	}
	if *interval > 0 {
		cfg.Schedule.Interval = *interval
	}

	logger = setupLogger(cfg.LogLevel)

	var (
		trailStore    service.TrailStore
		snapshotStore service.SnapshotStore
		txManager     service.TransactionManager
		pub           service.Publisher
	)

	if cfg.Database.Enabled {
		db, err := sqlx.Connect("postgres", cfg.Database.DSN())
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			return exitFailure
		}
		defer db.Close()
		logger.Info("connected to database")

		trailStore = postgres.NewTrailStore(db)
		snapshotStore = postgres.NewSnapshotStore(db)
		txManager = postgres.NewTransactionManager(db)
	}

	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
			Source:     aretrails.SourceID,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			return exitFailure
		}
		pub = rabbitMQ
	}

	source := aretrails.New(aretrails.Config{
		BaseURL:   cfg.API.BaseURL,
		NetworkID: cfg.API.NetworkID,
		Lang:      cfg.API.Lang,
		Draft:     cfg.API.Draft,
		Code:      cfg.API.Code,
		Headers:   cfg.API.Headers,
		Timeout:   cfg.API.Timeout,
	}, logger)

	reportService := service.NewReportService(
		source,
		trailStore,
		snapshotStore,
		txManager,
		pub,
		logger,
		cfg.Output,
	)
	defer func() {
		if err := reportService.Close(); err != nil {
			logger.Error("failed to close report service", "error", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Schedule.Interval <= 0 {
		runCtx, cancelRun := context.WithTimeout(ctx, cfg.Schedule.RunTimeout)
		defer cancelRun()

		result, err := reportService.Run(runCtx)
		return printOutcome(os.Stdout, result, err)
	}

	sched := scheduler.NewScheduler(reportService, cfg.Schedule.Interval, cfg.Schedule.RunTimeout,
		func(result *domain.RunResult, err error) {
			printOutcome(os.Stdout, result, err)
		}, logger)

	logger.Info("starting trail reporter",
		"source", source.Name(),
		"interval", cfg.Schedule.Interval,
	)

	if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("scheduler error", "error", err)
		return exitFailure
	}
	return exitOK
}

// printOutcome writes the dump and export confirmations with the count lines
// for a successful run, or a one-line message naming the failure, and returns
// the matching exit code.
func printOutcome(w io.Writer, result *domain.RunResult, err error) int {
	if err == nil {
		if result.RawPath != "" {
			fmt.Fprintf(w, "JSON saved successfully to '%s'.\n", result.RawPath)
		}
		_, _ = result.Report.WriteTo(w)
		fmt.Fprintf(w, "Trail items exported successfully to '%s'.\n", result.CSVPath)
		return exitOK
	}
	if errors.Is(err, aretrails.ErrTransport) {
		fmt.Fprintf(w, "Error fetching data: %v\n", err)
		return exitTransport
	}
	fmt.Fprintf(w, "Unexpected error: %v\n", err)
	return exitFailure
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stderr, opts)
	return slog.New(handler)
}
