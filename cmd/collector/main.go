// Command collector runs one validation data collection pass: it
// discovers geometry folders in the object store, matches each one to
// simulation results, and exports per-car CSV files plus a summary
// report.
//
// Usage:
//
//	collector [--car NAME] [--simulator NAME] [--check] [--verbose]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"aeroval/internal/collector"
	"aeroval/internal/config"
	"aeroval/internal/discovery"
	"aeroval/internal/export"
	"aeroval/internal/geometry"
	"aeroval/internal/results"
	"aeroval/internal/store"
	"aeroval/internal/telemetry"
)

func main() {
	carFilter := flag.String("car", "", "only process geometries for this car name (exact match)")
	simulatorFilter := flag.String("simulator", "", "only match results from this simulator")
	checkOnly := flag.Bool("check", false, "verify store connectivity and exit")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	level := parseLogLevel(cfg.LogLevel)
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})).With("run_id", uuid.NewString())
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("collector starting",
		"environment", cfg.Environment,
		"bucket", cfg.Bucket,
		"car_filter", *carFilter,
		"simulator_filter", *simulatorFilter,
	)

	var awsOpts []func(*awsconfig.LoadOptions) error
	if cfg.AWSRegion != "" {
		awsOpts = append(awsOpts, awsconfig.WithRegion(cfg.AWSRegion))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsOpts...)
	if err != nil {
		logger.Error("failed to load AWS SDK config", "error", err)
		os.Exit(1)
	}

	s3Store := store.NewS3Store(s3.NewFromConfig(awsCfg), cfg.Bucket, logger)

	var metrics collector.MetricsPublisher
	if cfg.MetricsEnabled {
		metrics = telemetry.NewPublisher(cloudwatch.NewFromConfig(awsCfg), cfg.MetricsNamespace, logger)
	}

	var sink export.Sink
	if cfg.OutputToS3 {
		sink = &export.StoreSink{Store: s3Store, Prefix: cfg.OutputPath}
	} else {
		sink = &export.LocalSink{Dir: cfg.OutputPath}
	}

	resultsExtractor := results.NewExtractor(s3Store, logger)
	resultsExtractor.SignalLength = cfg.SignalLength

	c := collector.New(
		s3Store,
		discovery.NewDiscovery(s3Store, geometry.NewExtractor(s3Store, logger), cfg.CarGroups, logger),
		results.NewMatcher(s3Store, resultsExtractor, cfg.ResultsPrefix, cfg.DefaultSimulator, *simulatorFilter, logger),
		export.NewExporter(sink, logger),
		metrics,
		collector.Options{
			GeometriesPrefix: cfg.GeometriesPrefix,
			CarFilter:        *carFilter,
			SimulatorFilter:  *simulatorFilter,
			MaxWorkers:       cfg.MaxWorkers,
		},
		logger,
	)

	if *checkOnly {
		if err := c.CheckConnection(ctx); err != nil {
			logger.Error("store connection check failed", "error", err)
			os.Exit(1)
		}
		return
	}

	summary, err := c.Run(ctx)
	if err != nil {
		logger.Error("collection run failed", "error", err)
		os.Exit(1)
	}

	logger.Info("collector finished",
		"status", summary.Status,
		"total", summary.TotalGeometries,
		"with_results", summary.WithResults,
		"without_results", summary.WithoutResults,
		"outputs", summary.OutputPaths,
	)
}

// parseLogLevel maps a configured level name to a slog level, defaulting
// to info for anything unrecognized.
func parseLogLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
