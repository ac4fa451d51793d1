// Package collector orchestrates one end-to-end validation collection
// run: discovery of geometry records, result matching, CSV export, and
// the summary report, in that strict order.
package collector

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"aeroval/internal/telemetry"
	"aeroval/internal/types"
)

// Run status values reported in the Summary.
const (
	StatusOK           = "ok"
	StatusNoGeometries = "no_geometries"
)

// Discoverer builds the initial record set from the geometries namespace.
type Discoverer interface {
	DiscoverAll(ctx context.Context, geometriesPrefix string, carFilter string) ([]*types.SimulationRecord, error)
}

// RecordMatcher links one record to its results folder and extracts the
// result payload onto it.
type RecordMatcher interface {
	MatchAndExtract(ctx context.Context, rec *types.SimulationRecord) error
}

// Exporter renders the collected records into output artifacts.
type Exporter interface {
	ExportCSV(ctx context.Context, records []*types.SimulationRecord) ([]string, error)
	ExportReport(ctx context.Context, records []*types.SimulationRecord) (string, error)
}

// MetricsPublisher emits run telemetry. Publishing is best-effort.
type MetricsPublisher interface {
	PublishRun(ctx context.Context, m telemetry.RunMetrics)
}

// FolderLister is the store surface used by the connection check.
type FolderLister interface {
	ListFolders(ctx context.Context, prefix string) ([]string, error)
}

// Options scope a single collection run.
type Options struct {
	GeometriesPrefix string

	// CarFilter keeps only records whose car name matches exactly; empty
	// keeps all cars.
	CarFilter string

	// SimulatorFilter is recorded in telemetry; the matcher itself is
	// already constructed for it.
	SimulatorFilter string

	// MaxWorkers bounds matching parallelism. Values below 1 are treated
	// as 1.
	MaxWorkers int
}

// Summary is the outcome of one collection run.
type Summary struct {
	Status          string
	TotalGeometries int
	WithResults     int
	WithoutResults  int

	// OutputPaths lists every artifact written, CSV files first, the
	// summary report last.
	OutputPaths []string
}

// Collector wires the pipeline stages together.
type Collector struct {
	store     FolderLister
	discovery Discoverer
	matcher   RecordMatcher
	exporter  Exporter
	metrics   MetricsPublisher
	logger    *slog.Logger
	opts      Options
}

// New creates a Collector. metrics may be nil to disable telemetry; a
// nil logger falls back to slog.Default().
func New(store FolderLister, discovery Discoverer, matcher RecordMatcher, exporter Exporter, metrics MetricsPublisher, opts Options, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxWorkers < 1 {
		opts.MaxWorkers = 1
	}
	return &Collector{
		store:     store,
		discovery: discovery,
		matcher:   matcher,
		exporter:  exporter,
		metrics:   metrics,
		logger:    logger,
		opts:      opts,
	}
}

// Run executes the pipeline phases in order. Any fatal error aborts the
// run before export so partial artifacts are never written.
func (c *Collector) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()

	records, err := c.discovery.DiscoverAll(ctx, c.opts.GeometriesPrefix, c.opts.CarFilter)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		c.logger.WarnContext(ctx, "no geometries discovered, nothing to export",
			"prefix", c.opts.GeometriesPrefix, "car_filter", c.opts.CarFilter)
		return &Summary{Status: StatusNoGeometries}, nil
	}

	if err := c.matchAll(ctx, records); err != nil {
		return nil, err
	}

	paths, err := c.exporter.ExportCSV(ctx, records)
	if err != nil {
		return nil, err
	}
	reportPath, err := c.exporter.ExportReport(ctx, records)
	if err != nil {
		return nil, err
	}
	paths = append(paths, reportPath)

	withResults := types.CountWithResults(records)
	summary := &Summary{
		Status:          StatusOK,
		TotalGeometries: len(records),
		WithResults:     withResults,
		WithoutResults:  len(records) - withResults,
		OutputPaths:     paths,
	}

	if c.metrics != nil {
		c.metrics.PublishRun(ctx, telemetry.RunMetrics{
			Discovered:     summary.TotalGeometries,
			WithResults:    summary.WithResults,
			WithoutResults: summary.WithoutResults,
			Duration:       time.Since(start),
			Simulator:      c.opts.SimulatorFilter,
		})
	}

	c.logger.InfoContext(ctx, "collection run complete",
		"total", summary.TotalGeometries,
		"with_results", summary.WithResults,
		"duration", time.Since(start))
	return summary, nil
}

// matchAll runs result matching for every record with bounded
// parallelism. Records are independent: a record without results is not
// an error, only fatal storage failures abort the group.
func (c *Collector) matchAll(ctx context.Context, records []*types.SimulationRecord) error {
	c.logger.InfoContext(ctx, "matching results", "records", len(records), "workers", c.opts.MaxWorkers)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.MaxWorkers)

	for _, rec := range records {
		rec := rec
		g.Go(func() error {
			return c.matcher.MatchAndExtract(gCtx, rec)
		})
	}
	return g.Wait()
}

// CheckConnection verifies the store is reachable by listing the
// geometries prefix. Used by the CLI --check mode.
func (c *Collector) CheckConnection(ctx context.Context) error {
	folders, err := c.store.ListFolders(ctx, c.opts.GeometriesPrefix)
	if err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "store connection ok",
		"prefix", c.opts.GeometriesPrefix, "folders", len(folders))
	return nil
}
