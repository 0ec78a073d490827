package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"transportcli/internal/config"
	apperrors "transportcli/internal/errors"
	"transportcli/internal/exporter"
	"transportcli/internal/infrastructure"
)

// Result summarizes one successful pipeline run.
type Result struct {
	Profile    Profile
	OutputPath string
	Rows       int
}

// Pipeline wires the loader, normalizer, aggregator and CSV writer into
// the per-dataset run: raw file in, monthly metrics file out. A run is
// single-pass and idempotent; the output file is replaced wholesale and no
// partial output is written on failure.
type Pipeline struct {
	logger     *slog.Logger
	paths      *config.Paths
	loader     *Loader
	normalizer *Normalizer
	aggregator *Aggregator
	writer     *exporter.CSVWriter
	metrics    *infrastructure.Metrics
}

// NewPipeline creates a pipeline rooted at the given paths. metrics may be
// nil when no collector is registered (tests, one-shot CLI runs).
func NewPipeline(logger *slog.Logger, paths *config.Paths, metrics *infrastructure.Metrics) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		logger:     logger,
		paths:      paths,
		loader:     NewLoader(logger),
		normalizer: NewNormalizer(logger),
		aggregator: NewAggregator(logger),
		writer:     exporter.NewCSVWriter(paths, logger),
		metrics:    metrics,
	}
}

// Run executes the full pipeline for one dataset profile.
func (p *Pipeline) Run(ctx context.Context, profile Profile) (*Result, error) {
	start := time.Now()
	result, err := p.run(ctx, profile)

	if p.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		p.metrics.PipelineRunsTotal.WithLabelValues(profile.Name, status).Inc()
		p.metrics.PipelineDuration.WithLabelValues(profile.Name).Observe(time.Since(start).Seconds())
		if result != nil {
			p.metrics.RowsWrittenTotal.WithLabelValues(profile.Name).Add(float64(result.Rows))
		}
	}
	return result, err
}

func (p *Pipeline) run(ctx context.Context, profile Profile) (*Result, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	rawPath := p.paths.GetRawPath(profile.RawFile)
	if !config.FileExists(rawPath) {
		guidance := fmt.Sprintf("place %s under %s, or run the downloader to fetch it",
			profile.RawFile, p.paths.RawDir)
		return nil, apperrors.NewMissingInputError(rawPath, guidance)
	}

	p.logger.InfoContext(ctx, "processing dataset",
		slog.String("dataset", profile.Name),
		slog.String("raw_path", rawPath))

	raw, err := p.loader.Load(profile.Name, rawPath)
	if err != nil {
		return nil, err
	}

	canonical, err := p.normalizer.Normalize(raw, profile)
	if err != nil {
		return nil, err
	}

	monthly, err := p.aggregator.Aggregate(canonical, profile)
	if err != nil {
		return nil, err
	}

	outPath := p.paths.GetProcessedPath(profile.OutputFile)
	if err := p.writer.WriteSimpleCSV(outPath, monthly.Columns, monthly.CSVRecords()); err != nil {
		return nil, err
	}

	p.logger.InfoContext(ctx, "dataset processed",
		slog.String("dataset", profile.Name),
		slog.String("output_path", outPath),
		slog.Int("rows", len(monthly.Aggregates)))

	return &Result{
		Profile:    profile,
		OutputPath: outPath,
		Rows:       len(monthly.Aggregates),
	}, nil
}
