package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"transportcli/internal/config"
	"transportcli/internal/dataprocessing"
	apperrors "transportcli/internal/errors"
	"transportcli/internal/files"
	"transportcli/internal/infrastructure"
)

func main() {
	dataset := flag.String("dataset", "all", "dataset to process: ev, traffic, entur, geonorge, both or all")
	baseDir := flag.String("base-dir", "", "base directory holding data/raw and data/processed (defaults to the working directory)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}
	if *baseDir != "" {
		cfg.Paths.BaseDir = *baseDir
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	paths, err := cfg.GetPaths()
	if err != nil {
		logger.Error("failed to resolve paths", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := paths.EnsureDirectories(); err != nil {
		logger.Error("failed to create required directories", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := dataprocessing.ValidateProfiles(); err != nil {
		logger.Error("invalid dataset profile", slog.String("error", err.Error()))
		os.Exit(1)
	}

	profiles, err := dataprocessing.ExpandSelector(*dataset)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unknown dataset %q; choose ev, traffic, entur, geonorge, both or all\n", *dataset)
		os.Exit(1)
	}

	logger.Info("starting dataset preparation",
		slog.String("selector", *dataset),
		slog.Int("profiles", len(profiles)),
		slog.String("raw_dir", paths.RawDir),
		slog.String("processed_dir", paths.ProcessedDir))

	pipeline := dataprocessing.NewPipeline(logger, paths, nil)
	ctx := context.Background()

	failed := false
	skipped := false
	for _, profile := range profiles {
		result, err := pipeline.Run(ctx, profile)
		if err != nil {
			if apperrors.IsType(err, apperrors.ErrTypeMissingInput) {
				// Absent input is a skip with guidance, not a hard failure.
				fmt.Printf("Skipping %s: %s\n", profile.Name, apperrors.Guidance(err))
				logger.Warn("raw file missing",
					slog.String("dataset", profile.Name),
					slog.String("guidance", apperrors.Guidance(err)))
				skipped = true
				continue
			}
			fmt.Fprintf(os.Stderr, "Failed to process %s: %v\n", profile.Name, err)
			logger.Error("dataset processing failed",
				slog.String("dataset", profile.Name),
				slog.String("error", err.Error()))
			failed = true
			continue
		}

		fmt.Printf("Wrote %s (%d rows)\n", result.OutputPath, result.Rows)
		logger.Info("dataset prepared",
			slog.String("dataset", profile.Name),
			slog.String("output_path", result.OutputPath),
			slog.Int("rows", result.Rows))
	}

	if skipped {
		listRawFiles(paths)
	}
	if failed {
		os.Exit(1)
	}
}

// listRawFiles shows what is actually present under data/raw after a skip,
// so a misnamed input is easy to spot.
func listRawFiles(paths *config.Paths) {
	discovery := files.NewDiscovery(paths.RawDir)
	found, err := discovery.FindTabularFiles(".")
	if err != nil || len(found) == 0 {
		fmt.Printf("No raw files present in %s\n", paths.RawDir)
		return
	}
	fmt.Printf("Raw files present in %s:\n", paths.RawDir)
	for _, f := range found {
		fmt.Printf("  %s (%d bytes)\n", f.Name, f.Size)
	}
}
