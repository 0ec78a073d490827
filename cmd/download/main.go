package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"transportcli/internal/config"
	"transportcli/internal/infrastructure"
)

func main() {
	baseDir := flag.String("base-dir", "", "base directory holding data/raw (defaults to the working directory)")
	dest := flag.String("dest", "dataset.csv", "destination filename under data/raw")
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
		logger = slog.Default()
	}

	url := os.Getenv("DATA_URL")
	if url == "" {
		fmt.Println("DATA_URL not set. Skip download. Place your CSV into data/raw/ manually.")
		return
	}

	paths, err := cfg.GetPaths()
	if err != nil {
		logger.Error("failed to resolve paths", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := paths.EnsureDirectories(); err != nil {
		logger.Error("failed to create data directories", slog.String("error", err.Error()))
		os.Exit(1)
	}

	destPath := paths.GetRawPath(*dest)
	fmt.Printf("Downloading %s -> %s\n", url, destPath)

	if err := download(url, destPath); err != nil {
		logger.Error("download failed",
			slog.String("url", url),
			slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Failed to download: %v\n", err)
		os.Exit(1)
	}

	logger.Info("download complete", slog.String("dest", destPath))
	fmt.Println("Download complete.")
}

func download(url, dest string) error {
	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	file, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
