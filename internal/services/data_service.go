package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"transportcli/internal/config"
	"transportcli/internal/dataprocessing"
	apperrors "transportcli/internal/errors"
	"transportcli/internal/infrastructure"
)

// DatasetStatus describes one dataset profile and whether its processed
// metrics file exists.
type DatasetStatus struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Processed   bool      `json:"processed"`
	OutputFile  string    `json:"output_file"`
	Rows        int       `json:"rows,omitempty"`
	Modified    time.Time `json:"modified,omitempty"`
	Regenerate  string    `json:"regenerate,omitempty"`
}

// MetricsSummary is a compact overview of one processed metrics table.
type MetricsSummary struct {
	Dataset   string   `json:"dataset"`
	Rows      int      `json:"rows"`
	Columns   []string `json:"columns"`
	FirstDate string   `json:"first_date,omitempty"`
	LastDate  string   `json:"last_date,omitempty"`
}

// DataService reads processed metrics tables for the dashboard API.
// Loaded tables are memoized per dataset for the lifetime of the process,
// mirroring the dashboard's cached loads; the cache starts empty on every
// process start.
type DataService struct {
	paths   *config.Paths
	logger  *slog.Logger
	metrics *infrastructure.Metrics

	mu    sync.RWMutex
	cache map[string]cachedTable
}

type cachedTable struct {
	columns []string
	rows    []map[string]interface{}
	modTime time.Time
}

// NewDataService creates a new data service. metrics may be nil.
func NewDataService(paths *config.Paths, logger *slog.Logger, metrics *infrastructure.Metrics) *DataService {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("data service initialized",
		slog.String("processed_dir", paths.ProcessedDir))

	return &DataService{
		paths:   paths,
		logger:  logger,
		metrics: metrics,
		cache:   make(map[string]cachedTable),
	}
}

// ListDatasets returns the status of every dataset profile.
func (ds *DataService) ListDatasets(ctx context.Context) []DatasetStatus {
	profiles := dataprocessing.Profiles()
	statuses := make([]DatasetStatus, 0, len(profiles))
	for _, p := range profiles {
		status := DatasetStatus{
			Name:        p.Name,
			Description: p.Description,
			OutputFile:  p.OutputFile,
		}

		path := ds.paths.GetProcessedPath(p.OutputFile)
		info, err := os.Stat(path)
		if err != nil {
			status.Regenerate = p.RegenerateCommand()
			statuses = append(statuses, status)
			continue
		}

		status.Processed = true
		status.Modified = info.ModTime()
		if table, err := ds.load(ctx, p); err == nil {
			status.Rows = len(table.rows)
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// GetMetrics returns the processed monthly metrics of a dataset as one map
// per row, with numeric cells decoded. A missing processed file is
// reported with the exact command that regenerates it.
func (ds *DataService) GetMetrics(ctx context.Context, dataset string) ([]map[string]interface{}, error) {
	profile, err := dataprocessing.ProfileByName(dataset)
	if err != nil {
		return nil, err
	}

	table, err := ds.load(ctx, profile)
	if err != nil {
		return nil, err
	}
	return table.rows, nil
}

// GetSummary returns a compact overview of a dataset's processed table.
func (ds *DataService) GetSummary(ctx context.Context, dataset string) (*MetricsSummary, error) {
	profile, err := dataprocessing.ProfileByName(dataset)
	if err != nil {
		return nil, err
	}

	table, err := ds.load(ctx, profile)
	if err != nil {
		return nil, err
	}

	summary := &MetricsSummary{
		Dataset: profile.Name,
		Rows:    len(table.rows),
		Columns: table.columns,
	}
	if len(table.rows) > 0 {
		if first, ok := table.rows[0]["date"].(string); ok {
			summary.FirstDate = first
		}
		if last, ok := table.rows[len(table.rows)-1]["date"].(string); ok {
			summary.LastDate = last
		}
	}
	return summary, nil
}

// load reads a processed metrics file, serving repeat reads from the
// cache as long as the file's mtime is unchanged.
func (ds *DataService) load(ctx context.Context, profile dataprocessing.Profile) (cachedTable, error) {
	path := ds.paths.GetProcessedPath(profile.OutputFile)

	info, err := os.Stat(path)
	if err != nil {
		guidance := fmt.Sprintf("processed file for dataset %q not found; run: %s",
			profile.Name, profile.RegenerateCommand())
		return cachedTable{}, apperrors.NewMissingInputError(path, guidance)
	}

	ds.mu.RLock()
	cached, ok := ds.cache[profile.Name]
	ds.mu.RUnlock()
	if ok && cached.modTime.Equal(info.ModTime()) {
		if ds.metrics != nil {
			ds.metrics.CacheHitsTotal.WithLabelValues(profile.Name).Inc()
		}
		return cached, nil
	}
	if ds.metrics != nil {
		ds.metrics.CacheMissesTotal.WithLabelValues(profile.Name).Inc()
	}

	table, err := ds.readCSV(path)
	if err != nil {
		return cachedTable{}, err
	}
	table.modTime = info.ModTime()

	ds.mu.Lock()
	ds.cache[profile.Name] = table
	ds.mu.Unlock()

	ds.logger.DebugContext(ctx, "processed metrics loaded",
		slog.String("dataset", profile.Name),
		slog.Int("rows", len(table.rows)))

	return table, nil
}

func (ds *DataService) readCSV(path string) (cachedTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return cachedTable{}, apperrors.NewStorageError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return cachedTable{}, apperrors.NewParsingError(fmt.Sprintf("failed to parse %s", path), err)
	}
	if len(records) == 0 {
		return cachedTable{}, apperrors.NewParsingError(fmt.Sprintf("%s has no header row", path), nil)
	}

	columns := records[0]
	rows := make([]map[string]interface{}, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			if i >= len(record) {
				row[col] = nil
				continue
			}
			row[col] = decodeCell(col, record[i])
		}
		rows = append(rows, row)
	}

	return cachedTable{columns: columns, rows: rows}, nil
}

// decodeCell converts numeric cells to numbers and leaves dates and
// categorical cells as strings. Empty cells (undefined growth) become nil.
func decodeCell(column, cell string) interface{} {
	if cell == "" {
		return nil
	}
	if column == "date" || column == "season" {
		return cell
	}
	if n, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil {
		return f
	}
	return cell
}
