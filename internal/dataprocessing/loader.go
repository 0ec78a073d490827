package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	apperrors "transportcli/internal/errors"
)

// Loader reads raw tabular files into memory. Loads are memoized per
// dataset name for the lifetime of the Loader, so a single process run
// never reads the same raw file twice; a fresh process starts with an
// empty cache.
type Loader struct {
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]*RawTable
}

// NewLoader creates a new raw table loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger: logger,
		cache:  make(map[string]*RawTable),
	}
}

// Load reads the file at path into a raw table, dispatching on extension
// (.csv or .xlsx). The result is cached under the dataset name.
func (l *Loader) Load(dataset, path string) (*RawTable, error) {
	l.mu.Lock()
	if table, ok := l.cache[dataset]; ok {
		l.mu.Unlock()
		l.logger.Debug("raw table served from cache", slog.String("dataset", dataset))
		return table, nil
	}
	l.mu.Unlock()

	var table *RawTable
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		table, err = l.loadCSV(path)
	case ".xlsx", ".xls":
		table, err = l.loadExcel(path)
	default:
		return nil, apperrors.NewParsingError(
			fmt.Sprintf("unsupported raw file format %q", filepath.Ext(path)), nil)
	}
	if err != nil {
		return nil, err
	}

	l.logger.Info("raw table loaded",
		slog.String("dataset", dataset),
		slog.String("path", path),
		slog.Int("rows", len(table.Rows)),
		slog.Int("columns", len(table.Columns)))

	l.mu.Lock()
	l.cache[dataset] = table
	l.mu.Unlock()
	return table, nil
}

func (l *Loader) loadCSV(path string) (*RawTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to open raw file %s", path), err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to parse CSV %s", path), err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewParsingError(fmt.Sprintf("raw file %s has no header row", path), nil)
	}

	return &RawTable{Columns: trimAll(rows[0]), Rows: rows[1:]}, nil
}

// loadExcel reads the first sheet of a workbook, treating its first row as
// the header. Short rows are kept as-is; Cell access is bounds-safe.
func (l *Loader) loadExcel(path string) (*RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to open workbook %s", path), err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewParsingError(fmt.Sprintf("workbook %s has no sheets", path), nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read sheet %s", sheets[0]), err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewParsingError(fmt.Sprintf("sheet %s has no header row", sheets[0]), nil)
	}

	return &RawTable{Columns: trimAll(rows[0]), Rows: rows[1:]}, nil
}

func trimAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}
