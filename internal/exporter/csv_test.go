package exporter

import (
	"bytes"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transportcli/internal/config"
)

func setupWriter(t *testing.T) (*CSVWriter, *config.Paths) {
	t.Helper()

	paths, err := config.NewPaths(t.TempDir())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCSVWriter(paths, logger), paths
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	writer, paths := setupWriter(t)

	tests := []struct {
		name     string
		filePath string
		options  WriteOptions
		wantRows int
	}{
		{
			name:     "headers and records",
			filePath: "metrics.csv",
			options: WriteOptions{
				Headers: []string{"year", "month", "total"},
				Records: [][]string{{"2024", "1", "30.0"}, {"2024", "2", "30.0"}},
			},
			wantRows: 3,
		},
		{
			name:     "header only",
			filePath: "empty.csv",
			options: WriteOptions{
				Headers: []string{"year", "month"},
			},
			wantRows: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, writer.WriteCSV(tt.filePath, tt.options))

			// Relative paths land in the processed directory.
			fullPath := paths.GetProcessedPath(tt.filePath)
			file, err := os.Open(fullPath)
			require.NoError(t, err)
			defer file.Close()

			rows, err := csv.NewReader(file).ReadAll()
			require.NoError(t, err)
			assert.Len(t, rows, tt.wantRows)
			assert.Equal(t, tt.options.Headers, rows[0])
		})
	}
}

func TestCSVWriter_WriteCSV_BOM(t *testing.T) {
	writer, paths := setupWriter(t)

	require.NoError(t, writer.WriteCSV("bom.csv", WriteOptions{
		Headers:   []string{"a"},
		Records:   [][]string{{"1"}},
		BOMPrefix: true,
	}))

	data, err := os.ReadFile(paths.GetProcessedPath("bom.csv"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}))
}

func TestCSVWriter_WriteCSV_AbsolutePath(t *testing.T) {
	writer, _ := setupWriter(t)

	target := filepath.Join(t.TempDir(), "nested", "out.csv")
	require.NoError(t, writer.WriteCSV(target, WriteOptions{
		Headers: []string{"a"},
		Records: [][]string{{"1"}},
	}))

	// Absolute paths are used verbatim, with parents created.
	_, err := os.Stat(target)
	assert.NoError(t, err)
}

func TestCSVWriter_WriteCSV_Overwrites(t *testing.T) {
	writer, paths := setupWriter(t)

	require.NoError(t, writer.WriteSimpleCSV("out.csv",
		[]string{"a"}, [][]string{{"1"}, {"2"}, {"3"}}))
	require.NoError(t, writer.WriteSimpleCSV("out.csv",
		[]string{"a"}, [][]string{{"9"}}))

	file, err := os.Open(paths.GetProcessedPath("out.csv"))
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	// The prior file is replaced wholesale, not appended to.
	assert.Equal(t, [][]string{{"a"}, {"9"}}, rows)
}
