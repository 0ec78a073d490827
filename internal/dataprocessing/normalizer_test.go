package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "transportcli/internal/errors"
)

func TestNormalizer_Normalize_DateColumn(t *testing.T) {
	n := NewNormalizer(testLogger())

	t.Run("candidate order wins over file order", func(t *testing.T) {
		raw := &RawTable{
			Columns: []string{"timestamp", "date", "value"},
			Rows: [][]string{
				{"2024-06-01", "2024-01-15", "10"},
			},
		}

		table, err := n.Normalize(raw, minimalProfile())
		require.NoError(t, err)
		require.Len(t, table.Records, 1)
		// "date" precedes "timestamp" in the candidate list.
		assert.Equal(t, day(2024, 1, 15), table.Records[0].Date)
	})

	t.Run("falls back to later candidates", func(t *testing.T) {
		raw := &RawTable{
			Columns: []string{"datetime", "value"},
			Rows:    [][]string{{"2024-03-10T08:30:00", "5"}},
		}

		table, err := n.Normalize(raw, minimalProfile())
		require.NoError(t, err)
		// Timestamps truncate to day resolution.
		assert.Equal(t, day(2024, 3, 10), table.Records[0].Date)
	})

	t.Run("aliases produce identical canonical tables", func(t *testing.T) {
		var tables []*CanonicalTable
		for _, alias := range []string{"date", "timestamp", "datetime"} {
			raw := &RawTable{
				Columns: []string{alias, "value"},
				Rows: [][]string{
					{"2024-01-15", "10"},
					{"2024-02-01", "20"},
				},
			}
			table, err := n.Normalize(raw, minimalProfile())
			require.NoError(t, err)
			tables = append(tables, table)
		}
		assert.Equal(t, tables[0], tables[1])
		assert.Equal(t, tables[0], tables[2])
	})

	t.Run("no date column is a schema error", func(t *testing.T) {
		raw := &RawTable{
			Columns: []string{"when", "value"},
			Rows:    [][]string{{"2024-01-01", "1"}},
		}

		_, err := n.Normalize(raw, minimalProfile())
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))
	})
}

func TestNormalizer_Normalize_ValueColumn(t *testing.T) {
	n := NewNormalizer(testLogger())

	t.Run("literal value column wins", func(t *testing.T) {
		profile := minimalProfile()
		profile.ValueColumn = "punctuality_rate"

		raw := &RawTable{
			Columns: []string{"date", "punctuality_rate", "value"},
			Rows:    [][]string{{"2024-01-01", "87.5", "42"}},
		}

		table, err := n.Normalize(raw, profile)
		require.NoError(t, err)
		assert.Equal(t, 42.0, table.Records[0].Value)
	})

	t.Run("profile preference beats numeric fallback", func(t *testing.T) {
		profile := minimalProfile()
		profile.ValueColumn = "punctuality_rate"

		raw := &RawTable{
			Columns: []string{"date", "delay_minutes", "punctuality_rate"},
			Rows:    [][]string{{"2024-01-01", "12", "87.5"}},
		}

		table, err := n.Normalize(raw, profile)
		require.NoError(t, err)
		assert.Equal(t, 87.5, table.Records[0].Value)
	})

	t.Run("first numeric column is the fallback", func(t *testing.T) {
		raw := &RawTable{
			Columns: []string{"date", "region", "registrations", "note"},
			Rows: [][]string{
				{"2024-01-01", "Oslo", "120", "ok"},
				{"2024-01-02", "Bergen", "80", "ok"},
			},
		}

		table, err := n.Normalize(raw, minimalProfile())
		require.NoError(t, err)
		assert.Equal(t, 120.0, table.Records[0].Value)
	})

	t.Run("thousand separators parse", func(t *testing.T) {
		raw := &RawTable{
			Columns: []string{"date", "value"},
			Rows:    [][]string{{"2024-01-01", "1,234,567"}},
		}

		table, err := n.Normalize(raw, minimalProfile())
		require.NoError(t, err)
		assert.Equal(t, 1234567.0, table.Records[0].Value)
	})

	t.Run("no numeric column is a schema error", func(t *testing.T) {
		raw := &RawTable{
			Columns: []string{"date", "region"},
			Rows:    [][]string{{"2024-01-01", "Oslo"}},
		}

		_, err := n.Normalize(raw, minimalProfile())
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))
	})
}

func TestNormalizer_Normalize_ContextColumns(t *testing.T) {
	n := NewNormalizer(testLogger())

	profile := minimalProfile()
	profile.ContextColumns = []string{"region", "fuel_type", "county"}

	raw := &RawTable{
		Columns: []string{"date", "value", "fuel_type", "region", "noise"},
		Rows: [][]string{
			{"2024-01-01", "10", "electric", "Oslo", "x"},
		},
	}

	table, err := n.Normalize(raw, profile)
	require.NoError(t, err)
	// Allow-listed fields in declaration order; absent county is omitted.
	assert.Equal(t, []string{"region", "fuel_type"}, table.ContextColumns)
	assert.Equal(t, map[string]string{"region": "Oslo", "fuel_type": "electric"}, table.Records[0].Context)
}

func TestNormalizer_Normalize_SortsByContextThenDate(t *testing.T) {
	n := NewNormalizer(testLogger())

	profile := minimalProfile()
	profile.ContextColumns = []string{"region"}

	raw := &RawTable{
		Columns: []string{"date", "value", "region"},
		Rows: [][]string{
			{"2024-02-01", "1", "Oslo"},
			{"2024-01-01", "2", "Oslo"},
			{"2024-03-01", "3", "Bergen"},
		},
	}

	table, err := n.Normalize(raw, profile)
	require.NoError(t, err)
	require.Len(t, table.Records, 3)
	assert.Equal(t, "Bergen", table.Records[0].Context["region"])
	assert.Equal(t, day(2024, 1, 1), table.Records[1].Date)
	assert.Equal(t, day(2024, 2, 1), table.Records[2].Date)
}

func TestNormalizer_Normalize_RowErrors(t *testing.T) {
	n := NewNormalizer(testLogger())

	t.Run("unparseable date aborts the batch", func(t *testing.T) {
		raw := &RawTable{
			Columns: []string{"date", "value"},
			Rows: [][]string{
				{"2024-01-01", "1"},
				{"not-a-date", "2"},
			},
		}

		_, err := n.Normalize(raw, minimalProfile())
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
		// Row numbers are file-relative, counting the header as row 1.
		assert.Contains(t, err.Error(), "row 3")
	})

	t.Run("unparseable value aborts the batch", func(t *testing.T) {
		profile := minimalProfile()
		profile.ValueColumn = "count"
		raw := &RawTable{
			Columns: []string{"date", "count"},
			Rows: [][]string{
				{"2024-01-01", "n/a"},
			},
		}

		_, err := n.Normalize(raw, profile)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
		assert.Contains(t, err.Error(), "row 2")
	})
}

func TestNormalizer_HeaderOnlyInput(t *testing.T) {
	n := NewNormalizer(testLogger())

	raw := &RawTable{
		Columns: []string{"date", "value", "region"},
	}

	profile := minimalProfile()
	profile.ContextColumns = []string{"region"}

	table, err := n.Normalize(raw, profile)
	require.NoError(t, err)
	assert.Empty(t, table.Records)
	assert.Equal(t, []string{"region"}, table.ContextColumns)
}

func TestParseFloat(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{"plain integer", "120", 120, true},
		{"decimal point", "87.5", 87.5, true},
		{"negative", "-12.5", -12.5, true},
		{"thousand separator", "1,234", 1234, true},
		{"grouped with decimals", "1,234,567.89", 1234567.89, true},
		{"negative grouped", "-1,234", -1234, true},
		{"decimal comma is ambiguous", "3,5", 0, false},
		{"misplaced separator", "12,34", 0, false},
		{"oversized head group", "1234,567", 0, false},
		{"trailing comma", "1,", 0, false},
		{"not a number", "n/a", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFloat(tt.input)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
		ok    bool
	}{
		{"plain date", "2024-01-15", day(2024, 1, 15), true},
		{"rfc3339", "2024-01-15T10:30:00Z", day(2024, 1, 15), true},
		{"space separated timestamp", "2024-01-15 10:30:00", day(2024, 1, 15), true},
		{"norwegian dotted", "15.01.2024", day(2024, 1, 15), true},
		{"garbage", "yesterday", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDate(tt.input)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
