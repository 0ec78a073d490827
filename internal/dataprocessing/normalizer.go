package dataprocessing

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	apperrors "transportcli/internal/errors"
	"transportcli/pkg/contracts/domain"
)

// dateLayouts are tried in order when coercing a date cell. All parsed
// values are truncated to day resolution.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02.01.2006",
}

// Normalizer rewrites a raw table into the canonical (date, value, context)
// form a profile expects.
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer creates a new schema normalizer.
func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger}
}

// Normalize discovers the date and value columns, retains allow-listed
// context columns and returns the canonical table sorted by (context, date).
// It fails with a schema error when no usable date or numeric column exists;
// a row whose date or value cell cannot be parsed is a hard error for the
// whole batch.
func (n *Normalizer) Normalize(raw *RawTable, profile Profile) (*CanonicalTable, error) {
	dateCol, dateName := n.findDateColumn(raw, profile)
	if dateCol < 0 {
		return nil, apperrors.NewSchemaError("no date column", nil).
			WithContext("dataset", profile.Name).
			WithContext("candidates", profile.DateCandidates())
	}

	valueCol, valueName, err := n.findValueColumn(raw, profile, dateCol)
	if err != nil {
		return nil, err
	}

	contextCols := n.findContextColumns(raw, profile, dateCol, valueCol)

	n.logger.Debug("normalized schema resolved",
		slog.String("dataset", profile.Name),
		slog.String("date_column", dateName),
		slog.String("value_column", valueName),
		slog.Any("context_columns", contextCols))

	records := make([]domain.CanonicalRecord, 0, len(raw.Rows))
	for i, row := range raw.Rows {
		date, err := parseDate(raw.Cell(row, dateCol))
		if err != nil {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("row %d: unparseable date %q in column %s", i+2, raw.Cell(row, dateCol), dateName), err).
				WithContext("dataset", profile.Name)
		}

		value, err := parseFloat(raw.Cell(row, valueCol))
		if err != nil {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("row %d: unparseable value %q in column %s", i+2, raw.Cell(row, valueCol), valueName), err).
				WithContext("dataset", profile.Name)
		}

		record := domain.CanonicalRecord{Date: date, Value: value}
		if len(contextCols) > 0 {
			record.Context = make(map[string]string, len(contextCols))
			for _, ctx := range contextCols {
				record.Context[ctx] = raw.Cell(row, raw.ColumnIndex(ctx))
			}
		}
		records = append(records, record)
	}

	table := &CanonicalTable{ContextColumns: contextCols, Records: records}
	sortCanonical(table)
	return table, nil
}

// findDateColumn scans the profile's ordered candidates; first match wins.
func (n *Normalizer) findDateColumn(raw *RawTable, profile Profile) (int, string) {
	for _, candidate := range profile.DateCandidates() {
		if idx := raw.ColumnIndex(candidate); idx >= 0 {
			return idx, candidate
		}
	}
	return -1, ""
}

// findValueColumn resolves the measure column: a literal "value" column
// wins, then the profile's preferred column, then the first numeric column
// in declaration order.
func (n *Normalizer) findValueColumn(raw *RawTable, profile Profile, dateCol int) (int, string, error) {
	if idx := raw.ColumnIndex("value"); idx >= 0 {
		return idx, "value", nil
	}
	if profile.ValueColumn != "" {
		if idx := raw.ColumnIndex(profile.ValueColumn); idx >= 0 {
			return idx, profile.ValueColumn, nil
		}
	}

	for i, name := range raw.Columns {
		if i == dateCol {
			continue
		}
		if n.isNumericColumn(raw, i) {
			return i, name, nil
		}
	}

	return -1, "", apperrors.NewSchemaError("no numeric column", nil).
		WithContext("dataset", profile.Name)
}

// isNumericColumn reports whether every non-empty cell in the column parses
// as a number, with at least one such cell present.
func (n *Normalizer) isNumericColumn(raw *RawTable, col int) bool {
	seen := false
	for _, row := range raw.Rows {
		cell := raw.Cell(row, col)
		if cell == "" {
			continue
		}
		if _, err := parseFloat(cell); err != nil {
			return false
		}
		seen = true
	}
	return seen
}

// findContextColumns keeps the allow-listed context fields present in the
// raw table, in profile declaration order. Absent fields are omitted, not
// filled with placeholders.
func (n *Normalizer) findContextColumns(raw *RawTable, profile Profile, dateCol, valueCol int) []string {
	var cols []string
	for _, name := range profile.ContextColumns {
		idx := raw.ColumnIndex(name)
		if idx < 0 || idx == dateCol || idx == valueCol {
			continue
		}
		cols = append(cols, name)
	}
	return cols
}

// sortCanonical orders records by retained context fields then date for a
// deterministic canonical table. Downstream period computations re-sort
// their own series by grouping context, so descriptive fields retained here
// never affect chronology.
func sortCanonical(table *CanonicalTable) {
	sort.SliceStable(table.Records, func(i, j int) bool {
		a, b := table.Records[i], table.Records[j]
		for _, ctx := range table.ContextColumns {
			if a.Context[ctx] != b.Context[ctx] {
				return a.Context[ctx] < b.Context[ctx]
			}
		}
		return a.Date.Before(b.Date)
	})
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("no supported date layout matches %q", s)
}
