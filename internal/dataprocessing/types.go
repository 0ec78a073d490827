package dataprocessing

import (
	"fmt"
	"strconv"
	"strings"

	"transportcli/pkg/contracts/domain"
)

// RawTable is an untyped tabular file loaded into memory: a header row and
// string cells. No invariants are enforced beyond "parseable as a table".
type RawTable struct {
	Columns []string
	Rows    [][]string
}

// ColumnIndex returns the position of the named column, or -1.
func (t *RawTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Cell returns the trimmed cell at the given column for a row, tolerating
// short rows.
func (t *RawTable) Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// CanonicalTable is the normalized form: exactly one date column, one
// numeric value column and a known set of retained context columns. Records
// are sorted ascending by (context, date).
type CanonicalTable struct {
	ContextColumns []string
	Records        []domain.CanonicalRecord
}

// HasContext reports whether the named context column was retained.
func (t *CanonicalTable) HasContext(name string) bool {
	for _, c := range t.ContextColumns {
		if c == name {
			return true
		}
	}
	return false
}

// MonthlyTable is the aggregation output: a schema-stable flat header plus
// one aggregate row per (year, month, context) group, in ascending
// chronological then context order.
type MonthlyTable struct {
	Columns    []string
	Aggregates []domain.MonthlyAggregate

	profile Profile
}

// CSVRecords renders every aggregate row as formatted CSV cells matching
// Columns. Undefined growth renders as an empty cell unless the profile
// fills it with zero.
func (t *MonthlyTable) CSVRecords() [][]string {
	records := make([][]string, 0, len(t.Aggregates))
	for _, agg := range t.Aggregates {
		records = append(records, t.formatRow(agg))
	}
	return records
}

func (t *MonthlyTable) formatRow(agg domain.MonthlyAggregate) []string {
	p := t.profile
	row := make([]string, 0, len(t.Columns))
	row = append(row, strconv.Itoa(agg.Year), strconv.Itoa(agg.Month))

	for _, ctx := range p.GroupBy {
		row = append(row, agg.Context[ctx])
	}

	for _, stat := range p.Stats {
		v := agg.Stats[string(stat)]
		if stat == StatCount {
			row = append(row, strconv.Itoa(int(v)))
			continue
		}
		row = append(row, formatFloat(v, p.RoundDecimals))
	}

	if p.GrowthBasis != "" {
		row = append(row, t.formatGrowth(agg.MonthlyGrowth))
		if p.YearOverYear {
			row = append(row, t.formatGrowth(agg.YearlyGrowth))
		}
	}

	for _, window := range p.RollingWindows {
		row = append(row, formatFloat(agg.Rolling[window], p.RoundDecimals))
	}

	row = append(row, agg.Date.Format("2006-01-02"))

	if p.AddSeason {
		row = append(row, string(agg.Season))
	}
	if p.Intensity != nil {
		row = append(row, agg.Intensity)
	}

	return row
}

func (t *MonthlyTable) formatGrowth(v *float64) string {
	if v == nil {
		if t.profile.FillGrowthZero {
			return formatFloat(0, t.profile.RoundDecimals)
		}
		return ""
	}
	return formatFloat(*v, t.profile.RoundDecimals)
}

func formatFloat(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

// parseFloat parses a numeric cell, tolerating thousand separators. Commas
// are accepted only in three-digit group positions; a decimal comma like
// "3,5" is rejected rather than silently read as 35.
func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		stripped, ok := stripThousands(s)
		if !ok {
			return 0, fmt.Errorf("ambiguous comma in numeric cell %q", s)
		}
		s = stripped
	}
	return strconv.ParseFloat(s, 64)
}

func stripThousands(s string) (string, bool) {
	parts := strings.Split(s, ",")
	head := strings.TrimPrefix(parts[0], "-")
	if len(head) == 0 || len(head) > 3 {
		return "", false
	}
	for i, part := range parts[1:] {
		digits := part
		if i == len(parts)-2 {
			if dot := strings.IndexByte(part, '.'); dot >= 0 {
				digits = part[:dot]
			}
		}
		if len(digits) != 3 {
			return "", false
		}
	}
	return strings.ReplaceAll(s, ",", ""), true
}
