package dataprocessing

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	apperrors "transportcli/internal/errors"
	"transportcli/pkg/contracts/domain"
)

// Aggregator reduces a canonical table to one row per (year, month,
// grouping-context) with summary statistics and derived period fields.
type Aggregator struct {
	logger *slog.Logger
}

// NewAggregator creates a new monthly aggregator.
func NewAggregator(logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{logger: logger}
}

// group collects the raw values for one (year, month, context) key.
type group struct {
	year, month int
	context     map[string]string
	values      []float64
}

// Aggregate groups the canonical records, computes the profile's statistic
// set, attaches growth, rolling averages and calendar context, and returns
// the monthly table in ascending (year, month, context) order. An empty
// input yields an empty table with the full header.
func (a *Aggregator) Aggregate(table *CanonicalTable, profile Profile) (*MonthlyTable, error) {
	out := &MonthlyTable{Columns: profile.Header(), profile: profile}
	if len(table.Records) == 0 {
		return out, nil
	}

	for _, key := range profile.GroupBy {
		if !table.HasContext(key) {
			return nil, apperrors.NewAggregationError(
				fmt.Sprintf("grouping column %q is missing from the canonical table", key), nil).
				WithContext("dataset", profile.Name)
		}
	}

	groups := a.collectGroups(table, profile)

	aggregates := make([]domain.MonthlyAggregate, 0, len(groups))
	for _, g := range groups {
		agg := domain.MonthlyAggregate{
			Year:    g.year,
			Month:   g.month,
			Context: g.context,
			Stats:   computeStats(g.values, profile.Stats),
			Date:    domain.MonthStart(g.year, g.month),
		}
		if profile.AddSeason {
			agg.Season = domain.SeasonForMonth(g.month)
		}
		if profile.Intensity != nil {
			agg.Intensity = binIntensity(agg.Stats[string(profile.Intensity.Stat)], profile.Intensity)
		}
		aggregates = append(aggregates, agg)
	}

	sortAggregates(aggregates, profile.GroupBy)

	if profile.GrowthBasis != "" {
		attachGrowth(aggregates, profile)
	}
	if len(profile.RollingWindows) > 0 {
		attachRolling(aggregates, table, profile)
	}

	a.logger.Debug("monthly aggregation complete",
		slog.String("dataset", profile.Name),
		slog.Int("input_rows", len(table.Records)),
		slog.Int("output_rows", len(aggregates)))

	out.Aggregates = aggregates
	return out, nil
}

// collectGroups buckets records by (year, month) plus the profile's
// grouping context fields. Context fields outside GroupBy are dropped here.
func (a *Aggregator) collectGroups(table *CanonicalTable, profile Profile) []*group {
	byKey := make(map[string]*group)
	var order []string

	for _, rec := range table.Records {
		year, month := rec.Date.Year(), int(rec.Date.Month())
		key := groupKey(year, month, rec.Context, profile.GroupBy)

		g, ok := byKey[key]
		if !ok {
			g = &group{year: year, month: month}
			if len(profile.GroupBy) > 0 {
				g.context = make(map[string]string, len(profile.GroupBy))
				for _, ctx := range profile.GroupBy {
					g.context[ctx] = rec.Context[ctx]
				}
			}
			byKey[key] = g
			order = append(order, key)
		}
		g.values = append(g.values, rec.Value)
	}

	groups := make([]*group, 0, len(order))
	for _, key := range order {
		groups = append(groups, byKey[key])
	}
	return groups
}

func groupKey(year, month int, context map[string]string, groupBy []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%04d-%02d", year, month)
	for _, ctx := range groupBy {
		b.WriteByte(0x1f)
		b.WriteString(context[ctx])
	}
	return b.String()
}

// contextKey is the non-temporal part of a group key, used to line up
// consecutive periods of the same context for growth and rolling series.
func contextKey(context map[string]string, groupBy []string) string {
	parts := make([]string, 0, len(groupBy))
	for _, ctx := range groupBy {
		parts = append(parts, context[ctx])
	}
	return strings.Join(parts, "\x1f")
}

func computeStats(values []float64, stats []Stat) map[string]float64 {
	out := make(map[string]float64, len(stats))
	sum := 0.0
	min, max := values[0], values[0]
	for _, v := range values {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	for _, stat := range stats {
		switch stat {
		case StatSum:
			out[string(stat)] = sum
		case StatMean:
			out[string(stat)] = sum / float64(len(values))
		case StatMedian:
			out[string(stat)] = median(values)
		case StatCount:
			out[string(stat)] = float64(len(values))
		case StatMax:
			out[string(stat)] = max
		case StatMin:
			out[string(stat)] = min
		}
	}
	return out
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// sortAggregates orders rows ascending by (year, month) then context keys.
func sortAggregates(aggs []domain.MonthlyAggregate, groupBy []string) {
	sort.SliceStable(aggs, func(i, j int) bool {
		a, b := aggs[i], aggs[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		for _, ctx := range groupBy {
			if a.Context[ctx] != b.Context[ctx] {
				return a.Context[ctx] < b.Context[ctx]
			}
		}
		return false
	})
}

// attachGrowth computes period-over-period change of the basis statistic
// within each context series ordered chronologically. The first period of a
// series has no prior value and stays nil; whether nil is rendered as zero
// is the profile's fill policy, applied at output time. Year-over-year
// compares to the period 12 rows earlier in the same series.
func attachGrowth(aggs []domain.MonthlyAggregate, profile Profile) {
	series := make(map[string][]int)
	for i := range aggs {
		key := contextKey(aggs[i].Context, profile.GroupBy)
		series[key] = append(series[key], i)
	}

	basis := string(profile.GrowthBasis)
	for _, idxs := range series {
		for pos, i := range idxs {
			if pos >= 1 {
				prev := aggs[idxs[pos-1]].Stats[basis]
				if g, ok := change(aggs[i].Stats[basis], prev, profile.GrowthKind); ok {
					aggs[i].MonthlyGrowth = &g
				}
			}
			if profile.YearOverYear && pos >= 12 {
				prev := aggs[idxs[pos-12]].Stats[basis]
				if g, ok := change(aggs[i].Stats[basis], prev, profile.GrowthKind); ok {
					aggs[i].YearlyGrowth = &g
				}
			}
		}
	}
}

// change computes the growth value against a prior period. Percent change
// against a zero prior is undefined and reported as not-ok.
func change(current, prev float64, kind GrowthKind) (float64, bool) {
	if kind == GrowthDifference {
		return current - prev, true
	}
	if prev == 0 {
		return 0, false
	}
	return (current - prev) / prev * 100, true
}

// attachRolling computes trailing-window averages over the raw canonical
// rows of each context series (minimum one row) and attaches the last
// window value seen in each month to that month's aggregate row. Each
// series is re-sorted chronologically here: the canonical table is ordered
// by every retained context field, which interleaves dates whenever the
// profile keeps descriptive columns outside its grouping set.
func attachRolling(aggs []domain.MonthlyAggregate, table *CanonicalTable, profile Profile) {
	rowIndex := make(map[string]int, len(aggs))
	for i := range aggs {
		rowIndex[groupKey(aggs[i].Year, aggs[i].Month, aggs[i].Context, profile.GroupBy)] = i
	}

	series := make(map[string][]domain.CanonicalRecord)
	for _, rec := range table.Records {
		key := contextKey(rec.Context, profile.GroupBy)
		series[key] = append(series[key], rec)
	}

	for _, recs := range series {
		sort.SliceStable(recs, func(i, j int) bool {
			return recs[i].Date.Before(recs[j].Date)
		})

		values := make([]float64, 0, len(recs))
		for _, rec := range recs {
			values = append(values, rec.Value)
			for _, window := range profile.RollingWindows {
				start := len(values) - window
				if start < 0 {
					start = 0
				}
				sum := 0.0
				for _, v := range values[start:] {
					sum += v
				}
				avg := sum / float64(len(values)-start)

				idx, ok := rowIndex[groupKey(rec.Date.Year(), int(rec.Date.Month()), rec.Context, profile.GroupBy)]
				if !ok {
					continue
				}
				if aggs[idx].Rolling == nil {
					aggs[idx].Rolling = make(map[int]float64, len(profile.RollingWindows))
				}
				// Later rows in the same month overwrite, leaving the trailing value.
				aggs[idx].Rolling[window] = avg
			}
		}
	}
}

// binIntensity assigns the ranked label whose bin contains the value.
// Edges are ascending boundaries; the last bin is open-ended and values at
// or below the first edge carry no label.
func binIntensity(value float64, buckets *IntensityBuckets) string {
	if value <= buckets.Edges[0] {
		return ""
	}
	for i := 1; i < len(buckets.Edges); i++ {
		if value <= buckets.Edges[i] {
			return buckets.Labels[i-1]
		}
	}
	return buckets.Labels[len(buckets.Labels)-1]
}
