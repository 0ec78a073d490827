// Package dataprocessing implements the core data pipeline: schema
// normalization of raw tabular time-series files into a canonical
// (date, value, context) form, and monthly aggregation into flat summary
// tables with growth rates, rolling averages and calendar context.
//
// Every per-dataset behavioral difference (grouping keys, statistic sets,
// growth basis, bucket thresholds, output naming) is declared in a Profile
// rather than branched in code; the same Normalize/Aggregate path serves
// all datasets.
package dataprocessing
