package domain

import (
	"time"
)

// CanonicalRecord is one normalized observation: a calendar date, a single
// numeric measure and any categorical context retained from the raw file.
type CanonicalRecord struct {
	Date    time.Time         `json:"date"`
	Value   float64           `json:"value"`
	Context map[string]string `json:"context,omitempty"`
}

// Season is a calendar bucket derived purely from the month.
type Season string

const (
	SeasonWinter Season = "Winter"
	SeasonSpring Season = "Spring"
	SeasonSummer Season = "Summer"
	SeasonAutumn Season = "Autumn"
)

// SeasonForMonth maps a 1-12 month to its season. Months 12, 1 and 2 are
// Winter, then each season covers three consecutive months.
func SeasonForMonth(month int) Season {
	switch month {
	case 12, 1, 2:
		return SeasonWinter
	case 3, 4, 5:
		return SeasonSpring
	case 6, 7, 8:
		return SeasonSummer
	default:
		return SeasonAutumn
	}
}

// MonthlyAggregate is one output row of the monthly aggregation: the grouping
// key (year, month and any grouped context fields), the summary statistics of
// the measure within the group, and derived period-over-period fields.
//
// MonthlyGrowth and YearlyGrowth are nil for the first period(s) of a context
// group where no prior value exists.
type MonthlyAggregate struct {
	Year    int               `json:"year"`
	Month   int               `json:"month"`
	Context map[string]string `json:"context,omitempty"`

	Stats map[string]float64 `json:"stats"`

	MonthlyGrowth *float64        `json:"monthly_growth,omitempty"`
	YearlyGrowth  *float64        `json:"yearly_growth,omitempty"`
	Rolling       map[int]float64 `json:"rolling,omitempty"`

	Season    Season    `json:"season,omitempty"`
	Intensity string    `json:"intensity,omitempty"`
	Date      time.Time `json:"date"`
}

// MonthStart returns the first day of the aggregate's (year, month), the
// synthesized date used for time-axis plotting.
func MonthStart(year, month int) time.Time {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}
