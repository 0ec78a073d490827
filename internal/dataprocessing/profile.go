package dataprocessing

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "transportcli/internal/errors"
)

// Stat identifies a summary statistic computed per (year, month, context)
// group.
type Stat string

const (
	StatSum    Stat = "sum"
	StatMean   Stat = "mean"
	StatMedian Stat = "median"
	StatCount  Stat = "count"
	StatMax    Stat = "max"
	StatMin    Stat = "min"
)

// GrowthKind selects how period-over-period change is expressed.
type GrowthKind string

const (
	// GrowthPercent is percentage change against the prior period.
	GrowthPercent GrowthKind = "percent"
	// GrowthDifference is the absolute difference against the prior period,
	// used for rate-like measures such as punctuality.
	GrowthDifference GrowthKind = "difference"
)

// DefaultDateColumns is the ordered candidate list scanned when a profile
// does not override it.
var DefaultDateColumns = []string{"date", "timestamp", "datetime"}

// IntensityBuckets bins a statistic into ranked categorical labels.
// Edges are the full ascending bin boundaries; values above the last edge
// fall into the last label, values at or below the first edge get no label.
type IntensityBuckets struct {
	Stat   Stat      `validate:"required,oneof=sum mean median count max min"`
	Edges  []float64 `validate:"min=2"`
	Labels []string  `validate:"min=2"`
	Column string    `validate:"required"`
}

// Profile is the declarative per-dataset configuration driving the
// normalize/aggregate pipeline. Every behavioral difference between the
// datasets lives here, not in code branches.
type Profile struct {
	Name        string `validate:"required,lowercase"`
	Description string

	RawFile    string `validate:"required"`
	OutputFile string `validate:"required"`

	// DateColumns overrides DefaultDateColumns when set.
	DateColumns []string
	// ValueColumn names the preferred measure column for datasets whose
	// measure is not literally called "value". A literal "value" column
	// always wins; numeric fallback applies when neither is present.
	ValueColumn string
	// ContextColumns is the allow-list of categorical fields retained from
	// the raw file when present.
	ContextColumns []string
	// GroupBy is the explicit subset of ContextColumns that extends the
	// (year, month) grouping key. Retained context fields outside GroupBy
	// are descriptive tags and are dropped during aggregation.
	GroupBy []string

	Stats []Stat `validate:"min=1,dive,oneof=sum mean median count max min"`

	// GrowthBasis picks the statistic compared period over period; empty
	// disables growth columns.
	GrowthBasis    Stat       `validate:"omitempty,oneof=sum mean median count max min"`
	GrowthKind     GrowthKind `validate:"omitempty,oneof=percent difference"`
	YearOverYear   bool
	FillGrowthZero bool

	RollingWindows []int `validate:"dive,gt=1"`

	AddSeason bool
	Intensity *IntensityBuckets

	// NamePrefix drives flat output column naming: <prefix>_<stat> unless
	// overridden per stat in StatNames.
	NamePrefix         string `validate:"required"`
	StatNames          map[Stat]string
	GrowthColumn       string
	YearlyGrowthColumn string
	RoundDecimals      int `validate:"min=0,max=6"`
}

// DateCandidates returns the ordered date-column names to scan.
func (p Profile) DateCandidates() []string {
	if len(p.DateColumns) > 0 {
		return p.DateColumns
	}
	return DefaultDateColumns
}

// StatColumn returns the flat output column name for a statistic.
func (p Profile) StatColumn(s Stat) string {
	if name, ok := p.StatNames[s]; ok {
		return name
	}
	return fmt.Sprintf("%s_%s", p.NamePrefix, s)
}

// RollingColumn returns the output column name for a rolling window.
func (p Profile) RollingColumn(window int) string {
	return fmt.Sprintf("%s_rolling_%d", p.NamePrefix, window)
}

// Header returns the full, schema-stable output column set in order:
// grouping keys, statistics, growth, rolling averages, synthesized date and
// calendar context.
func (p Profile) Header() []string {
	header := []string{"year", "month"}
	header = append(header, p.GroupBy...)
	for _, stat := range p.Stats {
		header = append(header, p.StatColumn(stat))
	}
	if p.GrowthBasis != "" {
		header = append(header, p.GrowthColumn)
		if p.YearOverYear {
			header = append(header, p.YearlyGrowthColumn)
		}
	}
	for _, window := range p.RollingWindows {
		header = append(header, p.RollingColumn(window))
	}
	header = append(header, "date")
	if p.AddSeason {
		header = append(header, "season")
	}
	if p.Intensity != nil {
		header = append(header, p.Intensity.Column)
	}
	return header
}

// RegenerateCommand names the exact command that rebuilds this dataset's
// processed file, for user-facing guidance.
func (p Profile) RegenerateCommand() string {
	return fmt.Sprintf("prepare --dataset %s", p.Name)
}

// HasStat reports whether the profile computes the given statistic.
func (p Profile) HasStat(s Stat) bool {
	for _, stat := range p.Stats {
		if stat == s {
			return true
		}
	}
	return false
}

var validate = validator.New()

// Validate checks structural tags plus the cross-field rules the tags
// cannot express.
func (p Profile) Validate() error {
	if err := validate.Struct(p); err != nil {
		return apperrors.NewConfigError(fmt.Sprintf("profile %s is invalid", p.Name), err)
	}

	ctxSet := make(map[string]bool, len(p.ContextColumns))
	for _, c := range p.ContextColumns {
		ctxSet[c] = true
	}
	for _, g := range p.GroupBy {
		if !ctxSet[g] {
			return apperrors.NewConfigError(
				fmt.Sprintf("profile %s: grouping field %q is not in the context allow-list", p.Name, g), nil)
		}
	}

	if p.GrowthBasis != "" {
		if !p.HasStat(p.GrowthBasis) {
			return apperrors.NewConfigError(
				fmt.Sprintf("profile %s: growth basis %q is not a computed statistic", p.Name, p.GrowthBasis), nil)
		}
		if p.GrowthColumn == "" {
			return apperrors.NewConfigError(
				fmt.Sprintf("profile %s: growth basis set without a growth column name", p.Name), nil)
		}
		if p.YearOverYear && p.YearlyGrowthColumn == "" {
			return apperrors.NewConfigError(
				fmt.Sprintf("profile %s: year-over-year growth set without a column name", p.Name), nil)
		}
	}

	if p.Intensity != nil {
		if len(p.Intensity.Labels) != len(p.Intensity.Edges) {
			return apperrors.NewConfigError(
				fmt.Sprintf("profile %s: intensity needs one label per bin (%d edges, %d labels)",
					p.Name, len(p.Intensity.Edges), len(p.Intensity.Labels)), nil)
		}
		if !p.HasStat(p.Intensity.Stat) {
			return apperrors.NewConfigError(
				fmt.Sprintf("profile %s: intensity statistic %q is not computed", p.Name, p.Intensity.Stat), nil)
		}
	}

	return nil
}

// Profiles returns the built-in dataset profiles in fixed order.
func Profiles() []Profile {
	return []Profile{evProfile(), trafficProfile(), enturProfile(), geonorgeProfile()}
}

// ProfileByName resolves a single profile by its dataset name.
func ProfileByName(name string) (Profile, error) {
	for _, p := range Profiles() {
		if p.Name == name {
			return p, nil
		}
	}
	return Profile{}, apperrors.NewNotFoundError(fmt.Sprintf("dataset profile %q", name))
}

// ExpandSelector resolves a dataset selector argument into profiles.
// "all" selects every profile, "both" keeps backwards compatibility with
// the two original datasets (ev and traffic).
func ExpandSelector(selector string) ([]Profile, error) {
	switch strings.ToLower(strings.TrimSpace(selector)) {
	case "all", "":
		return Profiles(), nil
	case "both":
		return []Profile{evProfile(), trafficProfile()}, nil
	default:
		p, err := ProfileByName(strings.ToLower(strings.TrimSpace(selector)))
		if err != nil {
			return nil, err
		}
		return []Profile{p}, nil
	}
}

// ValidateProfiles validates every built-in profile; called at startup so a
// bad profile definition fails fast rather than mid-run.
func ValidateProfiles() error {
	for _, p := range Profiles() {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func evProfile() Profile {
	return Profile{
		Name:        "ev",
		Description: "Norwegian electric vehicle registrations",
		RawFile:     "norwegian_ev_registrations.csv",
		OutputFile:  "ev_metrics.csv",
		ContextColumns: []string{
			"vehicle_type", "region", "fuel_type", "county",
		},
		Stats: []Stat{StatSum, StatMean, StatMedian, StatCount, StatMax},
		StatNames: map[Stat]string{
			StatSum:    "ev_registrations_total",
			StatMean:   "ev_registrations_mean",
			StatMedian: "ev_registrations_median",
			StatCount:  "data_points",
			StatMax:    "ev_registrations_max",
		},
		GrowthBasis:        StatSum,
		GrowthKind:         GrowthPercent,
		YearOverYear:       true,
		FillGrowthZero:     true,
		GrowthColumn:       "monthly_growth_rate",
		YearlyGrowthColumn: "yearly_growth_rate",
		RollingWindows:     []int{3, 12},
		AddSeason:          true,
		NamePrefix:         "ev_registrations",
		RoundDecimals:      1,
	}
}

func trafficProfile() Profile {
	return Profile{
		Name:        "traffic",
		Description: "Norwegian road traffic counts (NVDB)",
		RawFile:     "norwegian_traffic_nvdb.csv",
		OutputFile:  "traffic_metrics.csv",
		ContextColumns: []string{
			"region", "road_category", "traffic_type", "county", "road_number",
		},
		GroupBy:            []string{"region", "road_category"},
		Stats:              []Stat{StatSum, StatMean, StatMedian, StatCount, StatMax, StatMin},
		GrowthBasis:        StatMean,
		GrowthKind:         GrowthPercent,
		YearOverYear:       true,
		FillGrowthZero:     true,
		GrowthColumn:       "monthly_change_mean",
		YearlyGrowthColumn: "yearly_change_mean",
		RollingWindows:     []int{3, 12},
		AddSeason:          true,
		Intensity: &IntensityBuckets{
			Stat:   StatMean,
			Edges:  []float64{0, 30000, 45000, 60000},
			Labels: []string{"Low", "Medium", "High", "Very High"},
			Column: "traffic_intensity",
		},
		NamePrefix:    "traffic",
		RoundDecimals: 1,
	}
}

func enturProfile() Profile {
	return Profile{
		Name:        "entur",
		Description: "Norwegian public transport punctuality (Entur)",
		RawFile:     "norwegian_entur_punctuality.csv",
		OutputFile:  "entur_metrics.csv",
		ValueColumn: "punctuality_rate",
		ContextColumns: []string{
			"region", "operator",
		},
		GroupBy:        []string{"region", "operator"},
		Stats:          []Stat{StatMean, StatMedian, StatCount, StatMin, StatMax},
		GrowthBasis:    StatMean,
		GrowthKind:     GrowthDifference,
		FillGrowthZero: true,
		GrowthColumn:   "punctuality_improvement",
		RollingWindows: []int{3},
		AddSeason:      true,
		NamePrefix:     "punctuality_rate",
		RoundDecimals:  1,
	}
}

func geonorgeProfile() Profile {
	return Profile{
		Name:        "geonorge",
		Description: "Norwegian geographic development indicators (Geonorge)",
		RawFile:     "norwegian_geonorge_kpis.csv",
		OutputFile:  "geonorge_metrics.csv",
		ValueColumn: "urban_development_index",
		ContextColumns: []string{
			"county_name", "kommune_name",
		},
		GroupBy:        []string{"county_name", "kommune_name"},
		Stats:          []Stat{StatMean, StatMax, StatCount},
		GrowthBasis:    StatMean,
		GrowthKind:     GrowthPercent,
		FillGrowthZero: true,
		GrowthColumn:   "urban_development_rate",
		RollingWindows: []int{3},
		NamePrefix:     "urban_development",
		RoundDecimals:  1,
	}
}
