package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "transportcli/internal/errors"
)

func TestValidateProfiles(t *testing.T) {
	assert.NoError(t, ValidateProfiles())
}

func TestProfile_Header(t *testing.T) {
	t.Run("traffic includes grouping and intensity columns", func(t *testing.T) {
		want := []string{
			"year", "month", "region", "road_category",
			"traffic_sum", "traffic_mean", "traffic_median",
			"traffic_count", "traffic_max", "traffic_min",
			"monthly_change_mean", "yearly_change_mean",
			"traffic_rolling_3", "traffic_rolling_12",
			"date", "season", "traffic_intensity",
		}
		assert.Equal(t, want, trafficProfile().Header())
	})

	t.Run("geonorge skips season and year over year", func(t *testing.T) {
		want := []string{
			"year", "month", "county_name", "kommune_name",
			"urban_development_mean", "urban_development_max", "urban_development_count",
			"urban_development_rate",
			"urban_development_rolling_3",
			"date",
		}
		assert.Equal(t, want, geonorgeProfile().Header())
	})
}

func TestProfile_StatColumn(t *testing.T) {
	p := evProfile()
	// Explicit overrides win, otherwise prefix_stat.
	assert.Equal(t, "ev_registrations_total", p.StatColumn(StatSum))
	assert.Equal(t, "data_points", p.StatColumn(StatCount))

	p = trafficProfile()
	assert.Equal(t, "traffic_mean", p.StatColumn(StatMean))
}

func TestProfile_RegenerateCommand(t *testing.T) {
	assert.Equal(t, "prepare --dataset entur", enturProfile().RegenerateCommand())
}

func TestProfile_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Profile)
		wantErr string
	}{
		{
			name:   "valid profile",
			mutate: func(p *Profile) {},
		},
		{
			name: "groupby outside context allow-list",
			mutate: func(p *Profile) {
				p.GroupBy = []string{"operator"}
			},
			wantErr: "allow-list",
		},
		{
			name: "growth basis not computed",
			mutate: func(p *Profile) {
				p.GrowthBasis = StatMin
				p.GrowthColumn = "growth"
			},
			wantErr: "growth basis",
		},
		{
			name: "growth basis without column name",
			mutate: func(p *Profile) {
				p.GrowthBasis = StatSum
				p.GrowthColumn = ""
			},
			wantErr: "growth column",
		},
		{
			name: "intensity label count mismatch",
			mutate: func(p *Profile) {
				p.Intensity = &IntensityBuckets{
					Stat:   StatSum,
					Edges:  []float64{0, 10, 20},
					Labels: []string{"Low", "High"},
					Column: "intensity",
				}
			},
			wantErr: "one label per bin",
		},
		{
			name: "intensity statistic not computed",
			mutate: func(p *Profile) {
				p.Intensity = &IntensityBuckets{
					Stat:   StatMin,
					Edges:  []float64{0, 10},
					Labels: []string{"Low", "High"},
					Column: "intensity",
				}
			},
			wantErr: "intensity statistic",
		},
		{
			name: "missing raw file",
			mutate: func(p *Profile) {
				p.RawFile = ""
			},
			wantErr: "invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := minimalProfile()
			p.ContextColumns = []string{"region"}
			tt.mutate(&p)

			err := p.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestProfileByName(t *testing.T) {
	p, err := ProfileByName("traffic")
	require.NoError(t, err)
	assert.Equal(t, "traffic", p.Name)

	_, err = ProfileByName("weather")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestExpandSelector(t *testing.T) {
	names := func(profiles []Profile) []string {
		var out []string
		for _, p := range profiles {
			out = append(out, p.Name)
		}
		return out
	}

	tests := []struct {
		name     string
		selector string
		want     []string
		wantErr  bool
	}{
		{"all", "all", []string{"ev", "traffic", "entur", "geonorge"}, false},
		{"empty means all", "", []string{"ev", "traffic", "entur", "geonorge"}, false},
		{"both is the original pair", "both", []string{"ev", "traffic"}, false},
		{"single dataset", "entur", []string{"entur"}, false},
		{"case and whitespace tolerant", "  EV ", []string{"ev"}, false},
		{"unknown dataset", "weather", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandSelector(tt.selector)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}
