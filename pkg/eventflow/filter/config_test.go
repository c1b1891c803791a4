package filter_test

import (
	"testing"

	"github.com/randalmurphal/eventflow/pkg/eventflow"
	"github.com/randalmurphal/eventflow/pkg/eventflow/config"
	eferrors "github.com/randalmurphal/eventflow/pkg/eventflow/errors"
	"github.com/randalmurphal/eventflow/pkg/eventflow/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func yamlConfig(t *testing.T, src string) config.Config {
	t.Helper()
	cfg, err := config.FromYAML([]byte(src))
	require.NoError(t, err)
	return cfg
}

func TestCountFilterFromConfig(t *testing.T) {
	cfg := yamlConfig(t, `
axes: [event.jets, event.leptons]
mode: exactly_one
bins:
  - name: 2j1l
    ranges:
      - {min: 2}
      - {exact: 1}
  - name: 3j
    ranges:
      - {min: 3, max: 10}
      - {min: 0}
`)
	f, err := filter.CountFilterFromConfig("selection", cfg)
	require.NoError(t, err)
	assert.Equal(t, filter.ModeExactlyOne, f.Mode())

	got := run(t, f,
		event{jets: 2, leptons: 1},
		event{jets: 3, leptons: 1},
		event{jets: 11, leptons: 0},
		event{jets: 4, leptons: 0},
	)
	assert.Equal(t, int64(2), got)
}

func TestBinsFromConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"missing_mode", "bins: []", "mode"},
		{"unknown_mode", "mode: some", "some"},
		{"bins_not_list", "mode: any\nbins: 3", "expected a list"},
		{"empty_range", "mode: any\nbins:\n  - name: a\n    ranges: [{}]", "bins[0]"},
		{"inverted_range", "mode: any\nbins:\n  - name: a\n    ranges: [{min: 4, max: 1}]", "exceeds max"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := filter.BinsFromConfig(yamlConfig(t, tt.src))
			require.ErrorIs(t, err, eferrors.ErrInvalidConfiguration)
			assert.ErrorContains(t, err, tt.msg)
		})
	}
}

func TestCutFilterFromConfig(t *testing.T) {
	f, err := filter.CutFilterFromConfig("met", yamlConfig(t, `expression: "event.met >= 20"`))
	require.NoError(t, err)
	assert.Equal(t, "event.met >= 20", f.Expression())
	assert.Equal(t, int64(1), run(t, f, event{met: 20}, event{met: 19.5}))
}

func TestDatasetSelectorFromConfig(t *testing.T) {
	s, err := filter.DatasetSelectorFromConfig("data", yamlConfig(t, "masks: [data_.*]\ninvert: true"))
	require.NoError(t, err)
	assert.False(t, s.Selects("data_2018A"))
	assert.True(t, s.Selects("ttbar"))
}

func TestEventIDFilterFromConfig(t *testing.T) {
	f, err := filter.EventIDFilterFromConfig("ids", yamlConfig(t, `
mode: keep
lists:
  ttbar_0: ["1:1:0", "1:1:2"]
`))
	require.NoError(t, err)
	assert.Equal(t, int64(2), run(t, f, event{}, event{}, event{}))

	_, err = filter.EventIDFilterFromConfig("ids", yamlConfig(t, "mode: keep\nlists:\n  ttbar_0: [\"1:1\"]"))
	assert.ErrorIs(t, err, eferrors.ErrInvalidConfiguration)

	_, err = filter.EventIDFilterFromConfig("ids", yamlConfig(t, "lists: {}"))
	assert.ErrorIs(t, err, eferrors.ErrInvalidConfiguration)
}

func TestRemainderFilterFromConfig(t *testing.T) {
	f, err := filter.RemainderFilterFromConfig("split", yamlConfig(t, "max_remainder: 1\ndenominator: 3\ninvert: true"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), run(t, f, make([]event, 6)...))

	for _, bad := range []string{"max_remainder: 0", "denominator: -2", "max_remainder: -1\ndenominator: 2", "denominator: 0"} {
		_, err := filter.RemainderFilterFromConfig("split", yamlConfig(t, bad))
		assert.ErrorIs(t, err, eferrors.ErrInvalidConfiguration, bad)
	}
}

func TestParseEventID(t *testing.T) {
	id, err := eventflow.ParseEventID("316000:12:4051")
	require.NoError(t, err)
	assert.Equal(t, eventflow.EventID{Run: 316000, Lumi: 12, Event: 4051}, id)
	assert.Equal(t, "316000:12:4051", id.String())

	for _, bad := range []string{"", "1:2", "1:2:x", "1:2:3:4", "-1:2:3"} {
		_, err := eventflow.ParseEventID(bad)
		assert.Error(t, err, bad)
	}
}
