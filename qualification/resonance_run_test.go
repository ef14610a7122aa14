package qualification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/shaketable/qualification/config"
	"github.com/RyanBlaney/shaketable/qualification/errs"
	"github.com/RyanBlaney/shaketable/qualification/resonance"
	"github.com/RyanBlaney/shaketable/qualification/series"
)

func spectrumFrame(t *testing.T, freqs []float64, columns map[string][]float64, order ...string) *series.SpectrumFrame {
	t.Helper()
	frame := series.NewSpectrumFrame(freqs)
	for _, name := range order {
		require.NoError(t, frame.Add(name, columns[name]))
	}
	return frame
}

func plotOnlyConfig() *config.ResonanceConfig {
	cfg := config.DefaultResonanceConfig()
	cfg.RunName = "Res_01"
	cfg.Axes = []string{"X", "Y"}
	cfg.Files = map[string]string{"X": "x.csv", "Y": "y.csv"}
	cfg.Accels = []config.AccelConfig{
		{Name: "Top", UUT: "UUT1", UUTMapX: "FB", NaturalFrequencies: map[string]float64{"X": 25}},
	}
	return cfg
}

func TestResonanceProcessSpectra(t *testing.T) {
	freqs := []float64{10, 20, 30, 40}
	perAxis := map[string]*series.SpectrumFrame{
		"X": spectrumFrame(t, freqs, map[string][]float64{
			"Table_X":    {1, 1, 2, 2},
			"UUT1_Top_X": {1, 3, 4, 2},
		}, "Table_X", "UUT1_Top_X"),
		"Y": spectrumFrame(t, freqs, map[string][]float64{
			"Table_Y":    {2, 2, 2, 2},
			"UUT1_Top_Y": {2, 2, 2, 8},
		}, "Table_Y", "UUT1_Top_Y"),
	}

	result, err := NewResonanceProcessor(plotOnlyConfig()).ProcessSpectra(perAxis)
	require.NoError(t, err)

	assert.True(t, result.PlotOnly)
	assert.Equal(t, []string{"Table_X", "UUT1_Top_X", "Table_Y", "UUT1_Top_Y"}, result.Data.Names())
	assert.Empty(t, result.Skipped)
	require.Len(t, result.Transfers, 2)

	x := result.Transfers[0]
	assert.Equal(t, "UUT1_Top_X", x.Channel)
	assert.Equal(t, "FB", x.AxisLabel)
	assert.Equal(t, []float64{1, 3, 2, 1}, x.Transmissibility)
	assert.Equal(t, 20.0, x.Resonance.Frequency)
	assert.Equal(t, 25.0, x.Resonance.HintFrequency)
	assert.InDelta(t, 2.5, x.Resonance.HintTransmissibility, 1e-12)

	y := result.Transfers[1]
	assert.Equal(t, "SS", y.AxisLabel)
	assert.Equal(t, 40.0, y.Resonance.Frequency)
	assert.Equal(t, resonance.DefaultNaturalFrequency, y.Resonance.HintFrequency)
}

func TestResonanceProcessSpectraSkips(t *testing.T) {
	freqs := []float64{10, 20}
	perAxis := map[string]*series.SpectrumFrame{
		"X": spectrumFrame(t, freqs, map[string][]float64{
			"Table_X":    {0, 1},
			"UUT1_Top_X": {1, 1},
		}, "Table_X", "UUT1_Top_X"),
	}

	result, err := NewResonanceProcessor(plotOnlyConfig()).ProcessSpectra(perAxis)
	require.NoError(t, err)
	assert.Empty(t, result.Transfers)

	var skipped []string
	for _, s := range result.Skipped {
		skipped = append(skipped, s.Channel)
	}
	assert.Equal(t, []string{"files.Y", "UUT1_Top_X", "UUT1_Top_Y"}, skipped)
}

func TestResonanceProcessSpectraMismatchedAxes(t *testing.T) {
	perAxis := map[string]*series.SpectrumFrame{
		"X": spectrumFrame(t, []float64{10, 20}, map[string][]float64{"Table_X": {1, 1}}, "Table_X"),
		"Y": spectrumFrame(t, []float64{10, 20, 30}, map[string][]float64{"Table_Y": {1, 1, 1}}, "Table_Y"),
	}

	_, err := NewResonanceProcessor(plotOnlyConfig()).ProcessSpectra(perAxis)
	assert.ErrorIs(t, err, errs.ErrDataShape)
}

func TestResonanceProcessTimeHistory(t *testing.T) {
	cfg := config.DefaultResonanceConfig()
	cfg.RunName = "Res_02"
	cfg.PlotOnly = false
	cfg.TimeFile = "sweep.csv"
	cfg.Axes = []string{"X", "Y", "Z"}
	cfg.Accels = []config.AccelConfig{{Name: "Top", UUT: "UUT1", UUTMapX: "SS"}}

	const n = 4096
	times := make([]float64, n)
	for i := range times {
		times[i] = float64(i) / testRate
	}
	table := noise(21, n, 1)
	unit := make([]float64, n)
	for i, v := range table {
		unit[i] = 2 * v
	}

	frame := series.NewFrame(times)
	require.NoError(t, frame.Add("Table_X", table))
	require.NoError(t, frame.Add("UUT1_Top_X", unit))
	require.NoError(t, frame.Add("Table_Y", table))
	require.NoError(t, frame.Add("Top_Y", unit))

	result, err := NewResonanceProcessor(cfg).ProcessTimeHistory(frame)
	require.NoError(t, err)
	assert.False(t, result.PlotOnly)

	assert.True(t, result.Data.Has("UUT1_Top_Y"), "fallback column is stored under the unit name")
	for _, v := range result.Data.Columns["Table_X"] {
		assert.Equal(t, 1.0, v)
	}
	assert.True(t, result.Data.Has("Table_Z"))
	assert.Equal(t, 129, result.Data.Len())

	require.Len(t, result.Transfers, 2)
	for _, tf := range result.Transfers {
		assert.InDelta(t, 2.0, tf.Resonance.Transmissibility, 1e-9)
		for k := 1; k < len(tf.Transmissibility); k++ {
			assert.InDelta(t, 2.0, tf.Transmissibility[k], 1e-9)
		}
	}
	assert.Equal(t, "SS", result.Transfers[0].AxisLabel)
	assert.Equal(t, "FB", result.Transfers[1].AxisLabel)

	var skipped []string
	for _, s := range result.Skipped {
		skipped = append(skipped, s.Channel)
	}
	assert.Equal(t, []string{"Table_Z", "UUT1_Top_Z"}, skipped)
}

func TestResonanceProcessTimeHistoryErrors(t *testing.T) {
	cfg := config.DefaultResonanceConfig()
	cfg.RunName = "Res_03"
	cfg.PlotOnly = false
	cfg.Accels = []config.AccelConfig{{Name: "Top", UUT: "UUT1", UUTMapX: "SS"}}

	frame := series.NewFrame([]float64{0, 0.01, 0.02})
	_, err := NewResonanceProcessor(cfg).ProcessTimeHistory(frame)
	assert.ErrorIs(t, err, errs.ErrConfiguration, "time_file is required")

	cfg.TimeFile = "sweep.csv"
	frame = series.NewFrame([]float64{0, 0.01, 0.03})
	_, err = NewResonanceProcessor(cfg).ProcessTimeHistory(frame)
	assert.ErrorIs(t, err, errs.ErrDataShape)
}
