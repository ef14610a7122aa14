package qualification

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/shaketable/qualification/config"
	"github.com/RyanBlaney/shaketable/qualification/errs"
	"github.com/RyanBlaney/shaketable/qualification/series"
	"github.com/RyanBlaney/shaketable/qualification/spectra"
)

const testRate = 200.0

func noise(seed uint64, n int, scale float64) []float64 {
	rng := rand.New(rand.NewPCG(seed, 7))
	out := make([]float64, n)
	for i := range out {
		out[i] = scale * rng.NormFloat64()
	}
	return out
}

func testFrame(t *testing.T, n int) *series.Frame {
	t.Helper()
	times := make([]float64, n)
	for i := range times {
		times[i] = float64(i) / testRate
	}
	frame := series.NewFrame(times)
	require.NoError(t, frame.Add("Table_X", noise(1, n, 0.5)))
	require.NoError(t, frame.Add("Table_Y", noise(2, n, 0.5)))
	require.NoError(t, frame.Add("Table_Z", noise(3, n, 0.3)))
	require.NoError(t, frame.Add("UUT1_Top_X", noise(4, n, 0.8)))
	require.NoError(t, frame.Add("UUT1_Top_Y", noise(5, n, 0.8)))
	return frame
}

func testRunConfig(t *testing.T) (*config.RunConfig, *spectra.SpectrumParameters) {
	t.Helper()
	site, err := config.NewSiteSeismicConfig(1.0, 0.5, nil, nil, 10, config.ASCE716)
	require.NoError(t, err)

	cfg := config.DefaultRunConfig()
	cfg.RunName = "Run_01"
	cfg.Site = *site
	cfg.Accels = []config.AccelConfig{{Name: "UUT1_Top"}}

	params, err := spectra.CalculateParameters(cfg.Site)
	require.NoError(t, err)
	return cfg, params
}

func TestRunProcessorEndToEnd(t *testing.T) {
	cfg, params := testRunConfig(t)
	cfg.Columns = []config.ColumnConfig{
		{Name: "Table_X", Source: "Ch1", Filter: &config.FilterConfig{Order: 4, CutoffHz: 50}},
	}

	result, err := NewRunProcessor(cfg, params).Process(testFrame(t, 4000))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, result.RunID)
	assert.Equal(t, "Run_01", result.RunName)
	assert.InDelta(t, testRate, result.SampleRate, 1e-6)
	assert.Equal(t, 0.05, result.Damping)

	names := make([]string, len(result.Channels))
	for i, ch := range result.Channels {
		names[i] = ch.Name
	}
	assert.Equal(t, []string{"Table_X", "Table_Y", "Table_Z", "UUT1_Top_X", "UUT1_Top_Y"}, names)

	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "UUT1_Top_Z", result.Skipped[0].Channel)

	for _, ch := range result.Channels {
		assert.Len(t, ch.TRS.Response, len(params.Frequencies))
		assert.Equal(t, ch.IsTable, ch.Octave.Searched, ch.Name)
		assert.Greater(t, ch.PeakAccel, 0.0)
		for _, v := range ch.TRS.Response {
			assert.GreaterOrEqual(t, v, 0.0)
		}
	}

	z, ok := result.Channel("Table_Z")
	require.True(t, ok)
	assert.Equal(t, params.ArigV90, z.Arig90)
	assert.Equal(t, params.AflxV, z.Aflx)

	x, ok := result.Channel("UUT1_Top_X")
	require.True(t, ok)
	assert.Equal(t, params.ArigH90, x.Arig90)
	assert.False(t, x.IsTable)
	assert.Equal(t, 0, x.Octave.PhaseOffset)

	assert.Len(t, result.TableChannels(), 3)

	require.NotNil(t, result.CrossCorrelation)
	require.NotNil(t, result.Coherence)
	assert.Len(t, result.CrossCorrelation.Pairs, 3)
	assert.Len(t, result.Coherence.Pairs, 3)
	assert.Less(t, result.CrossCorrelation.MaxCorrelation, 0.3)
}

type recordingConditioner struct {
	calls    []string
	err      error
	truncate bool
}

func (r *recordingConditioner) Condition(channel string, values []float64, _ float64) ([]float64, error) {
	r.calls = append(r.calls, channel)
	if channel == "Table_Y" {
		if r.err != nil {
			return nil, r.err
		}
		if r.truncate {
			return values[:len(values)/2], nil
		}
	}
	return values, nil
}

func TestRunProcessorConditioner(t *testing.T) {
	cfg, params := testRunConfig(t)
	cfg.Axes = []string{"X", "Y"}
	frame := testFrame(t, 2400)

	t.Run("every column is conditioned", func(t *testing.T) {
		rec := &recordingConditioner{}
		_, err := NewRunProcessor(cfg, params).WithConditioner(rec).Process(frame)
		require.NoError(t, err)
		assert.Equal(t, frame.Names(), rec.calls)
	})

	t.Run("channel-level failure skips the channel", func(t *testing.T) {
		rec := &recordingConditioner{err: errs.ErrNumericDomain}
		result, err := NewRunProcessor(cfg, params).WithConditioner(rec).Process(frame)
		require.NoError(t, err)

		_, ok := result.Channel("Table_Y")
		assert.False(t, ok)
		require.Len(t, result.Skipped, 1)
		assert.Equal(t, "Table_Y", result.Skipped[0].Channel)

		// Only X and Z remain for the independence checks
		require.NotNil(t, result.CrossCorrelation)
		require.Len(t, result.CrossCorrelation.Pairs, 1)
		assert.Equal(t, "X-Z", result.CrossCorrelation.Pairs[0].Key)
	})

	t.Run("wrong-length output skips the channel", func(t *testing.T) {
		rec := &recordingConditioner{truncate: true}
		result, err := NewRunProcessor(cfg, params).WithConditioner(rec).Process(frame)
		require.NoError(t, err)

		require.Len(t, result.Skipped, 1)
		assert.Equal(t, "Table_Y", result.Skipped[0].Channel)
		assert.NotContains(t, result.TableChannels(), "Y")
		require.NotNil(t, result.Coherence)
		require.Len(t, result.Coherence.Pairs, 1)
		assert.Equal(t, "X-Z", result.Coherence.Pairs[0].Key)
	})

	t.Run("unclassified failure aborts", func(t *testing.T) {
		boom := errors.New("boom")
		rec := &recordingConditioner{err: boom}
		_, err := NewRunProcessor(cfg, params).WithConditioner(rec).Process(frame)
		assert.ErrorIs(t, err, boom)
	})
}

func TestRunProcessorFilterAboveNyquistSkips(t *testing.T) {
	cfg, params := testRunConfig(t)
	cfg.Columns = []config.ColumnConfig{
		{Name: "UUT1_Top_X", Source: "Ch4", Filter: &config.FilterConfig{Order: 2, CutoffHz: 150}},
	}

	result, err := NewRunProcessor(cfg, params).Process(testFrame(t, 2400))
	require.NoError(t, err)

	var skipped []string
	for _, s := range result.Skipped {
		skipped = append(skipped, s.Channel)
	}
	assert.Equal(t, []string{"UUT1_Top_X", "UUT1_Top_Z"}, skipped)
	assert.Len(t, result.Channels, 4)
}

func TestRunProcessorErrors(t *testing.T) {
	cfg, params := testRunConfig(t)

	t.Run("non-uniform time axis", func(t *testing.T) {
		frame := testFrame(t, 2400)
		frame.Times[100] += 0.001
		_, err := NewRunProcessor(cfg, params).Process(frame)
		assert.ErrorIs(t, err, errs.ErrDataShape)
	})

	t.Run("invalid configuration", func(t *testing.T) {
		bad := *cfg
		bad.RunName = ""
		_, err := NewRunProcessor(&bad, params).Process(testFrame(t, 2400))
		assert.ErrorIs(t, err, errs.ErrConfiguration)
	})

	t.Run("missing parameters", func(t *testing.T) {
		_, err := NewRunProcessor(cfg, nil).Process(testFrame(t, 2400))
		assert.ErrorIs(t, err, errs.ErrConfiguration)
	})
}

func TestRunProcessorDeterministic(t *testing.T) {
	cfg, params := testRunConfig(t)
	cfg.Axes = []string{"X"}
	frame := testFrame(t, 2400)

	first, err := NewRunProcessor(cfg, params).Process(frame)
	require.NoError(t, err)
	cfg.Workers = 1
	second, err := NewRunProcessor(cfg, params).Process(frame)
	require.NoError(t, err)

	require.Len(t, second.Channels, len(first.Channels))
	for i := range first.Channels {
		assert.Equal(t, first.Channels[i].TRS.Response, second.Channels[i].TRS.Response)
		assert.Equal(t, first.Channels[i].Octave.PhaseOffset, second.Channels[i].Octave.PhaseOffset)
	}
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.False(t, math.IsNaN(first.Coherence.MaxCoherence))
}
