package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/wst-etc/internal/etc"
	"github.com/daryltucker/wst-etc/internal/model"
)

func TestTraceDITNDIT(t *testing.T) {
	batch := New(&fakeCalc{snr: flatSNR}).Run(context.Background(), model.ModeDITNDIT, configs(t, "ifs-blue"))
	text := Trace(batch)

	want := strings.Join([]string{
		strings.Repeat("=", 80),
		"WST ETC - COMPUTATION RESULTS",
		strings.Repeat("=", 80),
		"",
		"Configuration 1: IFS - BLUE",
		strings.Repeat("-", 80),
		"  Number of spaxels (spatial coadding): 1x1",
		"  Mode: DIT & NDIT",
		"  DIT: 600 s",
		"  NDIT: 1",
		"  → Achieved SNR at central wavelength 5000.0 Å: 2.00",
		"  → Achieved SNR at central wavelength 5000.0 Å (with spectral coadding): 2.50",
		"  → Fraction of saturated voxels: 1.0%",
		"",
		strings.Repeat("=", 80),
		"Computation completed successfully",
		strings.Repeat("=", 80),
	}, "\n")
	if diff := cmp.Diff(want, text); diff != "" {
		t.Errorf("Trace() mismatch (-want +got):\n%s", diff)
	}
}

func TestTraceTwoStageOrdering(t *testing.T) {
	calc := &fakeCalc{
		snr: flatSNR,
		time: func(_ *etc.Observation, solveDIT bool) (*etc.TimeResult, error) {
			if solveDIT {
				return &etc.TimeResult{DIT: 42.5}, nil
			}
			return &etc.TimeResult{NDIT: 3.2}, nil
		},
	}

	ditSNR := Trace(New(calc).Run(context.Background(), model.ModeDITSNR, configs(t, "moslr-blue")))
	assert.Contains(t, ditSNR, "  Mode: DIT & SNR\n  DIT: 600 s\n  Target SNR: 10\n  → Required NDIT: 3.20\n")
	assert.NotContains(t, ditSNR, "Number of spaxels")
	perPixel := strings.Index(ditSNR, "(closest to requested reference wavelength 5000 Å): 2.00")
	coadded := strings.Index(ditSNR, "(closest to requested reference wavelength 5000 Å, with spectral coadding): 2.50")
	require.NotEqual(t, -1, perPixel)
	require.NotEqual(t, -1, coadded)
	assert.Less(t, perPixel, coadded)

	nditSNR := Trace(New(calc).Run(context.Background(), model.ModeNDITSNR, configs(t, "moslr-blue")))
	assert.Contains(t, nditSNR, "  Mode: NDIT & SNR\n  NDIT: 1\n  Target SNR: 10\n  → Required DIT: 42.50 s\n")
	perPixel = strings.Index(nditSNR, "reference wavelength 5000 Å): 2.00")
	coadded = strings.Index(nditSNR, "reference wavelength 5000 Å, with spectral coadding): 2.50")
	assert.Greater(t, perPixel, coadded)
}

func TestTraceWarningsAndErrors(t *testing.T) {
	calc := &fakeCalc{
		snr:      flatSNR,
		buildErr: map[string]error{"ifs-red": errors.New("bad seeing")},
		time: func(*etc.Observation, bool) (*etc.TimeResult, error) {
			fs := 0.125
			return &etc.TimeResult{Message: "too faint", FracSat: &fs}, nil
		},
	}
	batch := New(calc).Run(context.Background(), model.ModeDITSNR, configs(t, "moshr-V", "ifs-red"))
	text := Trace(batch)

	assert.Contains(t, text, "  ⚠ WARNING: too faint\n  → Fraction of saturated pixels: 12.5%\n")
	assert.Contains(t, text, "Configuration 2: IFS - RED\n"+strings.Repeat("-", 80)+"\n  Number of spaxels (spatial coadding): 1x1\n  ERROR: failed to build observation: bad seeing\n")
	assert.True(t, strings.HasSuffix(text, "Computation completed with warnings/errors (see above)\n"+strings.Repeat("=", 80)))
	assert.Nil(t, Report(batch))
}

func TestTraceKeepsPercentSigns(t *testing.T) {
	calc := &fakeCalc{
		buildErr: map[string]error{"ifs-red": errors.New("bad %d value")},
		snr: func(*etc.Observation) (*etc.SNRResult, error) {
			return &etc.SNRResult{Message: "100% of pixels saturated"}, nil
		},
	}
	text := Trace(New(calc).Run(context.Background(), model.ModeDITNDIT, configs(t, "ifs-blue", "ifs-red")))

	assert.Contains(t, text, "  ⚠ WARNING: 100% of pixels saturated\n")
	assert.Contains(t, text, "  ERROR: failed to build observation: bad %d value\n")
	assert.NotContains(t, text, "%!")
}

func TestReport(t *testing.T) {
	sets := configs(t, "ifs-blue", "moslr-red")
	sets[1]["COADD_WL"] = model.IntValue(3)
	batch := New(&fakeCalc{snr: flatSNR}).Run(context.Background(), model.ModeDITNDIT, sets)

	plot := Report(batch)
	require.NotNil(t, plot)
	assert.Equal(t, model.ModeDITNDIT, plot.ComputeMode)

	require.Len(t, plot.Traces, 3)
	assert.Equal(t, "IFS BLUE (SNR x spectral pixel)", plot.Traces[0].Name)
	assert.Equal(t, model.Color("ifs", "blue"), plot.Traces[0].Color)
	assert.False(t, plot.Traces[0].Secondary)
	assert.Equal(t, "MOSLR RED (SNR x spectral pixel)", plot.Traces[1].Name)
	assert.Equal(t, "MOSLR RED (SNR x spectral coadding [3 pixels])", plot.Traces[2].Name)
	assert.True(t, plot.Traces[2].Secondary)
	assert.Equal(t, []float64{1.5, 2.5, 3.5}, plot.Traces[2].Y)

	require.Len(t, plot.Summary, 2)
	row := plot.Summary[0]
	assert.Equal(t, "IFS BLUE", row.Config)
	assert.Equal(t, "600", row.DIT.String())
	assert.Equal(t, "1", row.NDIT.String())
	assert.Equal(t, "10", row.SNRTarget.String())
	assert.Equal(t, "2.00", row.SNRAchieved)
	assert.Equal(t, "1.0%", row.FracSat)
}

func TestReportSkipsEmptyCoaddedSeries(t *testing.T) {
	calc := &fakeCalc{snr: func(obs *etc.Observation) (*etc.SNRResult, error) {
		res, err := flatSNR(obs)
		res.Rebinned = &etc.Spectrum{}
		return res, err
	}}
	sets := configs(t, "ifs-blue")
	sets[0][KeyCoaddWL] = model.IntValue(4)

	batch := New(calc).Run(context.Background(), model.ModeDITNDIT, sets)
	assert.Nil(t, batch.Outcomes[0].AchievedRebin)

	plot := Report(batch)
	require.NotNil(t, plot)
	require.Len(t, plot.Traces, 1)
	assert.False(t, plot.Traces[0].Secondary)
}

func TestReportSkipsFailedConfigurations(t *testing.T) {
	calc := &fakeCalc{snr: flatSNR, buildErr: map[string]error{"ifs-blue": errors.New("boom")}}
	batch := New(calc).Run(context.Background(), model.ModeDITNDIT, configs(t, "ifs-blue", "ifs-red"))

	plot := Report(batch)
	require.NotNil(t, plot)
	require.Len(t, plot.Traces, 1)
	require.Len(t, plot.Summary, 1)
	assert.Equal(t, "IFS RED", plot.Summary[0].Config)
}

func TestReportFracSatFallsBackToTimeSolve(t *testing.T) {
	calc := &fakeCalc{
		snr: func(*etc.Observation) (*etc.SNRResult, error) {
			return &etc.SNRResult{SNR: etc.Spectrum{Wave: []float64{5000, 5001}, Data: []float64{1, 9}}}, nil
		},
		time: func(*etc.Observation, bool) (*etc.TimeResult, error) {
			fs := 0.031
			return &etc.TimeResult{NDIT: 1, FracSat: &fs}, nil
		},
	}
	plot := Report(New(calc).Run(context.Background(), model.ModeDITSNR, configs(t, "ifs-blue")))
	require.NotNil(t, plot)
	assert.Equal(t, "3.1%", plot.Summary[0].FracSat)
	assert.Equal(t, "9.00", plot.Summary[0].SNRAchieved)
}

func TestCriticalTrace(t *testing.T) {
	text := CriticalTrace(errors.New("library unavailable"), "goroutine 1")
	assert.Equal(t, "CRITICAL ERROR: library unavailable\n\nFull traceback:\ngoroutine 1", text)
}
