/*
PURPOSE:
  Computation dispatcher: runs one batch of configurations through the ETC
  backend in the selected compute mode.

REQUIREMENTS:
  User-specified:
  - dit_ndit: solve SNR directly.
  - dit_snr / ndit_snr: solve NDIT (resp. DIT), feed it back, rebuild, solve SNR.
  - A failing configuration never aborts its siblings.

  Implementation-discovered:
  - Each configuration is an explicit state machine (see state.go).
  - Panics inside one configuration are recovered and recorded with a stack trace.
  - The rebinned SNR is read at its own nearest sample, its grid is coarser.

ARCHITECTURE INTEGRATION:
  - Called by: internal/web, internal/cli (compute)
  - Uses: internal/etc, internal/output (logging)

ERROR HANDLING:
  - Logs errors but continues (resilience).
  - Context cancellation marks the remaining configurations as failed.

USAGE:
  batch := engine.New(calc).Run(ctx, model.ModeDITSNR, configs)

RELATED FILES:
  - internal/engine/state.go
  - internal/engine/trace.go
*/

package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime/debug"

	"github.com/daryltucker/wst-etc/internal/etc"
	"github.com/daryltucker/wst-etc/internal/model"
	"github.com/daryltucker/wst-etc/internal/output"
)

// ErrEmptySpectrum is recorded when a solver returns no SNR samples.
var ErrEmptySpectrum = errors.New("ETC returned an empty SNR spectrum")

// ErrNDITRange is returned when the required NDIT cannot be stored as an integer.
var ErrNDITRange = errors.New("required NDIT exceeds the representable range")

// Dispatcher runs batches against a calculator.
type Dispatcher struct {
	Calc etc.Calculator
}

// New creates a Dispatcher.
func New(calc etc.Calculator) *Dispatcher {
	return &Dispatcher{Calc: calc}
}

// Run executes every configuration in order and collects the outcomes.
func (d *Dispatcher) Run(ctx context.Context, mode model.ComputeMode, configs []model.ParameterSet) *Batch {
	batch := &Batch{Mode: mode, Outcomes: make([]*Outcome, 0, len(configs))}

	for idx, ps := range configs {
		var out *Outcome
		if err := ctx.Err(); err != nil {
			out = newOutcome(idx, ps)
			out.fail(err)
		} else {
			output.Logger.Infow("Running configuration", "index", idx+1, "config", model.PairKey(ps.Instrument(), ps.Channel()), "mode", mode)
			out = d.runOne(ctx, idx, mode, ps)
		}

		if out.Warned() {
			batch.HasWarnings = true
			output.Logger.Warnw("Configuration finished with warnings",
				"index", idx+1,
				"config", out.Key(),
				"state", out.State,
				"error", out.Err,
				"message", out.Message(),
			)
		} else {
			output.Logger.Infow("Configuration solved",
				"index", idx+1,
				"config", out.Key(),
				"ref_wave", out.TrueWave,
				"snr", out.Achieved,
			)
		}
		batch.Outcomes = append(batch.Outcomes, out)
	}
	return batch
}

func (d *Dispatcher) runOne(ctx context.Context, idx int, mode model.ComputeMode, ps model.ParameterSet) (out *Outcome) {
	out = newOutcome(idx, ps)
	defer func() {
		if r := recover(); r != nil {
			out.fail(fmt.Errorf("panic: %v", r))
			out.Stack = string(debug.Stack())
		}
	}()

	if out.Family == model.FamilyUnknown {
		out.fail(fmt.Errorf("instrument %q has no solver family", out.Instrument))
		return out
	}

	obs, err := d.Calc.Build(ctx, out.Config)
	if err != nil {
		out.fail(fmt.Errorf("failed to build observation: %w", err))
		return out
	}
	out.State = StateBuilt
	out.Built = true

	switch mode {
	case model.ModeDITNDIT:
		d.solveSNR(ctx, out, obs, false)

	case model.ModeDITSNR, model.ModeNDITSNR:
		solveDIT := mode == model.ModeNDITSNR
		tr, err := d.solveTime(ctx, out.Family, obs, solveDIT)
		if err != nil {
			out.fail(err)
			return out
		}
		out.Time = tr
		if tr.Failed() {
			out.State = StateIntermediateFailed
			return out
		}
		out.State = StateIntermediateSolved

		if solveDIT {
			out.Config[KeyDIT] = model.FloatValue(tr.DIT)
		} else {
			ndit := math.Ceil(tr.NDIT)
			if math.IsNaN(ndit) || ndit >= math.MaxInt64 {
				out.fail(fmt.Errorf("%w: %.3g", ErrNDITRange, tr.NDIT))
				return out
			}
			out.Config[KeyNDIT] = model.IntValue(int64(ndit))
		}
		obs, err = d.Calc.Build(ctx, out.Config)
		if err != nil {
			out.fail(fmt.Errorf("failed to rebuild observation: %w", err))
			return out
		}
		out.State = StateRebuilt
		d.solveSNR(ctx, out, obs, true)

	default:
		out.fail(fmt.Errorf("%w: %q", model.ErrUnknownMode, mode))
	}
	return out
}

func (d *Dispatcher) solveTime(ctx context.Context, family model.Family, obs *etc.Observation, solveDIT bool) (*etc.TimeResult, error) {
	if family == model.FamilyIFS {
		return d.Calc.Time(ctx, obs, solveDIT)
	}
	return d.Calc.TimeMOS(ctx, obs, solveDIT)
}

// solveSNR runs the SNR solver and reads the achieved SNR at the reference
// wavelength. explicitRef selects Lam_Ref over the midpoint of the range.
func (d *Dispatcher) solveSNR(ctx context.Context, out *Outcome, obs *etc.Observation, explicitRef bool) {
	var (
		res *etc.SNRResult
		err error
	)
	if out.Family == model.FamilyIFS {
		res, err = d.Calc.SNR(ctx, obs)
	} else {
		res, err = d.Calc.SNRMOS(ctx, obs)
	}
	if err != nil {
		out.fail(err)
		return
	}
	out.SNR = res
	if res.Failed() {
		out.State = StateFailed
		return
	}

	wave, data := res.SNR.Wave, res.SNR.Data
	if len(wave) == 0 || len(wave) != len(data) {
		out.fail(ErrEmptySpectrum)
		return
	}

	switch {
	case out.Config.Text(KeySourceType) == SourceLine:
		out.RefWave = out.Config.FloatOr(KeyLineCenter, 7000)
	case explicitRef:
		out.RefWave = out.Config.FloatOr(KeyRefWave, 7000)
	default:
		out.RefWave = 0.5 * (wave[len(wave)-1] + wave[0])
	}

	k := Nearest(wave, out.RefWave)
	out.TrueWave = wave[k]
	out.Achieved = data[k]
	if rb := res.Rebinned; rb != nil && len(rb.Wave) > 0 && len(rb.Wave) == len(rb.Data) {
		v := rb.Data[Nearest(rb.Wave, out.TrueWave)]
		out.AchievedRebin = &v
	}
	out.State = StateSolved
}

// Nearest returns the index of the sample closest to lam (first on ties).
func Nearest(wave []float64, lam float64) int {
	best, bestD := 0, math.Inf(1)
	for k, w := range wave {
		if d := math.Abs(w - lam); d < bestD {
			best, bestD = k, d
		}
	}
	return best
}
