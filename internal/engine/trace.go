/*
PURPOSE:
  Renders a Batch as the human-readable computation trace shown under the form.

REQUIREMENTS:
  User-specified:
  - Banner, one block per configuration, completion line.
  - Warnings and errors are embedded in the text, the page still renders.

  Implementation-discovered:
  - Mode input lines only appear once the observation was built.
  - ndit_snr prints the coadded SNR before the per-pixel SNR.

ARCHITECTURE INTEGRATION:
  - Called by: internal/web, internal/cli (compute)

USAGE:
  text := engine.Trace(batch)

RELATED FILES:
  - internal/engine/report.go
*/

package engine

import (
	"fmt"
	"strings"

	"github.com/daryltucker/wst-etc/internal/model"
)

const ruleWidth = 80

// Trace renders the text trace for a batch.
func Trace(b *Batch) string {
	t := &traceWriter{}
	rule := strings.Repeat("=", ruleWidth)

	t.line(rule)
	t.line("WST ETC - COMPUTATION RESULTS")
	t.line(rule)
	t.line("")

	for _, out := range b.Outcomes {
		t.outcome(b.Mode, out)
	}

	t.line(rule)
	if b.HasWarnings {
		t.line("Computation completed with warnings/errors (see above)")
	} else {
		t.line("Computation completed successfully")
	}
	t.line(rule)
	return strings.Join(t.lines, "\n")
}

// CriticalTrace renders a request-level failure.
func CriticalTrace(err error, stack string) string {
	return fmt.Sprintf("CRITICAL ERROR: %v\n\nFull traceback:\n%s", err, stack)
}

type traceWriter struct {
	lines []string
}

func (t *traceWriter) line(s string) {
	t.lines = append(t.lines, s)
}

func (t *traceWriter) addf(format string, args ...any) {
	t.lines = append(t.lines, fmt.Sprintf(format, args...))
}

func (t *traceWriter) outcome(mode model.ComputeMode, out *Outcome) {
	t.addf("Configuration %d: %s - %s", out.Index+1, strings.ToUpper(out.Instrument), strings.ToUpper(out.Channel))
	t.line(strings.Repeat("-", ruleWidth))

	if out.Family == model.FamilyIFS {
		n := display(out.Config, KeyCoaddXY, "1")
		t.addf("  Number of spaxels (spatial coadding): %sx%s", n, n)
	}

	if out.Built {
		switch mode {
		case model.ModeDITNDIT:
			t.line("  Mode: DIT & NDIT")
			t.addf("  DIT: %s s", display(out.Config, KeyDIT, "-"))
			t.addf("  NDIT: %s", display(out.Config, KeyNDIT, "-"))
			t.snr(out, mode)

		case model.ModeDITSNR:
			t.line("  Mode: DIT & SNR")
			t.addf("  DIT: %s s", display(out.Config, KeyDIT, "-"))
			t.addf("  Target SNR: %s", display(out.Config, KeySNR, "-"))
			if t.time(out, mode) {
				t.snr(out, mode)
			}

		case model.ModeNDITSNR:
			t.line("  Mode: NDIT & SNR")
			t.addf("  NDIT: %s", display(out.Config, KeyNDIT, "-"))
			t.addf("  Target SNR: %s", display(out.Config, KeySNR, "-"))
			if t.time(out, mode) {
				t.snr(out, mode)
			}
		}
	}

	if out.Err != nil {
		t.addf("  ERROR: %v", out.Err)
		if out.Stack != "" {
			t.addf("  Traceback: %s", out.Stack)
		}
	}
	t.line("")
}

// time writes the intermediate solve and reports whether it succeeded.
func (t *traceWriter) time(out *Outcome, mode model.ComputeMode) bool {
	tr := out.Time
	if tr == nil {
		return false
	}
	if tr.Failed() {
		t.addf("  ⚠ WARNING: %s", tr.Message)
		t.saturation(out.Family, tr.FracSat)
		return false
	}
	if mode == model.ModeNDITSNR {
		t.addf("  → Required DIT: %.2f s", tr.DIT)
	} else {
		t.addf("  → Required NDIT: %.2f", tr.NDIT)
	}
	t.saturation(out.Family, tr.FracSat)
	return true
}

func (t *traceWriter) snr(out *Outcome, mode model.ComputeMode) {
	res := out.SNR
	if res == nil {
		return
	}
	if res.Failed() {
		t.addf("  ⚠ WARNING: %s", res.Message)
		t.saturation(out.Family, res.FracSat)
		return
	}
	if out.State != StateSolved {
		return
	}

	if !mode.TwoStage() {
		t.addf("  → Achieved SNR at central wavelength %.1f Å: %.2f", out.TrueWave, out.Achieved)
		if out.AchievedRebin != nil {
			t.addf("  → Achieved SNR at central wavelength %.1f Å (with spectral coadding): %.2f", out.TrueWave, *out.AchievedRebin)
		}
		t.saturation(out.Family, res.FracSat)
		return
	}

	ref := referenceDisplay(out.Config)
	perPixel := fmt.Sprintf("  → Achieved SNR at wavelength %.1f Å\n (closest to requested reference wavelength %s Å): %.2f",
		out.TrueWave, ref, out.Achieved)
	var coadded string
	if out.AchievedRebin != nil {
		coadded = fmt.Sprintf("  → Achieved SNR at wavelength %.1f Å\n (closest to requested reference wavelength %s Å, with spectral coadding): %.2f",
			out.TrueWave, ref, *out.AchievedRebin)
	}

	if mode == model.ModeNDITSNR {
		if coadded != "" {
			t.line(coadded)
		}
		t.line(perPixel)
		return
	}
	t.line(perPixel)
	if coadded != "" {
		t.line(coadded)
	}
}

func (t *traceWriter) saturation(f model.Family, frac *float64) {
	if frac == nil {
		return
	}
	t.addf("  → Fraction of saturated %s: %.1f%%", f.SaturationUnit(), *frac*100)
}

// referenceDisplay renders the requested reference wavelength as entered.
func referenceDisplay(ps model.ParameterSet) string {
	if ps.Text(KeySourceType) == SourceLine {
		return display(ps, KeyLineCenter, "7000")
	}
	return display(ps, KeyRefWave, "7000")
}

func display(ps model.ParameterSet, key, def string) string {
	v := ps.Get(key)
	if v.IsNull() {
		return def
	}
	return v.String()
}
