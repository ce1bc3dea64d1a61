/*
PURPOSE:
  In-process exposure-time calculator with a simplified photometric model.
  Lets the front end run without an external ETC service.

REQUIREMENTS:
  User-specified:
  - Same four operations as any backend (Build, SNR, Time; IFS and MOS variants).

  Implementation-discovered:
  - Source: template / power law / black body SEDs normalised to a magnitude,
    or a Gaussian emission line of given flux.
  - Spatial: point source, uniform surface brightness, or resolved Sersic/Moffat
    profiles approximated as Gaussians convolved with the seeing.
  - Noise: source + sky shot noise, dark current and read noise per pixel.
  - Spectral coadding groups COADD_WL pixels; spatial coadding (IFS) COADD_XY^2 spaxels.

ARCHITECTURE INTEGRATION:
  - Implements: etc.Calculator
  - Selected by: internal/cli (backend: builtin)

ERROR HANDLING:
  - Build returns ErrUnknownChannel / ErrInvalidParameter.
  - Solvers return Message for out-of-range reference wavelengths, missing signal
    and exposure times above the detector limit.

RELATED FILES:
  - internal/etc/physics.go
  - internal/etc/instruments.go
*/

package etc

import (
	"context"
	"fmt"
	"math"

	"github.com/daryltucker/wst-etc/internal/model"
)

type setup struct {
	spec   channelSpec
	det    detector
	wave   []float64
	src    []float64 // e-/s per spectral pixel inside the aperture
	sky    []float64 // e-/s per spectral pixel inside the aperture
	npix   float64   // detector pixels summed per spectral pixel
	dit    float64
	ndit   float64
	snr    float64
	coadd  int
	refLam float64
}

// Builtin is the in-process calculator.
type Builtin struct{}

// NewBuiltin creates a Builtin calculator.
func NewBuiltin() *Builtin { return &Builtin{} }

var _ Calculator = (*Builtin)(nil)

// Build resolves a ParameterSet into an observation.
func (b *Builtin) Build(ctx context.Context, ps model.ParameterSet) (*Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ins, ch := ps.Instrument(), ps.Channel()
	spec, ok := instrumentSpecs[ins]
	if !ok {
		return nil, fmt.Errorf("%w: instrument %q", ErrUnknownChannel, ins)
	}
	chs, ok := spec.channels[ch]
	if !ok {
		return nil, fmt.Errorf("%w: channel %q is not available for instrument %q", ErrUnknownChannel, ch, ins)
	}

	r := reader{ps: ps}
	st := &setup{spec: chs, det: spec.det}
	st.dit = r.positive("DIT")
	st.ndit = r.positive("NDIT")
	st.snr = r.numOr("SNR", 10)
	see := r.positive("SEE")
	airmass := r.numOr("AM", 1)
	fli := r.numOr("FLI", 0)
	skycalc := r.boolOr("SKYCALC", true)
	coadd := r.numOr("COADD_WL", 1)
	coaddXY := r.numOr("COADD_XY", 1)
	fibDisp := r.numOr("OBJ_FIB_DISP", 0)

	src := sourceParams{
		sed:      r.text("Obj_SED"),
		template: r.text("SED_Name"),
		mag:      r.numOr("OBJ_MAG", 0),
		magSys:   r.text("MAG_SYS"),
		filter:   r.text("MAG_FIL"),
		z:        r.numOr("Z", 0),
		bbTemp:   r.numOr("BB_Temp", 9000),
		plIndex:  r.numOr("PL_Index", -2),
		lineFlux: r.numOr("SEL_FLUX", 0),
		lineCWav: r.numOr("SEL_CWAV", 5000),
		lineFWHM: r.numOr("SEL_FWHM", 20),
	}
	spatial := r.text("Obj_Spat_Dis")
	profile := r.text("IMA")
	reff := r.numOr("Sersic_Reff", 3)
	imaFWHM := r.numOr("IMA_FWHM", see)
	st.refLam = r.numOr("Lam_Ref", 0.5*(chs.lamMin+chs.lamMax))
	if src.sed == "line" {
		st.refLam = src.lineCWav
	}
	if r.err != nil {
		return nil, r.err
	}
	if airmass < 1 {
		return nil, fmt.Errorf("%w: AM must be >= 1, got %g", ErrInvalidParameter, airmass)
	}
	if coadd < 1 || coaddXY < 1 {
		return nil, fmt.Errorf("%w: COADD_WL and COADD_XY must be >= 1", ErrInvalidParameter)
	}
	if coadd != math.Trunc(coadd) || coaddXY != math.Trunc(coaddXY) {
		return nil, fmt.Errorf("%w: COADD_WL and COADD_XY must be whole pixel counts, got %g and %g", ErrInvalidParameter, coadd, coaddXY)
	}
	if int(coadd) > chs.pixels() {
		return nil, fmt.Errorf("%w: COADD_WL %g exceeds the %d pixels of %s %s", ErrInvalidParameter, coadd, chs.pixels(), ins, ch)
	}
	st.coadd = int(coadd)

	flam, err := buildSource(src)
	if err != nil {
		return nil, err
	}

	var side, area float64
	if spec.family == model.FamilyIFS {
		side = spec.aperture * math.Floor(coaddXY)
		area = side * side
		st.npix = spec.spatialPixels * math.Floor(coaddXY) * math.Floor(coaddXY)
	} else {
		area = math.Pi * spec.aperture * spec.aperture / 4
		st.npix = spec.spatialPixels
	}

	var extra float64
	switch spatial {
	case "ps", "sb":
	case "resolved":
		switch profile {
		case "sersic":
			extra = reff / 1.1774
		case "moffat":
			extra = imaFWHM * fwhmToSigma
		default:
			return nil, fmt.Errorf("%w: unsupported IMA %q", ErrInvalidParameter, profile)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported Obj_Spat_Dis %q", ErrInvalidParameter, spatial)
	}

	skyAB := skyMag(fli, skycalc)
	n := chs.pixels()
	st.wave = make([]float64, n)
	st.src = make([]float64, n)
	st.sky = make([]float64, n)
	for k := 0; k < n; k++ {
		lam := chs.lamMin + float64(k)*chs.step
		st.wave[k] = lam

		var frac float64
		if spatial == "sb" {
			frac = area
		} else {
			sigma := seeingFWHM(see, lam, airmass) * fwhmToSigma
			sigma = math.Hypot(sigma, extra)
			if spec.family == model.FamilyIFS {
				frac = squareFraction(sigma, side)
			} else {
				frac = circleFraction(sigma, spec.aperture, fibDisp)
			}
		}
		st.src[k] = photonRate(flam(lam)*extinction(lam, airmass), lam, chs.step, chs.throughput) * frac
		st.sky[k] = photonRate(abFlambda(skyAB, lam), lam, chs.step, chs.throughput) * area
	}

	return &Observation{
		Params:     ps.Clone(),
		Instrument: ins,
		Channel:    ch,
		Family:     spec.family,
		setup:      st,
	}, nil
}

// SNR solves the signal-to-noise spectrum of a single-field observation.
func (b *Builtin) SNR(ctx context.Context, obs *Observation) (*SNRResult, error) {
	if err := checkFamily(obs, model.FamilyIFS); err != nil {
		return nil, err
	}
	return b.snr(ctx, obs)
}

// SNRMOS solves the signal-to-noise spectrum of a multi-object observation.
func (b *Builtin) SNRMOS(ctx context.Context, obs *Observation) (*SNRResult, error) {
	if err := checkFamily(obs, model.FamilyMOS); err != nil {
		return nil, err
	}
	return b.snr(ctx, obs)
}

// Time solves the exposure of a single-field observation.
func (b *Builtin) Time(ctx context.Context, obs *Observation, solveDIT bool) (*TimeResult, error) {
	if err := checkFamily(obs, model.FamilyIFS); err != nil {
		return nil, err
	}
	return b.time(ctx, obs, solveDIT)
}

// TimeMOS solves the exposure of a multi-object observation.
func (b *Builtin) TimeMOS(ctx context.Context, obs *Observation, solveDIT bool) (*TimeResult, error) {
	if err := checkFamily(obs, model.FamilyMOS); err != nil {
		return nil, err
	}
	return b.time(ctx, obs, solveDIT)
}

func (b *Builtin) snr(ctx context.Context, obs *Observation) (*SNRResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st := obs.setup
	if st == nil {
		return nil, fmt.Errorf("observation %s-%s was not built by this calculator", obs.Instrument, obs.Channel)
	}

	n := len(st.wave)
	res := &SNRResult{SNR: Spectrum{Wave: st.wave, Data: make([]float64, n)}}
	rootN := math.Sqrt(st.ndit)
	for k := 0; k < n; k++ {
		res.SNR.Data[k] = rootN * st.src[k] * st.dit / math.Sqrt(st.variance(k, st.dit))
	}

	groups := n / st.coadd
	rebin := &Spectrum{Wave: make([]float64, groups), Data: make([]float64, groups)}
	for g := 0; g < groups; g++ {
		var lam, sig, vr float64
		for k := g * st.coadd; k < (g+1)*st.coadd; k++ {
			lam += st.wave[k]
			sig += st.src[k] * st.dit
			vr += st.variance(k, st.dit)
		}
		rebin.Wave[g] = lam / float64(st.coadd)
		rebin.Data[g] = rootN * sig / math.Sqrt(vr)
	}
	res.Rebinned = rebin
	res.FracSat = ptr(st.saturated(st.dit))
	return res, nil
}

func (b *Builtin) time(ctx context.Context, obs *Observation, solveDIT bool) (*TimeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st := obs.setup
	if st == nil {
		return nil, fmt.Errorf("observation %s-%s was not built by this calculator", obs.Instrument, obs.Channel)
	}
	if st.snr <= 0 {
		return &TimeResult{Message: fmt.Sprintf("target SNR must be positive, got %g", st.snr)}, nil
	}
	if st.refLam < st.spec.lamMin || st.refLam > st.spec.lamMax {
		return &TimeResult{Message: fmt.Sprintf("reference wavelength %.1f Å is outside the %s %s range [%.0f, %.0f] Å",
			st.refLam, obs.Instrument, obs.Channel, st.spec.lamMin, st.spec.lamMax)}, nil
	}
	k := st.nearest(st.refLam)
	s := st.src[k]
	if s <= 0 {
		return &TimeResult{Message: fmt.Sprintf("no source signal at reference wavelength %.1f Å", st.refLam)}, nil
	}
	snr2 := st.snr * st.snr

	if !solveDIT {
		sig := s * st.dit
		ndit := snr2 * st.variance(k, st.dit) / (sig * sig)
		return &TimeResult{NDIT: ndit, FracSat: ptr(st.saturated(st.dit))}, nil
	}

	// NDIT s^2 t^2 - SNR^2 a t - SNR^2 r = 0
	a := s + st.sky[k] + st.npix*st.det.dark
	r := st.npix * st.det.ron * st.det.ron
	qa := st.ndit * s * s
	dit := (snr2*a + math.Sqrt(snr2*snr2*a*a+4*qa*snr2*r)) / (2 * qa)
	if dit > st.det.maxDIT {
		return &TimeResult{
			Message: fmt.Sprintf("required DIT %.1f s exceeds the detector limit of %.0f s, increase NDIT", dit, st.det.maxDIT),
			FracSat: ptr(st.saturated(st.det.maxDIT)),
		}, nil
	}
	return &TimeResult{DIT: dit, FracSat: ptr(st.saturated(dit))}, nil
}

// variance of one spectral pixel for a single exposure of length dit, e-^2.
func (st *setup) variance(k int, dit float64) float64 {
	return (st.src[k]+st.sky[k])*dit + st.npix*(st.det.dark*dit+st.det.ron*st.det.ron)
}

// saturated returns the fraction of spectral pixels whose detector pixels exceed full well.
func (st *setup) saturated(dit float64) float64 {
	if len(st.wave) == 0 {
		return 0
	}
	var count int
	for k := range st.wave {
		level := ((st.src[k]+st.sky[k])/st.npix + st.det.dark) * dit
		if level > st.det.fullWell {
			count++
		}
	}
	return float64(count) / float64(len(st.wave))
}

func (st *setup) nearest(lam float64) int {
	best, bestD := 0, math.Inf(1)
	for k, w := range st.wave {
		if d := math.Abs(w - lam); d < bestD {
			best, bestD = k, d
		}
	}
	return best
}

// reader extracts typed parameters and remembers the first failure.
type reader struct {
	ps  model.ParameterSet
	err error
}

func (r *reader) fail(key string, v model.Value, want string) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %s must be %s, got %q", ErrInvalidParameter, key, want, v.String())
	}
}

func (r *reader) numOr(key string, def float64) float64 {
	v := r.ps.Get(key)
	if v.IsNull() {
		return def
	}
	f, ok := v.Float()
	if !ok {
		r.fail(key, v, "numeric")
		return def
	}
	return f
}

func (r *reader) positive(key string) float64 {
	v := r.ps.Get(key)
	f, ok := v.Float()
	if !ok || f <= 0 {
		r.fail(key, v, "a positive number")
		return 1
	}
	return f
}

func (r *reader) boolOr(key string, def bool) bool {
	v := r.ps.Get(key)
	if b, ok := v.Bool(); ok {
		return b
	}
	return def
}

func (r *reader) text(key string) string {
	return r.ps.Text(key)
}
