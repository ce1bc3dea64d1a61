package etc

import (
	"fmt"
	"math"
	"strings"
)

const (
	speedOfLight = 2.99792458e18 // Angstrom / s
	planckHC     = 1.98644586e-8 // erg Angstrom
	fwhmToSigma  = 1.0 / 2.354820045
	darkSkyMagV  = 21.6 // AB mag / arcsec^2
)

// abFlambda converts an AB magnitude to f_lambda (erg/s/cm2/A) at lam.
func abFlambda(mag, lam float64) float64 {
	fnu := math.Pow(10, -0.4*(mag+48.6))
	return fnu * speedOfLight / (lam * lam)
}

func planck(lam, temp float64) float64 {
	const c2 = 1.438777e8 // hc/k in Angstrom K
	x := c2 / (lam * temp)
	if x > 700 {
		return 0
	}
	return 1 / (math.Pow(lam, 5) * math.Expm1(x))
}

// sourceModel returns f_lambda as a function of observed wavelength.
type sourceModel func(lam float64) float64

type sourceParams struct {
	sed      string
	template string
	mag      float64
	magSys   string
	filter   string
	z        float64
	bbTemp   float64
	plIndex  float64
	lineFlux float64
	lineCWav float64
	lineFWHM float64
}

func buildSource(p sourceParams) (sourceModel, error) {
	if p.sed == "line" {
		if p.lineFWHM <= 0 {
			return nil, fmt.Errorf("%w: SEL_FWHM must be positive", ErrInvalidParameter)
		}
		sigma := p.lineFWHM * fwhmToSigma
		norm := p.lineFlux / (sigma * math.Sqrt(2*math.Pi))
		return func(lam float64) float64 {
			d := (lam - p.lineCWav) / sigma
			return norm * math.Exp(-0.5*d*d)
		}, nil
	}

	var shape func(rest float64) float64
	switch p.sed {
	case "template":
		slope, ok := templateSlopes[strings.ToLower(p.template)]
		if !ok {
			slope = -2 // flat in f_nu
		}
		shape = func(rest float64) float64 { return math.Pow(rest, slope) }
	case "pl":
		shape = func(rest float64) float64 { return math.Pow(rest, p.plIndex) }
	case "bb":
		if p.bbTemp <= 0 {
			return nil, fmt.Errorf("%w: BB_Temp must be positive", ErrInvalidParameter)
		}
		shape = func(rest float64) float64 { return planck(rest, p.bbTemp) }
	default:
		return nil, fmt.Errorf("%w: unsupported Obj_SED %q", ErrInvalidParameter, p.sed)
	}

	fil, ok := filters[p.filter]
	if !ok {
		return nil, fmt.Errorf("%w: unknown MAG_FIL %q", ErrInvalidParameter, p.filter)
	}
	magAB := p.mag
	switch strings.ToLower(p.magSys) {
	case "ab":
	case "vega":
		magAB += fil.vegaToAB
	default:
		return nil, fmt.Errorf("%w: unknown MAG_SYS %q", ErrInvalidParameter, p.magSys)
	}

	zf := 1 + p.z
	ref := shape(fil.center / zf)
	if ref <= 0 || math.IsNaN(ref) || math.IsInf(ref, 0) {
		return nil, fmt.Errorf("%w: source shape vanishes in filter %s", ErrInvalidParameter, p.filter)
	}
	scale := abFlambda(magAB, fil.center) / ref
	return func(lam float64) float64 { return scale * shape(lam/zf) }, nil
}

// seeingFWHM scales the zenith V-band seeing with wavelength and airmass.
func seeingFWHM(see, lam, airmass float64) float64 {
	return see * math.Pow(lam/5000, -0.2) * math.Pow(airmass, 0.6)
}

// squareFraction is the fraction of a centred Gaussian inside a square of side a.
func squareFraction(sigma, a float64) float64 {
	e := math.Erf(a / (2 * math.Sqrt2 * sigma))
	return e * e
}

// circleFraction is the fraction of a Gaussian offset by d inside a circle of diameter a.
func circleFraction(sigma, a, d float64) float64 {
	r := a / 2
	return (1 - math.Exp(-r*r/(2*sigma*sigma))) * math.Exp(-d*d/(2*sigma*sigma))
}

// extinction returns the atmospheric transmission at lam.
func extinction(lam, airmass float64) float64 {
	k := 0.08 + 0.25*math.Pow(4000/lam, 4)
	return math.Pow(10, -0.4*k*airmass)
}

// skyMag returns the sky surface brightness in AB mag/arcsec^2.
func skyMag(fli float64, skycalc bool) float64 {
	if !skycalc {
		return darkSkyMagV
	}
	fli = math.Max(0, math.Min(1, fli))
	return darkSkyMagV - 2.5*math.Log10(1+9*fli*fli)
}

// photonRate converts f_lambda into detected photons per second in one spectral pixel.
func photonRate(flam, lam, step, throughput float64) float64 {
	return flam * step * telescopeArea * throughput * lam / planckHC
}
