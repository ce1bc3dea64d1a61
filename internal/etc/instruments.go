package etc

import (
	"math"

	"github.com/daryltucker/wst-etc/internal/model"
)

// Collecting area of the 12 m primary, cm^2.
const telescopeArea = 1.0e6

type detector struct {
	ron      float64 // e- rms per pixel and read
	dark     float64 // e- per pixel and second
	fullWell float64 // e- per pixel
	maxDIT   float64 // s
}

type channelSpec struct {
	lamMin     float64 // Angstrom
	lamMax     float64
	step       float64 // Angstrom per spectral pixel
	throughput float64 // end to end, excluding atmosphere
}

// pixels is the number of spectral pixels on the channel's wavelength grid.
func (c channelSpec) pixels() int {
	return int(math.Floor((c.lamMax-c.lamMin)/c.step)) + 1
}

type instrumentSpec struct {
	family model.Family
	// IFS: spaxel side in arcsec. MOS: fiber diameter in arcsec.
	aperture float64
	// Detector pixels covered by one aperture along the spatial direction.
	spatialPixels float64
	det           detector
	channels      map[string]channelSpec
}

var instrumentSpecs = map[string]instrumentSpec{
	"ifs": {
		family:        model.FamilyIFS,
		aperture:      0.25,
		spatialPixels: 1,
		det:           detector{ron: 3.0, dark: 3.0 / 3600, fullWell: 1.5e5, maxDIT: 3600},
		channels: map[string]channelSpec{
			"blue": {lamMin: 3700, lamMax: 6100, step: 0.6, throughput: 0.20},
			"red":  {lamMin: 6000, lamMax: 9700, step: 0.97, throughput: 0.22},
		},
	},
	"moslr": {
		family:        model.FamilyMOS,
		aperture:      1.0,
		spatialPixels: 4,
		det:           detector{ron: 3.0, dark: 3.0 / 3600, fullWell: 1.5e5, maxDIT: 3600},
		channels: map[string]channelSpec{
			"blue":  {lamMin: 3700, lamMax: 5540, step: 0.45, throughput: 0.24},
			"green": {lamMin: 5380, lamMax: 7420, step: 0.5, throughput: 0.28},
			"red":   {lamMin: 7210, lamMax: 9700, step: 0.6, throughput: 0.26},
		},
	},
	"moshr": {
		family:        model.FamilyMOS,
		aperture:      1.0,
		spatialPixels: 4,
		det:           detector{ron: 2.5, dark: 3.0 / 3600, fullWell: 1.5e5, maxDIT: 3600},
		channels: map[string]channelSpec{
			"U": {lamMin: 3820, lamMax: 4040, step: 0.05, throughput: 0.12},
			"B": {lamMin: 4260, lamMax: 4500, step: 0.05, throughput: 0.16},
			"V": {lamMin: 5130, lamMax: 5420, step: 0.06, throughput: 0.18},
			"I": {lamMin: 8400, lamMax: 8780, step: 0.08, throughput: 0.15},
		},
	},
}

// Central wavelength (Angstrom) and Vega-to-AB offset of the normalization filters.
var filters = map[string]struct {
	center   float64
	vegaToAB float64
}{
	"U": {3600, 0.79},
	"B": {4380, -0.09},
	"V": {5450, 0.02},
	"R": {6410, 0.21},
	"I": {7980, 0.45},
	"g": {4770, -0.08},
	"r": {6230, 0.16},
	"i": {7630, 0.37},
}

// f_lambda slope of the bundled galaxy templates (f_lambda ~ lambda^slope).
var templateSlopes = map[string]float64{
	"kinney_ell":    1.0,
	"kinney_s0":     0.5,
	"kinney_sa":     0.0,
	"kinney_sb":     -0.5,
	"kinney_sc":     -1.5,
	"kinney_starb1": -2.0,
}
