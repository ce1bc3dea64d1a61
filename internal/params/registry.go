/*
PURPOSE:
  Parameter registry: the fixed list of recognized form keys and their defaults.

REQUIREMENTS:
  User-specified:
  - Every key of the ETC form has a default value.

  Implementation-discovered:
  - Defaults must never be shared between requests; Defaults() builds a new set.

ARCHITECTURE INTEGRATION:
  - Used by: internal/params (decode, expand), internal/web, internal/cli

ERROR HANDLING:
  - None (static data).

RELATED FILES:
  - internal/params/decode.go
*/

package params

import "github.com/daryltucker/wst-etc/internal/model"

type entry struct {
	key string
	def model.Value
}

var (
	null = model.NullValue()
	iv   = model.IntValue
	fv   = model.FloatValue
	sv   = model.StringValue
	bv   = model.BoolValue
)

// Order matters: it is the display order of the form and of Keys().
var registry = []entry{
	{"NDIT", iv(1)},
	{"DIT", iv(600)},
	{"SNR", iv(10)},
	{"Lam_Ref", iv(5000)},
	{"OBJ_FIB_DISP", iv(0)},
	{"MOON", null},
	{"PWV", iv(10)},
	{"FLI", iv(0)},
	{"SEE", fv(0.8)},
	{"AM", fv(1.0)},
	{"SKYCALC", bv(true)},
	{"Obj_SED", sv("template")},
	{"SED_Name", sv("Kinney_s0")},
	{"OBJ_MAG", iv(12)},
	{"MAG_SYS", sv("Vega")},
	{"MAG_FIL", sv("V")},
	{"Z", iv(0)},
	{"BB_Temp", fv(9000.0)},
	{"PL_Index", iv(-2)},
	{"SEL_FLUX", fv(50e-16)},
	{"SEL_CWAV", iv(5000)},
	{"SEL_FWHM", iv(20)},
	{"Obj_Spat_Dis", sv("ps")},
	{"IMA", sv("sersic")},
	{"Ext_Ell", null},
	{"IMA_FWHM", null},
	{"IMA_BETA", null},
	{"IMA_KFWHM", null},
	{"Sersic_Reff", fv(3.0)},
	{"Sersic_Ind", fv(1.0)},
	{"IMA_KREFF", iv(5)},
	{"SPEC_RANGE", sv("fixed")},
	{"SPEC_KFWHM", null},
	{"SPEC_HSIZE", iv(999999)},
	{"COADD_WL", iv(1)},
	{"IMA_RANGE", sv("square_fixed")},
	{"COADD_XY", iv(1)},
	{"OPT_SPEC", bv(false)},
	{"OPT_IMA", bv(false)},
	{"FRAC_SPEC_MEAN_OPT_IMAGE", iv(1)},
}

// Keys returns the recognized parameter keys in registry order.
func Keys() []string {
	out := make([]string, len(registry))
	for n, e := range registry {
		out[n] = e.key
	}
	return out
}

// IsKey reports whether name is a recognized parameter key.
func IsKey(name string) bool {
	for _, e := range registry {
		if e.key == name {
			return true
		}
	}
	return false
}

// Defaults returns a fresh ParameterSet holding every registry default.
func Defaults() model.ParameterSet {
	ps := make(model.ParameterSet, len(registry))
	for _, e := range registry {
		ps[e.key] = e.def
	}
	return ps
}

// Default returns the registry default of key.
func Default(key string) (model.Value, bool) {
	for _, e := range registry {
		if e.key == key {
			return e.def, true
		}
	}
	return model.Value{}, false
}
