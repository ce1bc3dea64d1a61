package model

import (
	"fmt"
	"strings"
)

// Family groups instruments that share a solver variant.
type Family int

const (
	FamilyUnknown Family = iota
	// FamilyIFS is the single-field integral field spectrograph.
	FamilyIFS
	// FamilyMOS covers the multi-object spectrographs.
	FamilyMOS
)

func (f Family) String() string {
	switch f {
	case FamilyIFS:
		return "ifs"
	case FamilyMOS:
		return "mos"
	}
	return "unknown"
}

// SaturationUnit names the detector element counted in saturation fractions.
func (f Family) SaturationUnit() string {
	if f == FamilyIFS {
		return "voxels"
	}
	return "pixels"
}

// Instrument describes one entry of the static catalog.
type Instrument struct {
	ID       string
	Family   Family
	Channels []string
}

// Instruments is the static instrument/channel catalog.
var Instruments = []Instrument{
	{ID: "ifs", Family: FamilyIFS, Channels: []string{"blue", "red"}},
	{ID: "moshr", Family: FamilyMOS, Channels: []string{"U", "B", "V", "I"}},
	{ID: "moslr", Family: FamilyMOS, Channels: []string{"blue", "green", "red"}},
}

var colors = map[string]string{
	"ifs-red":     "#c62828",
	"ifs-blue":    "#1565c0",
	"moshr-U":     "#6a1b9a",
	"moshr-B":     "#01579b",
	"moshr-V":     "#2e7d32",
	"moshr-I":     "#d84315",
	"moslr-blue":  "#0d47a1",
	"moslr-green": "#388e3c",
	"moslr-red":   "#b71c1c",
}

// LookupInstrument returns the catalog entry for id.
func LookupInstrument(id string) (Instrument, bool) {
	for _, in := range Instruments {
		if in.ID == id {
			return in, true
		}
	}
	return Instrument{}, false
}

// FamilyOf returns the solver family of an instrument id (case-insensitive).
func FamilyOf(ins string) Family {
	in, ok := LookupInstrument(strings.ToLower(ins))
	if !ok {
		return FamilyUnknown
	}
	return in.Family
}

// HasChannel reports whether ch belongs to the instrument.
func (in Instrument) HasChannel(ch string) bool {
	for _, c := range in.Channels {
		if c == ch {
			return true
		}
	}
	return false
}

// ValidPair reports whether ch is a channel of ins.
func ValidPair(ins, ch string) bool {
	in, ok := LookupInstrument(ins)
	return ok && in.HasChannel(ch)
}

// PairKey is the "<instrument>-<channel>" token used by the form.
func PairKey(ins, ch string) string {
	return fmt.Sprintf("%s-%s", ins, ch)
}

// PairLabel is the upper-case label used in the trace and the summary table.
func PairLabel(ins, ch string) string {
	return fmt.Sprintf("%s %s", strings.ToUpper(ins), strings.ToUpper(ch))
}

// Color returns the plot color of a pair, black when unknown.
func Color(ins, ch string) string {
	if c, ok := colors[PairKey(ins, ch)]; ok {
		return c
	}
	return "#000000"
}

// AllPairs lists every valid pair key in catalog order.
func AllPairs() []string {
	var out []string
	for _, in := range Instruments {
		for _, ch := range in.Channels {
			out = append(out, PairKey(in.ID, ch))
		}
	}
	return out
}
