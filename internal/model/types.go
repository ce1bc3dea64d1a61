/*
PURPOSE:
  Defines the core data structures shared across the WST ETC front end.
  These models describe parameter sets, compute modes and the display-only
  projections (summary rows, plot traces) built from results.

REQUIREMENTS:
  User-specified:
  - One ParameterSet per selected instrument-channel pair.
  - Summary table: config label, dit, ndit, target/achieved SNR, saturation.

  Implementation-discovered:
  - Need JSON tags for the client-side chart payload and the JSON API.
  - Need CSV mapping for the compute command (see internal/output/csv.go).

ARCHITECTURE INTEGRATION:
  - Used by: internal/params, internal/engine, internal/output, internal/web
  - Shared across boundaries.

ERROR HANDLING:
  - ParseComputeMode returns ErrUnknownMode.

IMPLEMENTATION RULES:
  - Keep structs simple and public.
  - ParameterSet is a value: Clone() before mutating a shared one.

RELATED FILES:
  - internal/engine/report.go
  - internal/output/csv.go
*/

package model

import (
	"errors"
	"fmt"
)

// Keys added on top of the registry for every expanded configuration.
const (
	KeyInstrument  = "INS"
	KeyChannel     = "CH"
	KeyComputeMode = "compute_mode"
)

// ParameterSet maps parameter names to typed values.
type ParameterSet map[string]Value

// Clone returns an independent copy.
func (p ParameterSet) Clone() ParameterSet {
	out := make(ParameterSet, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Get returns the value for key, or Null if absent.
func (p ParameterSet) Get(key string) Value {
	return p[key]
}

// Float returns the numeric value of key.
func (p ParameterSet) Float(key string) (float64, bool) {
	return p[key].Float()
}

// FloatOr returns the numeric value of key or def when it is missing or not numeric.
func (p ParameterSet) FloatOr(key string, def float64) float64 {
	if f, ok := p[key].Float(); ok {
		return f
	}
	return def
}

// Text returns the display form of key ("" when null or absent).
func (p ParameterSet) Text(key string) string {
	return p[key].String()
}

// Instrument returns the INS key.
func (p ParameterSet) Instrument() string { return p.Text(KeyInstrument) }

// Channel returns the CH key.
func (p ParameterSet) Channel() string { return p.Text(KeyChannel) }

// ComputeMode selects which quantity the batch solves for.
type ComputeMode string

const (
	// ModeDITNDIT solves SNR given DIT and NDIT.
	ModeDITNDIT ComputeMode = "dit_ndit"
	// ModeDITSNR solves NDIT given DIT and a target SNR.
	ModeDITSNR ComputeMode = "dit_snr"
	// ModeNDITSNR solves DIT given NDIT and a target SNR.
	ModeNDITSNR ComputeMode = "ndit_snr"
)

// ErrUnknownMode is returned for compute modes outside the three supported ones.
var ErrUnknownMode = errors.New("unknown compute mode")

// ParseComputeMode validates a submitted compute_mode. Empty selects dit_ndit.
func ParseComputeMode(s string) (ComputeMode, error) {
	switch ComputeMode(s) {
	case "":
		return ModeDITNDIT, nil
	case ModeDITNDIT, ModeDITSNR, ModeNDITSNR:
		return ComputeMode(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Title is the human label printed in the trace.
func (m ComputeMode) Title() string {
	switch m {
	case ModeDITNDIT:
		return "DIT & NDIT"
	case ModeDITSNR:
		return "DIT & SNR"
	case ModeNDITSNR:
		return "NDIT & SNR"
	}
	return string(m)
}

// TwoStage reports whether the mode solves an exposure parameter before SNR.
func (m ComputeMode) TwoStage() bool {
	return m == ModeDITSNR || m == ModeNDITSNR
}

// SummaryRow is the display projection of one successful configuration.
type SummaryRow struct {
	Config      string `json:"config"`
	DIT         Value  `json:"dit"`
	NDIT        Value  `json:"ndit"`
	SNRTarget   Value  `json:"snr_target"`
	SNRAchieved string `json:"snr_achieved"`
	FracSat     string `json:"frac_sat"`
}

// PlotTrace is one chart series.
type PlotTrace struct {
	X         []float64 `json:"x"`
	Y         []float64 `json:"y"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Secondary bool      `json:"secondary,omitempty"`
}

// PlotData is the client-side chart payload.
type PlotData struct {
	Traces      []PlotTrace  `json:"traces"`
	Summary     []SummaryRow `json:"summary"`
	ComputeMode ComputeMode  `json:"compute_mode"`
}
