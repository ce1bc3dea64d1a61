/*
PURPOSE:
  Contract of the exposure-time calculator backend.
  The front end only needs four operations: build an observation from a
  ParameterSet, solve SNR, and solve the exposure count or duration.

REQUIREMENTS:
  User-specified:
  - SNR and time solvers exist in two variants (single-field IFS vs multi-object MOS).
  - Solvers return either data or a message (plus an optional saturated fraction).

  Implementation-discovered:
  - Go errors are reserved for unexpected failures (invalid pair, transport,
    family mismatch); expected solver refusals travel in Message.

ARCHITECTURE INTEGRATION:
  - Implemented by: Builtin (builtin.go), Remote (remote.go)
  - Called by: internal/engine

ERROR HANDLING:
  - ErrUnknownChannel, ErrFamilyMismatch, ErrInvalidParameter are wrapped with context.

RELATED FILES:
  - internal/engine/dispatcher.go
*/

package etc

import (
	"context"
	"errors"
	"fmt"

	"github.com/daryltucker/wst-etc/internal/model"
)

var (
	// ErrUnknownChannel is returned by Build for pairs outside the catalog.
	ErrUnknownChannel = errors.New("unknown instrument channel")
	// ErrFamilyMismatch is returned when a solver variant is used with the wrong family.
	ErrFamilyMismatch = errors.New("solver does not match instrument family")
	// ErrInvalidParameter is returned by Build when a parameter has the wrong type or range.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// Spectrum is a sampled series over wavelength (Angstrom).
type Spectrum struct {
	Wave []float64 `json:"wave"`
	Data []float64 `json:"data"`
}

// Len returns the number of samples.
func (s Spectrum) Len() int { return len(s.Data) }

// SNRResult is the outcome of an SNR solve.
type SNRResult struct {
	SNR      Spectrum  `json:"snr"`
	Rebinned *Spectrum `json:"snr_rebin,omitempty"`
	FracSat  *float64  `json:"frac_sat,omitempty"`
	Message  string    `json:"message,omitempty"`
}

// Failed reports whether the solver refused and returned a message.
func (r *SNRResult) Failed() bool { return r.Message != "" }

// TimeResult is the outcome of an exposure count or duration solve.
type TimeResult struct {
	NDIT    float64  `json:"ndit,omitempty"`
	DIT     float64  `json:"dit,omitempty"`
	FracSat *float64 `json:"frac_sat,omitempty"`
	Message string   `json:"message,omitempty"`
}

// Failed reports whether the solver refused and returned a message.
func (r *TimeResult) Failed() bool { return r.Message != "" }

// Observation is the opaque context built from one ParameterSet.
type Observation struct {
	Params     model.ParameterSet
	Instrument string
	Channel    string
	Family     model.Family

	setup *setup
}

// Calculator is an exposure-time calculator backend.
type Calculator interface {
	Build(ctx context.Context, ps model.ParameterSet) (*Observation, error)
	SNR(ctx context.Context, obs *Observation) (*SNRResult, error)
	SNRMOS(ctx context.Context, obs *Observation) (*SNRResult, error)
	// Time solves NDIT at fixed DIT, or DIT at fixed NDIT when solveDIT is true.
	Time(ctx context.Context, obs *Observation, solveDIT bool) (*TimeResult, error)
	TimeMOS(ctx context.Context, obs *Observation, solveDIT bool) (*TimeResult, error)
}

func checkFamily(obs *Observation, want model.Family) error {
	if obs == nil {
		return errors.New("nil observation")
	}
	if obs.Family != want {
		return fmt.Errorf("%w: %s solver called for %s-%s (%s)", ErrFamilyMismatch, want, obs.Instrument, obs.Channel, obs.Family)
	}
	return nil
}

func ptr(f float64) *float64 { return &f }
