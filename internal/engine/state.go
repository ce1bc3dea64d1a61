package engine

import (
	"github.com/daryltucker/wst-etc/internal/etc"
	"github.com/daryltucker/wst-etc/internal/model"
)

// Parameter keys the dispatcher reads or rewrites.
const (
	KeyDIT        = "DIT"
	KeyNDIT       = "NDIT"
	KeySNR        = "SNR"
	KeyRefWave    = "Lam_Ref"
	KeySourceType = "Obj_SED"
	KeyLineCenter = "SEL_CWAV"
	KeyCoaddWL    = "COADD_WL"
	KeyCoaddXY    = "COADD_XY"

	SourceLine = "line"
)

// State of one configuration.
//
//	Built -> Solved | Failed
//	Built -> IntermediateSolved -> Rebuilt -> Solved | Failed
//	Built -> IntermediateFailed
type State int

const (
	StatePending State = iota
	StateBuilt
	StateIntermediateSolved
	StateIntermediateFailed
	StateRebuilt
	StateSolved
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateBuilt:
		return "built"
	case StateIntermediateSolved:
		return "intermediate_solved"
	case StateIntermediateFailed:
		return "intermediate_failed"
	case StateRebuilt:
		return "rebuilt"
	case StateSolved:
		return "solved"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Outcome is the per-configuration result: Ok when State is StateSolved,
// otherwise a failure described by Err or by a solver message.
type Outcome struct {
	Index      int
	Config     model.ParameterSet
	Instrument string
	Channel    string
	Family     model.Family
	State      State
	// Built is set once the first observation was constructed.
	Built bool

	Time *etc.TimeResult
	SNR  *etc.SNRResult

	RefWave       float64
	TrueWave      float64
	Achieved      float64
	AchievedRebin *float64

	Err   error
	Stack string
}

func newOutcome(idx int, ps model.ParameterSet) *Outcome {
	cfg := ps.Clone()
	return &Outcome{
		Index:      idx,
		Config:     cfg,
		Instrument: cfg.Instrument(),
		Channel:    cfg.Channel(),
		Family:     model.FamilyOf(cfg.Instrument()),
	}
}

func (o *Outcome) fail(err error) {
	o.Err = err
	o.State = StateFailed
}

// OK reports whether the configuration produced an SNR spectrum.
func (o *Outcome) OK() bool { return o.State == StateSolved }

// Key is the "<instrument>-<channel>" token.
func (o *Outcome) Key() string { return model.PairKey(o.Instrument, o.Channel) }

// Label is the upper-case display label.
func (o *Outcome) Label() string { return model.PairLabel(o.Instrument, o.Channel) }

// Message returns the first solver message, if any.
func (o *Outcome) Message() string {
	if o.Time != nil && o.Time.Failed() {
		return o.Time.Message
	}
	if o.SNR != nil && o.SNR.Failed() {
		return o.SNR.Message
	}
	return ""
}

// Warned reports an error or any solver message.
func (o *Outcome) Warned() bool {
	return o.Err != nil || o.Message() != ""
}

// FracSat returns the saturated fraction of the SNR solve, else of the time solve.
func (o *Outcome) FracSat() *float64 {
	if o.SNR != nil && o.SNR.FracSat != nil {
		return o.SNR.FracSat
	}
	if o.Time != nil && o.Time.FracSat != nil {
		return o.Time.FracSat
	}
	return nil
}

// Batch is the result of one request.
type Batch struct {
	Mode        model.ComputeMode
	Outcomes    []*Outcome
	HasWarnings bool
}

// Solved returns the successful outcomes in order.
func (b *Batch) Solved() []*Outcome {
	var out []*Outcome
	for _, o := range b.Outcomes {
		if o.OK() {
			out = append(out, o)
		}
	}
	return out
}
