package web

import (
	"encoding/json"
	"net/http"
	"slices"

	"github.com/daryltucker/wst-etc/internal/model"
	"github.com/daryltucker/wst-etc/internal/params"
)

type pairOption struct {
	Key      string
	Label    string
	Color    string
	Selected bool
}

type modeOption struct {
	Value    string
	Title    string
	Selected bool
}

type field struct {
	Key   string
	Value string
}

type page struct {
	Pairs       []pairOption
	Modes       []modeOption
	Fields      []field
	DebugOutput string
	Plot        *model.PlotData
	HasWarnings bool
}

func newPage(res *result) page {
	p := page{
		DebugOutput: res.DebugOutput,
		Plot:        res.Plot,
		HasWarnings: res.HasWarnings,
	}
	for _, in := range model.Instruments {
		for _, ch := range in.Channels {
			key := model.PairKey(in.ID, ch)
			p.Pairs = append(p.Pairs, pairOption{
				Key:      key,
				Label:    model.PairLabel(in.ID, ch),
				Color:    model.Color(in.ID, ch),
				Selected: slices.Contains(res.Selected, key),
			})
		}
	}
	for _, m := range []model.ComputeMode{model.ModeDITNDIT, model.ModeDITSNR, model.ModeNDITSNR} {
		p.Modes = append(p.Modes, modeOption{Value: string(m), Title: m.Title(), Selected: m == res.ComputeMode})
	}
	for _, k := range params.Keys() {
		p.Fields = append(p.Fields, field{Key: k, Value: res.Params.Get(k).String()})
	}
	return p
}

// displayParams is the last-used parameter set including compute_mode.
func displayParams(res *result) model.ParameterSet {
	ps := res.Params.Clone()
	ps[model.KeyComputeMode] = model.StringValue(string(res.ComputeMode))
	return ps
}

type computeResponse struct {
	Params      model.ParameterSet `json:"params"`
	DebugOutput string             `json:"debug_output"`
	PlotData    *model.PlotData    `json:"plot_data"`
	HasWarnings bool               `json:"has_warnings"`
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
