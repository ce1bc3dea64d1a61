package engine

import (
	"fmt"

	"github.com/daryltucker/wst-etc/internal/model"
)

// Report projects the solved outcomes into chart traces and summary rows.
// It returns nil when no configuration produced a trace.
func Report(b *Batch) *model.PlotData {
	var (
		traces []model.PlotTrace
		rows   []model.SummaryRow
	)
	for _, out := range b.Solved() {
		label := out.Label()
		color := model.Color(out.Instrument, out.Channel)
		spec := out.SNR.SNR

		traces = append(traces, model.PlotTrace{
			X:     spec.Wave,
			Y:     spec.Data,
			Name:  fmt.Sprintf("%s (SNR x spectral pixel)", label),
			Color: color,
		})
		// Secondary series only for real coadding with at least one sample.
		if rb := out.SNR.Rebinned; rb != nil && len(rb.Data) > 0 && len(rb.Wave) == len(rb.Data) && out.Config.FloatOr(KeyCoaddWL, 1) > 1 {
			traces = append(traces, model.PlotTrace{
				X:         rb.Wave,
				Y:         rb.Data,
				Name:      fmt.Sprintf("%s (SNR x spectral coadding [%s pixels])", label, display(out.Config, KeyCoaddWL, "1")),
				Color:     color,
				Secondary: true,
			})
		}

		rows = append(rows, summaryRow(out))
	}
	if len(traces) == 0 {
		return nil
	}
	return &model.PlotData{Traces: traces, Summary: rows, ComputeMode: b.Mode}
}

func summaryRow(out *Outcome) model.SummaryRow {
	data := out.SNR.SNR.Data
	row := model.SummaryRow{
		Config:      out.Label(),
		DIT:         out.Config.Get(KeyDIT),
		NDIT:        out.Config.Get(KeyNDIT),
		SNRTarget:   out.Config.Get(KeySNR),
		SNRAchieved: fmt.Sprintf("%.2f", data[len(data)/2]),
		FracSat:     "-",
	}
	if _, ok := out.Config[KeySNR]; !ok {
		row.SNRTarget = model.StringValue("-")
	}
	if fs := out.FracSat(); fs != nil {
		row.FracSat = fmt.Sprintf("%.1f%%", *fs*100)
	}
	return row
}
