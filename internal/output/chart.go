package output

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/daryltucker/wst-etc/internal/model"
)

// ErrNoTraces is returned when there is nothing to draw.
var ErrNoTraces = errors.New("no plottable traces")

const (
	chartWidth  = 1200
	chartHeight = 600
)

// RenderChart draws the SNR traces as a PNG. Coadded series go on the
// secondary axis with a dashed stroke.
func RenderChart(w io.Writer, plot *model.PlotData) error {
	if plot == nil {
		return ErrNoTraces
	}

	var (
		series    []chart.Series
		secondary bool
	)
	for _, tr := range plot.Traces {
		n := min(len(tr.X), len(tr.Y))
		if n < 2 {
			continue
		}
		st := chart.Style{
			StrokeColor: colorFromHex(tr.Color),
			StrokeWidth: 1.5,
		}
		s := chart.ContinuousSeries{
			Name:    tr.Name,
			XValues: tr.X[:n],
			YValues: tr.Y[:n],
			Style:   st,
		}
		if tr.Secondary {
			s.Style.StrokeDashArray = []float64{6, 3}
			s.YAxis = chart.YAxisSecondary
			secondary = true
		}
		series = append(series, s)
	}
	if len(series) == 0 {
		return ErrNoTraces
	}

	ch := chart.Chart{
		Title:      fmt.Sprintf("WST ETC - %s", plot.ComputeMode.Title()),
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		XAxis:      chart.XAxis{Name: "Wavelength [Å]"},
		YAxis:      chart.YAxis{Name: "SNR per spectral pixel"},
		Series:     series,
	}
	if secondary {
		ch.YAxisSecondary = chart.YAxis{Name: "SNR (coadded)"}
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

func colorFromHex(hex string) drawing.Color {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return drawing.ColorBlack
	}
	return drawing.ColorFromHex(hex)
}
