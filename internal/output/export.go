package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/daryltucker/wst-etc/internal/model"
)

// Export file names inside the output directory.
const (
	SummaryCSV  = "summary.csv"
	SummaryJSON = "summary.jsonl"
	ChartPNG    = "snr.png"
)

// Paths lists the files written by Export.
type Paths struct {
	CSV   string
	JSON  string
	Chart string
}

// Export writes the summary table (CSV and JSON Lines) and the SNR chart into dir.
func Export(dir string, plot *model.PlotData) (*Paths, error) {
	if plot == nil {
		return nil, ErrNoTraces
	}
	// Ensure output directory exists
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	p := &Paths{
		CSV:   filepath.Join(dir, SummaryCSV),
		JSON:  filepath.Join(dir, SummaryJSON),
		Chart: filepath.Join(dir, ChartPNG),
	}

	csvWriter, err := NewCSVWriter(p.CSV)
	if err != nil {
		return nil, fmt.Errorf("failed to init CSV writer at %s: %w", p.CSV, err)
	}
	defer csvWriter.Close()

	jsonWriter, err := NewJSONWriter(p.JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to init JSON writer at %s: %w", p.JSON, err)
	}
	defer jsonWriter.Close()

	for _, row := range plot.Summary {
		if err := csvWriter.Write(row); err != nil {
			Logger.Errorw("Failed to write CSV", "error", err)
		}
		if err := jsonWriter.Write(row); err != nil {
			Logger.Errorw("Failed to write JSON", "error", err)
		}
	}

	f, err := os.Create(p.Chart)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart file %s: %w", p.Chart, err)
	}
	defer f.Close()
	if err := RenderChart(f, plot); err != nil {
		return nil, err
	}
	return p, nil
}
