/*
PURPOSE:
  Writes summary rows to a CSV file.
  Ensures data integrity by flushing writes immediately.

REQUIREMENTS:
  User-specified:
  - The compute command exports the summary table.

  Implementation-discovered:
  - Overwrite on every run, one row per solved configuration.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli (compute)
  - Consumes: internal/model.SummaryRow

ERROR HANDLING:
  - Returns error on file creation or write failure.

IMPLEMENTATION RULES:
  - Use encoding/csv.
  - Flush() after every write.

USAGE:
  w, err := output.NewCSVWriter("summary.csv")
  w.Write(row)
  w.Close()

RELATED FILES:
  - internal/model/types.go
*/

package output

import (
	"encoding/csv"
	"io"
	"os"
	"sync"

	"github.com/daryltucker/wst-etc/internal/model"
)

// SummaryHeader is the column order of the summary table.
var SummaryHeader = []string{"config", "dit", "ndit", "snr_target", "snr_achieved", "frac_sat"}

// CSVWriter handles writing summary rows to a CSV file.
type CSVWriter struct {
	closer io.Closer
	writer *csv.Writer
	mu     sync.Mutex
}

// NewCSVWriter creates a new CSVWriter.
// It overwrites the file if it exists.
func NewCSVWriter(path string) (*CSVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	cw, err := newCSVWriter(f, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return cw, nil
}

func newCSVWriter(w io.Writer, c io.Closer) (*CSVWriter, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(SummaryHeader); err != nil {
		return nil, err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}
	return &CSVWriter{closer: c, writer: cw}, nil
}

// Write writes a single row. It is thread-safe.
func (cw *CSVWriter) Write(r model.SummaryRow) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	record := []string{
		r.Config,
		r.DIT.String(),
		r.NDIT.String(),
		r.SNRTarget.String(),
		r.SNRAchieved,
		r.FracSat,
	}
	if err := cw.writer.Write(record); err != nil {
		return err
	}
	cw.writer.Flush()
	return cw.writer.Error()
}

// Close closes the underlying file.
func (cw *CSVWriter) Close() error {
	cw.writer.Flush()
	if cw.closer == nil {
		return nil
	}
	return cw.closer.Close()
}
