/*
PURPOSE:
  Writes summary rows to a JSON Lines file (NDJSON).

REQUIREMENTS:
  Implementation-discovered:
  - JSON Lines is append-friendly and easy to post-process with jq.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli (compute)
  - Consumes: internal/model.SummaryRow

USAGE:
  w, err := output.NewJSONWriter("summary.jsonl")
  w.Write(row)
  w.Close()
*/

package output

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/daryltucker/wst-etc/internal/model"
)

// JSONWriter handles writing rows to a JSON Lines file.
type JSONWriter struct {
	file    *os.File
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewJSONWriter creates a new JSONWriter.
func NewJSONWriter(path string) (*JSONWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	return &JSONWriter{
		file:    f,
		encoder: enc,
	}, nil
}

// Write writes a single row as a JSON line.
func (jw *JSONWriter) Write(r model.SummaryRow) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	return jw.encoder.Encode(r)
}

// Close closes the underlying file.
func (jw *JSONWriter) Close() error {
	return jw.file.Close()
}
