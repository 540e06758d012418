// Package csvimport handles the bulk-import endpoints for workers and
// usage history. Rows are validated individually; valid rows land in a
// single transaction, invalid ones are reported back with their row
// number.
package csvimport

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// RowError is a validation failure on a specific CSV row.
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result summarizes one import batch.
type Result struct {
	BatchID  string     `json:"batchId"`
	Imported int        `json:"imported"`
	Errors   []RowError `json:"errors,omitempty"`
}

func newResult() *Result {
	return &Result{BatchID: uuid.NewString()}
}

// header maps lower-cased column names to their index.
type header map[string]int

func readHeader(r *csv.Reader) (header, error) {
	record, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	h := make(header, len(record))
	for i, name := range record {
		h[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return h, nil
}

func (h header) get(record []string, name string) string {
	i, ok := h[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "sim", "yes", "x":
		return true
	}
	return false
}

// readAll drains the CSV into records, tolerating ragged rows so that a
// short row surfaces as field validation errors instead of aborting the
// whole file.
func readAll(src io.Reader) (*csv.Reader, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r, nil
}
