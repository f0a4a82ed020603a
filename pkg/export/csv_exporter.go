package export

import (
	"fmt"
	"io"
	"reflect"

	"github.com/gocarina/gocsv"
)

// CSVExporter renders slices of csv-tagged structs.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render marshals rows, which must be a slice of structs carrying csv tags.
// An empty slice still yields the header line.
func (e *CSVExporter) Render(rows interface{}) ([]byte, error) {
	v := reflect.ValueOf(rows)
	if v.Kind() != reflect.Slice {
		return nil, fmt.Errorf("csv rows must be a slice, got %T", rows)
	}
	data, err := gocsv.MarshalBytes(rows)
	if err != nil {
		return nil, fmt.Errorf("marshal csv: %w", err)
	}
	return data, nil
}

// ReadCSV decodes a CSV document with a header line into out, a pointer to
// a slice of csv-tagged structs.
func ReadCSV(r io.Reader, out interface{}) error {
	if err := gocsv.Unmarshal(r, out); err != nil {
		return fmt.Errorf("unmarshal csv: %w", err)
	}
	return nil
}
