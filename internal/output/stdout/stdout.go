package stdout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/crimson-sun/barometer/internal/model"
	"github.com/crimson-sun/barometer/internal/output"
)

// Output writes JSON-encoded result records to stdout, one per line.
type Output struct {
	enc *json.Encoder
}

// New creates a stdout Output with optional pretty-printed JSON.
func New(pretty bool) *Output {
	return NewWriter(os.Stdout, pretty)
}

// NewWriter creates an Output targeting an arbitrary writer. Used by tests.
func NewWriter(w io.Writer, pretty bool) *Output {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return &Output{enc: enc}
}

func (o *Output) WriteMeasures(_ context.Context, tb model.Table) error {
	for _, rec := range output.MeasureRecords(tb) {
		if err := o.enc.Encode(rec); err != nil {
			return fmt.Errorf("stdout output: %w", err)
		}
	}
	return nil
}

func (o *Output) WritePredictions(_ context.Context, rows []model.Prediction) error {
	for _, rec := range output.PredictionRecords(rows) {
		if err := o.enc.Encode(rec); err != nil {
			return fmt.Errorf("stdout output: %w", err)
		}
	}
	return nil
}

func (o *Output) Close() error {
	return nil
}
