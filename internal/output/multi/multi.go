package multi

import (
	"context"
	"errors"

	"github.com/crimson-sun/barometer/internal/model"
	"github.com/crimson-sun/barometer/internal/output"
)

// Multi fans out results to multiple output.Output implementations.
// If one output fails, the remaining outputs still receive the data.
type Multi struct {
	outputs []output.Output
}

// New creates a Multi that fans out to the given outputs.
func New(outputs ...output.Output) *Multi {
	return &Multi{outputs: outputs}
}

// WriteMeasures delivers the table to every wrapped output. Errors are
// collected but do not prevent delivery to subsequent outputs.
func (m *Multi) WriteMeasures(ctx context.Context, tb model.Table) error {
	var errs []error
	for _, o := range m.outputs {
		if err := o.WriteMeasures(ctx, tb); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WritePredictions delivers the rows to every wrapped output.
func (m *Multi) WritePredictions(ctx context.Context, rows []model.Prediction) error {
	var errs []error
	for _, o := range m.outputs {
		if err := o.WritePredictions(ctx, rows); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close calls Close on every wrapped output, collecting errors.
func (m *Multi) Close() error {
	var errs []error
	for _, o := range m.outputs {
		if err := o.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
