// Package output defines where computed results land. A sink receives the
// measures table and the prediction rows at most once per run and is closed
// when the run ends.
package output

import (
	"context"

	"github.com/crimson-sun/barometer/internal/model"
)

// Output is a destination for sentiment measures and predictions.
type Output interface {
	WriteMeasures(ctx context.Context, tb model.Table) error
	WritePredictions(ctx context.Context, rows []model.Prediction) error
	Close() error
}
