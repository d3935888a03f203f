// Package csvout writes results as rectangular CSV files, one file per
// artifact, for loading into spreadsheets or statistical tooling.
package csvout

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/crimson-sun/barometer/internal/model"
	"github.com/crimson-sun/barometer/internal/output"
)

const (
	measuresFile    = "measures.csv"
	predictionsFile = "predictions.csv"
)

// Output writes measures and predictions as CSV files under one directory.
// Each write replaces the file wholesale.
type Output struct {
	dir string
}

// New creates the directory if needed and returns a CSV output.
func New(dir string) (*Output, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("csv output: %w", err)
	}
	return &Output{dir: dir}, nil
}

// WriteMeasures writes a date-by-measure table with a header row.
func (o *Output) WriteMeasures(_ context.Context, tb model.Table) error {
	return o.writeFile(measuresFile, func(w *csv.Writer) error {
		header := append([]string{"date"}, tb.Columns...)
		if err := w.Write(header); err != nil {
			return err
		}
		for i, d := range tb.Dates {
			rec := make([]string, 0, len(tb.Columns)+1)
			rec = append(rec, d.Format(output.DateLayout))
			for _, v := range tb.Rows[i] {
				rec = append(rec, formatValue(v))
			}
			if err := w.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// WritePredictions writes one row per prediction. Realized is left blank for
// forecasts past the end of the target.
func (o *Output) WritePredictions(_ context.Context, rows []model.Prediction) error {
	return o.writeFile(predictionsFile, func(w *csv.Writer) error {
		if err := w.Write([]string{"date", "anchor", "value", "alpha", "lambda", "realized"}); err != nil {
			return err
		}
		for _, p := range rows {
			realized := ""
			if p.Known {
				realized = formatValue(p.Realized)
			}
			rec := []string{
				p.Date.Format(output.DateLayout),
				p.Anchor.Format(output.DateLayout),
				formatValue(p.Value),
				formatValue(p.Alpha),
				formatValue(p.Lambda),
				realized,
			}
			if err := w.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close is a no-op; files are flushed per write.
func (o *Output) Close() error {
	return nil
}

func (o *Output) writeFile(name string, write func(w *csv.Writer) error) error {
	f, err := os.Create(filepath.Join(o.dir, name))
	if err != nil {
		return fmt.Errorf("csv output: %w", err)
	}
	w := csv.NewWriter(f)
	if err := write(w); err != nil {
		f.Close()
		return fmt.Errorf("csv output: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("csv output: %w", err)
	}
	return f.Close()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
