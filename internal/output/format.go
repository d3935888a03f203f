package output

import (
	"github.com/crimson-sun/barometer/internal/model"
)

// DateLayout is the calendar form used in wire records and CSV cells.
const DateLayout = "2006-01-02"

// MeasureRecord is the wire form of one dated row of the measures table.
type MeasureRecord struct {
	Date   string             `json:"date"`
	Values map[string]float64 `json:"values"`
}

// PredictionRecord is the wire form of one walk-forward prediction.
// Realized is omitted for forecasts past the end of the target.
type PredictionRecord struct {
	Date     string   `json:"date"`
	Anchor   string   `json:"anchor"`
	Value    float64  `json:"value"`
	Alpha    float64  `json:"alpha"`
	Lambda   float64  `json:"lambda"`
	Realized *float64 `json:"realized,omitempty"`
}

// MeasureRecords flattens a table into one record per date.
func MeasureRecords(tb model.Table) []MeasureRecord {
	records := make([]MeasureRecord, len(tb.Dates))
	for i, d := range tb.Dates {
		values := make(map[string]float64, len(tb.Columns))
		for j, name := range tb.Columns {
			values[name] = tb.Rows[i][j]
		}
		records[i] = MeasureRecord{Date: d.Format(DateLayout), Values: values}
	}
	return records
}

// PredictionRecords maps prediction rows onto their wire form.
func PredictionRecords(rows []model.Prediction) []PredictionRecord {
	records := make([]PredictionRecord, len(rows))
	for i, p := range rows {
		r := PredictionRecord{
			Date:   p.Date.Format(DateLayout),
			Anchor: p.Anchor.Format(DateLayout),
			Value:  p.Value,
			Alpha:  p.Alpha,
			Lambda: p.Lambda,
		}
		if p.Known {
			realized := p.Realized
			r.Realized = &realized
		}
		records[i] = r
	}
	return records
}
