package barometer

import (
	"time"

	"github.com/crimson-sun/barometer/internal/model"
)

// Document is one dated text to score. Features weight the document's
// relevance to named topics, each in [0, 1]; a document without features
// counts fully toward a single catch-all feature. These are the stable public
// types; internal representations may evolve independently without breaking
// consumers.
type Document struct {
	ID       string             `json:"id"`
	Date     time.Time          `json:"date"`
	Text     string             `json:"text"`
	Features map[string]float64 `json:"features,omitempty"`
}

func (d Document) internal() model.Document {
	return model.Document{ID: d.ID, Date: d.Date, Text: d.Text, Features: d.Features}
}

// Shifter marks a word that modifies the polarity of nearby lexicon hits.
// Role is one of "negator", "amplifier", "deamplifier" or "adversative".
// Value multiplies the hit polarity, so a plain negator carries -1 and an
// amplifier something like 1.8; adversatives ignore it and take their factor
// from the adversative policy instead.
type Shifter struct {
	Role  string  `json:"role"`
	Value float64 `json:"value"`
}

// Target is the dated response series for prediction. Dates must be strictly
// increasing; Values runs parallel to Dates.
type Target struct {
	Name   string      `json:"name"`
	Dates  []time.Time `json:"dates"`
	Values []float64   `json:"values"`
}

func (t Target) internal() model.Target {
	return model.Target{Name: t.Name, Dates: t.Dates, Values: t.Values}
}

// Table is a dated matrix with one named column per series.
type Table struct {
	Dates   []time.Time `json:"dates"`
	Columns []string    `json:"columns"`
	Rows    [][]float64 `json:"rows"` // Rows[i][j] is Columns[j] at Dates[i]
}

func tableFromModel(t model.Table) Table {
	return Table{Dates: t.Dates, Columns: t.Columns, Rows: t.Rows}
}

// Prediction is one walk-forward estimate.
type Prediction struct {
	Date     time.Time `json:"date"`               // date the forecast targets
	Anchor   time.Time `json:"anchor"`             // last information date used
	Value    float64   `json:"value"`              // predicted target value
	Alpha    float64   `json:"alpha"`              // selected mixing parameter
	Lambda   float64   `json:"lambda"`             // selected penalty
	Realized *float64  `json:"realized,omitempty"` // nil until the outcome is observed
}

func predictionFromModel(p model.Prediction) Prediction {
	out := Prediction{
		Date:   p.Date,
		Anchor: p.Anchor,
		Value:  p.Value,
		Alpha:  p.Alpha,
		Lambda: p.Lambda,
	}
	if p.Known {
		v := p.Realized
		out.Realized = &v
	}
	return out
}
