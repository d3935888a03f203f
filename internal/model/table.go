package model

import "time"

// Table is a rectangular, date-indexed export of named series. Output sinks
// consume it row by row.
type Table struct {
	Dates   []time.Time
	Columns []string
	Rows    [][]float64 // Rows[i][j] is Columns[j] at Dates[i]
}

// Target is a dated numeric series used as the response in prediction.
type Target struct {
	Name   string
	Dates  []time.Time
	Values []float64
}

// Prediction is one walk-forward forecast row.
type Prediction struct {
	Date     time.Time // date the forecast targets
	Anchor   time.Time // last information date used to fit and score
	Value    float64
	Alpha    float64 // selected mixing parameter
	Lambda   float64 // selected penalty
	Realized float64
	Known    bool // Realized is meaningful
}
