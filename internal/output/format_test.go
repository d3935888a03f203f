package output

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/crimson-sun/barometer/internal/model"
)

func baseTable() model.Table {
	return model.Table{
		Dates: []time.Time{
			time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		},
		Columns: []string{"econ--tone--equal", "pol--tone--equal"},
		Rows: [][]float64{
			{0.25, -0.5},
			{0.75, 0.1},
		},
	}
}

func basePrediction(known bool) model.Prediction {
	return model.Prediction{
		Date:     time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC),
		Anchor:   time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Value:    1.5,
		Alpha:    0.6,
		Lambda:   0.01,
		Realized: 1.4,
		Known:    known,
	}
}

func TestMeasureRecords(t *testing.T) {
	records := MeasureRecords(baseTable())
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Date != "2024-03-04" {
		t.Fatalf("date = %q, want 2024-03-04", records[0].Date)
	}
	if records[1].Values["econ--tone--equal"] != 0.75 {
		t.Fatalf("econ value = %v, want 0.75", records[1].Values["econ--tone--equal"])
	}
	if len(records[0].Values) != 2 {
		t.Fatalf("got %d values, want 2", len(records[0].Values))
	}
}

func TestPredictionRecordRealized(t *testing.T) {
	records := PredictionRecords([]model.Prediction{basePrediction(true), basePrediction(false)})
	if records[0].Realized == nil || *records[0].Realized != 1.4 {
		t.Fatal("realized should be set for a known row")
	}
	if records[1].Realized != nil {
		t.Fatal("realized should be nil for a forecast row")
	}

	data, err := json.Marshal(records[1])
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if _, ok := m["realized"]; ok {
		t.Fatal("realized should be omitted from JSON for a forecast row")
	}
}

func TestJSONTagNames(t *testing.T) {
	data, err := json.Marshal(PredictionRecords([]model.Prediction{basePrediction(true)})[0])
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	for _, key := range []string{"date", "anchor", "value", "alpha", "lambda", "realized"} {
		if _, ok := m[key]; !ok {
			t.Fatalf("expected lowercase key %q in JSON", key)
		}
	}

	data, err = json.Marshal(MeasureRecords(baseTable())[0])
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	m = nil
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	for _, key := range []string{"date", "values"} {
		if _, ok := m[key]; !ok {
			t.Fatalf("expected lowercase key %q in JSON", key)
		}
	}
}
