package multi

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/crimson-sun/barometer/internal/model"
)

// mockOutput records calls for test assertions.
type mockOutput struct {
	tables      []model.Table
	predictions [][]model.Prediction
	closed      bool
	err         error // if set, every call returns this error
}

func (m *mockOutput) WriteMeasures(_ context.Context, tb model.Table) error {
	m.tables = append(m.tables, tb)
	return m.err
}

func (m *mockOutput) WritePredictions(_ context.Context, rows []model.Prediction) error {
	m.predictions = append(m.predictions, rows)
	return m.err
}

func (m *mockOutput) Close() error {
	m.closed = true
	return m.err
}

func testTable() model.Table {
	return model.Table{
		Dates:   []time.Time{time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)},
		Columns: []string{"all--tone--equal"},
		Rows:    [][]float64{{0.4}},
	}
}

func TestFanOutDeliversToAll(t *testing.T) {
	a := &mockOutput{}
	b := &mockOutput{}
	c := &mockOutput{}
	m := New(a, b, c)

	if err := m.WriteMeasures(context.Background(), testTable()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.WritePredictions(context.Background(), []model.Prediction{{Value: 1}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, out := range []*mockOutput{a, b, c} {
		if len(out.tables) != 1 {
			t.Errorf("output %d: got %d tables, want 1", i, len(out.tables))
		}
		if len(out.predictions) != 1 {
			t.Errorf("output %d: got %d prediction batches, want 1", i, len(out.predictions))
		}
	}
}

func TestErrorDoesNotPreventDelivery(t *testing.T) {
	failing := &mockOutput{err: errors.New("disk full")}
	healthy := &mockOutput{}
	m := New(failing, healthy)

	err := m.WriteMeasures(context.Background(), testTable())
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	// Healthy output still received the table despite earlier failure.
	if len(healthy.tables) != 1 {
		t.Fatalf("healthy output got %d tables, want 1", len(healthy.tables))
	}

	// Failing output also received the call (error returned after).
	if len(failing.tables) != 1 {
		t.Fatalf("failing output got %d tables, want 1", len(failing.tables))
	}
}

func TestCloseCallsAllOutputs(t *testing.T) {
	a := &mockOutput{}
	b := &mockOutput{}
	m := New(a, b)

	if err := m.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !a.closed || !b.closed {
		t.Errorf("Close not called on all outputs: a=%v b=%v", a.closed, b.closed)
	}
}

func TestCloseCollectsErrors(t *testing.T) {
	a := &mockOutput{err: errors.New("err-a")}
	b := &mockOutput{err: errors.New("err-b")}
	m := New(a, b)

	err := m.Close()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !a.closed || !b.closed {
		t.Error("Close should be called on all outputs even when errors occur")
	}
}

func TestSingleOutputIdentity(t *testing.T) {
	inner := &mockOutput{}
	m := New(inner)

	if err := m.WriteMeasures(context.Background(), testTable()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(inner.tables) != 1 || inner.tables[0].Columns[0] != "all--tone--equal" {
		t.Error("single-output Multi did not behave identically to wrapped output")
	}
	if !inner.closed {
		t.Error("single-output Multi did not close inner output")
	}
}
