package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/crimson-sun/barometer/internal/model"
	"github.com/crimson-sun/barometer/internal/output"
)

func testTable(n int) model.Table {
	tb := model.Table{Columns: []string{"all--tone--equal"}}
	for i := 0; i < n; i++ {
		tb.Dates = append(tb.Dates, time.Date(2024, 3, 4+i, 0, 0, 0, 0, time.UTC))
		tb.Rows = append(tb.Rows, []float64{float64(i)})
	}
	return tb
}

func TestPostsMeasuresDocument(t *testing.T) {
	var mu sync.Mutex
	var received []map[string][]output.MeasureRecord

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var doc map[string][]output.MeasureRecord
		json.Unmarshal(body, &doc)
		mu.Lock()
		received = append(received, doc)
		mu.Unlock()
		w.WriteHeader(200)
	}))
	defer srv.Close()

	out := New(srv.URL)
	if err := out.WriteMeasures(context.Background(), testTable(3)); err != nil {
		t.Fatalf("WriteMeasures error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatalf("expected 1 POST, got %d", len(received))
	}
	if len(received[0]["measures"]) != 3 {
		t.Errorf("measures length = %d, want 3", len(received[0]["measures"]))
	}
	if received[0]["measures"][0].Date != "2024-03-04" {
		t.Errorf("first record date = %q, want 2024-03-04", received[0]["measures"][0].Date)
	}
}

func TestPostsPredictionsDocument(t *testing.T) {
	var mu sync.Mutex
	var docs []map[string][]output.PredictionRecord

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var doc map[string][]output.PredictionRecord
		json.Unmarshal(body, &doc)
		mu.Lock()
		docs = append(docs, doc)
		mu.Unlock()
		w.WriteHeader(200)
	}))
	defer srv.Close()

	out := New(srv.URL)
	rows := []model.Prediction{{
		Date:   time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC),
		Anchor: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Value:  2.5,
	}}
	if err := out.WritePredictions(context.Background(), rows); err != nil {
		t.Fatalf("WritePredictions error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(docs) != 1 || len(docs[0]["predictions"]) != 1 {
		t.Fatalf("expected 1 POST with 1 prediction, got %v", docs)
	}
	if docs[0]["predictions"][0].Value != 2.5 {
		t.Errorf("value = %v, want 2.5", docs[0]["predictions"][0].Value)
	}
}

func TestRetryOn5xx(t *testing.T) {
	var attempts atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		if n <= 2 {
			w.WriteHeader(500)
			return
		}
		w.WriteHeader(200)
	}))
	defer srv.Close()

	out := New(srv.URL)
	if err := out.WriteMeasures(context.Background(), testTable(1)); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}

	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestNoRetryOn4xx(t *testing.T) {
	var attempts atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(400)
	}))
	defer srv.Close()

	out := New(srv.URL)
	err := out.WriteMeasures(context.Background(), testTable(1))

	if err == nil {
		t.Error("expected error for 400 response")
	}
	if attempts.Load() != 1 {
		t.Errorf("expected exactly 1 attempt for 4xx, got %d", attempts.Load())
	}
}

func TestCustomHeaders(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("X-Custom-Auth")
		w.WriteHeader(200)
	}))
	defer srv.Close()

	out := New(srv.URL, WithHeaders(map[string]string{"X-Custom-Auth": "secret123"}))
	if err := out.WriteMeasures(context.Background(), testTable(1)); err != nil {
		t.Fatalf("WriteMeasures error: %v", err)
	}

	if gotAuth != "secret123" {
		t.Errorf("custom header = %q, want secret123", gotAuth)
	}
}

func TestCancelledContextStopsRetries(t *testing.T) {
	var attempts atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(500)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	out := New(srv.URL)

	done := make(chan error, 1)
	go func() {
		done <- out.WriteMeasures(ctx, testTable(1))
	}()
	// Let the first attempt land, then cancel during backoff.
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Error("expected error after cancellation")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("write did not return after context cancellation")
	}
}
