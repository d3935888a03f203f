package file

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/crimson-sun/barometer/internal/model"
	"github.com/crimson-sun/barometer/internal/output"
)

const defaultBufSize = 64 * 1024 // 64KB

// Option configures a file Output.
type Option func(*Output)

// WithMaxSize sets the file size (bytes) at which rotation triggers.
// 0 (default) disables rotation.
func WithMaxSize(bytes int64) Option {
	return func(o *Output) { o.maxSize = bytes }
}

// WithBufSize sets the bufio.Writer buffer size. Default: 64KB.
func WithBufSize(bytes int) Option {
	return func(o *Output) { o.bufSize = bytes }
}

// Output appends NDJSON records to a file with buffered I/O and optional
// size-based rotation. Measure rows and prediction rows share the stream;
// consumers tell them apart by their fields.
type Output struct {
	w       *bufio.Writer
	f       *os.File
	mu      sync.Mutex
	path    string
	maxSize int64 // 0 = no rotation
	written int64
	bufSize int
}

// New creates a file output that writes NDJSON to the given path.
func New(path string, opts ...Option) (*Output, error) {
	o := &Output{
		path:    path,
		bufSize: defaultBufSize,
	}
	for _, opt := range opts {
		opt(o)
	}
	if err := o.openFile(); err != nil {
		return nil, err
	}
	return o, nil
}

// WriteMeasures appends one JSON line per dated row of the table.
func (o *Output) WriteMeasures(_ context.Context, tb model.Table) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, rec := range output.MeasureRecords(tb) {
		if err := o.writeLine(rec); err != nil {
			return err
		}
	}
	return nil
}

// WritePredictions appends one JSON line per prediction row.
func (o *Output) WritePredictions(_ context.Context, rows []model.Prediction) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, rec := range output.PredictionRecords(rows) {
		if err := o.writeLine(rec); err != nil {
			return err
		}
	}
	return nil
}

// writeLine JSON-encodes one record and appends it. Caller must hold o.mu.
func (o *Output) writeLine(rec any) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("file output: marshal: %w", err)
	}
	data = append(data, '\n')

	if o.maxSize > 0 && o.written+int64(len(data)) > o.maxSize {
		if err := o.rotate(); err != nil {
			return fmt.Errorf("file output: rotate: %w", err)
		}
	}

	n, err := o.w.Write(data)
	o.written += int64(n)
	if err != nil {
		return fmt.Errorf("file output: write: %w", err)
	}
	return nil
}

// Close flushes the buffer and closes the file.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.w.Flush(); err != nil {
		o.f.Close()
		return fmt.Errorf("file output: flush: %w", err)
	}
	return o.f.Close()
}

// openFile opens (or creates) the output file and wraps it in a bufio.Writer.
func (o *Output) openFile() error {
	f, err := os.OpenFile(o.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("file output: open %s: %w", o.path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("file output: stat %s: %w", o.path, err)
	}
	o.f = f
	o.w = bufio.NewWriterSize(f, o.bufSize)
	o.written = info.Size()
	return nil
}

// rotate flushes, closes the current file, renames it to {path}.1
// (shifting existing rotated files), and opens a new file.
func (o *Output) rotate() error {
	if err := o.w.Flush(); err != nil {
		return err
	}
	if err := o.f.Close(); err != nil {
		return err
	}

	// Shift existing rotated files: .2 → .3, .1 → .2, current → .1
	for i := 9; i >= 1; i-- {
		from := fmt.Sprintf("%s.%d", o.path, i)
		to := fmt.Sprintf("%s.%d", o.path, i+1)
		os.Rename(from, to) // ignore errors — file may not exist
	}
	if err := os.Rename(o.path, o.path+".1"); err != nil {
		return err
	}

	o.written = 0
	return o.openFile()
}
