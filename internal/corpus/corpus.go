// Package corpus defines where documents come from. Sources load dated,
// feature-tagged documents; Prepare normalizes what they return before the
// engine scores it.
package corpus

import (
	"context"
	"errors"
	"time"

	"github.com/crimson-sun/barometer/internal/model"
)

// ErrNoDocuments is returned when a source yields an empty corpus.
var ErrNoDocuments = errors.New("corpus: no documents")

// Source loads documents from one backing format.
type Source interface {
	// Load fetches documents matching params, sorted by date ascending.
	Load(ctx context.Context, cfg Config, params Params) ([]model.Document, error)
}

// Config holds source-specific settings.
type Config struct {
	Path  string
	Extra map[string]string
}

// Params filters a load.
type Params struct {
	From  time.Time
	To    time.Time
	Limit int
}

// Keep reports whether a document date passes the params filter.
func (p Params) Keep(date time.Time) bool {
	if !p.From.IsZero() && date.Before(p.From) {
		return false
	}
	if !p.To.IsZero() && date.After(p.To) {
		return false
	}
	return true
}

// Memory is a Source over an in-memory document slice, used by the library
// facade and tests.
type Memory struct {
	Docs []model.Document
}

// Load returns the filtered documents. The backing slice is not copied.
func (m *Memory) Load(_ context.Context, _ Config, params Params) ([]model.Document, error) {
	out := make([]model.Document, 0, len(m.Docs))
	for _, doc := range m.Docs {
		if !params.Keep(doc.Date) {
			continue
		}
		out = append(out, doc)
		if params.Limit > 0 && len(out) == params.Limit {
			break
		}
	}
	return out, nil
}
