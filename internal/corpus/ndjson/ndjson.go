// Package ndjson loads a corpus from newline-delimited JSON, one document
// per line.
package ndjson

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/crimson-sun/barometer/internal/corpus"
	"github.com/crimson-sun/barometer/internal/model"
)

// maxLineSize bounds a single document line at 4 MiB.
const maxLineSize = 4 << 20

func init() {
	corpus.Register("ndjson", func() corpus.Source {
		return &Source{}
	})
}

// Source implements corpus.Source for NDJSON files.
type Source struct{}

type docLine struct {
	ID       string             `json:"id"`
	Date     string             `json:"date"`
	Text     string             `json:"text"`
	Tokens   []string           `json:"tokens,omitempty"`
	Features map[string]float64 `json:"features,omitempty"`
}

// Load reads cfg.Path line by line. Dates accept RFC 3339 or plain
// "2006-01-02".
func (s *Source) Load(_ context.Context, cfg corpus.Config, params corpus.Params) ([]model.Document, error) {
	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("ndjson corpus: %w", err)
	}
	defer f.Close()

	docs, err := read(f, params)
	if err != nil {
		return nil, fmt.Errorf("ndjson corpus: %s: %w", cfg.Path, err)
	}
	return docs, nil
}

func read(r io.Reader, params corpus.Params) ([]model.Document, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)

	var docs []model.Document
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}

		var dl docLine
		if err := json.Unmarshal([]byte(raw), &dl); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		date, err := parseDate(dl.Date)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if !params.Keep(date) {
			continue
		}
		docs = append(docs, model.Document{
			ID:       dl.ID,
			Date:     date,
			Text:     dl.Text,
			Tokens:   dl.Tokens,
			Features: dl.Features,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(docs, func(i, j int) bool { return docs[i].Date.Before(docs[j].Date) })
	if params.Limit > 0 && len(docs) > params.Limit {
		docs = docs[:params.Limit]
	}
	return docs, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("bad date %q", s)
}
