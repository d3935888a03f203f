// Package csvfile loads a corpus from a CSV file. The header names the
// columns: "date" and "text" are required, "id" is optional and every other
// column is read as a feature weight.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/crimson-sun/barometer/internal/corpus"
	"github.com/crimson-sun/barometer/internal/model"
)

const defaultDateFormat = "2006-01-02"

func init() {
	corpus.Register("csv", func() corpus.Source {
		return &Source{}
	})
}

// Source implements corpus.Source for CSV files.
type Source struct{}

// Load reads cfg.Path. Extra["date_format"] overrides the default
// "2006-01-02" layout; RFC 3339 timestamps are accepted either way.
func (s *Source) Load(_ context.Context, cfg corpus.Config, params corpus.Params) ([]model.Document, error) {
	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("csv corpus: %w", err)
	}
	defer f.Close()

	format := cfg.Extra["date_format"]
	if format == "" {
		format = defaultDateFormat
	}
	docs, err := read(f, format, params)
	if err != nil {
		return nil, fmt.Errorf("csv corpus: %s: %w", cfg.Path, err)
	}
	return docs, nil
}

func read(r io.Reader, dateFormat string, params corpus.Params) ([]model.Document, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idCol, dateCol, textCol := -1, -1, -1
	featureCols := make(map[int]string)
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "id":
			idCol = i
		case "date":
			dateCol = i
		case "text":
			textCol = i
		default:
			featureCols[i] = strings.TrimSpace(name)
		}
	}
	if dateCol < 0 || textCol < 0 {
		return nil, fmt.Errorf("header must contain date and text columns, got %v", header)
	}

	var docs []model.Document
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}
		line++

		date, err := parseDate(rec[dateCol], dateFormat)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if !params.Keep(date) {
			continue
		}

		doc := model.Document{Date: date, Text: rec[textCol]}
		if idCol >= 0 {
			doc.ID = rec[idCol]
		}
		if len(featureCols) > 0 {
			doc.Features = make(map[string]float64, len(featureCols))
			for col, name := range featureCols {
				w, err := strconv.ParseFloat(rec[col], 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: feature %q: bad weight %q", line, name, rec[col])
				}
				doc.Features[name] = w
			}
		}
		docs = append(docs, doc)
	}

	sort.SliceStable(docs, func(i, j int) bool { return docs[i].Date.Before(docs[j].Date) })
	if params.Limit > 0 && len(docs) > params.Limit {
		docs = docs[:params.Limit]
	}
	return docs, nil
}

func parseDate(s, format string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(format, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("bad date %q (want %s or RFC 3339)", s, format)
}
