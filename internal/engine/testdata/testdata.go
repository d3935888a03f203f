// Package testdata provides the fixture corpus and fixture lexicons that
// package tests inject. Nothing here ships as production data; callers load
// their own lexicons.
package testdata

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/crimson-sun/barometer/internal/model"
)

//go:embed corpus.json
var corpusJSON []byte

type corpusEntry struct {
	ID       string             `json:"id"`
	Date     string             `json:"date"`
	Text     string             `json:"text"`
	Features map[string]float64 `json:"features"`
}

// LoadCorpus returns the embedded fixture corpus: two weeks of dated
// headlines, each carrying econ and markets feature weights.
func LoadCorpus() ([]model.Document, error) {
	var entries []corpusEntry
	if err := json.Unmarshal(corpusJSON, &entries); err != nil {
		return nil, fmt.Errorf("testdata: parse corpus: %w", err)
	}
	docs := make([]model.Document, len(entries))
	for i, e := range entries {
		date, err := time.Parse("2006-01-02", e.Date)
		if err != nil {
			return nil, fmt.Errorf("testdata: entry %q: %w", e.ID, err)
		}
		docs[i] = model.Document{ID: e.ID, Date: date, Text: e.Text, Features: e.Features}
	}
	return docs, nil
}

// Lexicons returns the fixture lexicons: a general tone vocabulary and an
// uncertainty vocabulary.
func Lexicons() []model.Lexicon {
	return []model.Lexicon{
		{
			Name: "tone",
			Entries: map[string]float64{
				"strong": 1, "growth": 1, "rally": 2, "gains": 1, "upbeat": 1,
				"weak": -1, "decline": -1, "slump": -2, "losses": -1, "downturn": -1,
			},
		},
		{
			Name: "uncertainty",
			Entries: map[string]float64{
				"stable": 1, "steady": 1,
				"uncertain": -1, "volatile": -1, "unclear": -1,
			},
		},
	}
}

// Valence returns the fixture shifter table shared by both lexicons.
func Valence() map[string]model.Shifter {
	return map[string]model.Shifter{
		"not":      {Role: model.ShifterNegator, Value: -1},
		"never":    {Role: model.ShifterNegator, Value: -1},
		"very":     {Role: model.ShifterAmplifier, Value: 2},
		"sharply":  {Role: model.ShifterAmplifier, Value: 2},
		"slightly": {Role: model.ShifterDeamplifier, Value: 0.5},
		"somewhat": {Role: model.ShifterDeamplifier, Value: 0.5},
		"but":      {Role: model.ShifterAdversative},
		"however":  {Role: model.ShifterAdversative},
	}
}
