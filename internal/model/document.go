package model

import "time"

// Document is a dated unit of text scored by the engine. Tokens holds the
// normalized token stream; corpus sources fill it at load time so scoring
// never re-tokenizes.
type Document struct {
	ID       string
	Date     time.Time
	Text     string
	Tokens   []string
	Features map[string]float64 // feature name -> weight in [0,1]
}

// TokenCount returns the number of tokens in the document.
func (d *Document) TokenCount() int { return len(d.Tokens) }

// DocScore is one scored (document, feature, lexicon) cell.
type DocScore struct {
	DocID   string
	Date    time.Time
	Feature string
	Lexicon string

	Value          float64 // sentiment after shifters, within-document rule and feature weight
	Weight         float64 // feature weight that was applied
	PolarizedCount int     // lexicon hits in the document
	TokenCount     int
}
