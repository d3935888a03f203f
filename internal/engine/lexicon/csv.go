package lexicon

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/crimson-sun/barometer/internal/model"
)

// ReadCSV parses a lexicon from "word,value" rows. A header row is skipped
// when its value column does not parse as a number.
func ReadCSV(name string, r io.Reader) (model.Lexicon, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	cr.TrimLeadingSpace = true

	lex := model.Lexicon{Name: name, Entries: make(map[string]float64)}
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.Lexicon{}, fmt.Errorf("lexicon: read %q: %w", name, err)
		}
		line++

		val, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			if line == 1 {
				continue // header
			}
			return model.Lexicon{}, fmt.Errorf("lexicon: %q line %d: bad value %q", name, line, rec[1])
		}
		lex.Entries[Normalize(rec[0])] = val
	}
	if len(lex.Entries) == 0 {
		return model.Lexicon{}, fmt.Errorf("%w: lexicon %q", ErrEmpty, name)
	}
	return lex, nil
}

// ReadValenceCSV parses a valence table from "word,role,value" rows, where
// role is one of negator, amplifier, deamplifier or adversative. A header
// row is skipped when its value column does not parse.
func ReadValenceCSV(r io.Reader) (map[string]model.Shifter, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true

	table := make(map[string]model.Shifter)
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("lexicon: read valence table: %w", err)
		}
		line++

		val, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			if line == 1 {
				continue // header
			}
			return nil, fmt.Errorf("lexicon: valence line %d: bad value %q", line, rec[2])
		}
		role, err := model.ParseShifterRole(rec[1])
		if err != nil {
			return nil, fmt.Errorf("lexicon: valence line %d: %w", line, err)
		}
		table[Normalize(rec[0])] = model.Shifter{Role: role, Value: val}
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("%w: valence table", ErrEmpty)
	}
	return table, nil
}
