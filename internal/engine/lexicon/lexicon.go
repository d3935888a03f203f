// Package lexicon loads and indexes scoring lexicons and their valence
// shifter tables. A Set is immutable after construction; the scorer reads it
// concurrently without locks.
package lexicon

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/crimson-sun/barometer/internal/model"
)

var (
	// ErrUnknown is returned when a lexicon name is not in the set.
	ErrUnknown = errors.New("lexicon: unknown lexicon")
	// ErrEmpty is returned for a lexicon with no usable entries.
	ErrEmpty = errors.New("lexicon: no entries")
)

// Set holds named lexicons sharing one valence table. Lexicons that carry
// their own valence table keep it; the shared table fills the gap for the
// rest.
type Set struct {
	byName map[string]*model.Lexicon
	names  []string
}

// NewSet builds a Set from lexicons and a shared valence table (nil for
// none). Words are normalized (NFC, lowercased) so lookups match the corpus
// tokenizer. Lexicon names must be usable as measure-name components.
func NewSet(lexicons []model.Lexicon, valence map[string]model.Shifter) (*Set, error) {
	if len(lexicons) == 0 {
		return nil, fmt.Errorf("%w: set needs at least one lexicon", ErrEmpty)
	}

	shared := normalizeValence(valence)
	s := &Set{byName: make(map[string]*model.Lexicon, len(lexicons))}
	for _, lex := range lexicons {
		if err := model.CheckComponent(lex.Name); err != nil {
			return nil, err
		}
		if _, dup := s.byName[lex.Name]; dup {
			return nil, fmt.Errorf("lexicon: duplicate lexicon %q", lex.Name)
		}
		if len(lex.Entries) == 0 {
			return nil, fmt.Errorf("%w: lexicon %q", ErrEmpty, lex.Name)
		}

		entries := make(map[string]float64, len(lex.Entries))
		for word, val := range lex.Entries {
			entries[Normalize(word)] = val
		}
		val := shared
		if lex.Valence != nil {
			val = normalizeValence(lex.Valence)
		}
		s.byName[lex.Name] = &model.Lexicon{Name: lex.Name, Entries: entries, Valence: val}
		s.names = append(s.names, lex.Name)
	}
	sort.Strings(s.names)
	return s, nil
}

// Get returns the named lexicon.
func (s *Set) Get(name string) (*model.Lexicon, error) {
	lex, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %s)", ErrUnknown, name, strings.Join(s.names, ", "))
	}
	return lex, nil
}

// Names returns the lexicon names in sorted order.
func (s *Set) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// All returns the lexicons in name order.
func (s *Set) All() []*model.Lexicon {
	out := make([]*model.Lexicon, 0, len(s.names))
	for _, name := range s.names {
		out = append(out, s.byName[name])
	}
	return out
}

// Normalize maps a raw word to its lookup form. The corpus tokenizer applies
// the same mapping to document tokens.
func Normalize(word string) string {
	return model.NormalizeWord(word)
}

func normalizeValence(valence map[string]model.Shifter) map[string]model.Shifter {
	if valence == nil {
		return nil
	}
	out := make(map[string]model.Shifter, len(valence))
	for word, sh := range valence {
		out[Normalize(word)] = sh
	}
	return out
}
