package model

import "fmt"

// ShifterRole classifies a valence-shifter word.
type ShifterRole int

const (
	ShifterNegator ShifterRole = iota + 1
	ShifterAmplifier
	ShifterDeamplifier
	ShifterAdversative
)

// ParseShifterRole maps a role name from a lexicon file to a ShifterRole.
func ParseShifterRole(s string) (ShifterRole, error) {
	switch s {
	case "negator":
		return ShifterNegator, nil
	case "amplifier":
		return ShifterAmplifier, nil
	case "deamplifier":
		return ShifterDeamplifier, nil
	case "adversative":
		return ShifterAdversative, nil
	}
	return 0, fmt.Errorf("model: unknown shifter role %q", s)
}

// String returns the lowercase role name used in lexicon files.
func (r ShifterRole) String() string {
	switch r {
	case ShifterNegator:
		return "negator"
	case ShifterAmplifier:
		return "amplifier"
	case ShifterDeamplifier:
		return "deamplifier"
	case ShifterAdversative:
		return "adversative"
	}
	return "unknown"
}

// Shifter is a valence-table entry: a word that modifies the polarity of
// lexicon hits near it. Value is the multiplier applied to the hit polarity,
// so a plain negator carries -1, an amplifier something like 1.8 and a
// deamplifier something like 0.5. Adversative conjunctions ignore Value; the
// scorer's adversative policy supplies the factor instead.
type Shifter struct {
	Role  ShifterRole
	Value float64
}

// Lexicon maps normalized words to polarity scores, with an optional valence
// table consulted around each hit. Instances are immutable after loading.
type Lexicon struct {
	Name    string
	Entries map[string]float64
	Valence map[string]Shifter
}
