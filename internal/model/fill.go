package model

import "fmt"

// FillPolicy resolves empty buckets before time weighting.
type FillPolicy int

const (
	// FillLatest carries the last observed value forward; buckets before a
	// series' first observation fall back to zero.
	FillLatest FillPolicy = iota + 1
	// FillZero treats empty buckets as neutral sentiment.
	FillZero
	// FillDrop removes dates with any empty bucket from the index and
	// aggregates over the surviving sequence.
	FillDrop
)

// ParseFillPolicy maps a config string to a FillPolicy.
func ParseFillPolicy(s string) (FillPolicy, error) {
	switch s {
	case "latest":
		return FillLatest, nil
	case "zero":
		return FillZero, nil
	case "drop":
		return FillDrop, nil
	}
	return 0, fmt.Errorf("model: unknown fill policy %q", s)
}

func (p FillPolicy) String() string {
	switch p {
	case FillLatest:
		return "latest"
	case FillZero:
		return "zero"
	case FillDrop:
		return "drop"
	}
	return "unknown"
}
