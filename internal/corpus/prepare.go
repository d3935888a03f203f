package corpus

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/crimson-sun/barometer/internal/model"
)

// DefaultFeature is assigned with weight 1 to documents that carry no
// feature weights of their own.
const DefaultFeature = "all"

// ErrInvalidDocument is returned when a loaded document cannot be scored.
var ErrInvalidDocument = errors.New("corpus: invalid document")

// Prepare validates and normalizes loaded documents: assigns IDs where
// missing, tokenizes raw text when no tokens were provided, defaults the
// feature map and checks feature weights. The result is sorted by date,
// then ID.
func Prepare(docs []model.Document) ([]model.Document, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}

	seen := make(map[string]struct{}, len(docs))
	for i := range docs {
		doc := &docs[i]
		if doc.ID == "" {
			doc.ID = uuid.NewString()
		}
		if _, dup := seen[doc.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidDocument, doc.ID)
		}
		seen[doc.ID] = struct{}{}

		if doc.Date.IsZero() {
			return nil, fmt.Errorf("%w: %q has no date", ErrInvalidDocument, doc.ID)
		}
		if len(doc.Tokens) == 0 && doc.Text != "" {
			doc.Tokens = Tokenize(doc.Text)
		}

		if len(doc.Features) == 0 {
			doc.Features = map[string]float64{DefaultFeature: 1}
			continue
		}
		for name, w := range doc.Features {
			if err := model.CheckComponent(name); err != nil {
				return nil, fmt.Errorf("%w: %q: %v", ErrInvalidDocument, doc.ID, err)
			}
			if w < 0 || w > 1 {
				return nil, fmt.Errorf("%w: %q: feature %q weight %v outside [0, 1]",
					ErrInvalidDocument, doc.ID, name, w)
			}
		}
	}

	sort.SliceStable(docs, func(i, j int) bool {
		if !docs[i].Date.Equal(docs[j].Date) {
			return docs[i].Date.Before(docs[j].Date)
		}
		return docs[i].ID < docs[j].ID
	})
	return docs, nil
}

// Features returns the union of feature names across documents, sorted.
func Features(docs []model.Document) []string {
	set := make(map[string]struct{})
	for i := range docs {
		for name := range docs[i].Features {
			set[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
