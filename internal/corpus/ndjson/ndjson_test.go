package ndjson

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/barometer/internal/corpus"
)

const sample = `{"id":"d1","date":"2024-03-01","text":"Growth surprised on the upside","features":{"economy":1}}

{"id":"d2","date":"2024-03-02T09:30:00Z","text":"Coalition talks stall","tokens":["coalition","talks","stall"]}
`

func TestRead(t *testing.T) {
	docs, err := read(strings.NewReader(sample), corpus.Params{})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "d1", docs[0].ID)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), docs[0].Date)
	assert.Equal(t, map[string]float64{"economy": 1}, docs[0].Features)

	assert.Equal(t, []string{"coalition", "talks", "stall"}, docs[1].Tokens)
	assert.Equal(t, time.Date(2024, 3, 2, 9, 30, 0, 0, time.UTC), docs[1].Date)
}

func TestRead_BadLine(t *testing.T) {
	_, err := read(strings.NewReader(`{"id":"d1","date":"03/01/2024","text":"x"}`), corpus.Params{})
	assert.Error(t, err, "unsupported date layout")

	_, err = read(strings.NewReader(`{not json}`), corpus.Params{})
	assert.Error(t, err)
}

func TestRegistered(t *testing.T) {
	ctor, err := corpus.Get("ndjson")
	require.NoError(t, err)
	assert.NotNil(t, ctor())
}
