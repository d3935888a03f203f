package lexicon

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/barometer/internal/model"
)

func TestNewSet_NormalizesAndLooksUp(t *testing.T) {
	set, err := NewSet([]model.Lexicon{
		{Name: "base", Entries: map[string]float64{"Good": 1, "BAD": -1}},
	}, map[string]model.Shifter{
		"NOT": {Role: model.ShifterNegator, Value: -1},
	})
	require.NoError(t, err)

	lex, err := set.Get("base")
	require.NoError(t, err)
	assert.Equal(t, 1.0, lex.Entries["good"])
	assert.Equal(t, -1.0, lex.Entries["bad"])
	assert.Equal(t, model.ShifterNegator, lex.Valence["not"].Role)
}

func TestNewSet_SharedValenceFillsGap(t *testing.T) {
	own := map[string]model.Shifter{"hardly": {Role: model.ShifterDeamplifier, Value: 0.5}}
	shared := map[string]model.Shifter{"not": {Role: model.ShifterNegator, Value: -1}}

	set, err := NewSet([]model.Lexicon{
		{Name: "custom", Entries: map[string]float64{"good": 1}, Valence: own},
		{Name: "plain", Entries: map[string]float64{"good": 1}},
	}, shared)
	require.NoError(t, err)

	custom, err := set.Get("custom")
	require.NoError(t, err)
	_, hasShared := custom.Valence["not"]
	assert.False(t, hasShared, "per-lexicon valence table must win")

	plain, err := set.Get("plain")
	require.NoError(t, err)
	assert.Equal(t, model.ShifterNegator, plain.Valence["not"].Role)
}

func TestNewSet_Rejections(t *testing.T) {
	_, err := NewSet(nil, nil)
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = NewSet([]model.Lexicon{{Name: "empty", Entries: nil}}, nil)
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = NewSet([]model.Lexicon{
		{Name: "bad--name", Entries: map[string]float64{"good": 1}},
	}, nil)
	assert.Error(t, err)

	_, err = NewSet([]model.Lexicon{
		{Name: "dup", Entries: map[string]float64{"good": 1}},
		{Name: "dup", Entries: map[string]float64{"bad": -1}},
	}, nil)
	assert.Error(t, err)
}

func TestSet_GetUnknown(t *testing.T) {
	set, err := NewSet([]model.Lexicon{
		{Name: "base", Entries: map[string]float64{"good": 1}},
	}, nil)
	require.NoError(t, err)

	_, err = set.Get("missing")
	assert.ErrorIs(t, err, ErrUnknown)
	assert.Contains(t, err.Error(), "base", "error should list available lexicons")
}

func TestReadCSV(t *testing.T) {
	in := "word,value\ngood,1\nawful,-2\nGreat,1.5\n"

	lex, err := ReadCSV("tone", strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, "tone", lex.Name)
	assert.Equal(t, map[string]float64{"good": 1, "awful": -2, "great": 1.5}, lex.Entries)
}

func TestReadCSV_BadValue(t *testing.T) {
	_, err := ReadCSV("tone", strings.NewReader("good,1\noops,abc\n"))
	assert.Error(t, err)
}

func TestReadValenceCSV(t *testing.T) {
	in := "word,role,value\nnot,negator,-1\nvery,amplifier,1.8\nslightly,deamplifier,0.4\nbut,adversative,1\n"

	table, err := ReadValenceCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Len(t, table, 4)
	assert.Equal(t, model.Shifter{Role: model.ShifterNegator, Value: -1}, table["not"])
	assert.Equal(t, model.Shifter{Role: model.ShifterAdversative, Value: 1}, table["but"])

	_, err = ReadValenceCSV(strings.NewReader("not,inverter,-1\n"))
	assert.Error(t, err)
}
