package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCadence_Bucket(t *testing.T) {
	// 2024-07-17 is a Wednesday; its ISO week starts Monday 2024-07-15.
	wed := time.Date(2024, 7, 17, 15, 4, 5, 0, time.UTC)

	assert.Equal(t, date(2024, 7, 17), Daily.Bucket(wed))
	assert.Equal(t, date(2024, 7, 15), Weekly.Bucket(wed))
	assert.Equal(t, date(2024, 7, 1), Monthly.Bucket(wed))
	assert.Equal(t, date(2024, 1, 1), Yearly.Bucket(wed))
}

func TestCadence_BucketSundayBelongsToPriorMonday(t *testing.T) {
	sun := date(2024, 7, 21)
	assert.Equal(t, date(2024, 7, 15), Weekly.Bucket(sun))
}

func TestCadence_Next(t *testing.T) {
	d := date(2024, 1, 31)

	assert.Equal(t, date(2024, 2, 1), Daily.Next(d))
	assert.Equal(t, date(2024, 2, 5), Weekly.Next(d)) // bucket starts Mon 2024-01-29
	assert.Equal(t, date(2024, 2, 1), Monthly.Next(d))
	assert.Equal(t, date(2025, 1, 1), Yearly.Next(d))
}

func TestParseCadence(t *testing.T) {
	for s, want := range map[string]Cadence{
		"day": Daily, "daily": Daily,
		"week": Weekly, "weekly": Weekly,
		"month": Monthly, "monthly": Monthly,
		"year": Yearly, "yearly": Yearly,
	} {
		got, err := ParseCadence(s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseCadence("fortnight")
	assert.Error(t, err)
}
