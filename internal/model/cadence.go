package model

import (
	"fmt"
	"time"
)

// Cadence is the calendar frequency documents are bucketed at.
type Cadence int

const (
	Daily Cadence = iota + 1
	Weekly
	Monthly
	Yearly
)

// ParseCadence maps a config string to a Cadence.
func ParseCadence(s string) (Cadence, error) {
	switch s {
	case "day", "daily":
		return Daily, nil
	case "week", "weekly":
		return Weekly, nil
	case "month", "monthly":
		return Monthly, nil
	case "year", "yearly":
		return Yearly, nil
	}
	return 0, fmt.Errorf("model: unknown cadence %q", s)
}

func (c Cadence) String() string {
	switch c {
	case Daily:
		return "day"
	case Weekly:
		return "week"
	case Monthly:
		return "month"
	case Yearly:
		return "year"
	}
	return "unknown"
}

// Bucket truncates t to the start of its bucket in UTC. Weeks start on
// Monday.
func (c Cadence) Bucket(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch c {
	case Weekly:
		monday := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -monday)
	case Monthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case Yearly:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return day
}

// Next returns the bucket start immediately after t's bucket.
func (c Cadence) Next(t time.Time) time.Time {
	b := c.Bucket(t)
	switch c {
	case Weekly:
		return b.AddDate(0, 0, 7)
	case Monthly:
		return b.AddDate(0, 1, 0)
	case Yearly:
		return b.AddDate(1, 0, 0)
	}
	return b.AddDate(0, 0, 1)
}
