package corpus

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/crimson-sun/barometer/internal/model"
)

// ReadTargetCSV parses a prediction target from "date,value" rows with an
// optional header. Dates must be strictly increasing.
func ReadTargetCSV(name string, r io.Reader, dateFormat string) (model.Target, error) {
	if dateFormat == "" {
		dateFormat = "2006-01-02"
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	cr.TrimLeadingSpace = true

	target := model.Target{Name: name}
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.Target{}, fmt.Errorf("corpus: target %q: %w", name, err)
		}
		line++

		val, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			if line == 1 {
				continue // header
			}
			return model.Target{}, fmt.Errorf("corpus: target %q line %d: bad value %q", name, line, rec[1])
		}
		date, err := parseTargetDate(rec[0], dateFormat)
		if err != nil {
			return model.Target{}, fmt.Errorf("corpus: target %q line %d: %w", name, line, err)
		}
		if n := len(target.Dates); n > 0 && !target.Dates[n-1].Before(date) {
			return model.Target{}, fmt.Errorf("corpus: target %q line %d: dates must be strictly increasing", name, line)
		}
		target.Dates = append(target.Dates, date)
		target.Values = append(target.Values, val)
	}
	if len(target.Dates) == 0 {
		return model.Target{}, fmt.Errorf("corpus: target %q is empty", name)
	}
	return target, nil
}

// LoadTargetCSV reads a target series from a file path, named after the file
// without its extension.
func LoadTargetCSV(path, dateFormat string) (model.Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Target{}, fmt.Errorf("corpus: %w", err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), ".csv")
	return ReadTargetCSV(name, f, dateFormat)
}

func parseTargetDate(s, format string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(format, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("bad date %q", s)
}
