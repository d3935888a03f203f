// Package sqlite persists results to a SQLite database through gorm, so
// downstream jobs can query measures and predictions with plain SQL.
package sqlite

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/crimson-sun/barometer/internal/model"
)

const batchSize = 500

// MeasureRow is one (date, measure) cell of a measures table.
type MeasureRow struct {
	ID      uint      `gorm:"primaryKey"`
	Date    time.Time `gorm:"index"`
	Measure string    `gorm:"index"`
	Value   float64
}

// PredictionRow is one walk-forward prediction.
type PredictionRow struct {
	ID       uint      `gorm:"primaryKey"`
	Date     time.Time `gorm:"index"`
	Anchor   time.Time
	Value    float64
	Alpha    float64
	Lambda   float64
	Realized float64
	Known    bool
}

// Output appends rows to a SQLite database file.
type Output struct {
	db *gorm.DB
}

// New opens (or creates) the database at path and migrates the schema.
func New(path string) (*Output, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("sqlite output: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&MeasureRow{}, &PredictionRow{}); err != nil {
		return nil, fmt.Errorf("sqlite output: migrate: %w", err)
	}
	return &Output{db: db}, nil
}

// WriteMeasures stores the table in long form, one row per cell.
func (o *Output) WriteMeasures(ctx context.Context, tb model.Table) error {
	rows := make([]MeasureRow, 0, len(tb.Dates)*len(tb.Columns))
	for i, d := range tb.Dates {
		for j, name := range tb.Columns {
			rows = append(rows, MeasureRow{Date: d, Measure: name, Value: tb.Rows[i][j]})
		}
	}
	if len(rows) == 0 {
		return nil
	}
	if err := o.db.WithContext(ctx).CreateInBatches(rows, batchSize).Error; err != nil {
		return fmt.Errorf("sqlite output: measures: %w", err)
	}
	return nil
}

// WritePredictions stores one row per prediction.
func (o *Output) WritePredictions(ctx context.Context, preds []model.Prediction) error {
	rows := make([]PredictionRow, len(preds))
	for i, p := range preds {
		rows[i] = PredictionRow{
			Date:     p.Date,
			Anchor:   p.Anchor,
			Value:    p.Value,
			Alpha:    p.Alpha,
			Lambda:   p.Lambda,
			Realized: p.Realized,
			Known:    p.Known,
		}
	}
	if len(rows) == 0 {
		return nil
	}
	if err := o.db.WithContext(ctx).CreateInBatches(rows, batchSize).Error; err != nil {
		return fmt.Errorf("sqlite output: predictions: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (o *Output) Close() error {
	sqlDB, err := o.db.DB()
	if err != nil {
		return fmt.Errorf("sqlite output: %w", err)
	}
	return sqlDB.Close()
}
