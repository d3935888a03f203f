package barometer_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/crimson-sun/barometer/pkg/barometer"
)

func Example() {
	b, err := barometer.New(barometer.WithLag(1))
	if err != nil {
		log.Fatal(err)
	}

	docs := []barometer.Document{
		{
			ID:       "d1",
			Date:     time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
			Text:     "markets rally on strong growth",
			Features: map[string]float64{"econ": 1},
		},
		{
			ID:       "d2",
			Date:     time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
			Text:     "weak demand",
			Features: map[string]float64{"econ": 1},
		},
		{
			ID:       "d3",
			Date:     time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC),
			Text:     "strong outlook",
			Features: map[string]float64{"econ": 1},
		},
	}
	lexicons := map[string]map[string]float64{
		"tone": {"strong": 1, "weak": -1, "rally": 2},
	}

	m, err := b.ComputeMeasures(context.Background(), docs, lexicons)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(m.Count(), m.Names()[0])
	values, err := m.Values("econ--tone--equal")
	if err != nil {
		log.Fatal(err)
	}
	for i, d := range m.Dates() {
		fmt.Printf("%s %.2f\n", d.Format("2006-01-02"), values[i])
	}
	// Output:
	// 1 econ--tone--equal
	// 2024-06-03 0.05
	// 2024-06-04 0.50
}
