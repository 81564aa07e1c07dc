// gen-dataset writes a synthetic ridership CSV for local development, shaped
// like the real afluencia export: per-day rows for a handful of stations with
// weekly seasonality and a pandemic-era collapse.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"time"
)

type station struct {
	line string
	name string
	base float64
}

var stations = []station{
	{"Línea 1", "Pantitlán", 68000},
	{"Línea 1", "Zócalo", 41000},
	{"Línea 2", "Cuatro Caminos", 55000},
	{"Línea 3", "Indios Verdes", 47000},
	{"Línea B", "Buenavista", 33000},
}

func main() {
	var (
		out   string
		start string
		days  int
	)
	flag.StringVar(&out, "out", "data/afluenciastc_simple_02_2024.csv", "Output CSV path")
	flag.StringVar(&start, "start", "2019-01-01", "First date (YYYY-MM-DD)")
	flag.IntVar(&days, "days", 1500, "Number of days to generate")
	flag.Parse()

	first, err := time.Parse("2006-01-02", start)
	if err != nil {
		log.Fatalf("parse start date: %v", err)
	}

	f, err := os.Create(out)
	if err != nil {
		log.Fatalf("create %s: %v", out, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"fecha", "linea", "estacion", "afluencia"}); err != nil {
		log.Fatalf("write header: %v", err)
	}

	covidStart := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	covidEnd := time.Date(2020, 8, 31, 0, 0, 0, 0, time.UTC)

	rows := 0
	for i := 0; i < days; i++ {
		d := first.AddDate(0, 0, i)
		for _, s := range stations {
			v := ridership(s.base, d, i, covidStart, covidEnd)
			record := []string{
				d.Format("2006-01-02"),
				s.line,
				s.name,
				fmt.Sprintf("%.0f", v),
			}
			if err := w.Write(record); err != nil {
				log.Fatalf("write row: %v", err)
			}
			rows++
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		log.Fatalf("flush: %v", err)
	}
	log.Printf("wrote %d rows for %d stations to %s", rows, len(stations), out)
}

func ridership(base float64, d time.Time, dayIndex int, covidStart, covidEnd time.Time) float64 {
	v := base
	v += 0.06 * base * math.Sin(2*math.Pi*float64(dayIndex)/365.25)
	switch d.Weekday() {
	case time.Saturday:
		v *= 0.72
	case time.Sunday:
		v *= 0.55
	}
	if !d.Before(covidStart) && !d.After(covidEnd) {
		v *= 0.42
	}
	return v
}
