package repo

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/metroflow/metro-forecast/internal/models"
	"github.com/metroflow/metro-forecast/internal/utils"
)

// rawRow is one CSV record before per-station preprocessing. A NaN value
// marks a missing ridership cell to be interpolated.
type rawRow struct {
	date  time.Time
	value float64
}

// loadCSV reads the ridership export and returns per-station daily series,
// preprocessed the way the upstream pipeline contract requires: text
// normalized, dates parsed, duplicate dates merged, missing values linearly
// interpolated, negatives clipped to zero, sorted ascending.
func loadCSV(logger *slog.Logger, path string) (map[stationKey][]models.ObservationPoint, []stationKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read dataset header: %w", err)
	}
	cols, err := locateColumns(header)
	if err != nil {
		return nil, nil, err
	}

	grouped := make(map[stationKey][]rawRow)
	skipped := 0
	clipped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read dataset row: %w", err)
		}
		if len(record) <= cols.max() {
			skipped++
			continue
		}

		date, err := utils.ParseDate(strings.TrimSpace(record[cols.date]))
		if err != nil {
			skipped++
			continue
		}

		value := math.NaN()
		if raw := strings.TrimSpace(record[cols.value]); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				skipped++
				continue
			}
			if v < 0 {
				v = 0
				clipped++
			}
			value = v
		}

		key := stationKey{
			Line:    utils.NormalizeText(record[cols.line]),
			Station: utils.NormalizeText(record[cols.station]),
		}
		grouped[key] = append(grouped[key], rawRow{date: date, value: value})
	}

	if skipped > 0 {
		logger.Warn("malformed dataset rows skipped", slog.Int("rows", skipped))
	}
	if clipped > 0 {
		logger.Warn("negative ridership values clipped to zero", slog.Int("rows", clipped))
	}

	series := make(map[stationKey][]models.ObservationPoint, len(grouped))
	keys := make([]stationKey, 0, len(grouped))
	for key, rows := range grouped {
		obs := buildSeries(rows)
		if len(obs) == 0 {
			continue
		}
		series[key] = obs
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Line != keys[j].Line {
			return keys[i].Line < keys[j].Line
		}
		return keys[i].Station < keys[j].Station
	})

	if len(series) == 0 {
		return nil, nil, fmt.Errorf("dataset %s contains no usable rows", path)
	}
	return series, keys, nil
}

type columnIndex struct {
	date    int
	line    int
	station int
	value   int
}

func (c columnIndex) max() int {
	m := c.date
	for _, i := range []int{c.line, c.station, c.value} {
		if i > m {
			m = i
		}
	}
	return m
}

func locateColumns(header []string) (columnIndex, error) {
	idx := columnIndex{date: -1, line: -1, station: -1, value: -1}
	for i, name := range header {
		switch utils.NormalizeText(name) {
		case "fecha":
			idx.date = i
		case "linea":
			idx.line = i
		case "estacion":
			idx.station = i
		case "afluencia":
			idx.value = i
		}
	}
	var missing []string
	for name, i := range map[string]int{"fecha": idx.date, "linea": idx.line, "estacion": idx.station, "afluencia": idx.value} {
		if i < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return idx, fmt.Errorf("dataset is missing required columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

// buildSeries orders one station's rows, merges duplicate dates, and
// interpolates missing values between known neighbors. Edges with no known
// neighbor take the nearest known value.
func buildSeries(rows []rawRow) []models.ObservationPoint {
	sort.Slice(rows, func(i, j int) bool { return rows[i].date.Before(rows[j].date) })

	merged := rows[:0]
	for _, r := range rows {
		if n := len(merged); n > 0 && merged[n-1].date.Equal(r.date) {
			if math.IsNaN(merged[n-1].value) {
				merged[n-1].value = r.value
			} else if !math.IsNaN(r.value) {
				merged[n-1].value += r.value
			}
			continue
		}
		merged = append(merged, r)
	}

	interpolateGaps(merged)

	obs := make([]models.ObservationPoint, 0, len(merged))
	for _, r := range merged {
		if math.IsNaN(r.value) {
			continue
		}
		obs = append(obs, models.ObservationPoint{Date: r.date, Value: r.value})
	}
	return obs
}

func interpolateGaps(rows []rawRow) {
	lastKnown := -1
	for i := 0; i < len(rows); i++ {
		if math.IsNaN(rows[i].value) {
			continue
		}
		if lastKnown >= 0 && i-lastKnown > 1 {
			fillBetween(rows, lastKnown, i)
		}
		if lastKnown < 0 {
			// Leading gap takes the first known value.
			for j := 0; j < i; j++ {
				rows[j].value = rows[i].value
			}
		}
		lastKnown = i
	}
	if lastKnown >= 0 {
		// Trailing gap takes the last known value.
		for j := lastKnown + 1; j < len(rows); j++ {
			rows[j].value = rows[lastKnown].value
		}
	}
}

// fillBetween linearly interpolates rows strictly between known indices a
// and b, weighting by calendar distance.
func fillBetween(rows []rawRow, a, b int) {
	span := rows[b].date.Sub(rows[a].date).Hours()
	if span <= 0 {
		return
	}
	for i := a + 1; i < b; i++ {
		frac := rows[i].date.Sub(rows[a].date).Hours() / span
		rows[i].value = rows[a].value + frac*(rows[b].value-rows[a].value)
	}
}
