package models

// StationInfo summarises one (line, station) pair in the dataset.
type StationInfo struct {
	Line          string  `json:"line"`
	Station       string  `json:"station"`
	TotalRecords  int     `json:"total_records"`
	MeanRidership float64 `json:"mean_ridership"`
}

// MonthlySummary aggregates one calendar month of daily observations.
type MonthlySummary struct {
	Month string  `json:"month"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// ValueAt pairs an observed value with the date it occurred on.
type ValueAt struct {
	Value float64 `json:"value"`
	Date  string  `json:"date"`
}

// SeriesStats are descriptive statistics for a station's full history.
type SeriesStats struct {
	TotalRecords int     `json:"total_records"`
	FirstDate    string  `json:"first_date"`
	LastDate     string  `json:"last_date"`
	DailyMean    float64 `json:"daily_mean"`
	HistoricMax  ValueAt `json:"historic_max"`
	HistoricMin  ValueAt `json:"historic_min"`
}

// StationTimeSeries is the monthly view of a station served by the API.
type StationTimeSeries struct {
	Line    string           `json:"line"`
	Station string           `json:"station"`
	Data    []MonthlySummary `json:"data"`
	Stats   SeriesStats      `json:"stats"`
}
