package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestAnomalyWindowContains(t *testing.T) {
	w := AnomalyWindow{
		Start: time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2020, 8, 31, 0, 0, 0, 0, time.UTC),
	}
	if !w.Contains(w.Start) || !w.Contains(w.End) {
		t.Error("window bounds must be inclusive")
	}
	if w.Contains(w.Start.AddDate(0, 0, -1)) || w.Contains(w.End.AddDate(0, 0, 1)) {
		t.Error("dates outside the window must not be contained")
	}
}

func TestAnomalyWindowJSON(t *testing.T) {
	w := AnomalyWindow{
		Name:          "COVID-19",
		Start:         time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC),
		End:           time.Date(2020, 8, 31, 0, 0, 0, 0, time.UTC),
		ImpactPercent: 35.0,
	}
	data, err := json.Marshal(w)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"name":"COVID-19","start_date":"2020-03-01","end_date":"2020-08-31","impact_percent":35}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}

func TestSegmentSeriesNullMarkers(t *testing.T) {
	v := 42.5
	seg := SegmentSeries{
		Dates:     []string{"2024-01-01", "2024-01-02"},
		Actual:    []*float64{&v, nil},
		Predicted: []*float64{&v, &v},
		Lower:     []*float64{nil, nil},
		Upper:     []*float64{&v, &v},
	}
	data, err := json.Marshal(seg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	actual := decoded["actual"].([]any)
	if actual[0] != 42.5 || actual[1] != nil {
		t.Errorf("actual = %v, want [42.5 <nil>]", actual)
	}
	lower := decoded["lower"].([]any)
	if lower[0] != nil {
		t.Errorf("lower[0] = %v, want null", lower[0])
	}
}
