package summary

import (
	"fmt"
	"testing"
	"time"

	"flapd/pkg/logx"
)

func stationBody(pairs [][2]float64) []byte {
	body := `{"STATION":[`
	for i, p := range pairs {
		if i > 0 {
			body += ","
		}
		body += fmt.Sprintf(
			`{"STID":"S%d","OBSERVATIONS":{"air_temp_value_1":{"value":%g},"wind_speed_value_1":{"value":%g}}}`,
			i, p[0], p[1])
	}
	return []byte(body + `]}`)
}

func TestWeatherHappyPath(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 3, 9, 14, 23, 7, 0, time.UTC)
	body := stationBody([][2]float64{{68, 0.87}, {69, 1.74}, {71, 2.0}})

	w, err := SummarizeWeather(body, 5, now, logx.Nop())
	if err != nil {
		t.Fatalf("SummarizeWeather: %v", err)
	}
	if w.Stations != 3 {
		t.Fatalf("Stations = %d, want 3", w.Stations)
	}
	// medians: temp 69, wind 1.74 kn -> trunc(1.74*1.151)=trunc(2.003)=2
	if got := w.Strings; len(got) != 2 || got[0] != "69 f" || got[1] != "2mph" {
		t.Fatalf("Strings = %q", got)
	}
	if w.StatusLine != "Data: 2024-03-09 14:23:07" {
		t.Fatalf("StatusLine = %q", w.StatusLine)
	}
}

func TestWeatherEvenCountMedian(t *testing.T) {
	t.Parallel()
	body := stationBody([][2]float64{{60, 1}, {64, 1}, {66, 1}, {70, 1}})
	w, err := SummarizeWeather(body, 5, time.Now(), logx.Nop())
	if err != nil {
		t.Fatalf("SummarizeWeather: %v", err)
	}
	if w.MedianTempF != 65 {
		t.Fatalf("MedianTempF = %v, want 65", w.MedianTempF)
	}
	if w.Strings[0] != "65 f" {
		t.Fatalf("temp string = %q, want %q", w.Strings[0], "65 f")
	}
}

func TestWeatherSkipsPartialStations(t *testing.T) {
	t.Parallel()
	body := []byte(`{"STATION":[
		{"OBSERVATIONS":{"air_temp_value_1":{"value":50}}},
		{"OBSERVATIONS":{"wind_speed_value_1":{"value":3}}},
		{"OBSERVATIONS":{"air_temp_value_1":{"value":70},"wind_speed_value_1":{"value":1}}},
		"not-an-object",
		{"OBSERVATIONS":"nope"}
	]}`)
	w, err := SummarizeWeather(body, 5, time.Now(), logx.Nop())
	if err != nil {
		t.Fatalf("SummarizeWeather: %v", err)
	}
	if w.Stations != 1 || w.MedianTempF != 70 {
		t.Fatalf("Stations = %d median = %v, want 1/70", w.Stations, w.MedianTempF)
	}
}

func TestWeatherNoUsableStations(t *testing.T) {
	t.Parallel()
	w, err := SummarizeWeather([]byte(`{"STATION":[]}`), 5, time.Now(), logx.Nop())
	if err != nil {
		t.Fatalf("SummarizeWeather: %v", err)
	}
	if len(w.Strings) != 0 || w.StatusLine != "" {
		t.Fatalf("expected empty summary, got %+v", w)
	}
}

func TestWeatherShapeErrors(t *testing.T) {
	t.Parallel()
	bad := [][]byte{
		[]byte(``),
		[]byte(`{`),
		[]byte(`not json at all`),
		[]byte(`{"STATION": "oops"}`),
		[]byte(`{"STATION": 12}`),
		[]byte(`{}`),
		{0xff, 0xfe, 0x00},
	}
	for _, body := range bad {
		if _, err := SummarizeWeather(body, 5, time.Now(), logx.Nop()); err == nil {
			t.Errorf("body %q: expected error", body)
		}
	}
}

func TestMedianRule(t *testing.T) {
	t.Parallel()
	tests := []struct {
		vals []float64
		want float64
	}{
		{[]float64{3}, 3},
		{[]float64{3, 1}, 2},
		{[]float64{5, 1, 3}, 3},
		{[]float64{70, 60, 66, 64}, 65},
		{[]float64{-2, -8}, -5},
	}
	for _, tt := range tests {
		if got := median(tt.vals); got != tt.want {
			t.Errorf("median(%v) = %v, want %v", tt.vals, got, tt.want)
		}
	}
}

func TestTruncationToModules(t *testing.T) {
	t.Parallel()
	// A -100 degree median would produce "-100 f" (6 chars) on a
	// 5-module display.
	body := stationBody([][2]float64{{-100, 1}})
	w, err := SummarizeWeather(body, 5, time.Now(), logx.Nop())
	if err != nil {
		t.Fatalf("SummarizeWeather: %v", err)
	}
	if w.Strings[0] != "-100 " {
		t.Fatalf("temp string = %q, want %q", w.Strings[0], "-100 ")
	}
}
