// Package summary turns fetched JSON bodies into display strings.
//
// Both summaries are tolerant by construction: any shape mismatch is
// logged and yields an empty summary, never an error that could stop the
// display loop.
package summary

import (
	"fmt"
	"sort"
	"time"

	"flapd/internal/jsonval"
	"flapd/pkg/logx"
)

// knots → miles per hour
const knotsToMPH = 1.151

// Weather is the digest of one station-observation payload.
type Weather struct {
	// Strings holds the display strings in queue order:
	// median temperature, then median wind speed.
	Strings []string

	// StatusLine is the "Data: ..." freshness line, empty when no
	// usable observations survived.
	StatusLine string

	Stations     int
	MedianTempF  float64
	MedianWindKn float64
}

// SummarizeWeather extracts per-station (air_temp, wind_speed) pairs and
// reduces them to medians. Entries missing either field are skipped.
//
// The payload shape is the stations/latest response:
//
//	{"STATION": [{"OBSERVATIONS": {"air_temp_value_1": {"value": 69},
//	                               "wind_speed_value_1": {"value": 0.87}}}, ...]}
//
// An empty pair set yields an empty summary and no status change.
func SummarizeWeather(body []byte, modules int, now time.Time, log logx.Logger) (Weather, error) {
	root, err := jsonval.Parse(body)
	if err != nil {
		return Weather{}, err
	}

	stations := root.Get("STATION")
	if !stations.IsArray() {
		return Weather{}, fmt.Errorf("parse error: STATION is %s, want array", stations.Kind())
	}

	var temps, winds []float64
	for i := 0; i < stations.Len(); i++ {
		item := stations.Index(i)
		if !item.IsObject() {
			log.Debug("bad station item, ignoring", logx.Int("index", i))
			continue
		}
		obs := item.Get("OBSERVATIONS")
		if !obs.IsObject() {
			log.Debug("bad station observations, ignoring", logx.Int("index", i))
			continue
		}
		temp, tok := obs.Get("air_temp_value_1").Get("value").Num()
		wind, wok := obs.Get("wind_speed_value_1").Get("value").Num()
		if !tok || !wok {
			log.Debug("station missing temp or wind, ignoring", logx.Int("index", i))
			continue
		}
		temps = append(temps, temp)
		winds = append(winds, wind)
	}

	if len(temps) == 0 {
		log.Info("no usable observations in payload")
		return Weather{}, nil
	}

	w := Weather{
		Stations:     len(temps),
		MedianTempF:  median(temps),
		MedianWindKn: median(winds),
	}
	w.Strings = []string{
		fit(fmt.Sprintf("%d f", int(w.MedianTempF)), modules),
		fit(fmt.Sprintf("%dmph", int(w.MedianWindKn*knotsToMPH)), modules),
	}
	w.StatusLine = "Data: " + now.Format("2006-01-02 15:04:05")
	return w, nil
}

// median assumes len(vals) > 0. Even counts average the two central
// order statistics.
func median(vals []float64) float64 {
	s := append([]float64(nil), vals...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 0 {
		return (s[n/2-1] + s[n/2]) / 2
	}
	return s[n/2]
}

// fit truncates s from the right to at most n characters.
// Padding to the full module count happens at display time.
func fit(s string, n int) string {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}
