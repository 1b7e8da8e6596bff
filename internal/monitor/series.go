package monitor

import (
	"fmt"
	"strconv"

	"github.com/i474232898/aquawatch/internal/common"
)

// HoursPerDay is the fixed length of every TimeSeries.
const HoursPerDay = 24

// SeriesMode selects how samples sharing an hour are combined.
type SeriesMode string

const (
	// SeriesLatest keeps the last sample written to each hour and leaves empty
	// hours as gaps.
	SeriesLatest SeriesMode = "latest"
	// SeriesAverage averages every sample of an hour and reports 0 for empty
	// hours.
	SeriesAverage SeriesMode = "average"
)

// ParseSeriesMode resolves a mode name; "" selects SeriesLatest.
func ParseSeriesMode(s string) (SeriesMode, error) {
	switch SeriesMode(s) {
	case "", SeriesLatest:
		return SeriesLatest, nil
	case SeriesAverage:
		return SeriesAverage, nil
	}
	return "", fmt.Errorf("unknown series mode %q", s)
}

// TimeSeries is one parameter's hourly values on one calendar date.
type TimeSeries struct {
	Parameter Parameter  `json:"parameter"`
	Date      string     `json:"date"`
	Mode      SeriesMode `json:"mode"`
	Labels    []string   `json:"labels"`
	Values    []*float64 `json:"values"`
}

var hourLabels = func() []string {
	labels := make([]string, HoursPerDay)
	for i := range labels {
		labels[i] = strconv.Itoa(i) + ":00"
	}
	return labels
}()

// HourLabels returns the chart labels "0:00" through "23:00".
func HourLabels() []string {
	return append([]string(nil), hourLabels...)
}

// LatestDate returns the most recent sample date, the first one seen on ties.
func LatestDate(samples []SensorSample) string {
	latest := ""
	for _, s := range samples {
		if s.Date > latest {
			latest = s.Date
		}
	}
	return latest
}

// BuildDailySeries bins one parameter of the samples on date into 24 hourly
// slots, rounded to two decimals. An empty date selects the latest sample
// date. A later sample on an already-filled hour overwrites it; samples
// without a value or outside hours 0..23 are skipped.
func BuildDailySeries(samples []SensorSample, p Parameter, date string) TimeSeries {
	ts := TimeSeries{
		Parameter: p,
		Mode:      SeriesLatest,
		Labels:    HourLabels(),
		Values:    make([]*float64, HoursPerDay),
	}
	if len(samples) == 0 {
		ts.Date = date
		return ts
	}
	if date == "" {
		date = LatestDate(samples)
	}
	ts.Date = date

	for _, s := range samples {
		if s.Date != date || s.Hour < 0 || s.Hour >= HoursPerDay {
			continue
		}
		v := s.Value(p)
		if v == nil {
			continue
		}
		rounded := common.Round(*v, 2)
		ts.Values[s.Hour] = &rounded
	}
	return ts
}

// BuildAveragedSeries reports, for each hour of date, the mean of the
// parameter across all samples landing in it, or 0 when none did. An empty
// date selects the latest sample date.
func BuildAveragedSeries(samples []SensorSample, p Parameter, date string) TimeSeries {
	if date == "" {
		date = LatestDate(samples)
	}
	var (
		sums   [HoursPerDay]float64
		counts [HoursPerDay]int
	)
	for _, s := range samples {
		if s.Date != date || s.Hour < 0 || s.Hour >= HoursPerDay {
			continue
		}
		v := s.Value(p)
		if v == nil {
			continue
		}
		sums[s.Hour] += *v
		counts[s.Hour]++
	}

	ts := TimeSeries{
		Parameter: p,
		Date:      date,
		Mode:      SeriesAverage,
		Labels:    HourLabels(),
		Values:    make([]*float64, HoursPerDay),
	}
	for h := range ts.Values {
		mean := 0.0
		if counts[h] > 0 {
			mean = sums[h] / float64(counts[h])
		}
		ts.Values[h] = &mean
	}
	return ts
}

// BuildSeries dispatches to the builder for mode.
func BuildSeries(samples []SensorSample, p Parameter, date string, mode SeriesMode) TimeSeries {
	if mode == SeriesAverage {
		return BuildAveragedSeries(samples, p, date)
	}
	return BuildDailySeries(samples, p, date)
}
