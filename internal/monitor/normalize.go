package monitor

import (
	"math"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Layouts carrying their own zone; parsed values are converted to the local zone.
var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	time.RFC1123,
	time.RFC1123Z,
}

// Zone-less layouts are read as wall-clock time in the local zone.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// Normalizer converts raw upstream rows into SensorSample and ActivityEvent
// values with a canonical calendar date.
type Normalizer struct {
	loc *time.Location
	now func() time.Time
}

// NewNormalizer returns a Normalizer bucketing sensor rows on calendar dates
// in loc. A nil now defaults to time.Now.
func NewNormalizer(loc *time.Location, now func() time.Time) *Normalizer {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &Normalizer{loc: loc, now: now}
}

// Location returns the zone sensor dates are bucketed in.
func (n *Normalizer) Location() *time.Location { return n.loc }

// Today returns the current calendar date in the local zone.
func (n *Normalizer) Today() string {
	return n.now().In(n.loc).Format(dateLayout)
}

// NormalizeSensor converts one raw history row. Missing numeric fields stay nil.
func (n *Normalizer) NormalizeSensor(raw RawReading) SensorSample {
	hour := HourUnknown
	if raw.Hour.Valid && raw.Hour.Value == math.Trunc(raw.Hour.Value) && math.Abs(raw.Hour.Value) < 1e6 {
		hour = int(raw.Hour.Value)
	}
	return SensorSample{
		Date:           n.sensorDate(strings.TrimSpace(string(raw.Date))),
		Hour:           hour,
		AvgTemperature: raw.AvgTemperature.Ptr(),
		AvgPH:          raw.AvgPH.Ptr(),
		AvgOxygen:      raw.AvgOxygen.Ptr(),
		AvgAmmonia:     raw.AvgAmmonia.Ptr(),
	}
}

// NormalizeActivity converts one raw activity row.
func (n *Normalizer) NormalizeActivity(raw RawActivity) ActivityEvent {
	created := strings.TrimSpace(string(raw.CreatedAt))
	return ActivityEvent{
		Date:      n.activityDate(created),
		Kind:      activityKind(string(raw.Type)),
		Message:   string(raw.Message),
		RawKind:   string(raw.Type),
		CreatedAt: created,
	}
}

// NormalizeHistory converts a whole full-history payload, preserving row order.
func (n *Normalizer) NormalizeHistory(p HistoryPayload) ([]SensorSample, []ActivityEvent) {
	samples := make([]SensorSample, 0, len(p.History))
	for _, r := range p.History {
		samples = append(samples, n.NormalizeSensor(r))
	}
	events := make([]ActivityEvent, 0, len(p.Activities))
	for _, a := range p.Activities {
		events = append(events, n.NormalizeActivity(a))
	}
	return samples, events
}

func (n *Normalizer) sensorDate(raw string) string {
	if raw == "" {
		return n.Today()
	}
	if _, err := time.Parse(dateLayout, raw); err == nil {
		return raw
	}
	for _, layout := range zonedLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.In(n.loc).Format(dateLayout)
		}
	}
	for _, layout := range localLayouts {
		if ts, err := time.ParseInLocation(layout, raw, n.loc); err == nil {
			return ts.Format(dateLayout)
		}
	}
	if len(raw) >= len(dateLayout) {
		if _, err := time.Parse(dateLayout, raw[:len(dateLayout)]); err == nil {
			return raw[:len(dateLayout)]
		}
	}
	return n.Today()
}

// activityDate truncates created_at to its date portion. The upstream store
// emits both "YYYY-MM-DDTHH:MM:SS" and "YYYY-MM-DD HH:MM:SS".
func (n *Normalizer) activityDate(created string) string {
	if created == "" {
		return n.now().UTC().Format(dateLayout)
	}
	if i := strings.Index(created, "T"); i >= 0 {
		return created[:i]
	}
	if i := strings.Index(created, " "); i >= 0 {
		return created[:i]
	}
	return created
}

func activityKind(raw string) ActivityKind {
	switch raw {
	case "schedule":
		return ActivityScheduled
	case "manual_feed":
		return ActivityManual
	default:
		return ActivityOther
	}
}
