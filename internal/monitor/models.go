package monitor

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/i474232898/aquawatch/internal/common"
)

// Parameter identifies one monitored water-quality parameter.
type Parameter string

const (
	ParamTemperature     Parameter = "temperature"
	ParamPH              Parameter = "ph"
	ParamDissolvedOxygen Parameter = "do"
	ParamAmmonia         Parameter = "ammonia"
)

// Parameters lists the monitored parameters in display order.
var Parameters = []Parameter{ParamTemperature, ParamPH, ParamDissolvedOxygen, ParamAmmonia}

// ParseParameter resolves a parameter name, accepting the long and upstream
// field spellings of dissolved oxygen.
func ParseParameter(s string) (Parameter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "temperature", "temp":
		return ParamTemperature, nil
	case "ph":
		return ParamPH, nil
	case "do", "oxygen", "dissolvedoxygen", "dissolved_oxygen":
		return ParamDissolvedOxygen, nil
	case "ammonia":
		return ParamAmmonia, nil
	default:
		return "", fmt.Errorf("unknown parameter %q", s)
	}
}

// Number is a nullable reading value as sent by the upstream store. It accepts
// JSON numbers, numeric strings and null; anything else decodes as absent.
type Number struct {
	Value float64
	Valid bool
}

// Num returns a present Number.
func Num(v float64) Number { return Number{Value: v, Valid: true} }

// Ptr returns nil for an absent value.
func (n Number) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

func (n *Number) UnmarshalJSON(b []byte) error {
	*n = Number{}
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		return nil
	}
	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return nil
		}
		s = str
	}
	if v, ok := common.ParseNumber(s); ok {
		n.Value, n.Valid = v, true
	}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(n.Value, 'g', -1, 64)), nil
}

// Text is a lenient string field: null decodes to "", and non-string JSON
// values keep their literal text.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	switch {
	case s == "" || s == "null":
		*t = ""
	case s[0] == '"':
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			*t = ""
			return nil
		}
		*t = Text(str)
	default:
		*t = Text(s)
	}
	return nil
}

// RawReading is one hourly row of the upstream full-history payload.
type RawReading struct {
	Date           Text   `json:"date"`
	Hour           Number `json:"hour"`
	AvgTemperature Number `json:"avg_temperature"`
	AvgPH          Number `json:"avg_ph"`
	AvgOxygen      Number `json:"avg_oxygen"`
	AvgAmmonia     Number `json:"avg_ammonia"`
}

// RawActivity is one feeding activity of the upstream full-history payload.
type RawActivity struct {
	Type      Text `json:"type"`
	Message   Text `json:"message"`
	CreatedAt Text `json:"created_at"`
}

// HistoryPayload is the upstream /api/full-history response.
type HistoryPayload struct {
	History    []RawReading  `json:"history"`
	Activities []RawActivity `json:"activities"`
}

// LiveReading is the upstream /api/live response. Every field is optional.
type LiveReading struct {
	Temperature Number `json:"temperature"`
	PH          Number `json:"ph"`
	Oxygen      Number `json:"oxygen"`
	Ammonia     Number `json:"ammonia"`
}

// HourUnknown marks a sample whose hour was missing or unparseable.
const HourUnknown = -1

// SensorSample is an hourly aggregate bucketed on its local calendar date.
type SensorSample struct {
	Date           string   `json:"date"` // YYYY-MM-DD in the configured location
	Hour           int      `json:"hour"`
	AvgTemperature *float64 `json:"avgTemperature"`
	AvgPH          *float64 `json:"avgPh"`
	AvgOxygen      *float64 `json:"avgOxygen"`
	AvgAmmonia     *float64 `json:"avgAmmonia"`
}

// Value returns the sample's value for p, or nil when absent.
func (s SensorSample) Value(p Parameter) *float64 {
	switch p {
	case ParamTemperature:
		return s.AvgTemperature
	case ParamPH:
		return s.AvgPH
	case ParamDissolvedOxygen:
		return s.AvgOxygen
	case ParamAmmonia:
		return s.AvgAmmonia
	}
	return nil
}

// ActivityKind is the normalized kind of a feeding activity.
type ActivityKind string

const (
	ActivityScheduled ActivityKind = "Scheduled Feed"
	ActivityManual    ActivityKind = "Manual Feed"
	ActivityOther     ActivityKind = "Other"
)

// ActivityEvent is a discrete feeding activity bucketed on its calendar date.
type ActivityEvent struct {
	Date      string       `json:"date"`
	Kind      ActivityKind `json:"kind"`
	Message   string       `json:"message"`
	RawKind   string       `json:"rawKind"`
	CreatedAt string       `json:"createdAt"`
}

// Label is the human-readable activity label. Other-kind activities show
// their message when there is one.
func (a ActivityEvent) Label() string {
	if a.Kind == ActivityOther && strings.TrimSpace(a.Message) != "" {
		return a.Message
	}
	return string(a.Kind)
}

// DayGroup holds one calendar date's sensor samples and activities, each in
// source order.
type DayGroup struct {
	Date       string          `json:"date"`
	Samples    []SensorSample  `json:"sensorSamples"`
	Activities []ActivityEvent `json:"activityEvents"`
}

// HourBucket is the samples of one hour within a DayGroup.
type HourBucket struct {
	Hour    int            `json:"hour"`
	Samples []SensorSample `json:"samples"`
}
