package monitor

import "fmt"

// Severity is the three-tier status of a reading relative to its safe band.
// Tiers are ordered: Normal < Warning < Critical.
type Severity int

const (
	SeverityNormal Severity = iota
	SeverityWarning
	SeverityCritical
)

// ToleranceMargin is the absolute band around [min, max] that classifies as
// Warning rather than Critical.
const ToleranceMargin = 0.5

// StatusActive is the fixed status of a day's activity row. Activities record
// actions taken, so they never take part in severity classification.
const StatusActive = "Active"

func (s Severity) String() string {
	switch s {
	case SeverityNormal:
		return "Normal"
	case SeverityWarning:
		return "Warning"
	case SeverityCritical:
		return "Critical"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	switch string(b) {
	case "Normal":
		*s = SeverityNormal
	case "Warning":
		*s = SeverityWarning
	case "Critical":
		*s = SeverityCritical
	default:
		return fmt.Errorf("unknown severity %q", b)
	}
	return nil
}

// Worse returns the more severe of a and b.
func Worse(a, b Severity) Severity {
	if b > a {
		return b
	}
	return a
}

// ClassifyParameter places v against r. ok is false for a nil value, which
// must be left out of any aggregation.
func ClassifyParameter(v *float64, r Range) (sev Severity, ok bool) {
	if v == nil {
		return 0, false
	}
	switch {
	case *v >= r.Min && *v <= r.Max:
		return SeverityNormal, true
	case *v >= r.Min-ToleranceMargin && *v <= r.Max+ToleranceMargin:
		return SeverityWarning, true
	default:
		return SeverityCritical, true
	}
}

// ClassifyReading returns the worst tier among the sample's non-nil
// parameters. An all-nil sample is Normal.
func ClassifyReading(s SensorSample, cfg RangeConfig) Severity {
	worst := SeverityNormal
	for _, p := range Parameters {
		if sev, ok := ClassifyParameter(s.Value(p), cfg.For(p)); ok {
			worst = Worse(worst, sev)
		}
	}
	return worst
}

// ClassifyGroup returns the worst reading tier among samples, Normal when
// there are none.
func ClassifyGroup(samples []SensorSample, cfg RangeConfig) Severity {
	worst := SeverityNormal
	for _, s := range samples {
		worst = Worse(worst, ClassifyReading(s, cfg))
	}
	return worst
}

// ParameterStatus is one parameter of a sample with its tier. Severity is nil
// when the value is absent.
type ParameterStatus struct {
	Parameter Parameter `json:"parameter"`
	Value     *float64  `json:"value"`
	Severity  *Severity `json:"severity"`
}

// ClassifyParameters classifies every parameter of s independently.
func ClassifyParameters(s SensorSample, cfg RangeConfig) []ParameterStatus {
	out := make([]ParameterStatus, 0, len(Parameters))
	for _, p := range Parameters {
		ps := ParameterStatus{Parameter: p, Value: s.Value(p)}
		if sev, ok := ClassifyParameter(ps.Value, cfg.For(p)); ok {
			ps.Severity = &sev
		}
		out = append(out, ps)
	}
	return out
}

// DayStatus is what a day's history rows show: the sensor row's worst tier,
// when the day has samples, and the activity row's fixed status, when it has
// activities.
type DayStatus struct {
	Sensor   *Severity `json:"sensor,omitempty"`
	Activity string    `json:"activity,omitempty"`
}

// DayStatusOf derives the display status of g under cfg.
func DayStatusOf(g DayGroup, cfg RangeConfig) DayStatus {
	var st DayStatus
	if len(g.Samples) > 0 {
		sev := ClassifyGroup(g.Samples, cfg)
		st.Sensor = &sev
	}
	if len(g.Activities) > 0 {
		st.Activity = StatusActive
	}
	return st
}
