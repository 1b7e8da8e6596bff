package monitor

import "time"

// LiveState is the last-known live value of every parameter. A nil field has
// never been reported.
type LiveState struct {
	Temperature     *float64  `json:"temperature"`
	PH              *float64  `json:"ph"`
	DissolvedOxygen *float64  `json:"do"`
	Ammonia         *float64  `json:"ammonia"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Merge returns s updated with r. Fields missing from r keep their previous value.
func (s LiveState) Merge(r LiveReading, at time.Time) LiveState {
	if v := r.Temperature.Ptr(); v != nil {
		s.Temperature = v
	}
	if v := r.PH.Ptr(); v != nil {
		s.PH = v
	}
	if v := r.Oxygen.Ptr(); v != nil {
		s.DissolvedOxygen = v
	}
	if v := r.Ammonia.Ptr(); v != nil {
		s.Ammonia = v
	}
	s.UpdatedAt = at
	return s
}

// Value returns the live value of p.
func (s LiveState) Value(p Parameter) *float64 {
	switch p {
	case ParamTemperature:
		return s.Temperature
	case ParamPH:
		return s.PH
	case ParamDissolvedOxygen:
		return s.DissolvedOxygen
	case ParamAmmonia:
		return s.Ammonia
	}
	return nil
}

// InRange reports whether a live value is safe. Ammonia has no lower limit
// worth flagging, so only its max is checked.
func InRange(p Parameter, v float64, r Range) bool {
	if p == ParamAmmonia {
		return v <= r.Max
	}
	return r.Contains(v)
}

// AlertDirection tells which side of its band a live value left.
type AlertDirection string

const (
	AlertHigh AlertDirection = "high"
	AlertLow  AlertDirection = "low"
)

// Alert is a notification about a live value outside its band.
type Alert struct {
	Parameter Parameter      `json:"parameter"`
	Direction AlertDirection `json:"direction"`
	Message   string         `json:"message"`
}

var alertSubjects = []struct {
	param   Parameter
	subject string
}{
	{ParamTemperature, "Water temperature"},
	{ParamPH, "pH level"},
	{ParamDissolvedOxygen, "Dissolved oxygen"},
}

// Alerts lists the live temperature, pH and dissolved oxygen values above or
// below their bands. Ammonia is handled by the auto-feeder instead.
func Alerts(s LiveState, cfg RangeConfig) []Alert {
	var out []Alert
	for _, a := range alertSubjects {
		v := s.Value(a.param)
		if v == nil {
			continue
		}
		r := cfg.For(a.param)
		switch {
		case *v > r.Max:
			out = append(out, Alert{Parameter: a.param, Direction: AlertHigh, Message: a.subject + " is too high."})
		case *v < r.Min:
			out = append(out, Alert{Parameter: a.param, Direction: AlertLow, Message: a.subject + " is too low."})
		}
	}
	return out
}
