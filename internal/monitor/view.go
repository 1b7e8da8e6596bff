package monitor

// SampleView is one sensor row of the history with its classification.
type SampleView struct {
	SensorSample
	Severity   Severity          `json:"severity"`
	Parameters []ParameterStatus `json:"parameters"`
}

// HourView is one expandable hour of a day's sensor row.
type HourView struct {
	Hour    int          `json:"hour"`
	Samples []SampleView `json:"samples"`
}

// DayView is a DayGroup prepared for the history screen.
type DayView struct {
	Date            string          `json:"date"`
	Status          DayStatus       `json:"status"`
	ActivitySummary ActivityKind    `json:"activitySummary,omitempty"`
	Hours           []HourView      `json:"hours"`
	Activities      []ActivityEvent `json:"activities"`
}

// BuildDayViews classifies every group under cfg, keeping group order.
func BuildDayViews(groups []DayGroup, cfg RangeConfig) []DayView {
	views := make([]DayView, 0, len(groups))
	for _, g := range groups {
		v := DayView{
			Date:       g.Date,
			Status:     DayStatusOf(g, cfg),
			Hours:      []HourView{},
			Activities: g.Activities,
		}
		if v.Activities == nil {
			v.Activities = []ActivityEvent{}
		}
		if kind, ok := g.ActivitySummary(); ok {
			v.ActivitySummary = kind
		}
		for _, b := range g.HourBuckets() {
			hv := HourView{Hour: b.Hour}
			for _, s := range b.Samples {
				hv.Samples = append(hv.Samples, SampleView{
					SensorSample: s,
					Severity:     ClassifyReading(s, cfg),
					Parameters:   ClassifyParameters(s, cfg),
				})
			}
			v.Hours = append(v.Hours, hv)
		}
		views = append(views, v)
	}
	return views
}

// LiveParameter is one live value with its band and safety flag. InRange is
// nil when the value has never been reported.
type LiveParameter struct {
	Parameter Parameter `json:"parameter"`
	Value     *float64  `json:"value"`
	Range     Range     `json:"range"`
	InRange   *bool     `json:"inRange"`
}

// LiveView is the live panel: current values, their safety and alerts.
type LiveView struct {
	State      LiveState       `json:"state"`
	Parameters []LiveParameter `json:"parameters"`
	Alerts     []Alert         `json:"alerts"`
}

// BuildLiveView evaluates s under cfg.
func BuildLiveView(s LiveState, cfg RangeConfig) LiveView {
	v := LiveView{State: s, Alerts: Alerts(s, cfg)}
	if v.Alerts == nil {
		v.Alerts = []Alert{}
	}
	for _, p := range Parameters {
		lp := LiveParameter{Parameter: p, Value: s.Value(p), Range: cfg.For(p)}
		if lp.Value != nil {
			ok := InRange(p, *lp.Value, lp.Range)
			lp.InRange = &ok
		}
		v.Parameters = append(v.Parameters, lp)
	}
	return v
}
