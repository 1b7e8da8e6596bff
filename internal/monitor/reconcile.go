package monitor

import "sort"

// Reconcile merges sensor samples and activity events into one DayGroup per
// distinct date, newest date first. Within a group both sequences keep their
// input order. YYYY-MM-DD strings compare lexicographically in date order.
func Reconcile(samples []SensorSample, events []ActivityEvent) []DayGroup {
	groups := make(map[string]*DayGroup)
	group := func(date string) *DayGroup {
		g, ok := groups[date]
		if !ok {
			g = &DayGroup{Date: date}
			groups[date] = g
		}
		return g
	}

	for _, s := range samples {
		g := group(s.Date)
		g.Samples = append(g.Samples, s)
	}
	for _, a := range events {
		g := group(a.Date)
		g.Activities = append(g.Activities, a)
	}

	dates := make([]string, 0, len(groups))
	for d := range groups {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	out := make([]DayGroup, 0, len(dates))
	for _, d := range dates {
		out = append(out, *groups[d])
	}
	return out
}

// ActivitySummary folds the day's activities into the single kind shown on
// its activity row: the first kind that is not Other, else Other. ok is false
// when the day has no activities.
func (g DayGroup) ActivitySummary() (kind ActivityKind, ok bool) {
	if len(g.Activities) == 0 {
		return "", false
	}
	for _, a := range g.Activities {
		if a.Kind != ActivityOther {
			return a.Kind, true
		}
	}
	return ActivityOther, true
}

// HourBuckets groups the day's samples by hour, ascending. Samples sharing an
// hour stay together in source order.
func (g DayGroup) HourBuckets() []HourBucket {
	index := make(map[int]int)
	var buckets []HourBucket
	for _, s := range g.Samples {
		i, ok := index[s.Hour]
		if !ok {
			i = len(buckets)
			index[s.Hour] = i
			buckets = append(buckets, HourBucket{Hour: s.Hour})
		}
		buckets[i].Samples = append(buckets[i].Samples, s)
	}
	sort.SliceStable(buckets, func(a, b int) bool { return buckets[a].Hour < buckets[b].Hour })
	return buckets
}

// FindDay returns the group for date.
func FindDay(groups []DayGroup, date string) (DayGroup, bool) {
	for _, g := range groups {
		if g.Date == date {
			return g, true
		}
	}
	return DayGroup{}, false
}
