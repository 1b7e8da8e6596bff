package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/aquawatch/internal/store"
)

type fakeUpstream struct {
	mu sync.Mutex

	history   func(ctx context.Context) (HistoryPayload, error)
	live      LiveReading
	liveErr   error
	pushErr   error
	pushed    []RangeConfig
	schedules []FeedSchedule
	feeds     []FeedCommand
	feedErr   error
}

func (u *fakeUpstream) FetchHistory(ctx context.Context) (HistoryPayload, error) {
	return u.history(ctx)
}

func (u *fakeUpstream) FetchLive(context.Context) (LiveReading, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.live, u.liveErr
}

func (u *fakeUpstream) PushThresholds(_ context.Context, cfg RangeConfig) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.pushed = append(u.pushed, cfg)
	return u.pushErr
}

func (u *fakeUpstream) PostFeedSchedule(_ context.Context, s FeedSchedule) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.schedules = append(u.schedules, s)
	return nil
}

func (u *fakeUpstream) TriggerFeed(_ context.Context, cmd FeedCommand) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.feeds = append(u.feeds, cmd)
	return u.feedErr
}

func staticHistory(p HistoryPayload) func(context.Context) (HistoryPayload, error) {
	return func(context.Context) (HistoryPayload, error) { return p, nil }
}

var testPayload = HistoryPayload{
	History: []RawReading{
		{Date: "2024-05-01", Hour: Num(5), AvgTemperature: Num(10)},
		{Date: "2024-05-01", Hour: Num(5), AvgTemperature: Num(20)},
		{Date: "2024-05-02", Hour: Num(1), AvgTemperature: Num(29)},
	},
	Activities: []RawActivity{
		{Type: "manual_feed", Message: "Fed", CreatedAt: "2024-04-30T09:00:00"},
	},
}

func newTestService(u *fakeUpstream, cooldown time.Duration) (*Service, *store.MemoryStore) {
	now := fixedNow(time.Date(2024, 5, 2, 9, 0, 0, 0, manila))
	settings := store.NewMemoryStore(0)
	svc := NewService(u, settings, Options{
		Normalizer:       NewNormalizer(manila, now),
		AutoFeedCooldown: cooldown,
		Now:              now,
	})
	return svc, settings
}

func TestServiceRefreshHistory(t *testing.T) {
	svc, _ := newTestService(&fakeUpstream{history: staticHistory(testPayload)}, 0)

	_, err := svc.History()
	assert.ErrorIs(t, err, ErrNoHistory)

	require.NoError(t, svc.RefreshHistory(context.Background()))

	snap, err := svc.History()
	require.NoError(t, err)
	require.Len(t, snap.Groups, 3)
	assert.Equal(t, "2024-05-02", snap.Groups[0].Date)
	assert.Equal(t, "2024-04-30", snap.Groups[2].Date)

	view, err := svc.DayViews(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultRanges(), view.Ranges)
	assert.Equal(t, snap.FetchedAt, view.FetchedAt)
	views := view.Days
	require.Len(t, views, 3)
	require.NotNil(t, views[1].Status.Sensor)
	assert.Equal(t, SeverityCritical, *views[1].Status.Sensor)
	assert.Equal(t, ActivityManual, views[2].ActivitySummary)
}

func TestServiceRefreshFailureKeepsSnapshot(t *testing.T) {
	u := &fakeUpstream{history: staticHistory(testPayload)}
	svc, _ := newTestService(u, 0)
	require.NoError(t, svc.RefreshHistory(context.Background()))

	u.history = func(context.Context) (HistoryPayload, error) {
		return HistoryPayload{}, errors.New("connection refused")
	}
	err := svc.RefreshHistory(context.Background())
	assert.ErrorIs(t, err, ErrUpstream)

	snap, err := svc.History()
	require.NoError(t, err)
	assert.Len(t, snap.Groups, 3)
}

func TestServiceDiscardsSupersededHistory(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	stale := HistoryPayload{History: []RawReading{{Date: "2020-01-01", Hour: Num(1)}}}

	var calls int
	var mu sync.Mutex
	u := &fakeUpstream{history: func(context.Context) (HistoryPayload, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(started)
			<-release
			return stale, nil
		}
		return testPayload, nil
	}}
	svc, _ := newTestService(u, 0)

	errc := make(chan error, 1)
	go func() { errc <- svc.RefreshHistory(context.Background()) }()
	<-started

	require.NoError(t, svc.RefreshHistory(context.Background()))
	close(release)
	assert.ErrorIs(t, <-errc, ErrSuperseded)

	snap, err := svc.History()
	require.NoError(t, err)
	_, ok := FindDay(snap.Groups, "2020-01-01")
	assert.False(t, ok, "stale response must not replace the newer snapshot")
}

func TestServiceSeries(t *testing.T) {
	svc, _ := newTestService(&fakeUpstream{history: staticHistory(testPayload)}, 0)

	ts := svc.Series(ParamTemperature, "", SeriesLatest)
	require.Len(t, ts.Values, HoursPerDay)
	for _, v := range ts.Values {
		assert.Nil(t, v)
	}

	require.NoError(t, svc.RefreshHistory(context.Background()))
	ts = svc.Series(ParamTemperature, "2024-05-01", SeriesLatest)
	assert.Equal(t, 20.0, *ts.Values[5])
	ts = svc.Series(ParamTemperature, "2024-05-01", SeriesAverage)
	assert.Equal(t, 15.0, *ts.Values[5])
	assert.Equal(t, "2024-05-02", svc.Today())
}

func TestServiceRanges(t *testing.T) {
	u := &fakeUpstream{}
	svc, settings := newTestService(u, 0)
	ctx := context.Background()

	assert.Equal(t, DefaultRanges(), svc.Ranges(ctx))

	require.NoError(t, settings.Set(ctx, RangesKey, "{broken"))
	assert.Equal(t, DefaultRanges(), svc.Ranges(ctx))

	form := FormFromConfig(DefaultRanges())
	form.Temperature = BoundForm{Min: "26", Max: "30"}
	cfg, err := svc.SaveRanges(ctx, form)
	require.NoError(t, err)
	assert.Equal(t, Range{Min: 26, Max: 30}, cfg.Temperature)
	assert.Equal(t, cfg, svc.Ranges(ctx))
	require.Len(t, u.pushed, 1)
	assert.Equal(t, cfg, u.pushed[0])

	form.PH = BoundForm{Min: "9", Max: "7"}
	_, err = svc.SaveRanges(ctx, form)
	assert.ErrorIs(t, err, ErrInvalidRange)
	assert.Equal(t, cfg, svc.Ranges(ctx), "invalid input must not be persisted")
	assert.Len(t, u.pushed, 1)

	reset, err := svc.ResetRanges(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultRanges(), reset)
	assert.Equal(t, DefaultRanges(), svc.Ranges(ctx))
}

func TestServiceSaveRangesPushFailure(t *testing.T) {
	u := &fakeUpstream{pushErr: errors.New("boom")}
	svc, _ := newTestService(u, 0)
	ctx := context.Background()

	form := FormFromConfig(DefaultRanges())
	form.Ammonia.Max = "0.05"
	cfg, err := svc.SaveRanges(ctx, form)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, 0.05, cfg.Ammonia.Max)
	assert.Equal(t, 0.05, svc.Ranges(ctx).Ammonia.Max, "ranges stay saved locally")
}

func TestServicePollLiveAutoFeed(t *testing.T) {
	u := &fakeUpstream{live: LiveReading{Temperature: Num(29), Ammonia: Num(0.05)}}
	svc, _ := newTestService(u, time.Minute)
	ctx := context.Background()

	_, err := svc.SaveFeedSchedule(ctx, FeedScheduleForm{Time: "8:00 AM", Quantity: "15"})
	require.NoError(t, err)
	require.Len(t, u.schedules, 1)
	assert.Equal(t, "08:00:00", u.schedules[0].Time)

	require.NoError(t, svc.PollLive(ctx))
	require.NoError(t, svc.PollLive(ctx))
	require.Len(t, u.feeds, 1, "cooldown holds back the second feed")
	assert.Equal(t, 15.0, u.feeds[0].Amount)
	assert.NotEmpty(t, u.feeds[0].ID)

	view := svc.Live(ctx)
	assert.Equal(t, 29.0, *view.State.Temperature)
	assert.Equal(t, 0.05, *view.State.Ammonia)
}

func TestServicePollLiveKeepsLastValues(t *testing.T) {
	u := &fakeUpstream{live: LiveReading{Temperature: Num(29), PH: Num(7.5)}}
	svc, _ := newTestService(u, 0)
	ctx := context.Background()
	require.NoError(t, svc.PollLive(ctx))

	u.live = LiveReading{Temperature: Num(30)}
	require.NoError(t, svc.PollLive(ctx))

	u.liveErr = errors.New("timeout")
	assert.ErrorIs(t, svc.PollLive(ctx), ErrUpstream)

	state := svc.Live(ctx).State
	assert.Equal(t, 30.0, *state.Temperature)
	assert.Equal(t, 7.5, *state.PH)
	assert.Empty(t, u.feeds)
}

func TestServiceManualFeed(t *testing.T) {
	u := &fakeUpstream{}
	svc, _ := newTestService(u, 0)

	cmd, err := svc.ManualFeed(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 5.0, cmd.Amount)
	require.Len(t, u.feeds, 1)
	assert.Equal(t, cmd.ID, u.feeds[0].ID)

	_, err = svc.ManualFeed(context.Background(), -1)
	assert.ErrorIs(t, err, ErrInvalidFeed)

	u.feedErr = errors.New("down")
	_, err = svc.ManualFeed(context.Background(), 1)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestServiceOlderResponseAppliesWhenNewerFails(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	var calls int
	var mu sync.Mutex
	u := &fakeUpstream{history: func(context.Context) (HistoryPayload, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(started)
			<-release
			return testPayload, nil
		}
		return HistoryPayload{}, errors.New("connection reset")
	}}
	svc, _ := newTestService(u, 0)

	errc := make(chan error, 1)
	go func() { errc <- svc.RefreshHistory(context.Background()) }()
	<-started

	assert.ErrorIs(t, svc.RefreshHistory(context.Background()), ErrUpstream)
	close(release)
	require.NoError(t, <-errc)

	snap, err := svc.History()
	require.NoError(t, err)
	assert.Len(t, snap.Groups, 3)
}

func TestServiceRefreshReturnsAppliedSnapshot(t *testing.T) {
	svc, _ := newTestService(&fakeUpstream{history: staticHistory(testPayload)}, 0)

	snap, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	current, err := svc.History()
	require.NoError(t, err)
	assert.Equal(t, current.FetchedAt, snap.FetchedAt)
	assert.Len(t, snap.Groups, 3)
}

func TestServiceDay(t *testing.T) {
	svc, _ := newTestService(&fakeUpstream{history: staticHistory(testPayload)}, 0)
	ctx := context.Background()

	_, err := svc.Day(ctx, "2024-05-01")
	assert.ErrorIs(t, err, ErrNoHistory)

	require.NoError(t, svc.RefreshHistory(ctx))

	day, err := svc.Day(ctx, "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", day.Date)
	require.NotNil(t, day.Status.Sensor)
	assert.Equal(t, SeverityCritical, *day.Status.Sensor)
	require.Len(t, day.Hours, 1)
	assert.Len(t, day.Hours[0].Samples, 2)

	_, err = svc.Day(ctx, "2023-01-01")
	assert.ErrorIs(t, err, ErrNoDay)
}
