package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/aquawatch/internal/metrics"
	"github.com/i474232898/aquawatch/internal/store"
)

// RangesKey is the settings key the safe ranges are persisted under.
const RangesKey = "sensorRanges"

// HistorySnapshot is the reconciled result of one full-history fetch.
type HistorySnapshot struct {
	Samples    []SensorSample  `json:"-"`
	Activities []ActivityEvent `json:"-"`
	Groups     []DayGroup      `json:"groups"`
	FetchedAt  time.Time       `json:"fetchedAt"`
}

// Options tunes a Service. Zero values select the defaults.
type Options struct {
	Defaults         RangeConfig
	Normalizer       *Normalizer
	AutoFeedCooldown time.Duration
	Logger           *zap.Logger
	Now              func() time.Time
}

// Service polls the aquarium API, keeps the last-known history and live
// state, and serves them through the reconciliation and classification core.
type Service struct {
	upstream Upstream
	settings SettingsStore
	norm     *Normalizer
	defaults RangeConfig
	feeder   *AutoFeeder
	log      *zap.Logger
	now      func() time.Time

	mu           sync.RWMutex
	gen          uint64 // generation of the newest history request
	appliedGen   uint64 // generation of the applied snapshot
	history      *HistorySnapshot
	live         LiveState
	lastSchedule *FeedSchedule
}

// NewService creates a new Service.
func NewService(upstream Upstream, settings SettingsStore, opts Options) *Service {
	if opts.Defaults == (RangeConfig{}) {
		opts.Defaults = DefaultRanges()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Normalizer == nil {
		opts.Normalizer = NewNormalizer(time.Local, opts.Now)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Service{
		upstream: upstream,
		settings: settings,
		norm:     opts.Normalizer,
		defaults: opts.Defaults,
		feeder:   NewAutoFeeder(opts.AutoFeedCooldown),
		log:      opts.Logger,
		now:      opts.Now,
	}
}

// RefreshHistory fetches the full history and replaces the snapshot. It is
// Refresh without the result, for the scheduler.
func (s *Service) RefreshHistory(ctx context.Context) error {
	_, err := s.Refresh(ctx)
	return err
}

// Refresh fetches the full history and returns the snapshot it applied. On
// failure the last-known snapshot is kept. A response is discarded with
// ErrSuperseded only when a request started after it has already applied
// its own snapshot; a newer request that fails does not block an older one.
func (s *Service) Refresh(ctx context.Context) (HistorySnapshot, error) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	payload, err := s.upstream.FetchHistory(ctx)
	if err != nil {
		metrics.HistoryRefreshes.WithLabelValues("failed").Inc()
		s.log.Warn("history fetch failed; keeping last snapshot", zap.Error(err))
		return HistorySnapshot{}, fmt.Errorf("%w: fetch history: %w", ErrUpstream, err)
	}

	samples, events := s.norm.NormalizeHistory(payload)
	snap := &HistorySnapshot{
		Samples:    samples,
		Activities: events,
		Groups:     Reconcile(samples, events),
		FetchedAt:  s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen < s.appliedGen {
		metrics.HistoryRefreshes.WithLabelValues("superseded").Inc()
		s.log.Debug("discarding superseded history response", zap.Uint64("generation", gen), zap.Uint64("applied", s.appliedGen))
		return HistorySnapshot{}, ErrSuperseded
	}
	s.history = snap
	s.appliedGen = gen
	metrics.HistoryRefreshes.WithLabelValues("applied").Inc()
	metrics.HistoryDays.Set(float64(len(snap.Groups)))
	s.log.Debug("history refreshed",
		zap.Int("samples", len(samples)),
		zap.Int("activities", len(events)),
		zap.Int("days", len(snap.Groups)),
	)
	return *snap, nil
}

// History returns the last applied snapshot, or ErrNoHistory before the first
// successful fetch.
func (s *Service) History() (HistorySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.history == nil {
		return HistorySnapshot{}, ErrNoHistory
	}
	return *s.history, nil
}

// HistoryView is one snapshot classified under one range config. FetchedAt
// always belongs to the snapshot the days were built from.
type HistoryView struct {
	FetchedAt time.Time   `json:"fetchedAt"`
	Ranges    RangeConfig `json:"ranges"`
	Days      []DayView   `json:"days"`
}

// DayViews classifies the last snapshot under the current safe ranges.
func (s *Service) DayViews(ctx context.Context) (HistoryView, error) {
	snap, err := s.History()
	if err != nil {
		return HistoryView{}, err
	}
	cfg := s.Ranges(ctx)
	return HistoryView{
		FetchedAt: snap.FetchedAt,
		Ranges:    cfg,
		Days:      BuildDayViews(snap.Groups, cfg),
	}, nil
}

// Day classifies a single calendar date of the last snapshot. A date with no
// samples or activities is ErrNoDay.
func (s *Service) Day(ctx context.Context, date string) (DayView, error) {
	snap, err := s.History()
	if err != nil {
		return DayView{}, err
	}
	g, ok := FindDay(snap.Groups, date)
	if !ok {
		return DayView{}, fmt.Errorf("%w: %s", ErrNoDay, date)
	}
	return BuildDayViews([]DayGroup{g}, s.Ranges(ctx))[0], nil
}

// Series builds the chart series for p from the last snapshot. Before the
// first fetch it yields an all-gap series.
func (s *Service) Series(p Parameter, date string, mode SeriesMode) TimeSeries {
	s.mu.RLock()
	var samples []SensorSample
	if s.history != nil {
		samples = s.history.Samples
	}
	s.mu.RUnlock()
	return BuildSeries(samples, p, date, mode)
}

// Today returns the current local calendar date.
func (s *Service) Today() string {
	return s.norm.Today()
}

// PollLive fetches the live reading, merges it into the live state, and
// triggers a feed when ammonia is above its safe max.
func (s *Service) PollLive(ctx context.Context) error {
	reading, err := s.upstream.FetchLive(ctx)
	if err != nil {
		return fmt.Errorf("%w: fetch live: %w", ErrUpstream, err)
	}

	now := s.now()
	s.mu.Lock()
	s.live = s.live.Merge(reading, now)
	live := s.live
	amount := 0.0
	if s.lastSchedule != nil {
		amount = s.lastSchedule.Amount
	}
	s.mu.Unlock()

	for _, p := range Parameters {
		if v := live.Value(p); v != nil {
			metrics.LiveValue.WithLabelValues(string(p)).Set(*v)
		}
	}

	cfg := s.Ranges(ctx)
	if !s.feeder.ShouldFeed(live.Ammonia, cfg, now) {
		return nil
	}
	cmd := FeedCommand{ID: uuid.NewString(), Amount: amount, Reason: "ammonia above safe max"}
	s.log.Info("triggering auto-feed",
		zap.String("command_id", cmd.ID),
		zap.Float64("ammonia", *live.Ammonia),
		zap.Float64("ammonia_max", cfg.Ammonia.Max),
		zap.Float64("amount", amount),
	)
	if err := s.upstream.TriggerFeed(ctx, cmd); err != nil {
		metrics.AutoFeeds.WithLabelValues("failed").Inc()
		return fmt.Errorf("%w: auto-feed: %w", ErrUpstream, err)
	}
	metrics.AutoFeeds.WithLabelValues("success").Inc()
	return nil
}

// Live returns the live panel under the current safe ranges.
func (s *Service) Live(ctx context.Context) LiveView {
	s.mu.RLock()
	live := s.live
	s.mu.RUnlock()
	return BuildLiveView(live, s.Ranges(ctx))
}

// Ranges loads the persisted safe ranges, falling back to the defaults when
// nothing is saved or the stored value cannot be read.
func (s *Service) Ranges(ctx context.Context) RangeConfig {
	raw, err := s.settings.Get(ctx, RangesKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.Warn("failed to load safe ranges; using defaults", zap.Error(err))
		}
		return s.defaults
	}
	cfg, err := ParseRangeConfig([]byte(raw), s.defaults)
	if err != nil {
		s.log.Warn("stored safe ranges are malformed; using defaults", zap.Error(err))
		return s.defaults
	}
	return cfg
}

// SaveRanges validates the form, persists it, and pushes it to the aquarium
// API. Invalid input is rejected before anything is written.
func (s *Service) SaveRanges(ctx context.Context, form RangeForm) (RangeConfig, error) {
	cfg, err := form.Config()
	if err != nil {
		return RangeConfig{}, err
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return RangeConfig{}, fmt.Errorf("encode ranges: %w", err)
	}
	if err := s.settings.Set(ctx, RangesKey, string(data)); err != nil {
		return RangeConfig{}, fmt.Errorf("persist ranges: %w", err)
	}
	if err := s.upstream.PushThresholds(ctx, cfg); err != nil {
		s.log.Warn("thresholds saved locally but not pushed", zap.Error(err))
		return cfg, fmt.Errorf("%w: push thresholds: %w", ErrUpstream, err)
	}
	s.log.Info("safe ranges saved", zap.Any("ranges", cfg))
	return cfg, nil
}

// ResetRanges drops the persisted ranges so the defaults apply again.
func (s *Service) ResetRanges(ctx context.Context) (RangeConfig, error) {
	if err := s.settings.Delete(ctx, RangesKey); err != nil {
		return RangeConfig{}, fmt.Errorf("reset ranges: %w", err)
	}
	if err := s.upstream.PushThresholds(ctx, s.defaults); err != nil {
		return s.defaults, fmt.Errorf("%w: push thresholds: %w", ErrUpstream, err)
	}
	return s.defaults, nil
}

// SaveFeedSchedule validates the form and posts a daily feed schedule.
func (s *Service) SaveFeedSchedule(ctx context.Context, form FeedScheduleForm) (FeedSchedule, error) {
	schedule, err := form.Schedule()
	if err != nil {
		return FeedSchedule{}, err
	}
	if err := s.upstream.PostFeedSchedule(ctx, schedule); err != nil {
		return FeedSchedule{}, fmt.Errorf("%w: feed schedule: %w", ErrUpstream, err)
	}

	s.mu.Lock()
	s.lastSchedule = &schedule
	s.mu.Unlock()
	s.log.Info("feed schedule saved", zap.String("time", schedule.Time), zap.Float64("amount", schedule.Amount))
	return schedule, nil
}

// ManualFeed sends a one-off feed command.
func (s *Service) ManualFeed(ctx context.Context, amount float64) (FeedCommand, error) {
	if amount < 0 {
		return FeedCommand{}, fmt.Errorf("%w: negative amount %v", ErrInvalidFeed, amount)
	}
	cmd := FeedCommand{ID: uuid.NewString(), Amount: amount, Reason: "manual"}
	if err := s.upstream.TriggerFeed(ctx, cmd); err != nil {
		return FeedCommand{}, fmt.Errorf("%w: manual feed: %w", ErrUpstream, err)
	}
	s.log.Info("manual feed sent", zap.String("command_id", cmd.ID), zap.Float64("amount", amount))
	return cmd, nil
}
