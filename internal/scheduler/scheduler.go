package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/aquawatch/internal/monitor"
)

// Poller is the part of monitor.Service the scheduler drives.
type Poller interface {
	PollLive(ctx context.Context) error
	RefreshHistory(ctx context.Context) error
}

// Scheduler periodically polls the live reading and refreshes the history.
type Scheduler struct {
	scheduler       *gocron.Scheduler
	poller          Poller
	liveInterval    time.Duration
	historyInterval time.Duration
	timeout         time.Duration
	log             *zap.Logger
}

// New creates a new Scheduler. Each run is bounded by timeout.
func New(poller Poller, liveInterval, historyInterval, timeout time.Duration, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scheduler{
		scheduler:       gocron.NewScheduler(time.UTC),
		poller:          poller,
		liveInterval:    liveInterval,
		historyInterval: historyInterval,
		timeout:         timeout,
		log:             log,
	}
}

// Start schedules both jobs and starts the underlying scheduler. Jobs run
// once immediately, and a run still in flight is never overlapped.
func (s *Scheduler) Start() error {
	if s.liveInterval <= 0 {
		s.liveInterval = time.Second
	}
	if s.historyInterval <= 0 {
		s.historyInterval = 5 * time.Minute
	}

	_, err := s.scheduler.Every(s.liveInterval).SingletonMode().Do(s.pollLive)
	if err != nil {
		return err
	}
	_, err = s.scheduler.Every(s.historyInterval).SingletonMode().Do(s.refreshHistory)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) pollLive() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.poller.PollLive(ctx); err != nil {
		s.log.Warn("scheduler: live poll failed", zap.Error(err))
	}
}

func (s *Scheduler) refreshHistory() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.log.Debug("scheduler: refreshing history")
	err := s.poller.RefreshHistory(ctx)
	switch {
	case err == nil:
	case errors.Is(err, monitor.ErrSuperseded):
		s.log.Debug("scheduler: history refresh superseded")
	default:
		s.log.Warn("scheduler: history refresh failed", zap.Error(err))
	}
}
