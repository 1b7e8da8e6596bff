package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/i474232898/aquawatch/internal/metrics"
	"github.com/i474232898/aquawatch/internal/monitor"
)

const (
	pathFullHistory  = "/api/full-history"
	pathLive         = "/api/live"
	pathThresholds   = "/api/thresholds"
	pathFeedSchedule = "/api/feed-schedule"
	pathManualFeed   = "/api/feed/manual"
)

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Backoff BackoffConfig
	Logger  *zap.Logger
}

// DefaultBackoff is used when Config.Backoff is left zero.
var DefaultBackoff = BackoffConfig{
	MaxRetries:      3,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

// Client implements monitor.Upstream against the aquarium monitor's HTTP API.
type Client struct {
	http    *resty.Client
	backoff BackoffConfig
	circuit *gobreaker.CircuitBreaker
	log     *zap.Logger
}

var _ monitor.Upstream = (*Client)(nil)

// NewClient creates a Client for the API rooted at cfg.BaseURL.
func NewClient(cfg Config) *Client {
	if cfg.Backoff == (BackoffConfig{}) {
		cfg.Backoff = DefaultBackoff
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "aquarium-api",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     30 * time.Second,
		OnStateChange: func(name string, from, to gobreaker.State) {
			cfg.Logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	return &Client{
		http:    httpClient,
		backoff: cfg.Backoff,
		circuit: cb,
		log:     cfg.Logger,
	}
}

// FetchHistory returns the full hourly history and activity log.
func (c *Client) FetchHistory(ctx context.Context) (monitor.HistoryPayload, error) {
	var payload monitor.HistoryPayload
	if err := c.getJSON(ctx, pathFullHistory, &payload); err != nil {
		return monitor.HistoryPayload{}, err
	}
	return payload, nil
}

// FetchLive returns the latest live reading.
func (c *Client) FetchLive(ctx context.Context) (monitor.LiveReading, error) {
	var reading monitor.LiveReading
	if err := c.getJSON(ctx, pathLive, &reading); err != nil {
		return monitor.LiveReading{}, err
	}
	return reading, nil
}

// PushThresholds sends the safe ranges to the remote configuration endpoint.
func (c *Client) PushThresholds(ctx context.Context, cfg monitor.RangeConfig) error {
	return c.postJSON(ctx, pathThresholds, cfg, nil)
}

// PostFeedSchedule registers a daily feed schedule.
func (c *Client) PostFeedSchedule(ctx context.Context, schedule monitor.FeedSchedule) error {
	return c.postJSON(ctx, pathFeedSchedule, schedule, nil)
}

// TriggerFeed sends a one-off feed command, tagged with its command id.
func (c *Client) TriggerFeed(ctx context.Context, cmd monitor.FeedCommand) error {
	headers := map[string]string{"X-Request-ID": cmd.ID}
	return c.postJSON(ctx, pathManualFeed, cmd, headers)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, func() *resty.Request {
		return c.http.R()
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		metrics.UpstreamRequests.WithLabelValues(path, "decode_failed").Inc()
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, body any, headers map[string]string) error {
	_, err := c.do(ctx, http.MethodPost, path, func() *resty.Request {
		return c.http.R().
			SetHeader("Content-Type", "application/json").
			SetHeaders(headers).
			SetBody(body)
	})
	return err
}

func (c *Client) do(ctx context.Context, method, path string, build func() *resty.Request) (*resty.Response, error) {
	start := time.Now()
	resp, err := doRequestWithResilience(ctx, c.backoff, c.circuit, build, method, path)
	if err != nil {
		result := "failed"
		if errors.Is(err, errCircuitOpen) {
			result = "circuit_open"
		}
		metrics.UpstreamRequests.WithLabelValues(path, result).Inc()
		c.log.Warn("aquarium api request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	metrics.UpstreamRequests.WithLabelValues(path, "success").Inc()
	c.log.Debug("aquarium api request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp, nil
}
