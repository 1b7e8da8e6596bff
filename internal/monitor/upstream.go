package monitor

import "context"

// Upstream abstracts the aquarium monitor's HTTP API.
type Upstream interface {
	FetchHistory(ctx context.Context) (HistoryPayload, error)
	FetchLive(ctx context.Context) (LiveReading, error)
	PushThresholds(ctx context.Context, cfg RangeConfig) error
	PostFeedSchedule(ctx context.Context, schedule FeedSchedule) error
	TriggerFeed(ctx context.Context, cmd FeedCommand) error
}

// SettingsStore is the key-value store holding persisted user settings.
// Get returns store.ErrNotFound for a key that was never set.
type SettingsStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
