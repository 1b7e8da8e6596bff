package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFeedTime(t *testing.T) {
	valid := map[string]string{
		"8:30 AM":  "08:30:00",
		"12:00 AM": "00:00:00",
		"12:15 PM": "12:15:00",
		"1:05 pm":  "13:05:00",
		"11:59 PM": "23:59:00",
		"23:45":    "23:45:00",
		"0:00":     "00:00:00",
		" 07:10 ":  "07:10:00",
	}
	for in, want := range valid {
		got, err := ParseFeedTime(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "noon", "13:00 PM", "0:30 AM", "8:5 AM", "8:60", "24:00", "8:30 XM", "8:30 AM extra"} {
		_, err := ParseFeedTime(in)
		assert.ErrorIs(t, err, ErrInvalidFeed, in)
	}
}

func TestFeedScheduleForm(t *testing.T) {
	s, err := FeedScheduleForm{Time: "6:00 PM", Quantity: "12.5"}.Schedule()
	require.NoError(t, err)
	assert.Equal(t, FeedSchedule{Time: "18:00:00", Amount: 12.5, RepeatDaily: 1}, s)

	_, err = FeedScheduleForm{Time: "6:00 PM"}.Schedule()
	assert.ErrorIs(t, err, ErrInvalidFeed)

	_, err = FeedScheduleForm{Time: "6:00 PM", Quantity: "lots"}.Schedule()
	assert.ErrorIs(t, err, ErrInvalidFeed)

	_, err = FeedScheduleForm{Time: "6:00 PM", Quantity: "-1"}.Schedule()
	assert.ErrorIs(t, err, ErrInvalidFeed)
}

func TestAutoFeederCooldown(t *testing.T) {
	cfg := DefaultRanges()
	feeder := NewAutoFeeder(time.Minute)
	t0 := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	assert.False(t, feeder.ShouldFeed(f(0.01), cfg, t0), "below max")
	assert.False(t, feeder.ShouldFeed(nil, cfg, t0), "no reading")
	assert.True(t, feeder.ShouldFeed(f(0.05), cfg, t0))
	assert.False(t, feeder.ShouldFeed(f(0.05), cfg, t0.Add(10*time.Second)), "within cooldown")
	assert.True(t, feeder.ShouldFeed(f(0.05), cfg, t0.Add(61*time.Second)))
}

func TestAutoFeederDisabled(t *testing.T) {
	feeder := NewAutoFeeder(0)
	assert.False(t, feeder.ShouldFeed(f(1), DefaultRanges(), time.Now()))
}

func TestFeedScheduleFormAcceptsParseableQuantity(t *testing.T) {
	s, err := FeedScheduleForm{Time: "7:00 AM", Quantity: ".5"}.Schedule()
	require.NoError(t, err)
	assert.Equal(t, 0.5, s.Amount)
}
