package monitor

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/i474232898/aquawatch/internal/common"
)

// FeedSchedule is the body of the upstream /api/feed-schedule call.
type FeedSchedule struct {
	Time        string  `json:"time"` // HH:MM:SS, 24-hour clock
	Amount      float64 `json:"amount"`
	RepeatDaily int     `json:"repeat_daily"`
}

// FeedScheduleForm is a feed schedule as entered by the user.
type FeedScheduleForm struct {
	Time     string `json:"time" validate:"required"`
	Quantity Text   `json:"quantity" validate:"required,finite_number"`
}

// Schedule validates the form and converts it to a daily FeedSchedule.
func (f FeedScheduleForm) Schedule() (FeedSchedule, error) {
	if err := validate.Struct(f); err != nil {
		return FeedSchedule{}, fmt.Errorf("%w: %v", ErrInvalidFeed, err)
	}
	at, err := ParseFeedTime(f.Time)
	if err != nil {
		return FeedSchedule{}, err
	}
	amount, ok := common.ParseNumber(string(f.Quantity))
	if !ok || amount < 0 {
		return FeedSchedule{}, fmt.Errorf("%w: quantity %q", ErrInvalidFeed, f.Quantity)
	}
	return FeedSchedule{Time: at, Amount: amount, RepeatDaily: 1}, nil
}

// ParseFeedTime converts "h:mm AM", "h:mm PM" or "HH:mm" to "HH:MM:00".
func ParseFeedTime(s string) (string, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields) > 2 {
		return "", fmt.Errorf("%w: time %q", ErrInvalidFeed, s)
	}
	hm := strings.Split(fields[0], ":")
	if len(hm) != 2 || len(hm[1]) != 2 {
		return "", fmt.Errorf("%w: time %q", ErrInvalidFeed, s)
	}
	hours, err := strconv.Atoi(hm[0])
	if err != nil {
		return "", fmt.Errorf("%w: time %q", ErrInvalidFeed, s)
	}
	minutes, err := strconv.Atoi(hm[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return "", fmt.Errorf("%w: time %q", ErrInvalidFeed, s)
	}

	if len(fields) == 2 {
		if hours < 1 || hours > 12 {
			return "", fmt.Errorf("%w: time %q", ErrInvalidFeed, s)
		}
		switch strings.ToUpper(fields[1]) {
		case "AM":
			if hours == 12 {
				hours = 0
			}
		case "PM":
			if hours != 12 {
				hours += 12
			}
		default:
			return "", fmt.Errorf("%w: time %q", ErrInvalidFeed, s)
		}
	} else if hours < 0 || hours > 23 {
		return "", fmt.Errorf("%w: time %q", ErrInvalidFeed, s)
	}
	return fmt.Sprintf("%02d:%02d:00", hours, minutes), nil
}

// FeedCommand is a one-off feed sent to /api/feed/manual.
type FeedCommand struct {
	ID     string  `json:"-"`
	Amount float64 `json:"amount"`
	Reason string  `json:"-"`
}

// AutoFeeder decides when high ammonia should trigger a feed, firing at most
// once per cooldown.
type AutoFeeder struct {
	limiter *rate.Limiter
}

// NewAutoFeeder returns an AutoFeeder; a non-positive cooldown disables it.
func NewAutoFeeder(cooldown time.Duration) *AutoFeeder {
	if cooldown <= 0 {
		return &AutoFeeder{}
	}
	return &AutoFeeder{limiter: rate.NewLimiter(rate.Every(cooldown), 1)}
}

// ShouldFeed reports whether a feed is due at now for the live ammonia value.
func (a *AutoFeeder) ShouldFeed(ammonia *float64, cfg RangeConfig, now time.Time) bool {
	if a.limiter == nil || ammonia == nil || *ammonia <= cfg.Ammonia.Max {
		return false
	}
	return a.limiter.AllowN(now, 1)
}
