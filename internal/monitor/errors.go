package monitor

import "errors"

var (
	// ErrUpstream wraps transport failures talking to the aquarium API.
	ErrUpstream = errors.New("upstream request failed")

	// ErrInvalidRange is returned when a safe-range bound fails validation.
	ErrInvalidRange = errors.New("invalid safe range")

	// ErrInvalidFeed is returned for malformed feed schedule or command input.
	ErrInvalidFeed = errors.New("invalid feed request")

	// ErrNoHistory is returned before the first successful history fetch.
	ErrNoHistory = errors.New("no history fetched yet")

	// ErrNoDay is returned for a date the history holds nothing for.
	ErrNoDay = errors.New("no history for date")

	// ErrSuperseded is returned when a newer history request already applied
	// its snapshot while this one was in flight; its result was discarded.
	ErrSuperseded = errors.New("history request superseded")
)
