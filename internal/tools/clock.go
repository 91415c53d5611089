package tools

import (
	"context"
	"time"
)

// Clock reports the current time in RFC3339 (UTC).
type Clock struct {
	now func() time.Time
}

// ClockOption customizes the clock tool.
type ClockOption func(*Clock)

// ClockWithNow overrides the time source (tests).
func ClockWithNow(now func() time.Time) ClockOption {
	return func(c *Clock) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClock builds the time tool.
func NewClock(opts ...ClockOption) *Clock {
	c := &Clock{now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Name implements Tool.
func (c *Clock) Name() string {
	return "get_time"
}

// Description implements Tool.
func (c *Clock) Description() string {
	return "Returns the current time in RFC3339 format (UTC)."
}

// Call implements Tool.
func (c *Clock) Call(context.Context, map[string]any) (string, error) {
	return c.now().UTC().Format(time.RFC3339), nil
}
