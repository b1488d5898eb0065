package logic

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Cadence decides when the periodic summary notification is due.
// It is owned by the main loop and is not safe for concurrent use.
type Cadence struct {
	schedule cron.Schedule
	lastSent time.Time
	sent     bool
}

// NewCadence returns a cadence that fires every interval, to the second.
// An interval <= 0 disables the summary.
func NewCadence(interval time.Duration) *Cadence {
	if interval <= 0 {
		return &Cadence{}
	}
	return &Cadence{schedule: cron.Every(interval)}
}

// ParseCadence builds a cadence from a standard cron expression or
// descriptor such as "@every 1m" or "0 8 * * *".
func ParseCadence(spec string) (*Cadence, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse summary schedule %q: %w", spec, err)
	}
	return &Cadence{schedule: schedule}, nil
}

// Due reports whether a summary should be sent at now. A cadence that has
// never sent is due immediately.
func (c *Cadence) Due(now time.Time) bool {
	if c.schedule == nil {
		return false
	}
	if !c.sent {
		return true
	}
	// Next truncates lastSent to the second; fixed delays compare elapsed time.
	if every, ok := c.schedule.(cron.ConstantDelaySchedule); ok {
		return now.Sub(c.lastSent) >= every.Delay
	}
	return !now.Before(c.schedule.Next(c.lastSent))
}

// MarkSent records a successful summary send. Failed sends must not call
// it, so the next iteration retries.
func (c *Cadence) MarkSent(now time.Time) {
	c.lastSent = now
	c.sent = true
}

// LastSent returns the time of the last successful summary, or the zero
// time if none has been sent.
func (c *Cadence) LastSent() time.Time {
	return c.lastSent
}
