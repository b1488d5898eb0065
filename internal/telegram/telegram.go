// Package telegram talks to the Telegram Bot API: outbound text messages
// and long-polled inbound updates.
package telegram

import (
	"context"
	"errors"
)

// ErrNotify marks a failed Bot API call. Callers log it and carry on; a
// failed notification never stops telemetry.
var ErrNotify = errors.New("telegram request failed")

// Notifier sends chat messages and polls for inbound ones.
type Notifier interface {
	// Send posts text to the configured chat.
	Send(ctx context.Context, text string) error

	// Poll returns updates received since the last poll, in arrival
	// order, and advances the cursor past them.
	Poll(ctx context.Context) ([]Update, error)
}

// Update is one inbound chat update.
type Update struct {
	ID   int64
	Text string // empty for updates that carry no text message
}

// Cursor tracks the next update id to request. The zero value is unset,
// which asks the API for pending updates from the most recent onward.
type Cursor struct {
	next int64
	set  bool
}

// Offset returns the offset to send and whether one is set.
func (c *Cursor) Offset() (int64, bool) {
	return c.next, c.set
}

// Advance moves the cursor to max(update id)+1 over the batch.
// It never moves backwards.
func (c *Cursor) Advance(updates []Update) {
	for _, u := range updates {
		if next := u.ID + 1; !c.set || next > c.next {
			c.next = next
			c.set = true
		}
	}
}
