package telegram

import (
	"context"
	"fmt"
)

// FakeNotifier records sent messages and replays scripted poll batches.
type FakeNotifier struct {
	// Sent contains every successfully sent text.
	Sent []string

	// SendAttempts counts Send calls, including failed ones.
	SendAttempts int

	// SendError, if set, will be returned by Send (wrapped in ErrNotify).
	SendError error

	// Batches are returned by successive Poll calls; once exhausted Poll
	// returns no updates.
	Batches [][]Update

	// PollError, if set, will be returned by Poll.
	PollError error

	// Polls counts Poll calls.
	Polls int

	cursor Cursor
}

// NewFakeNotifier creates a FakeNotifier with the given poll batches.
func NewFakeNotifier(batches ...[]Update) *FakeNotifier {
	return &FakeNotifier{Batches: batches}
}

// Send records the text.
func (f *FakeNotifier) Send(_ context.Context, text string) error {
	f.SendAttempts++
	if f.SendError != nil {
		return fmt.Errorf("%w: %w", ErrNotify, f.SendError)
	}
	f.Sent = append(f.Sent, text)
	return nil
}

// Poll returns the next scripted batch and advances the cursor.
func (f *FakeNotifier) Poll(_ context.Context) ([]Update, error) {
	f.Polls++
	if f.PollError != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotify, f.PollError)
	}
	if len(f.Batches) == 0 {
		return nil, nil
	}
	batch := f.Batches[0]
	f.Batches = f.Batches[1:]
	f.cursor.Advance(batch)
	return batch, nil
}

// Cursor returns a copy of the current cursor.
func (f *FakeNotifier) Cursor() Cursor {
	return f.cursor
}
