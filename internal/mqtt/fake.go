package mqtt

import (
	"fmt"

	"github.com/sweeney/dht20-agent/internal/logic"
)

// FakePublisher records published readings for test assertions.
type FakePublisher struct {
	// Readings contains all readings that were published.
	Readings []logic.Reading

	// Payloads contains the JSON payloads that were published.
	Payloads [][]byte

	// Attempts counts Publish calls, including failed ones.
	Attempts int

	// PublishError, if set, will be returned by Publish (wrapped in ErrPublish).
	PublishError error

	// FailOn lists attempt indexes (0-based) that fail with PublishError.
	// When empty, every attempt fails while PublishError is set.
	FailOn map[int]bool

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{Connected: true}
}

// Publish records the reading.
func (f *FakePublisher) Publish(reading logic.Reading) error {
	attempt := f.Attempts
	f.Attempts++

	if f.PublishError != nil && (len(f.FailOn) == 0 || f.FailOn[attempt]) {
		return fmt.Errorf("%w: %w", ErrPublish, f.PublishError)
	}

	payload, err := FormatPayload(reading)
	if err != nil {
		return err
	}
	f.Readings = append(f.Readings, reading)
	f.Payloads = append(f.Payloads, payload)

	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded readings.
func (f *FakePublisher) Reset() {
	f.Readings = nil
	f.Payloads = nil
	f.Attempts = 0
	f.Closed = false
	f.PublishError = nil
	f.FailOn = nil
	f.Connected = true
}
