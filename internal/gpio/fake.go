package gpio

import "time"

// FakeBuzzer is a test double that records buzzer commands.
type FakeBuzzer struct {
	// On is the current logical state.
	On bool

	// SetCalls records every value passed to Set.
	SetCalls []bool

	// Beeps records every pattern requested.
	Beeps []BeepCall

	// SetError, if set, will be returned by Set().
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// BeepCall is one recorded pattern request.
type BeepCall struct {
	On    time.Duration
	Off   time.Duration
	Count int
}

// NewFakeBuzzer creates a FakeBuzzer that starts off.
func NewFakeBuzzer() *FakeBuzzer {
	return &FakeBuzzer{}
}

// Set records the call and updates the state.
func (f *FakeBuzzer) Set(on bool) error {
	f.SetCalls = append(f.SetCalls, on)
	if f.SetError != nil {
		return f.SetError
	}
	f.On = on
	return nil
}

// Beep records the pattern. The fake does not play it; like the real
// buzzer, the line ends up off.
func (f *FakeBuzzer) Beep(on, off time.Duration, n int) {
	f.Beeps = append(f.Beeps, BeepCall{On: on, Off: off, Count: n})
	f.On = false
}

// IsOn reports the current state.
func (f *FakeBuzzer) IsOn() bool {
	return f.On
}

// Close turns the fake off and marks it closed.
func (f *FakeBuzzer) Close() error {
	f.On = false
	f.Closed = true
	return nil
}

// Reset clears recorded calls.
func (f *FakeBuzzer) Reset() {
	f.On = false
	f.SetCalls = nil
	f.Beeps = nil
	f.SetError = nil
	f.Closed = false
}
