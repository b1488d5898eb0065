package sensor

import "errors"

// FakeDevice is a test double that returns scripted samples.
type FakeDevice struct {
	// Samples contains scripted values. Each Measure call consumes the next
	// one; once exhausted the last sample repeats.
	Samples []Sample

	// Errors, if non-nil at the current call index, is returned instead of
	// the sample for that call.
	Errors map[int]error

	// ReadError, if set, is returned by every Measure call.
	ReadError error

	// Calls counts Measure invocations.
	Calls int

	// Closed tracks if Close was called.
	Closed bool

	index int
}

// Sample is one scripted measurement.
type Sample struct {
	TempC  float64
	HumPct float64
}

// NewFakeDevice creates a FakeDevice with the given samples.
func NewFakeDevice(samples ...Sample) *FakeDevice {
	return &FakeDevice{Samples: samples}
}

// Measure returns the next scripted sample.
func (f *FakeDevice) Measure() (float64, float64, error) {
	call := f.Calls
	f.Calls++

	if f.ReadError != nil {
		return 0, 0, f.ReadError
	}
	if err := f.Errors[call]; err != nil {
		return 0, 0, err
	}
	if len(f.Samples) == 0 {
		return 0, 0, errors.New("no samples configured")
	}

	s := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return s.TempC, s.HumPct, nil
}

// Close marks the device as closed.
func (f *FakeDevice) Close() error {
	f.Closed = true
	return nil
}
