//go:build !linux

package gpio

import (
	"errors"
	"time"

	"go.uber.org/zap"
)

// RealBuzzer is not available on non-Linux platforms.
type RealBuzzer struct{}

// NewRealBuzzer returns an error on non-Linux platforms.
func NewRealBuzzer(chipName string, pin int, logger *zap.Logger) (*RealBuzzer, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Set is not implemented on non-Linux platforms.
func (b *RealBuzzer) Set(on bool) error {
	return errors.New("gpio: not supported")
}

// Beep does nothing on non-Linux platforms.
func (b *RealBuzzer) Beep(on, off time.Duration, n int) {}

// IsOn always reports false on non-Linux platforms.
func (b *RealBuzzer) IsOn() bool { return false }

// Close is not implemented on non-Linux platforms.
func (b *RealBuzzer) Close() error {
	return nil
}
