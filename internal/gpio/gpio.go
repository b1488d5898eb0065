// Package gpio drives the buzzer with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "time"

// Buzzer controls an active buzzer on a single output line.
type Buzzer interface {
	// Set turns the buzzer on or off and cancels any running pattern.
	// Calling it repeatedly with the same value is harmless.
	Set(on bool) error

	// Beep plays on/off n times in the background and returns at once.
	// A new pattern replaces one that is still running; the buzzer is
	// left off when the pattern ends.
	Beep(on, off time.Duration, n int)

	// IsOn reports the current line state.
	IsOn() bool

	// Close turns the buzzer off and releases GPIO resources.
	Close() error
}

// Default line (BCM numbering)
const (
	DefaultChip = "gpiochip0"
	DefaultPin  = 18
)
