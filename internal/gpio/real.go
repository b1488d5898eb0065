//go:build linux

package gpio

import (
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
	"go.uber.org/zap"
)

// RealBuzzer drives the buzzer through the Linux GPIO character device.
type RealBuzzer struct {
	chip   *gpiocdev.Chip
	line   *gpiocdev.Line
	logger *zap.Logger

	pattern pattern

	mu sync.Mutex // protects line writes and on
	on bool
}

// NewRealBuzzer requests pin on chipName as an output, initially low.
func NewRealBuzzer(chipName string, pin int, logger *zap.Logger) (*RealBuzzer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer("dht20-agent"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request buzzer pin %d: %w", pin, err)
	}

	return &RealBuzzer{
		chip:   chip,
		line:   line,
		logger: logger,
	}, nil
}

// Set drives the line and cancels any running pattern.
func (b *RealBuzzer) Set(on bool) error {
	b.pattern.cancel()
	return b.write(on)
}

// Beep plays the pattern in the background.
func (b *RealBuzzer) Beep(on, off time.Duration, n int) {
	b.pattern.start(on, off, n, func(v bool) {
		if err := b.write(v); err != nil {
			b.logger.Warn("buzzer pattern write failed", zap.Error(err))
		}
	})
}

// IsOn reports the last value written to the line.
func (b *RealBuzzer) IsOn() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.on
}

func (b *RealBuzzer) write(on bool) error {
	v := 0
	if on {
		v = 1
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.line.SetValue(v); err != nil {
		return fmt.Errorf("set buzzer line: %w", err)
	}
	b.on = on
	return nil
}

// Close stops any pattern, drives the line low and releases it.
// The line is reconfigured as an input afterwards so nothing is left
// driving the pin after the process exits.
func (b *RealBuzzer) Close() error {
	b.pattern.cancel()

	var errs []error
	if b.line != nil {
		if err := b.write(false); err != nil {
			errs = append(errs, err)
		}
		if err := b.line.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure buzzer pin: %w", err))
		}
		if err := b.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close buzzer pin: %w", err))
		}
	}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
