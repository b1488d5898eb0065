// Package command maps inbound chat text to buzzer and reply actions.
package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/sweeney/dht20-agent/internal/gpio"
)

// Commands, already normalized.
const (
	BuzzerOn  = "/buzzer_on"
	BuzzerOff = "/buzzer_off"
	Status    = "/status"
	Help      = "/help"
)

// Replies sent for each command.
const (
	ReplyBuzzerOn  = "🔔 Buzzer ON"
	ReplyBuzzerOff = "🔕 Buzzer OFF"
	ReplyStatus    = "✅ Sensor active and publishing readings"
	ReplyHelp      = "Available commands:\n" +
		BuzzerOn + " - turn the buzzer on\n" +
		BuzzerOff + " - turn the buzzer off\n" +
		Status + " - sensor status\n" +
		Help + " - this list"
)

// Sender delivers a reply to the chat.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, text string) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, text string) error {
	return f(ctx, text)
}

// Dispatcher executes recognized commands.
type Dispatcher struct {
	buzzer gpio.Buzzer
	sender Sender
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(buzzer gpio.Buzzer, sender Sender) *Dispatcher {
	return &Dispatcher{buzzer: buzzer, sender: sender}
}

// Normalize trims surrounding whitespace and folds case.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Dispatch runs the command named by raw. It reports whether the text was
// a recognized command; unrecognized text is ignored without a reply.
func (d *Dispatcher) Dispatch(ctx context.Context, raw string) (bool, error) {
	cmd := Normalize(raw)

	switch cmd {
	case BuzzerOn, BuzzerOff:
		on := cmd == BuzzerOn
		if err := d.buzzer.Set(on); err != nil {
			return true, fmt.Errorf("set buzzer for %s: %w", cmd, err)
		}
		reply := ReplyBuzzerOff
		if on {
			reply = ReplyBuzzerOn
		}
		return true, d.reply(ctx, cmd, reply)
	case Status:
		return true, d.reply(ctx, cmd, ReplyStatus)
	case Help:
		return true, d.reply(ctx, cmd, ReplyHelp)
	default:
		return false, nil
	}
}

func (d *Dispatcher) reply(ctx context.Context, cmd, text string) error {
	if err := d.sender.Send(ctx, text); err != nil {
		return fmt.Errorf("reply to %s: %w", cmd, err)
	}
	return nil
}
