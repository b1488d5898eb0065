package logic

import (
	"fmt"
	"time"
)

var (
	highTempPattern = BeepPattern{On: 200 * time.Millisecond, Off: 100 * time.Millisecond, Count: 3}
	humidityPattern = BeepPattern{On: 200 * time.Millisecond, Off: 100 * time.Millisecond, Count: 2}
)

// Evaluate returns the alerts raised by r against t.
//
// Temperature is checked independently of humidity. The humidity bounds
// form an if/else-if chain, low first, so a single reading never raises
// both humidity alerts even if the thresholds are inverted.
func Evaluate(r Reading, t Thresholds) []AlertEvent {
	var alerts []AlertEvent

	if r.TemperatureC > t.TempMax {
		alerts = append(alerts, AlertEvent{Kind: HighTemperature, Reading: r})
	}

	if r.HumidityPct < t.HumMin {
		alerts = append(alerts, AlertEvent{Kind: LowHumidity, Reading: r})
	} else if r.HumidityPct > t.HumMax {
		alerts = append(alerts, AlertEvent{Kind: HighHumidity, Reading: r})
	}

	return alerts
}

// Message returns the chat text for the alert.
func (a AlertEvent) Message() string {
	switch a.Kind {
	case HighTemperature:
		return fmt.Sprintf("⚠️ High temperature: %s °C", FormatValue(a.Reading.TemperatureC))
	case LowHumidity:
		return fmt.Sprintf("⚠️ Low humidity: %s %%", FormatValue(a.Reading.HumidityPct))
	case HighHumidity:
		return fmt.Sprintf("⚠️ High humidity: %s %%", FormatValue(a.Reading.HumidityPct))
	default:
		return fmt.Sprintf("⚠️ Alert %s", a.Kind)
	}
}

// Pattern returns the buzzer pattern played for the alert.
func (a AlertEvent) Pattern() BeepPattern {
	if a.Kind == HighTemperature {
		return highTempPattern
	}
	return humidityPattern
}

// SummaryMessage formats the periodic reading summary.
func SummaryMessage(r Reading) string {
	return fmt.Sprintf("📊 Current reading\n🌡️ Temp: %s °C\n💧 Hum: %s %%",
		FormatValue(r.TemperatureC), FormatValue(r.HumidityPct))
}

// FormatValue prints a rounded sensor value the way a person would write
// it: 22.5 rather than 22.50, 22 rather than 22.00.
func FormatValue(v float64) string {
	return fmt.Sprintf("%g", v)
}
