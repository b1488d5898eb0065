// Package logic contains the pure decision logic of the agent: the reading
// model, threshold evaluation and the periodic summary cadence.
// Nothing here touches I2C, GPIO, MQTT or HTTP, and time is always
// injected via time.Time parameters.
package logic

import "time"

// Reading is one timestamped temperature/humidity sample.
// It is a value type and is never modified after the sensor produces it.
type Reading struct {
	DeviceID     string
	SensorID     string
	TemperatureC float64
	HumidityPct  float64
	Timestamp    time.Time
}

// Thresholds are the configured alert boundaries.
type Thresholds struct {
	TempMax float64
	HumMin  float64
	HumMax  float64
}

// AlertKind identifies which threshold a reading crossed.
type AlertKind string

const (
	HighTemperature AlertKind = "HIGH_TEMPERATURE"
	LowHumidity     AlertKind = "LOW_HUMIDITY"
	HighHumidity    AlertKind = "HIGH_HUMIDITY"
)

// AlertEvent is produced by Evaluate and consumed immediately by the loop.
type AlertEvent struct {
	Kind    AlertKind
	Reading Reading
}

// BeepPattern is a timed on/off buzzer sequence.
type BeepPattern struct {
	On    time.Duration
	Off   time.Duration
	Count int
}

// Total returns how long the pattern runs.
func (p BeepPattern) Total() time.Duration {
	return time.Duration(p.Count) * (p.On + p.Off)
}
