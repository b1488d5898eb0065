// Package mqtt publishes sensor readings to an MQTT broker, with an
// abstraction for testing.
package mqtt

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/sweeney/dht20-agent/internal/logic"
)

// DefaultTopic is the topic readings are published to unless configured.
const DefaultTopic = "crowpi/dht20/lecturas"

var (
	// ErrConnect marks a failed initial connection. It is fatal at startup.
	ErrConnect = errors.New("mqtt connect failed")

	// ErrPublish marks a failed publish. It never stops the loop.
	ErrPublish = errors.New("mqtt publish failed")
)

// Publisher publishes readings to MQTT.
type Publisher interface {
	// Publish sends a reading to the broker.
	// Returns an error wrapping ErrPublish on failure (must not crash the process).
	Publish(reading logic.Reading) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Payload is the MQTT message body for one reading. Field names are part
// of the wire format consumed by existing dashboards.
type Payload struct {
	Device      string  `json:"dispositivo"`
	Sensor      string  `json:"sensor"`
	Temperature float64 `json:"temperatura_C"`
	Humidity    float64 `json:"humedad_pct"`
	Timestamp   string  `json:"fecha_hora"`
}

// FormatPayload creates the JSON payload for a reading.
func FormatPayload(reading logic.Reading) ([]byte, error) {
	payload := Payload{
		Device:      reading.DeviceID,
		Sensor:      reading.SensorID,
		Temperature: reading.TemperatureC,
		Humidity:    reading.HumidityPct,
		Timestamp:   reading.Timestamp.UTC().Format(time.RFC3339),
	}
	return json.Marshal(payload)
}
