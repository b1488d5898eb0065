// Package sensor reads the DHT20 temperature/humidity sensor.
// Device is the raw hardware abstraction; Reader turns raw samples into
// rounded, timestamped logic.Reading values.
package sensor

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sweeney/dht20-agent/internal/logic"
)

// ErrSensor marks a failed read. It is transient: the loop skips the
// iteration and tries again on the next one.
var ErrSensor = errors.New("sensor read failed")

// Device measures temperature and relative humidity.
type Device interface {
	// Measure returns the temperature in °C and relative humidity in %.
	Measure() (tempC, humPct float64, err error)

	// Close releases the underlying bus.
	Close() error
}

// Reader produces complete readings from a Device.
type Reader struct {
	device   Device
	deviceID string
	sensorID string
	now      func() time.Time
}

// NewReader creates a Reader. If now is nil, time.Now is used.
func NewReader(device Device, deviceID, sensorID string, now func() time.Time) *Reader {
	if now == nil {
		now = time.Now
	}
	return &Reader{
		device:   device,
		deviceID: deviceID,
		sensorID: sensorID,
		now:      now,
	}
}

// Read samples the device once. Values are rounded to two decimals.
// Every error wraps ErrSensor; a failed read never yields a partial reading.
func (r *Reader) Read() (logic.Reading, error) {
	temp, hum, err := r.device.Measure()
	if err != nil {
		return logic.Reading{}, fmt.Errorf("%w: %w", ErrSensor, err)
	}
	if !valid(temp) || !valid(hum) {
		return logic.Reading{}, fmt.Errorf("%w: invalid sample temp=%v hum=%v", ErrSensor, temp, hum)
	}

	return logic.Reading{
		DeviceID:     r.deviceID,
		SensorID:     r.sensorID,
		TemperatureC: round2(temp),
		HumidityPct:  round2(hum),
		Timestamp:    r.now(),
	}, nil
}

// Close closes the device.
func (r *Reader) Close() error {
	return r.device.Close()
}

func valid(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
