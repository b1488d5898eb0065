package sensor

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// DefaultAddress is the fixed I2C address of the DHT20 / AHT20.
const DefaultAddress uint16 = 0x38

const (
	cmdStatus        = 0x71
	statusBusy       = 0x80
	statusCalibrated = 0x08

	initDelay    = 10 * time.Millisecond
	measureDelay = 80 * time.Millisecond
	maxBusyPolls = 3
)

var (
	cmdInit    = []byte{0xBE, 0x08, 0x00}
	cmdTrigger = []byte{0xAC, 0x33, 0x00}
)

// AHT20 drives the AHT20 chip inside the DHT20 module.
type AHT20 struct {
	dev    *i2c.Dev
	closer interface{ Close() error }
	sleep  func(time.Duration)
	ready  bool
}

// NewAHT20 creates a driver on an already open bus. The caller keeps
// ownership of the bus.
func NewAHT20(bus i2c.Bus, addr uint16) *AHT20 {
	return &AHT20{
		dev:   &i2c.Dev{Bus: bus, Addr: addr},
		sleep: time.Sleep,
	}
}

// OpenAHT20 initializes the host drivers and opens the named I2C bus
// ("" selects the first available bus, "1" is /dev/i2c-1 on a Pi).
func OpenAHT20(busName string, addr uint16) (*AHT20, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host drivers: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
	}
	a := NewAHT20(bus, addr)
	a.closer = bus
	return a, nil
}

// Measure triggers a conversion and decodes the result.
func (a *AHT20) Measure() (float64, float64, error) {
	if !a.ready {
		if err := a.calibrate(); err != nil {
			return 0, 0, err
		}
	}

	if err := a.dev.Tx(cmdTrigger, nil); err != nil {
		a.ready = false
		return 0, 0, fmt.Errorf("trigger measurement: %w", err)
	}

	var buf [7]byte
	for poll := 1; ; poll++ {
		a.sleep(measureDelay)
		if err := a.dev.Tx(nil, buf[:]); err != nil {
			a.ready = false
			return 0, 0, fmt.Errorf("read measurement: %w", err)
		}
		if buf[0]&statusBusy == 0 {
			break
		}
		if poll == maxBusyPolls {
			return 0, 0, errors.New("sensor busy")
		}
	}

	if got, want := buf[6], crc8(buf[:6]); got != want {
		return 0, 0, fmt.Errorf("crc mismatch: got %#02x, want %#02x", got, want)
	}

	temp, hum := decode(buf[:6])
	return temp, hum, nil
}

// calibrate checks the calibration bit and sends the init command when
// the chip reports it is not calibrated.
func (a *AHT20) calibrate() error {
	var status [1]byte
	if err := a.dev.Tx([]byte{cmdStatus}, status[:]); err != nil {
		return fmt.Errorf("read status: %w", err)
	}
	if status[0]&statusCalibrated == 0 {
		if err := a.dev.Tx(cmdInit, nil); err != nil {
			return fmt.Errorf("calibrate: %w", err)
		}
		a.sleep(initDelay)
	}
	a.ready = true
	return nil
}

// Close releases the bus if the driver opened it.
func (a *AHT20) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// decode converts the 20-bit humidity and temperature fields.
func decode(b []byte) (tempC, humPct float64) {
	rawHum := uint32(b[1])<<12 | uint32(b[2])<<4 | uint32(b[3])>>4
	rawTemp := uint32(b[3]&0x0f)<<16 | uint32(b[4])<<8 | uint32(b[5])

	humPct = float64(rawHum) * 100 / (1 << 20)
	tempC = float64(rawTemp)*200/(1<<20) - 50
	return tempC, humPct
}

// crc8 is the Sensirion-style CRC: polynomial 0x31, init 0xFF.
func crc8(data []byte) byte {
	crc := byte(0xff)
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x31
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
