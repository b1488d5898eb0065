package sensor

import (
	"math"
	"strings"
	"testing"
	"time"

	"periph.io/x/conn/v3/i2c/i2ctest"
)

func newTestAHT20(ops []i2ctest.IO) (*AHT20, *i2ctest.Playback, *[]time.Duration) {
	bus := &i2ctest.Playback{Ops: ops, DontPanic: true}
	a := NewAHT20(bus, DefaultAddress)
	var slept []time.Duration
	a.sleep = func(d time.Duration) { slept = append(slept, d) }
	return a, bus, &slept
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCRC8(t *testing.T) {
	// Reference vector from the Sensirion datasheet.
	if got := crc8([]byte{0xBE, 0xEF}); got != 0x92 {
		t.Errorf("crc8(0xBEEF): got %#02x, want 0x92", got)
	}
}

func TestDecode(t *testing.T) {
	temp, hum := decode([]byte{0x1C, 0x80, 0x00, 0x06, 0x00, 0x00})
	if !near(temp, 25) || !near(hum, 50) {
		t.Errorf("got temp=%v hum=%v, want 25/50", temp, hum)
	}
}

func TestMeasureCalibrated(t *testing.T) {
	a, bus, slept := newTestAHT20([]i2ctest.IO{
		{Addr: 0x38, W: []byte{0x71}, R: []byte{0x18}},
		{Addr: 0x38, W: []byte{0xAC, 0x33, 0x00}},
		{Addr: 0x38, R: []byte{0x1C, 0x6E, 0x9A, 0x36, 0x5F, 0x1C, 0x3D}},
	})

	temp, hum, err := a.Measure()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Round(temp*100)/100 != 29.64 {
		t.Errorf("temp: got %v, want ~29.64", temp)
	}
	if math.Round(hum*100)/100 != 43.2 {
		t.Errorf("hum: got %v, want ~43.2", hum)
	}
	if len(*slept) != 1 || (*slept)[0] != measureDelay {
		t.Errorf("sleeps: got %v, want [%v]", *slept, measureDelay)
	}
	if err := bus.Close(); err != nil {
		t.Errorf("not all bus operations consumed: %v", err)
	}
}

func TestMeasureInitializesUncalibratedChip(t *testing.T) {
	a, bus, slept := newTestAHT20([]i2ctest.IO{
		{Addr: 0x38, W: []byte{0x71}, R: []byte{0x10}},
		{Addr: 0x38, W: []byte{0xBE, 0x08, 0x00}},
		{Addr: 0x38, W: []byte{0xAC, 0x33, 0x00}},
		{Addr: 0x38, R: []byte{0x1C, 0x80, 0x00, 0x06, 0x00, 0x00, 0x4E}},
		// Second measurement skips the status check.
		{Addr: 0x38, W: []byte{0xAC, 0x33, 0x00}},
		{Addr: 0x38, R: []byte{0x1C, 0x80, 0x00, 0x06, 0x00, 0x00, 0x4E}},
	})

	for i := 0; i < 2; i++ {
		temp, hum, err := a.Measure()
		if err != nil {
			t.Fatalf("measure %d: unexpected error: %v", i, err)
		}
		if !near(temp, 25) || !near(hum, 50) {
			t.Errorf("measure %d: got temp=%v hum=%v", i, temp, hum)
		}
	}
	want := []time.Duration{initDelay, measureDelay, measureDelay}
	if len(*slept) != len(want) {
		t.Fatalf("sleeps: got %v, want %v", *slept, want)
	}
	for i := range want {
		if (*slept)[i] != want[i] {
			t.Errorf("sleep %d: got %v, want %v", i, (*slept)[i], want[i])
		}
	}
	if err := bus.Close(); err != nil {
		t.Errorf("not all bus operations consumed: %v", err)
	}
}

func TestMeasureBusyThenReady(t *testing.T) {
	a, _, _ := newTestAHT20([]i2ctest.IO{
		{Addr: 0x38, W: []byte{0x71}, R: []byte{0x18}},
		{Addr: 0x38, W: []byte{0xAC, 0x33, 0x00}},
		{Addr: 0x38, R: []byte{0x9C, 0, 0, 0, 0, 0, 0}},
		{Addr: 0x38, R: []byte{0x1C, 0x80, 0x00, 0x06, 0x00, 0x00, 0x4E}},
	})

	temp, _, err := a.Measure()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !near(temp, 25) {
		t.Errorf("temp: got %v, want 25", temp)
	}
}

func TestMeasureStaysBusy(t *testing.T) {
	busy := []byte{0x9C, 0, 0, 0, 0, 0, 0}
	a, _, _ := newTestAHT20([]i2ctest.IO{
		{Addr: 0x38, W: []byte{0x71}, R: []byte{0x18}},
		{Addr: 0x38, W: []byte{0xAC, 0x33, 0x00}},
		{Addr: 0x38, R: busy},
		{Addr: 0x38, R: busy},
		{Addr: 0x38, R: busy},
	})

	_, _, err := a.Measure()
	if err == nil || !strings.Contains(err.Error(), "busy") {
		t.Errorf("expected busy error, got %v", err)
	}
}

func TestMeasureCRCMismatch(t *testing.T) {
	a, _, _ := newTestAHT20([]i2ctest.IO{
		{Addr: 0x38, W: []byte{0x71}, R: []byte{0x18}},
		{Addr: 0x38, W: []byte{0xAC, 0x33, 0x00}},
		{Addr: 0x38, R: []byte{0x1C, 0x80, 0x00, 0x06, 0x00, 0x00, 0x00}},
	})

	_, _, err := a.Measure()
	if err == nil || !strings.Contains(err.Error(), "crc") {
		t.Errorf("expected crc error, got %v", err)
	}
}

func TestMeasureBusError(t *testing.T) {
	// An empty playback fails the first transaction.
	a, _, _ := newTestAHT20(nil)

	if _, _, err := a.Measure(); err == nil {
		t.Error("expected error from bus")
	}
	if a.ready {
		t.Error("driver should not be marked ready after a failed status read")
	}
}

func TestCloseWithoutOwnedBus(t *testing.T) {
	a, _, _ := newTestAHT20(nil)
	if err := a.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
