package gpio

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestFakeBuzzerSetIdempotent(t *testing.T) {
	f := NewFakeBuzzer()

	if err := f.Set(true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.Set(true); err != nil {
		t.Fatalf("unexpected error on second Set: %v", err)
	}
	if !f.IsOn() {
		t.Error("expected buzzer on")
	}
	if !reflect.DeepEqual(f.SetCalls, []bool{true, true}) {
		t.Errorf("SetCalls: got %v", f.SetCalls)
	}

	if err := f.Set(false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.IsOn() {
		t.Error("expected buzzer off")
	}
}

func TestFakeBuzzerSetError(t *testing.T) {
	f := NewFakeBuzzer()
	f.SetError = errors.New("line busy")

	if err := f.Set(true); err == nil {
		t.Error("expected error")
	}
	if f.IsOn() {
		t.Error("state should not change on error")
	}
}

func TestFakeBuzzerBeep(t *testing.T) {
	f := NewFakeBuzzer()
	f.Set(true)
	f.Beep(200*time.Millisecond, 100*time.Millisecond, 3)

	want := []BeepCall{{On: 200 * time.Millisecond, Off: 100 * time.Millisecond, Count: 3}}
	if !reflect.DeepEqual(f.Beeps, want) {
		t.Errorf("Beeps: got %v, want %v", f.Beeps, want)
	}
	if f.IsOn() {
		t.Error("buzzer should be off after a pattern")
	}
}

func TestFakeBuzzerClose(t *testing.T) {
	f := NewFakeBuzzer()
	f.Set(true)

	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed || f.IsOn() {
		t.Error("expected closed and off")
	}
}

func TestFakeBuzzerReset(t *testing.T) {
	f := NewFakeBuzzer()
	f.Set(true)
	f.Beep(time.Millisecond, time.Millisecond, 1)
	f.Close()

	f.Reset()

	if f.On || f.Closed || f.SetCalls != nil || f.Beeps != nil {
		t.Errorf("expected clean state, got %+v", f)
	}
}

func TestBuzzerInterfaces(t *testing.T) {
	var _ Buzzer = NewFakeBuzzer()
	var _ Buzzer = (*RealBuzzer)(nil)
}
