package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sweeney/dht20-agent/internal/logic"
)

func TestReadingGauges(t *testing.T) {
	m := New()
	ts := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.Reading(logic.Reading{TemperatureC: 21.5, HumidityPct: 48.25, Timestamp: ts})
	m.Reading(logic.Reading{TemperatureC: 22, HumidityPct: 47, Timestamp: ts.Add(5 * time.Second)})

	if got := testutil.ToFloat64(m.readings); got != 2 {
		t.Errorf("readings: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.temperature); got != 22 {
		t.Errorf("temperature: got %v, want 22", got)
	}
	if got := testutil.ToFloat64(m.humidity); got != 47 {
		t.Errorf("humidity: got %v, want 47", got)
	}
	if got := testutil.ToFloat64(m.lastReading); got != float64(ts.Unix()+5) {
		t.Errorf("last reading: got %v", got)
	}
}

func TestCounters(t *testing.T) {
	m := New()
	fail := errors.New("boom")

	m.SensorError()
	m.Publish(nil)
	m.Publish(nil)
	m.Publish(fail)
	m.Notification("alert", nil)
	m.Notification("summary", fail)
	m.Alert(logic.HighTemperature)
	m.Alert(logic.HighTemperature)
	m.Alert(logic.LowHumidity)
	m.Command("/status")
	m.LoopError()

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"sensor errors", testutil.ToFloat64(m.sensorErrors), 1},
		{"publish ok", testutil.ToFloat64(m.publishes.WithLabelValues("ok")), 2},
		{"publish error", testutil.ToFloat64(m.publishes.WithLabelValues("error")), 1},
		{"alert notifications", testutil.ToFloat64(m.notifications.WithLabelValues("alert", "ok")), 1},
		{"summary failures", testutil.ToFloat64(m.notifications.WithLabelValues("summary", "error")), 1},
		{"high temperature", testutil.ToFloat64(m.alerts.WithLabelValues("HIGH_TEMPERATURE")), 2},
		{"low humidity", testutil.ToFloat64(m.alerts.WithLabelValues("LOW_HUMIDITY")), 1},
		{"commands", testutil.ToFloat64(m.commands.WithLabelValues("/status")), 1},
		{"loop errors", testutil.ToFloat64(m.loopErrors), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestStateGauges(t *testing.T) {
	m := New()
	m.SetBuzzer(true)
	m.SetMQTTConnected(true)
	if testutil.ToFloat64(m.buzzer) != 1 || testutil.ToFloat64(m.mqttConnected) != 1 {
		t.Error("gauges should be 1")
	}
	m.SetBuzzer(false)
	m.SetMQTTConnected(false)
	if testutil.ToFloat64(m.buzzer) != 0 || testutil.ToFloat64(m.mqttConnected) != 0 {
		t.Error("gauges should be 0")
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Reading(logic.Reading{})
	m.SensorError()
	m.Publish(nil)
	m.Notification("alert", nil)
	m.Alert(logic.HighHumidity)
	m.Command("/help")
	m.LoopError()
	m.SetBuzzer(true)
	m.SetMQTTConnected(true)

	h := m.WrapHandler("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("wrapped handler status: got %d", rec.Code)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.Reading(logic.Reading{TemperatureC: 23.5, HumidityPct: 40, Timestamp: time.Now()})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"dht20_agent_temperature_celsius 23.5",
		"dht20_agent_readings_total 1",
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestWrapHandlerRecordsStatus(t *testing.T) {
	m := New()
	h := m.WrapHandler("/index.json", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/index.json", nil))

	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("/index.json", "404")); got != 1 {
		t.Errorf("requests: got %v, want 1", got)
	}
}
