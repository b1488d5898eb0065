// Package metrics exposes agent counters and gauges in Prometheus format.
// All collectors live on a private registry. Methods are safe on a nil
// *Metrics so callers can run without metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/dht20-agent/internal/logic"
)

const namespace = "dht20_agent"

type Metrics struct {
	registry *prometheus.Registry

	readings      prometheus.Counter
	sensorErrors  prometheus.Counter
	publishes     *prometheus.CounterVec
	notifications *prometheus.CounterVec
	alerts        *prometheus.CounterVec
	commands      *prometheus.CounterVec
	loopErrors    prometheus.Counter
	temperature   prometheus.Gauge
	humidity      prometheus.Gauge
	lastReading   prometheus.Gauge
	buzzer        prometheus.Gauge
	mqttConnected prometheus.Gauge
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		readings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_total",
			Help:      "Total successful sensor readings.",
		}),
		sensorErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensor_errors_total",
			Help:      "Total failed sensor reads.",
		}),
		publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mqtt_publishes_total",
			Help:      "Total MQTT publish attempts by result.",
		}, []string{"result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telegram_messages_total",
			Help:      "Total outbound Telegram messages by kind and result.",
		}, []string{"kind", "result"}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Total threshold alerts raised by kind.",
		}, []string{"kind"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Total chat commands dispatched by command.",
		}, []string{"command"}),
		loopErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loop_errors_total",
			Help:      "Total unexpected loop iteration failures.",
		}),
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "temperature_celsius",
			Help:      "Last measured temperature.",
		}),
		humidity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "humidity_percent",
			Help:      "Last measured relative humidity.",
		}),
		lastReading: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_reading_timestamp_seconds",
			Help:      "Unix time of the last successful reading.",
		}),
		buzzer: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "buzzer_on",
			Help:      "Buzzer line state (1 on, 0 off).",
		}),
		mqttConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mqtt_connected",
			Help:      "MQTT connection state (1 connected, 0 disconnected).",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total status server requests by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Status server request durations by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		m.readings,
		m.sensorErrors,
		m.publishes,
		m.notifications,
		m.alerts,
		m.commands,
		m.loopErrors,
		m.temperature,
		m.humidity,
		m.lastReading,
		m.buzzer,
		m.mqttConnected,
		m.httpRequests,
		m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Reading(r logic.Reading) {
	if m == nil {
		return
	}
	m.readings.Inc()
	m.temperature.Set(r.TemperatureC)
	m.humidity.Set(r.HumidityPct)
	m.lastReading.Set(float64(r.Timestamp.Unix()))
}

func (m *Metrics) SensorError() {
	if m == nil {
		return
	}
	m.sensorErrors.Inc()
}

func (m *Metrics) Publish(err error) {
	if m == nil {
		return
	}
	m.publishes.WithLabelValues(result(err)).Inc()
}

// Notification counts an outbound message. kind is "alert", "summary",
// "reply" or "lifecycle".
func (m *Metrics) Notification(kind string, err error) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(kind, result(err)).Inc()
}

func (m *Metrics) Alert(kind logic.AlertKind) {
	if m == nil {
		return
	}
	m.alerts.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) Command(name string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(name).Inc()
}

func (m *Metrics) LoopError() {
	if m == nil {
		return
	}
	m.loopErrors.Inc()
}

func (m *Metrics) SetBuzzer(on bool) {
	if m == nil {
		return
	}
	m.buzzer.Set(boolValue(on))
}

func (m *Metrics) SetMQTTConnected(connected bool) {
	if m == nil {
		return
	}
	m.mqttConnected.Set(boolValue(connected))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler records request count and latency for route.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		m.httpRequests.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
