package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Device        string       `json:"device"`
	Sensor        string       `json:"sensor"`
	Reading       *ReadingJSON `json:"reading,omitempty"`
	Alerts        []string     `json:"alerts"`
	Buzzer        string       `json:"buzzer"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	LastSummary   string       `json:"last_summary,omitempty"`
	LastError     *ErrorJSON   `json:"last_error,omitempty"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// ReadingJSON is the latest sensor reading.
type ReadingJSON struct {
	TemperatureC float64 `json:"temperature_c"`
	HumidityPct  float64 `json:"humidity_pct"`
	Timestamp    string  `json:"timestamp"`
}

// ErrorJSON is the most recent failure.
type ErrorJSON struct {
	Message string `json:"message"`
	At      string `json:"at"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
	Topic     string `json:"topic"`
}

// CountsJSON is the JSON representation of running totals.
type CountsJSON struct {
	Readings        int `json:"readings"`
	SensorErrors    int `json:"sensor_errors"`
	Published       int `json:"published"`
	PublishFailures int `json:"publish_failures"`
	Alerts          int `json:"alerts"`
	Notifications   int `json:"notifications"`
	NotifyFailures  int `json:"notify_failures"`
	Commands        int `json:"commands"`
	LoopErrors      int `json:"loop_errors"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of agent config.
type ConfigJSON struct {
	TempMax         float64 `json:"temp_max"`
	HumMin          float64 `json:"hum_min"`
	HumMax          float64 `json:"hum_max"`
	IntervalMs      int64   `json:"interval_ms"`
	Summary         string  `json:"summary"`
	CommandsEnabled bool    `json:"commands_enabled"`
	HTTPAddr        string  `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	alerts := make([]string, 0, len(snap.ActiveAlerts))
	for _, k := range snap.ActiveAlerts {
		alerts = append(alerts, string(k))
	}
	buzzer := "OFF"
	if snap.BuzzerOn {
		buzzer = "ON"
	}

	inner := StatusInner{
		Device:        snap.Config.DeviceID,
		Sensor:        snap.Config.SensorID,
		Alerts:        alerts,
		Buzzer:        buzzer,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT: MQTTStatus{
			Connected: snap.MQTTConnected,
			Broker:    snap.Config.Broker,
			Topic:     snap.Config.Topic,
		},
		Counts: CountsJSON{
			Readings:        snap.Counts.Readings,
			SensorErrors:    snap.Counts.SensorErrors,
			Published:       snap.Counts.Published,
			PublishFailures: snap.Counts.PublishFailures,
			Alerts:          snap.Counts.Alerts,
			Notifications:   snap.Counts.Notifications,
			NotifyFailures:  snap.Counts.NotifyFailures,
			Commands:        snap.Counts.Commands,
			LoopErrors:      snap.Counts.LoopErrors,
		},
		Config: ConfigJSON{
			TempMax:         snap.Config.Thresholds.TempMax,
			HumMin:          snap.Config.Thresholds.HumMin,
			HumMax:          snap.Config.Thresholds.HumMax,
			IntervalMs:      snap.Config.IntervalMs,
			Summary:         snap.Config.Summary,
			CommandsEnabled: snap.Config.CommandsEnabled,
			HTTPAddr:        snap.Config.HTTPAddr,
		},
	}

	if snap.HasReading {
		inner.Reading = &ReadingJSON{
			TemperatureC: snap.Reading.TemperatureC,
			HumidityPct:  snap.Reading.HumidityPct,
			Timestamp:    snap.Reading.Timestamp.UTC().Format(time.RFC3339),
		}
	}
	if !snap.LastSummary.IsZero() {
		inner.LastSummary = snap.LastSummary.UTC().Format(time.RFC3339)
	}
	if snap.LastError != "" {
		inner.LastError = &ErrorJSON{
			Message: snap.LastError,
			At:      snap.LastErrorAt.UTC().Format(time.RFC3339),
		}
	}
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}
