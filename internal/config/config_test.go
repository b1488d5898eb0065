package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/dht20-agent/internal/logic"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
telegram:
  token: "123456:secret"
  chatId: "42"
`

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Device.ID != "CrowPi" || cfg.Device.SensorID != "DHT20" {
		t.Errorf("device ids: got %q/%q", cfg.Device.ID, cfg.Device.SensorID)
	}
	if cfg.Sensor.Address != 0x38 {
		t.Errorf("sensor address: got %#x, want 0x38", cfg.Sensor.Address)
	}
	if got := cfg.BrokerURL(); got != "tcp://test.mosquitto.org:1883" {
		t.Errorf("BrokerURL: got %q", got)
	}
	if cfg.MQTT.Topic != "crowpi/dht20/lecturas" {
		t.Errorf("topic: got %q", cfg.MQTT.Topic)
	}
	if cfg.MQTT.ClientID != "" {
		t.Errorf("client id should default to empty, got %q", cfg.MQTT.ClientID)
	}
	if cfg.Telegram.APIURL != "https://api.telegram.org" {
		t.Errorf("api url: got %q", cfg.Telegram.APIURL)
	}
	if cfg.Telegram.TimeoutSeconds != 5 {
		t.Errorf("telegram timeout: got %d, want 5", cfg.Telegram.TimeoutSeconds)
	}
	if !cfg.CommandsEnabled() {
		t.Error("commands should be enabled by default")
	}

	th := cfg.ThresholdsValue()
	if th.TempMax != 30 || th.HumMin != 25 || th.HumMax != 75 {
		t.Errorf("thresholds: got %+v", th)
	}
	if cfg.Interval() != 5*time.Second {
		t.Errorf("interval: got %v", cfg.Interval())
	}
	if cfg.RetryBackoff() != 3*time.Second {
		t.Errorf("retry: got %v", cfg.RetryBackoff())
	}
	if cfg.Buzzer.Chip != "gpiochip0" || cfg.Buzzer.Pin != 18 {
		t.Errorf("buzzer: got %s/%d", cfg.Buzzer.Chip, cfg.Buzzer.Pin)
	}
	if cfg.SummaryDescription() != "every 1m0s" {
		t.Errorf("summary: got %q", cfg.SummaryDescription())
	}
	if cfg.StaleAfter() != time.Minute {
		t.Errorf("stale after: got %v, want 1m", cfg.StaleAfter())
	}
	if cfg.HTTPAddr() != ":8080" {
		t.Errorf("http addr: got %q", cfg.HTTPAddr())
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Errorf("logging: got %s/%s", cfg.Logging.Format, cfg.Logging.Level)
	}
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
device:
  id: greenhouse
  sensorId: dht20-a
mqtt:
  host: broker.local
  port: 1884
  topic: lab/dht20/lecturas
  clientId: greenhouse-1
telegram:
  token: "123456:secret"
  chatId: "42"
  disableCommands: true
thresholds:
  tempMax: 28.5
  humMin: 30
  humMax: 70
loop:
  intervalSeconds: 10
  retrySeconds: 2
  summarySchedule: "@every 5m"
http:
  addr: "off"
logging:
  logFormat: JSON
  logLevel: DEBUG
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.BrokerURL() != "tcp://broker.local:1884" {
		t.Errorf("BrokerURL: got %q", cfg.BrokerURL())
	}
	if cfg.MQTT.ClientID != "greenhouse-1" {
		t.Errorf("client id: got %q", cfg.MQTT.ClientID)
	}
	if cfg.CommandsEnabled() {
		t.Error("commands should be disabled")
	}
	if cfg.ThresholdsValue().TempMax != 28.5 {
		t.Errorf("tempMax: got %v", cfg.ThresholdsValue().TempMax)
	}
	if cfg.Interval() != 10*time.Second {
		t.Errorf("interval: got %v", cfg.Interval())
	}
	if cfg.HTTPAddr() != "" {
		t.Errorf("http should be disabled, got %q", cfg.HTTPAddr())
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Errorf("logging should be lowercased, got %s/%s", cfg.Logging.Format, cfg.Logging.Level)
	}

	if cfg.SummaryDescription() != "@every 5m" {
		t.Errorf("summary: got %q", cfg.SummaryDescription())
	}

	c, err := cfg.Cadence()
	if err != nil {
		t.Fatalf("cadence: %v", err)
	}
	sent := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.MarkSent(sent)
	if c.Due(sent.Add(4 * time.Minute)) {
		t.Error("schedule should not be due after 4 minutes")
	}
	if !c.Due(sent.Add(5 * time.Minute)) {
		t.Error("schedule should be due after 5 minutes")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MQTT_HOST", "env-broker")
	t.Setenv("TEMP_MAX", "40")

	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MQTT.Host != "env-broker" {
		t.Errorf("host: got %q, want env-broker", cfg.MQTT.Host)
	}
	if cfg.Thresholds.TempMax != 40 {
		t.Errorf("tempMax: got %v, want 40", cfg.Thresholds.TempMax)
	}
}

func TestLoad_ZeroThresholds(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig+"thresholds:\n  tempMax: 0\n  humMin: 0\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := logic.Thresholds{TempMax: 0, HumMin: 0, HumMax: 75}
	if got := cfg.ThresholdsValue(); got != want {
		t.Errorf("thresholds: got %+v, want %+v", got, want)
	}
}

func TestLoad_ZeroThresholdFromEnv(t *testing.T) {
	t.Setenv("HUM_MIN", "0")

	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Thresholds.HumMin != 0 {
		t.Errorf("humMin: got %v, want 0", cfg.Thresholds.HumMin)
	}
	if cfg.Thresholds.TempMax != 30 || cfg.Thresholds.HumMax != 75 {
		t.Errorf("unset thresholds should keep defaults, got %+v", cfg.Thresholds)
	}
}

func TestLoad_EnvOnlyWhenFileMissing(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "123456:secret")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Telegram.ChatID != "42" {
		t.Errorf("chat id: got %q", cfg.Telegram.ChatID)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing token",
			content: "telegram:\n  chatId: \"42\"\n",
			wantErr: "",
		},
		{
			name:    "inverted humidity",
			content: minimalConfig + "thresholds:\n  humMin: 80\n  humMax: 20\n",
			wantErr: "humMin",
		},
		{
			name:    "bad port",
			content: minimalConfig + "mqtt:\n  port: 70000\n",
			wantErr: "port",
		},
		{
			name:    "bad schedule",
			content: minimalConfig + "loop:\n  summarySchedule: \"whenever\"\n",
			wantErr: "summary schedule",
		},
		{
			name:    "bad log format",
			content: minimalConfig + "logging:\n  logFormat: xml\n",
			wantErr: "logFormat",
		},
		{
			name:    "bad address",
			content: minimalConfig + "sensor:\n  address: 200\n",
			wantErr: "7-bit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != "" && !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestSummaryDisabledWithNegativeInterval(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig+"loop:\n  summaryIntervalSeconds: -1\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c, err := cfg.Cadence()
	if err != nil {
		t.Fatalf("cadence: %v", err)
	}
	if c.Due(time.Now()) {
		t.Error("summary should be disabled")
	}
	if cfg.SummaryDescription() != "disabled" {
		t.Errorf("summary: got %q", cfg.SummaryDescription())
	}
}

func TestMaskToken(t *testing.T) {
	tests := map[string]string{
		"":              "",
		"123456:secret": "123456:***",
		"nocolon":       "***",
	}
	for in, want := range tests {
		if got := maskToken(in); got != want {
			t.Errorf("maskToken(%q): got %q, want %q", in, got, want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"console", "json", "logfmt"} {
		cfg := &LoggingConfig{Format: format, Level: "debug"}
		logger, err := NewLogger(cfg)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", format, err)
		}
		if logger == nil {
			t.Fatalf("%s: nil logger", format)
		}
	}
}

func TestValidateLogging(t *testing.T) {
	cfg := &LoggingConfig{Format: "LogFmt", Level: "WARN"}
	if err := ValidateLogging(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Format != "logfmt" || cfg.Level != "warn" {
		t.Errorf("not normalized: %+v", cfg)
	}
	if err := ValidateLogging(&LoggingConfig{Format: "console", Level: "trace"}); err == nil {
		t.Error("expected error for unknown level")
	}
}
