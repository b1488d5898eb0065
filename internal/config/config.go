// Package config loads the agent configuration from a YAML file with
// environment variable overrides, and builds the zap logger from it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap"

	"github.com/sweeney/dht20-agent/internal/logic"
)

// EnvConfigPath names the environment variable holding the config file path.
const EnvConfigPath = "DHT20_AGENT_CONFIG"

// DefaultConfigPath is used when EnvConfigPath is unset.
const DefaultConfigPath = "config.yaml"

// Config is the process-wide configuration. It is loaded once at startup
// and passed to each component; nothing reads it as global state.
type Config struct {
	Device     DeviceConfig     `yaml:"device"`
	Sensor     SensorConfig     `yaml:"sensor"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
	Loop       LoopConfig       `yaml:"loop"`
	Buzzer     BuzzerConfig     `yaml:"buzzer"`
	HTTP       HTTPConfig       `yaml:"http"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// DeviceConfig holds the identifiers stamped on every reading.
type DeviceConfig struct {
	ID       string `yaml:"id" env:"DEVICE_ID" env-default:"CrowPi"`
	SensorID string `yaml:"sensorId" env:"SENSOR_ID" env-default:"DHT20"`
}

// SensorConfig locates the DHT20 on the I2C bus.
type SensorConfig struct {
	Bus     string `yaml:"bus" env:"SENSOR_I2C_BUS"`
	Address uint16 `yaml:"address" env:"SENSOR_I2C_ADDRESS" env-default:"56"`
}

// MQTTConfig describes the broker connection.
type MQTTConfig struct {
	Host                  string `yaml:"host" env:"MQTT_HOST" env-default:"test.mosquitto.org"`
	Port                  int    `yaml:"port" env:"MQTT_PORT" env-default:"1883"`
	Topic                 string `yaml:"topic" env:"MQTT_TOPIC" env-default:"crowpi/dht20/lecturas"`
	ClientID              string `yaml:"clientId" env:"MQTT_CLIENT_ID"`
	Username              string `yaml:"username" env:"MQTT_USERNAME"`
	Password              string `yaml:"password" env:"MQTT_PASSWORD"`
	KeepAliveSeconds      int    `yaml:"keepAliveSeconds" env:"MQTT_KEEPALIVE_SECONDS" env-default:"60"`
	ConnectTimeoutSeconds int    `yaml:"connectTimeoutSeconds" env:"MQTT_CONNECT_TIMEOUT_SECONDS" env-default:"10"`
}

// TelegramConfig holds the bot credentials and request limits.
type TelegramConfig struct {
	Token              string `yaml:"token" env:"TELEGRAM_TOKEN" env-required:"true"`
	ChatID             string `yaml:"chatId" env:"TELEGRAM_CHAT_ID" env-required:"true"`
	APIURL             string `yaml:"apiUrl" env:"TELEGRAM_API_URL" env-default:"https://api.telegram.org"`
	TimeoutSeconds     int    `yaml:"timeoutSeconds" env:"TELEGRAM_TIMEOUT_SECONDS" env-default:"5"`
	PollTimeoutSeconds int    `yaml:"pollTimeoutSeconds" env:"TELEGRAM_POLL_TIMEOUT_SECONDS" env-default:"5"`
	DisableCommands    bool   `yaml:"disableCommands" env:"TELEGRAM_DISABLE_COMMANDS"`
}

// ThresholdsConfig holds the alert boundaries. Zero is a valid bound;
// defaults are pre-filled by Load from DefaultThresholds.
type ThresholdsConfig struct {
	TempMax float64 `yaml:"tempMax" env:"TEMP_MAX"`
	HumMin  float64 `yaml:"humMin" env:"HUM_MIN"`
	HumMax  float64 `yaml:"humMax" env:"HUM_MAX"`
}

// DefaultThresholds returns the alert boundaries used when none are set.
func DefaultThresholds() ThresholdsConfig {
	return ThresholdsConfig{TempMax: 30, HumMin: 25, HumMax: 75}
}

// LoopConfig holds the main loop timing. cleanenv replaces zero values
// with defaults, so a negative summary interval is how the summary is
// switched off.
type LoopConfig struct {
	IntervalSeconds        int    `yaml:"intervalSeconds" env:"LOOP_INTERVAL_SECONDS" env-default:"5"`
	RetrySeconds           int    `yaml:"retrySeconds" env:"LOOP_RETRY_SECONDS" env-default:"3"`
	SummaryIntervalSeconds int    `yaml:"summaryIntervalSeconds" env:"SUMMARY_INTERVAL_SECONDS" env-default:"60"`
	SummarySchedule        string `yaml:"summarySchedule" env:"SUMMARY_SCHEDULE"`
}

// BuzzerConfig locates the buzzer GPIO line.
type BuzzerConfig struct {
	Chip string `yaml:"chip" env:"BUZZER_CHIP" env-default:"gpiochip0"`
	Pin  int    `yaml:"pin" env:"BUZZER_PIN" env-default:"18"`
}

// HTTPConfig controls the status server. The address "off" disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr" env:"HTTP_ADDR" env-default:":8080"`
}

// Load reads configuration from path with environment overrides. When
// path does not exist the environment alone is used.
func Load(path string) (*Config, error) {
	cfg := Config{Thresholds: DefaultThresholds()}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("stat config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Path returns the config file path from the environment.
func Path() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return DefaultConfigPath
}

// Validate checks the configuration and normalizes case-insensitive fields.
func (c *Config) Validate() error {
	if c.Device.ID == "" || c.Device.SensorID == "" {
		return fmt.Errorf("device id and sensor id are required")
	}
	if c.Sensor.Address == 0 || c.Sensor.Address > 0x7f {
		return fmt.Errorf("sensor address must be a 7-bit I2C address, got %#x", c.Sensor.Address)
	}

	if c.MQTT.Host == "" {
		return fmt.Errorf("mqtt host is required")
	}
	if c.MQTT.Port < 1 || c.MQTT.Port > 65535 {
		return fmt.Errorf("mqtt port out of range: %d", c.MQTT.Port)
	}
	if c.MQTT.Topic == "" {
		return fmt.Errorf("mqtt topic is required")
	}
	if c.MQTT.ConnectTimeoutSeconds < 1 {
		return fmt.Errorf("mqtt connect timeout must be at least 1 second")
	}

	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram chat id is required")
	}
	if c.Telegram.TimeoutSeconds < 1 {
		return fmt.Errorf("telegram timeout must be at least 1 second")
	}
	if c.Telegram.PollTimeoutSeconds < 0 {
		return fmt.Errorf("telegram poll timeout must not be negative")
	}

	if c.Thresholds.HumMin > c.Thresholds.HumMax {
		return fmt.Errorf("humMin (%v) must not exceed humMax (%v)", c.Thresholds.HumMin, c.Thresholds.HumMax)
	}

	if c.Loop.IntervalSeconds < 1 {
		return fmt.Errorf("loop interval must be at least 1 second")
	}
	if c.Loop.RetrySeconds < 1 {
		return fmt.Errorf("retry backoff must be at least 1 second")
	}
	if c.Loop.SummarySchedule != "" {
		if _, err := logic.ParseCadence(c.Loop.SummarySchedule); err != nil {
			return err
		}
	}

	if c.Buzzer.Chip == "" {
		return fmt.Errorf("buzzer chip is required")
	}
	if c.Buzzer.Pin < 0 {
		return fmt.Errorf("buzzer pin must not be negative")
	}

	return ValidateLogging(&c.Logging)
}

// HTTPAddr returns the status server address, or "" when disabled.
func (c *Config) HTTPAddr() string {
	if strings.EqualFold(c.HTTP.Addr, "off") {
		return ""
	}
	return c.HTTP.Addr
}

// CommandsEnabled reports whether inbound chat commands are polled.
func (c *Config) CommandsEnabled() bool {
	return !c.Telegram.DisableCommands
}

// BrokerURL returns the paho broker address.
func (c *Config) BrokerURL() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTT.Host, c.MQTT.Port)
}

// ThresholdsValue returns the alert thresholds as a logic value.
func (c *Config) ThresholdsValue() logic.Thresholds {
	return logic.Thresholds{
		TempMax: c.Thresholds.TempMax,
		HumMin:  c.Thresholds.HumMin,
		HumMax:  c.Thresholds.HumMax,
	}
}

// Cadence builds the summary cadence. A cron schedule, when set, wins over
// the fixed interval.
func (c *Config) Cadence() (*logic.Cadence, error) {
	if c.Loop.SummarySchedule != "" {
		return logic.ParseCadence(c.Loop.SummarySchedule)
	}
	return logic.NewCadence(seconds(c.Loop.SummaryIntervalSeconds)), nil
}

// SummaryDescription describes the summary cadence for display.
func (c *Config) SummaryDescription() string {
	switch {
	case c.Loop.SummarySchedule != "":
		return c.Loop.SummarySchedule
	case c.Loop.SummaryIntervalSeconds > 0:
		return "every " + seconds(c.Loop.SummaryIntervalSeconds).String()
	default:
		return "disabled"
	}
}

// StaleAfter is how long the health endpoint tolerates no successful
// reading: six iterations including a full long poll.
func (c *Config) StaleAfter() time.Duration {
	return 6 * (c.Interval() + seconds(c.Telegram.PollTimeoutSeconds))
}

// Interval is the base sleep between loop iterations.
func (c *Config) Interval() time.Duration { return seconds(c.Loop.IntervalSeconds) }

// RetryBackoff is the sleep after an unexpected loop error.
func (c *Config) RetryBackoff() time.Duration { return seconds(c.Loop.RetrySeconds) }

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// PrintConfig logs the effective configuration with secrets masked.
func (c *Config) PrintConfig(logger *zap.Logger) {
	logger.Info("configuration loaded",
		zap.String("device_id", c.Device.ID),
		zap.String("sensor_id", c.Device.SensorID),
		zap.String("i2c_bus", c.Sensor.Bus),
		zap.String("i2c_address", fmt.Sprintf("%#x", c.Sensor.Address)),
		zap.String("mqtt_broker", c.BrokerURL()),
		zap.String("mqtt_topic", c.MQTT.Topic),
		zap.String("mqtt_client_id", c.MQTT.ClientID),
		zap.Bool("mqtt_password_set", c.MQTT.Password != ""),
		zap.String("telegram_api_url", c.Telegram.APIURL),
		zap.String("telegram_token", maskToken(c.Telegram.Token)),
		zap.String("telegram_chat_id", c.Telegram.ChatID),
		zap.Bool("telegram_commands_enabled", c.CommandsEnabled()),
		zap.Float64("temp_max", c.Thresholds.TempMax),
		zap.Float64("hum_min", c.Thresholds.HumMin),
		zap.Float64("hum_max", c.Thresholds.HumMax),
		zap.Int("loop_interval_seconds", c.Loop.IntervalSeconds),
		zap.Int("retry_seconds", c.Loop.RetrySeconds),
		zap.Int("summary_interval_seconds", c.Loop.SummaryIntervalSeconds),
		zap.String("summary_schedule", c.Loop.SummarySchedule),
		zap.String("buzzer_chip", c.Buzzer.Chip),
		zap.Int("buzzer_pin", c.Buzzer.Pin),
		zap.String("http_addr", c.HTTPAddr()),
		zap.String("log_format", c.Logging.Format),
		zap.String("log_level", c.Logging.Level),
	)
}

// maskToken keeps the bot id prefix of a "123456:secret" token.
func maskToken(token string) string {
	if token == "" {
		return ""
	}
	if i := strings.IndexByte(token, ':'); i > 0 {
		return token[:i] + ":***"
	}
	return "***"
}
