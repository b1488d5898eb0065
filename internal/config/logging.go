package config

import (
	"fmt"
	"os"
	"strings"

	zaplogfmt "github.com/jsternberg/zap-logfmt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `yaml:"logFormat" env:"LOG_FORMAT" env-default:"console"`
	Level  string `yaml:"logLevel" env:"LOG_LEVEL" env-default:"info"`
}

var validLevels = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
}

// ValidateLogging validates logging configuration
func ValidateLogging(cfg *LoggingConfig) error {
	cfg.Format = strings.ToLower(cfg.Format)
	if cfg.Format != "json" && cfg.Format != "console" && cfg.Format != "logfmt" {
		return fmt.Errorf("logFormat must be 'json', 'console', or 'logfmt', got '%s'", cfg.Format)
	}

	cfg.Level = strings.ToLower(cfg.Level)
	if _, ok := validLevels[cfg.Level]; !ok {
		return fmt.Errorf("logLevel must be one of: debug, info, warn, error, got '%s'", cfg.Level)
	}

	return nil
}

// NewLogger creates a zap logger based on the logging configuration
func NewLogger(cfg *LoggingConfig) (*zap.Logger, error) {
	level, ok := validLevels[strings.ToLower(cfg.Level)]
	if !ok {
		level = zapcore.InfoLevel
	}

	if cfg.Format == "logfmt" {
		encoderConfig := zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		}
		core := zapcore.NewCore(
			zaplogfmt.NewEncoder(encoderConfig),
			zapcore.AddSync(os.Stdout),
			level,
		)
		return zap.New(core), nil
	}

	var zapConfig zap.Config
	if cfg.Format == "json" {
		zapConfig = zap.NewProductionConfig()
		zapConfig.EncoderConfig.TimeKey = "ts"
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	zapConfig.OutputPaths = []string{"stdout"}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build %s logger: %w", cfg.Format, err)
	}
	return logger, nil
}

// NewLogger builds the logger described by the logging section.
func (c *Config) NewLogger() (*zap.Logger, error) {
	return NewLogger(&c.Logging)
}
