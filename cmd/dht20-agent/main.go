// Command dht20-agent reads a DHT20 sensor, publishes readings to MQTT, and
// reports alerts and answers commands over a Telegram bot.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/dht20-agent/internal/command"
	"github.com/sweeney/dht20-agent/internal/config"
	"github.com/sweeney/dht20-agent/internal/gpio"
	"github.com/sweeney/dht20-agent/internal/metrics"
	"github.com/sweeney/dht20-agent/internal/mqtt"
	"github.com/sweeney/dht20-agent/internal/sensor"
	"github.com/sweeney/dht20-agent/internal/status"
	"github.com/sweeney/dht20-agent/internal/telegram"
	"github.com/sweeney/dht20-agent/internal/web"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	cfg, err := config.Load(config.Path())
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 1
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 1
	}
	defer logger.Sync()

	cfg.PrintConfig(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("fatal", zap.Error(err))
		return 1
	}
	return 0
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	// Initialize sensor
	dev, err := sensor.OpenAHT20(cfg.Sensor.Bus, cfg.Sensor.Address)
	if err != nil {
		return fmt.Errorf("init sensor: %w", err)
	}
	reader := sensor.NewReader(dev, cfg.Device.ID, cfg.Device.SensorID, time.Now)
	defer reader.Close()

	// Initialize buzzer
	buzzer, err := gpio.NewRealBuzzer(cfg.Buzzer.Chip, cfg.Buzzer.Pin, logger.Named("buzzer"))
	if err != nil {
		return fmt.Errorf("init buzzer: %w", err)
	}
	defer buzzer.Close()

	cadence, err := cfg.Cadence()
	if err != nil {
		return err
	}

	// Initialize MQTT. Closed by shutdown.
	publisher, err := mqtt.NewRealPublisher(mqtt.Options{
		Broker:         cfg.BrokerURL(),
		Topic:          cfg.MQTT.Topic,
		ClientID:       cfg.MQTT.ClientID,
		Username:       cfg.MQTT.Username,
		Password:       cfg.MQTT.Password,
		KeepAlive:      time.Duration(cfg.MQTT.KeepAliveSeconds) * time.Second,
		ConnectTimeout: time.Duration(cfg.MQTT.ConnectTimeoutSeconds) * time.Second,
		Logger:         logger.Named("mqtt"),
	})
	if err != nil {
		return fmt.Errorf("connect broker: %w", err)
	}

	notifier := telegram.New(telegram.Options{
		APIURL:      cfg.Telegram.APIURL,
		Token:       cfg.Telegram.Token,
		ChatID:      cfg.Telegram.ChatID,
		Timeout:     time.Duration(cfg.Telegram.TimeoutSeconds) * time.Second,
		PollTimeout: time.Duration(cfg.Telegram.PollTimeoutSeconds) * time.Second,
		Logger:      logger.Named("telegram"),
	})

	// Initialize status tracker and metrics for the HTTP server
	m := metrics.New()
	tracker := status.NewTracker(time.Now(), status.Config{
		DeviceID:        cfg.Device.ID,
		SensorID:        cfg.Device.SensorID,
		Broker:          cfg.BrokerURL(),
		Topic:           cfg.MQTT.Topic,
		Thresholds:      cfg.ThresholdsValue(),
		IntervalMs:      cfg.Interval().Milliseconds(),
		Summary:         cfg.SummaryDescription(),
		CommandsEnabled: cfg.CommandsEnabled(),
		HTTPAddr:        cfg.HTTPAddr(),
	})
	tracker.SetMQTTConnected(publisher.IsConnected())
	m.SetMQTTConnected(publisher.IsConnected())
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Start HTTP status server
	if addr := cfg.HTTPAddr(); addr != "" {
		srv := web.New(addr, tracker, m, cfg.StaleAfter())
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("http server error", zap.Error(err))
			}
		}()
		defer srv.Shutdown(context.Background())
		logger.Info("http status server listening", zap.String("addr", addr))
	}

	a := &agent{
		reader:     reader,
		publisher:  publisher,
		conn:       publisher,
		notifier:   notifier,
		buzzer:     buzzer,
		cadence:    cadence,
		thresholds: cfg.ThresholdsValue(),
		commands:   cfg.CommandsEnabled(),
		deviceID:   cfg.Device.ID,
		tracker:    tracker,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
	a.dispatcher = command.NewDispatcher(buzzer, command.SenderFunc(a.reply))

	a.startup(ctx)
	logger.Info("started",
		zap.Duration("interval", cfg.Interval()),
		zap.String("summary", cfg.SummaryDescription()),
		zap.Bool("commands", cfg.CommandsEnabled()))

	a.runLoop(ctx, cfg.Interval(), cfg.RetryBackoff(), sleepContext)

	logger.Info("shutting down", zap.NamedError("cause", context.Cause(ctx)))
	a.shutdown()
	return nil
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
