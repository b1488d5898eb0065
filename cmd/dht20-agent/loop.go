package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/dht20-agent/internal/command"
	"github.com/sweeney/dht20-agent/internal/gpio"
	"github.com/sweeney/dht20-agent/internal/logic"
	"github.com/sweeney/dht20-agent/internal/metrics"
	"github.com/sweeney/dht20-agent/internal/mqtt"
	"github.com/sweeney/dht20-agent/internal/sensor"
	"github.com/sweeney/dht20-agent/internal/status"
	"github.com/sweeney/dht20-agent/internal/telegram"
)

// errLoop marks an unexpected iteration failure. The loop backs off and
// resumes.
var errLoop = errors.New("loop iteration failed")

const shutdownTimeout = 5 * time.Second

// Notification kinds, used as a metrics label.
const (
	kindAlert     = "alert"
	kindSummary   = "summary"
	kindReply     = "reply"
	kindLifecycle = "lifecycle"
)

type sensorReader interface {
	Read() (logic.Reading, error)
}

// agent owns every collaborator of the main loop. It is driven from a
// single goroutine.
type agent struct {
	reader     sensorReader
	publisher  mqtt.Publisher
	conn       mqtt.ConnectionStatus // optional
	notifier   telegram.Notifier
	buzzer     gpio.Buzzer
	dispatcher *command.Dispatcher
	cadence    *logic.Cadence
	thresholds logic.Thresholds
	commands   bool
	deviceID   string
	tracker    *status.Tracker
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// runLoop repeats iterations until ctx is done, sleeping interval after a
// normal iteration and backoff after a failed one.
func (a *agent) runLoop(ctx context.Context, interval, backoff time.Duration, sleep func(context.Context, time.Duration)) {
	for ctx.Err() == nil {
		if err := a.iterate(ctx); err != nil {
			a.logger.Error("loop iteration failed, retrying", zap.Error(err), zap.Duration("backoff", backoff))
			a.tracker.RecordLoopError(err, a.now())
			a.metrics.LoopError()
			sleep(ctx, backoff)
			continue
		}
		sleep(ctx, interval)
	}
}

// iterate runs one poll, publish, notify, command cycle. Only failures
// outside the expected sensor, broker and chat errors are returned.
func (a *agent) iterate(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", errLoop, r)
		}
	}()

	now := a.now()

	reading, err := a.reader.Read()
	if err != nil {
		if !errors.Is(err, sensor.ErrSensor) {
			return fmt.Errorf("%w: read sensor: %w", errLoop, err)
		}
		a.logger.Warn("sensor read failed", zap.Error(err))
		a.tracker.RecordSensorError(err, now)
		a.metrics.SensorError()
		return nil
	}

	alerts := logic.Evaluate(reading, a.thresholds)
	a.tracker.RecordReading(reading, alerts)
	a.metrics.Reading(reading)
	a.logger.Info("reading",
		zap.Float64("temperature_c", reading.TemperatureC),
		zap.Float64("humidity_pct", reading.HumidityPct),
		zap.Int("alerts", len(alerts)))

	a.publish(reading, now)

	if a.cadence.Due(now) {
		if err := a.notify(ctx, kindSummary, logic.SummaryMessage(reading)); err == nil {
			a.cadence.MarkSent(now)
			a.tracker.RecordSummary(now)
			// Refresh network info along with the summary
			if net := readNetworkInfo(); net != nil {
				a.tracker.SetNetwork(net)
			}
		}
	}

	for _, alert := range alerts {
		a.logger.Warn("threshold exceeded",
			zap.String("kind", string(alert.Kind)),
			zap.Float64("temperature_c", reading.TemperatureC),
			zap.Float64("humidity_pct", reading.HumidityPct))
		a.metrics.Alert(alert.Kind)
		a.notify(ctx, kindAlert, alert.Message())
		p := alert.Pattern()
		a.buzzer.Beep(p.On, p.Off, p.Count)
	}

	if a.commands {
		a.handleCommands(ctx)
	}

	a.syncBuzzer()
	return nil
}

func (a *agent) publish(reading logic.Reading, now time.Time) {
	err := a.publisher.Publish(reading)
	if err != nil {
		a.logger.Warn("publish failed", zap.Error(err))
	}
	a.tracker.RecordPublish(err, now)
	a.metrics.Publish(err)

	if a.conn != nil {
		connected := a.conn.IsConnected()
		a.tracker.SetMQTTConnected(connected)
		a.metrics.SetMQTTConnected(connected)
	}
}

func (a *agent) handleCommands(ctx context.Context) {
	updates, err := a.notifier.Poll(ctx)
	if err != nil {
		a.logger.Warn("command poll failed", zap.Error(err))
		return
	}

	for _, u := range updates {
		if u.Text == "" {
			continue
		}
		handled, err := a.dispatcher.Dispatch(ctx, u.Text)
		if handled {
			cmd := command.Normalize(u.Text)
			a.logger.Info("command", zap.String("command", cmd), zap.Int64("update_id", u.ID))
			a.tracker.RecordCommand()
			a.metrics.Command(cmd)
		} else {
			a.logger.Debug("ignoring chat message", zap.Int64("update_id", u.ID))
		}
		if err != nil {
			a.logger.Warn("command failed", zap.Error(err))
		}
	}
}

// notify sends text and records the outcome. Failures are logged and
// returned; they never stop the loop.
func (a *agent) notify(ctx context.Context, kind, text string) error {
	err := a.notifier.Send(ctx, text)
	a.tracker.RecordNotification(err, a.now())
	a.metrics.Notification(kind, err)
	if err != nil {
		a.logger.Warn("telegram notification failed", zap.String("kind", kind), zap.Error(err))
	}
	return err
}

// reply is the command dispatcher's sender.
func (a *agent) reply(ctx context.Context, text string) error {
	return a.notify(ctx, kindReply, text)
}

func (a *agent) syncBuzzer() {
	on := a.buzzer.IsOn()
	a.tracker.SetBuzzer(on)
	a.metrics.SetBuzzer(on)
}

func (a *agent) startupMessage() string {
	if a.commands {
		return fmt.Sprintf("🟢 %s started. Send %s for the command list.", a.deviceID, command.Help)
	}
	return fmt.Sprintf("🟢 %s started.", a.deviceID)
}

// startup sends the one-time startup notification, best-effort.
func (a *agent) startup(ctx context.Context) {
	a.notify(ctx, kindLifecycle, a.startupMessage())
}

// shutdown silences the buzzer, says goodbye, and closes the broker
// connection. Each step is best-effort.
func (a *agent) shutdown() {
	if err := a.buzzer.Set(false); err != nil {
		a.logger.Warn("failed to turn buzzer off", zap.Error(err))
	}
	a.syncBuzzer()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.notify(ctx, kindLifecycle, shutdownMessage)

	if err := a.publisher.Close(); err != nil {
		a.logger.Warn("failed to close mqtt publisher", zap.Error(err))
	}
	a.logger.Info("stopped")
}

const shutdownMessage = "🔴 Monitoring stopped."
