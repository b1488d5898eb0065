// Package status provides a thread-safe status tracker for the dht20-agent.
// The main loop writes to it; HTTP handlers read snapshots.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/dht20-agent/internal/logic"
)

// NetworkInfo contains network state as written by pi-helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains agent configuration for display.
type Config struct {
	DeviceID        string
	SensorID        string
	Broker          string
	Topic           string
	Thresholds      logic.Thresholds
	IntervalMs      int64
	Summary         string // human-readable summary cadence, "disabled" when off
	CommandsEnabled bool
	HTTPAddr        string
}

// Counts are running totals since startup.
type Counts struct {
	Readings        int
	SensorErrors    int
	Published       int
	PublishFailures int
	Alerts          int
	Notifications   int
	NotifyFailures  int
	Commands        int
	LoopErrors      int
}

// Snapshot is a point-in-time view of agent state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Reading       logic.Reading
	HasReading    bool
	ActiveAlerts  []logic.AlertKind
	BuzzerOn      bool
	MQTTConnected bool
	Counts        Counts
	LastError     string
	LastErrorAt   time.Time
	LastSummary   time.Time
	StartTime     time.Time
	Now           time.Time
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the agent started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable agent state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// RecordReading stores the latest reading and the alerts it raised.
func (t *Tracker) RecordReading(r logic.Reading, alerts []logic.AlertEvent) {
	kinds := make([]logic.AlertKind, 0, len(alerts))
	for _, a := range alerts {
		kinds = append(kinds, a.Kind)
	}

	t.mu.Lock()
	t.snap.Reading = r
	t.snap.HasReading = true
	t.snap.ActiveAlerts = kinds
	t.snap.Counts.Readings++
	t.snap.Counts.Alerts += len(alerts)
	t.mu.Unlock()
}

// RecordSensorError counts a failed sensor read.
func (t *Tracker) RecordSensorError(err error, at time.Time) {
	t.mu.Lock()
	t.snap.Counts.SensorErrors++
	t.setError(err, at)
	t.mu.Unlock()
}

// RecordPublish counts a publish attempt.
func (t *Tracker) RecordPublish(err error, at time.Time) {
	t.mu.Lock()
	if err != nil {
		t.snap.Counts.PublishFailures++
		t.setError(err, at)
	} else {
		t.snap.Counts.Published++
	}
	t.mu.Unlock()
}

// RecordNotification counts an outbound chat message.
func (t *Tracker) RecordNotification(err error, at time.Time) {
	t.mu.Lock()
	if err != nil {
		t.snap.Counts.NotifyFailures++
		t.setError(err, at)
	} else {
		t.snap.Counts.Notifications++
	}
	t.mu.Unlock()
}

// RecordSummary stores the time of the last delivered summary.
func (t *Tracker) RecordSummary(at time.Time) {
	t.mu.Lock()
	t.snap.LastSummary = at
	t.mu.Unlock()
}

// RecordCommand counts a dispatched command.
func (t *Tracker) RecordCommand() {
	t.mu.Lock()
	t.snap.Counts.Commands++
	t.mu.Unlock()
}

// RecordLoopError counts an unexpected iteration failure.
func (t *Tracker) RecordLoopError(err error, at time.Time) {
	t.mu.Lock()
	t.snap.Counts.LoopErrors++
	t.setError(err, at)
	t.mu.Unlock()
}

func (t *Tracker) setError(err error, at time.Time) {
	if err == nil {
		return
	}
	t.snap.LastError = err.Error()
	t.snap.LastErrorAt = at
}

// SetBuzzer sets the buzzer state.
func (t *Tracker) SetBuzzer(on bool) {
	t.mu.Lock()
	t.snap.BuzzerOn = on
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the agent state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.ActiveAlerts = append([]logic.AlertKind(nil), t.snap.ActiveAlerts...)
	if t.snap.Network != nil {
		n := *t.snap.Network
		s.Network = &n
	}
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
