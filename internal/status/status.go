// Package status provides a thread-safe status tracker for the ecg-monitor
// daemon. It is read by HTTP handlers and the MQTT heartbeat.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/ecg-monitor/internal/qrs"
)

// Config contains daemon configuration for display.
type Config struct {
	SamplingRate int
	Source       string // "file", "sim" or "nats"
	Input        string // recording path or NATS subject, depending on Source
	HeartbeatMs  int64
	Broker       string
	HTTPPort     string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Detector       qrs.State
	Rhythm         qrs.HeartRateState
	ShortBPM       int
	LongBPM        int
	Beats          int64
	Samples        int64
	LastBeatSample int64
	Resets         int64
	StartTime      time.Time
	Now            time.Time
	MQTTConnected  bool
	Config         Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
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

// Update sets the detector view. Called from the sample loop, so it carries
// everything that changes per sample in one lock acquisition.
func (t *Tracker) Update(state qrs.State, rhythm qrs.HeartRateState, shortBPM, longBPM int, samples int64) {
	t.mu.Lock()
	t.snap.Detector = state
	t.snap.Rhythm = rhythm
	t.snap.ShortBPM = shortBPM
	t.snap.LongBPM = longBPM
	t.snap.Samples = samples
	t.mu.Unlock()
}

// RecordBeat counts an accepted beat and remembers where it was.
func (t *Tracker) RecordBeat(sample int64) {
	t.mu.Lock()
	t.snap.Beats++
	t.snap.LastBeatSample = sample
	t.mu.Unlock()
}

// RecordReset counts an emergency detector reinitialization.
func (t *Tracker) RecordReset() {
	t.mu.Lock()
	t.snap.Resets++
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
