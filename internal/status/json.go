package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/ecg-monitor/internal/qrs"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Detector      string     `json:"detector"`
	Rhythm        string     `json:"rhythm"`
	Ready         bool       `json:"ready"`
	BPM           BPMJSON    `json:"bpm"`
	Beats         int64      `json:"beats"`
	LastBeat      int64      `json:"last_beat_sample"`
	Samples       int64      `json:"samples"`
	Resets        int64      `json:"detector_resets"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Config        ConfigJSON `json:"config"`
}

// BPMJSON carries both heart-rate estimates.
type BPMJSON struct {
	Short int `json:"short"`
	Long  int `json:"long"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	SamplingRate int    `json:"sampling_rate_hz"`
	Source       string `json:"source"`
	Input        string `json:"input,omitempty"`
	HeartbeatMs  int64  `json:"heartbeat_ms"`
	Broker       string `json:"broker"`
	HTTPPort     string `json:"http_port"`
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		Detector:      snap.Detector.String(),
		Rhythm:        snap.Rhythm.String(),
		Ready:         snap.Detector == qrs.StateDetecting,
		BPM:           BPMJSON{Short: snap.ShortBPM, Long: snap.LongBPM},
		Beats:         snap.Beats,
		LastBeat:      snap.LastBeatSample,
		Samples:       snap.Samples,
		Resets:        snap.Resets,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			SamplingRate: snap.Config.SamplingRate,
			Source:       snap.Config.Source,
			Input:        snap.Config.Input,
			HeartbeatMs:  snap.Config.HeartbeatMs,
			Broker:       snap.Config.Broker,
			HTTPPort:     snap.Config.HTTPPort,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
