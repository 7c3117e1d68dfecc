// Package mqtt publishes beat and lifecycle events to an MQTT broker, with
// an abstraction for testing and an offline buffer so a broker outage never
// stalls the sample loop.
package mqtt

import (
	"encoding/json"
	"time"
)

// Topic is the MQTT topic for detected heartbeats.
const Topic = "health/ecg/monitor/beats"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "health/ecg/monitor/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a beat event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event BeatEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// BeatEvent is one detected heartbeat, located on the sample clock.
type BeatEvent struct {
	Timestamp time.Time
	Sample    int64  // absolute index of the sample the beat occurred at
	Delay     int    // samples between the beat and its detection
	RR        int    // beat-to-beat interval in samples, 0 for the first beat
	BPM       int    // derived rate, 0 while unknown
	Rhythm    string // "REGULAR" or "IRREGULAR"
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "DETECTOR_RESET"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Heartbeat BeatPayload `json:"heartbeat"`
}

// BeatPayload contains the beat event details.
type BeatPayload struct {
	Timestamp string `json:"timestamp"`
	Sample    int64  `json:"sample"`
	Delay     int    `json:"delay"`
	RR        int    `json:"rr,omitempty"`
	BPM       int    `json:"bpm,omitempty"`
	Rhythm    string `json:"rhythm"`
}

// FormatPayload creates the JSON payload for a beat event.
func FormatPayload(event BeatEvent) ([]byte, error) {
	payload := Payload{
		Heartbeat: BeatPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Sample:    event.Sample,
			Delay:     event.Delay,
			RR:        event.RR,
			BPM:       event.BPM,
			Rhythm:    event.Rhythm,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
