// Package config loads the daemon configuration from YAML, with flag
// overrides layered on top by the caller.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full daemon configuration.
type Config struct {
	SamplingRate int    `yaml:"sampling_rate_hz"`
	Source       string `yaml:"source"` // "file", "sim" or "nats"
	Input        string `yaml:"input"`  // recording path, file source only
	FilterForm   int    `yaml:"filter_form"`

	// Simulator parameters, sim source only.
	SimBPM       int     `yaml:"sim_bpm"`
	SimAmplitude int     `yaml:"sim_amplitude"`
	SimNoise     float64 `yaml:"sim_noise"`

	// MQTT. An empty broker disables publishing.
	Broker    string `yaml:"broker"`
	BufferCap int    `yaml:"mqtt_buffer"`

	// NATS, used when Source is "nats" and for beat republishing when
	// SubjectOut is set.
	NATSURL    string `yaml:"nats_url"`
	SubjectIn  string `yaml:"subject_in"`
	SubjectOut string `yaml:"subject_out"`

	HTTPPort    string `yaml:"http_port"` // empty disables the web server
	HeartbeatMs int64  `yaml:"heartbeat_ms"`
	Trace       string `yaml:"trace"` // CSV trace output path, empty disables
}

// Default returns the built-in configuration: a clean simulated trace at
// 200 Hz with everything optional switched off except the web server.
func Default() *Config {
	return &Config{
		SamplingRate: 200,
		Source:       "sim",
		FilterForm:   2,
		SimBPM:       72,
		SimAmplitude: 800,
		SimNoise:     0.02,
		BufferCap:    256,
		NATSURL:      "nats://127.0.0.1:4222",
		SubjectIn:    "ecg.samples",
		SubjectOut:   "ecg.beats",
		HTTPPort:     ":8080",
		HeartbeatMs:  60000,
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

// Validate rejects configurations the daemon cannot run with.
func (c *Config) Validate() error {
	if c.SamplingRate <= 0 {
		return fmt.Errorf("sampling_rate_hz must be positive, got %d", c.SamplingRate)
	}
	switch c.Source {
	case "file":
		if c.Input == "" {
			return fmt.Errorf("source \"file\" requires input")
		}
	case "sim":
		if c.SimBPM <= 0 {
			return fmt.Errorf("sim_bpm must be positive, got %d", c.SimBPM)
		}
		if c.SimAmplitude <= 0 {
			return fmt.Errorf("sim_amplitude must be positive, got %d", c.SimAmplitude)
		}
	case "nats":
		if c.SubjectIn == "" {
			return fmt.Errorf("source \"nats\" requires subject_in")
		}
	default:
		return fmt.Errorf("source must be \"file\", \"sim\" or \"nats\", got %q", c.Source)
	}
	if c.FilterForm != 1 && c.FilterForm != 2 {
		return fmt.Errorf("filter_form must be 1 or 2, got %d", c.FilterForm)
	}
	if c.Broker != "" && c.BufferCap <= 0 {
		return fmt.Errorf("mqtt_buffer must be positive, got %d", c.BufferCap)
	}
	if c.HeartbeatMs < 0 {
		return fmt.Errorf("heartbeat_ms must not be negative, got %d", c.HeartbeatMs)
	}
	return nil
}
