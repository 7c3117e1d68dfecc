package internal

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/ecg-monitor/internal/ecg"
	"github.com/sweeney/ecg-monitor/internal/mqtt"
	"github.com/sweeney/ecg-monitor/internal/qrs"
)

// drive pulls samples from the source through the detector and publishes a
// beat event for every detection, the way the daemon's sample loop does.
func drive(t *testing.T, src ecg.Source, detector *qrs.Detector, publisher mqtt.Publisher) int {
	t.Helper()
	var (
		processed int64
		lastBeat  int64 = -1
	)
	for {
		v, err := src.Next()
		if errors.Is(err, io.EOF) {
			return int(processed)
		}
		if err != nil {
			t.Fatalf("sample %d: %v", processed, err)
		}

		delay := detector.Process(v)
		processed++
		if delay == 0 {
			continue
		}

		loc := processed - 1 - int64(delay)
		rr := 0
		if lastBeat >= 0 {
			rr = int(loc - lastBeat)
		}
		lastBeat = loc
		event := mqtt.BeatEvent{
			Timestamp: time.Date(2026, 8, 14, 9, 30, 0, 0, time.UTC),
			Sample:    loc,
			Delay:     delay,
			RR:        rr,
			BPM:       detector.LongTermBPM(200),
			Rhythm:    detector.HeartRate().String(),
		}
		if err := publisher.Publish(event); err != nil {
			// Publish failures must never stop the sample loop.
			continue
		}
	}
}

// limited caps a bottomless source so the pipeline terminates.
type limited struct {
	src ecg.Source
	n   int
}

func (l *limited) Next() (int16, error) {
	if l.n <= 0 {
		return 0, io.EOF
	}
	l.n--
	return l.src.Next()
}

// TestIntegrationSimulatedECG runs the synthetic waveform generator through
// the full detector and checks the beat stream that would go to MQTT.
func TestIntegrationSimulatedECG(t *testing.T) {
	detector, err := qrs.New(qrs.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	publisher := mqtt.NewFakePublisher()
	src := &limited{src: ecg.NewSimulator(200, 60, 800, 0), n: 6000}

	drive(t, src, detector, publisher)

	if detector.State() != qrs.StateDetecting {
		t.Fatalf("final state: got %s, want DETECTING", detector.State())
	}
	// 30 seconds at 60 bpm: learning eats the first couple of seconds.
	if len(publisher.Events) < 20 {
		t.Fatalf("got %d beats in 30s at 60 bpm, want at least 20", len(publisher.Events))
	}
	for i := 3; i < len(publisher.Events); i++ {
		got := int(publisher.Events[i].Sample - publisher.Events[i-1].Sample)
		if got < 198 || got > 202 {
			t.Errorf("beat %d: spacing %d samples, want about 200", i, got)
		}
	}
	last := publisher.Events[len(publisher.Events)-1]
	if last.Rhythm != "REGULAR" {
		t.Errorf("steady-state rhythm: got %s, want REGULAR", last.Rhythm)
	}
	if last.BPM < 58 || last.BPM > 62 {
		t.Errorf("steady-state BPM: got %d, want about 60", last.BPM)
	}
}

// TestIntegrationFileRecording exercises the recording reader end to end:
// write a known train to disk, read it back, detect, publish.
func TestIntegrationFileRecording(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 3000; i++ {
		if i >= 50 && (i-50)%200 == 0 {
			sb.WriteString("1000")
		} else {
			sb.WriteString("0")
		}
		if i%16 == 15 {
			sb.WriteString("\n")
		} else {
			sb.WriteString(" ")
		}
	}
	path := filepath.Join(t.TempDir(), "train.txt")
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := ecg.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	detector, err := qrs.New(qrs.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	publisher := mqtt.NewFakePublisher()

	if n := drive(t, src, detector, publisher); n != 3000 {
		t.Fatalf("processed %d samples, want 3000", n)
	}

	if len(publisher.Events) < 8 {
		t.Fatalf("got %d beats, want at least 8", len(publisher.Events))
	}
	for i := 2; i < len(publisher.Events); i++ {
		if got := publisher.Events[i].Sample - publisher.Events[i-1].Sample; got != 200 {
			t.Errorf("beat %d: spacing %d, want exactly 200", i, got)
		}
	}

	// The payload that would hit the wire.
	var parsed mqtt.Payload
	last := publisher.Payloads[len(publisher.Payloads)-1]
	if err := json.Unmarshal(last, &parsed); err != nil {
		t.Fatalf("invalid payload JSON: %v", err)
	}
	if parsed.Heartbeat.Rhythm != "REGULAR" {
		t.Errorf("payload rhythm: got %s, want REGULAR", parsed.Heartbeat.Rhythm)
	}
	if parsed.Heartbeat.RR != 200 {
		t.Errorf("payload RR: got %d, want 200", parsed.Heartbeat.RR)
	}
	if parsed.Heartbeat.BPM != 60 {
		t.Errorf("payload BPM: got %d, want 60", parsed.Heartbeat.BPM)
	}
}

// TestIntegrationPublishFailureDoesNotStall confirms a dead broker never
// stops sample processing.
func TestIntegrationPublishFailureDoesNotStall(t *testing.T) {
	detector, err := qrs.New(qrs.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	publisher := mqtt.NewFakePublisher()
	publisher.PublishError = errors.New("broker unreachable")
	src := &limited{src: ecg.NewSimulator(200, 60, 800, 0), n: 4000}

	if n := drive(t, src, detector, publisher); n != 4000 {
		t.Fatalf("processed %d samples, want 4000", n)
	}
	if len(publisher.Events) != 0 {
		t.Errorf("failed publishes recorded %d events", len(publisher.Events))
	}
	if detector.State() != qrs.StateDetecting {
		t.Errorf("detector state: got %s, want DETECTING despite publish failures", detector.State())
	}
}

// TestIntegrationRecordingRoundTripsSimulator writes simulator output to a
// recording and checks the file source reproduces it sample for sample.
func TestIntegrationRecordingRoundTripsSimulator(t *testing.T) {
	sim := ecg.NewSimulator(200, 75, 500, 0.02)
	want := make([]int16, 1000)
	var sb strings.Builder
	for i := range want {
		v, err := sim.Next()
		if err != nil {
			t.Fatal(err)
		}
		want[i] = v
		sb.WriteString(strconv.Itoa(int(v)))
		sb.WriteString("\n")
	}

	path := filepath.Join(t.TempDir(), "sim.txt")
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	src, err := ecg.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	for i, w := range want {
		got, err := src.Next()
		if err != nil {
			t.Fatalf("sample %d: %v", i, err)
		}
		if got != w {
			t.Fatalf("sample %d: got %d, want %d", i, got, w)
		}
	}
	if _, err := src.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("after last sample: got %v, want io.EOF", err)
	}
}
