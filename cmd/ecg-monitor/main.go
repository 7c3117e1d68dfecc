// Command ecg-monitor runs a real-time QRS detector over an ECG sample
// stream and publishes detected heartbeats to MQTT and, optionally, NATS.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sweeney/ecg-monitor/internal/config"
	"github.com/sweeney/ecg-monitor/internal/ecg"
	"github.com/sweeney/ecg-monitor/internal/mqtt"
	"github.com/sweeney/ecg-monitor/internal/qrs"
	"github.com/sweeney/ecg-monitor/internal/status"
	"github.com/sweeney/ecg-monitor/internal/stream"
	"github.com/sweeney/ecg-monitor/internal/web"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (flags override)")
	source := flag.String("source", "", `sample source: "file", "sim" or "nats"`)
	input := flag.String("input", "", "recording path for the file source")
	rate := flag.Int("rate", 0, "sampling rate in Hz")
	form := flag.Int("form", 0, "recursive filter realization (1 or 2)")
	broker := flag.String("broker", "", "MQTT broker address (empty to disable)")
	natsURL := flag.String("nats", "", "NATS server URL")
	subjectIn := flag.String("subject-in", "", "NATS subject carrying sample frames")
	subjectOut := flag.String("subject-out", "", "NATS subject for beat events (empty to disable)")
	httpAddr := flag.String("http", "", "HTTP status address (empty to disable)")
	heartbeat := flag.Duration("heartbeat", time.Minute, "status heartbeat interval (0 to disable)")
	trace := flag.String("trace", "", "CSV trace output path (empty to disable)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("fatal: %v", err)
		}
		cfg = loaded
	}

	// Explicitly set flags win over the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "source":
			cfg.Source = *source
		case "input":
			cfg.Input = *input
		case "rate":
			cfg.SamplingRate = *rate
		case "form":
			cfg.FilterForm = *form
		case "broker":
			cfg.Broker = *broker
		case "nats":
			cfg.NATSURL = *natsURL
		case "subject-in":
			cfg.SubjectIn = *subjectIn
		case "subject-out":
			cfg.SubjectOut = *subjectOut
		case "http":
			cfg.HTTPPort = *httpAddr
		case "heartbeat":
			cfg.HeartbeatMs = heartbeat.Milliseconds()
		case "trace":
			cfg.Trace = *trace
		}
	})

	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	qcfg := qrs.DefaultConfig()
	qcfg.SamplingRate = cfg.SamplingRate
	qcfg.Form = qrs.FilterForm(cfg.FilterForm)
	detector, err := qrs.New(qcfg)
	if err != nil {
		return fmt.Errorf("init detector: %w", err)
	}
	// The sample loop owns the detector; HTTP diagnostics share it.
	var dmu sync.Mutex

	// Sample source
	var (
		src      ecg.Source
		beatsOut *stream.BeatPublisher
	)
	switch cfg.Source {
	case "file":
		f, err := ecg.OpenFile(cfg.Input)
		if err != nil {
			return err
		}
		defer f.Close()
		src = f
	case "sim":
		sim := ecg.NewSimulator(cfg.SamplingRate, cfg.SimBPM, int16(cfg.SimAmplitude), cfg.SimNoise)
		src = newPacedSource(sim, cfg.SamplingRate)
	case "nats":
		nc, err := stream.Connect(cfg.NATSURL, "ecg-monitor")
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		defer nc.Drain()
		ns, err := stream.NewSource(nc, cfg.SubjectIn)
		if err != nil {
			return err
		}
		defer ns.Close()
		src = ns
		if cfg.SubjectOut != "" {
			beatsOut = stream.NewBeatPublisher(nc, cfg.SubjectOut)
		}
	}

	// MQTT
	var (
		publisher  mqtt.Publisher
		mqttStatus mqtt.ConnectionStatus
	)
	if cfg.Broker != "" {
		real, err := mqtt.NewRealPublisher(cfg.Broker, "ecg-monitor", cfg.BufferCap)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer real.Close()
		publisher = real
		mqttStatus = real
	}

	tracker := status.NewTracker(time.Now(), status.Config{
		SamplingRate: cfg.SamplingRate,
		Source:       cfg.Source,
		Input:        sourceInput(cfg),
		HeartbeatMs:  cfg.HeartbeatMs,
		Broker:       cfg.Broker,
		HTTPPort:     cfg.HTTPPort,
	})

	if publisher != nil {
		snap := tracker.Snapshot()
		startup := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := publisher.PublishSystem(startup); err != nil {
			log.Printf("failed to publish startup event: %v", err)
		} else {
			log.Printf("published startup event")
		}
	}

	if cfg.HTTPPort != "" {
		srv := web.New(cfg.HTTPPort, tracker, func() qrs.Diagnostics {
			dmu.Lock()
			defer dmu.Unlock()
			return detector.Diagnostics()
		})
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTPPort)
	}

	var tw *traceWriter
	if cfg.Trace != "" {
		tw, err = newTraceWriter(cfg.Trace)
		if err != nil {
			return err
		}
		defer tw.Close()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	log.Printf("started: source=%s rate=%dHz form=%s broker=%s heartbeat=%dms",
		cfg.Source, cfg.SamplingRate, qcfg.Form, cfg.Broker, cfg.HeartbeatMs)

	return runLoop(src, detector, &dmu, publisher, mqttStatus, beatsOut, tracker,
		cfg.SamplingRate, time.Duration(cfg.HeartbeatMs)*time.Millisecond, tw, time.Now, sigCh)
}

// runLoop drives the detector until the source is exhausted or a signal
// arrives. The source is read on a separate goroutine so signal handling and
// the heartbeat stay responsive while a live source is quiet.
func runLoop(src ecg.Source, detector *qrs.Detector, dmu *sync.Mutex,
	publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus,
	beatsOut *stream.BeatPublisher, tracker *status.Tracker,
	fs int, heartbeat time.Duration, tw *traceWriter,
	now func() time.Time, sig <-chan os.Signal) error {

	quit := make(chan struct{})
	defer close(quit)

	samples := make(chan int16, 256)
	readErr := make(chan error, 1)
	go func() {
		for {
			v, err := src.Next()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case samples <- v:
			case <-quit:
				return
			}
		}
	}()

	var hbC <-chan time.Time
	if heartbeat > 0 {
		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()
		hbC = ticker.C
	}

	var (
		processed int64
		lastBeat  int64 = -1
	)

	process := func(v int16) {
		dmu.Lock()
		before := detector.State()
		delay := detector.Process(v)
		diag := detector.Diagnostics()
		shortBPM := detector.ShortTermBPM(fs)
		longBPM := detector.LongTermBPM(fs)
		dmu.Unlock()

		processed++

		if tw != nil {
			tw.row(processed-1, v, diag, delay)
		}

		if before > qrs.StateStartup && diag.State == qrs.StateStartup {
			log.Printf("detector self-reset after prolonged silence (sample %d)", processed-1)
			tracker.RecordReset()
			if publisher != nil {
				reset := mqtt.SystemEvent{Timestamp: now(), Event: "DETECTOR_RESET"}
				if err := publisher.PublishSystem(reset); err != nil {
					log.Printf("reset publish error: %v", err)
				}
			}
		}

		if delay > 0 {
			loc := processed - 1 - int64(delay)
			rr := 0
			if lastBeat >= 0 {
				rr = int(loc - lastBeat)
			}
			lastBeat = loc

			event := mqtt.BeatEvent{
				Timestamp: now(),
				Sample:    loc,
				Delay:     delay,
				RR:        rr,
				BPM:       longBPM,
				Rhythm:    diag.HeartRate.String(),
			}
			log.Printf("beat: sample=%d delay=%d rr=%d bpm=%d rhythm=%s",
				loc, delay, rr, longBPM, event.Rhythm)

			tracker.RecordBeat(loc)
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}
			if publisher != nil {
				if err := publisher.Publish(event); err != nil {
					log.Printf("publish error: %v", err)
					// Don't crash on publish failure
				}
			}
			if beatsOut != nil {
				payload, err := mqtt.FormatPayload(event)
				if err == nil {
					if err := beatsOut.Publish(payload); err != nil {
						log.Printf("nats publish error: %v", err)
					}
				}
			}
		}

		tracker.Update(diag.State, diag.HeartRate, shortBPM, longBPM, processed)
	}

	// The reader goroutine reports EOF as soon as it has pushed the last
	// sample into the channel; whatever is still buffered must be processed
	// before shutting down.
	drain := func() {
		for {
			select {
			case v := <-samples:
				process(v)
			default:
				return
			}
		}
	}

	for {
		select {
		case s := <-sig:
			name := "UNKNOWN"
			if s == syscall.SIGINT {
				name = "SIGINT"
			} else if s == syscall.SIGTERM {
				name = "SIGTERM"
			}
			log.Printf("received %v, shutting down", s)
			publishShutdown(publisher, mqttStatus, tracker, now(), name)
			return nil

		case err := <-readErr:
			drain()
			if errors.Is(err, io.EOF) {
				log.Printf("input exhausted after %d samples", processed)
				publishShutdown(publisher, mqttStatus, tracker, now(), "INPUT_EOF")
				return nil
			}
			publishShutdown(publisher, mqttStatus, tracker, now(), "INPUT_ERROR")
			return err

		case <-hbC:
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}
			snap := tracker.Snapshot()
			log.Printf("heartbeat: state=%s rhythm=%s bpm=%d beats=%d samples=%d",
				snap.Detector, snap.Rhythm, snap.LongBPM, snap.Beats, snap.Samples)
			if publisher != nil {
				hb := mqtt.SystemEvent{
					Timestamp:  snap.Now,
					Event:      "HEARTBEAT",
					RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
				}
				if err := publisher.PublishSystem(hb); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

		case v := <-samples:
			process(v)
		}
	}
}

func publishShutdown(publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus,
	tracker *status.Tracker, ts time.Time, reason string) {
	if publisher == nil {
		return
	}
	if mqttStatus != nil {
		tracker.SetMQTTConnected(mqttStatus.IsConnected())
	}
	event := mqtt.SystemEvent{
		Timestamp:  ts,
		Event:      "SHUTDOWN",
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", reason),
	}
	if err := publisher.PublishSystem(event); err != nil {
		log.Printf("failed to publish shutdown event: %v", err)
	} else {
		log.Printf("published shutdown event")
	}
}

func sourceInput(cfg *config.Config) string {
	switch cfg.Source {
	case "file":
		return cfg.Input
	case "nats":
		return cfg.SubjectIn
	}
	return ""
}

// pacedSource throttles a synthetic source to real time; recordings and
// live streams arrive at their own pace.
type pacedSource struct {
	src  ecg.Source
	tick *time.Ticker
}

func newPacedSource(src ecg.Source, fs int) *pacedSource {
	return &pacedSource{src: src, tick: time.NewTicker(time.Second / time.Duration(fs))}
}

func (p *pacedSource) Next() (int16, error) {
	<-p.tick.C
	return p.src.Next()
}
