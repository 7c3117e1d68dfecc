package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/ecg-monitor/internal/qrs"
	"github.com/sweeney/ecg-monitor/internal/status"
)

func newTestServer(t *testing.T, diag DiagFunc) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		SamplingRate: 200,
		Source:       "sim",
		HeartbeatMs:  60000,
		Broker:       "tcp://192.168.1.200:1883",
		HTTPPort:     ":8080",
	}
	tr := status.NewTracker(start, cfg)
	srv := New(":0", tr, diag)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, tr
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t, nil)
	tr.Update(qrs.StateDetecting, qrs.HeartRateRegular, 62, 60, 120000)
	tr.RecordBeat(119800)
	tr.SetMQTTConnected(true)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}

	if sj.Status.Detector != "DETECTING" {
		t.Errorf("detector: got %q, want DETECTING", sj.Status.Detector)
	}
	if sj.Status.Rhythm != "REGULAR" {
		t.Errorf("rhythm: got %q, want REGULAR", sj.Status.Rhythm)
	}
	if !sj.Status.Ready {
		t.Error("expected Ready=true")
	}
	if sj.Status.BPM.Long != 60 || sj.Status.BPM.Short != 62 {
		t.Errorf("bpm: got %+v", sj.Status.BPM)
	}
	if sj.Status.Beats != 1 || sj.Status.LastBeat != 119800 {
		t.Errorf("beats: got %d at %d", sj.Status.Beats, sj.Status.LastBeat)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if sj.Status.Config.SamplingRate != 200 {
		t.Errorf("Config.SamplingRate: got %d, want 200", sj.Status.Config.SamplingRate)
	}
}

func TestDiagEndpoint(t *testing.T) {
	diag := qrs.Diagnostics{
		LowPass:    -12,
		HighPass:   40,
		Derivative: 7,
		Squared:    49,
		Integrated: 320,
		IntegratedThreshold: qrs.ThresholdState{
			Primary: 130, Secondary: 65, Signal: 400, Noise: 40,
		},
		BandPassThreshold: qrs.ThresholdState{
			Primary: 60, Secondary: 30, Signal: 200, Noise: 20,
		},
		State:           qrs.StateDetecting,
		HeartRate:       qrs.HeartRateRegular,
		MeanRR:          198,
		MeanPlausibleRR: 201,
	}
	ts, _ := newTestServer(t, func() qrs.Diagnostics { return diag })

	resp, err := http.Get(ts.URL + "/diag.json")
	if err != nil {
		t.Fatalf("GET /diag.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}

	var dj DiagJSON
	if err := json.NewDecoder(resp.Body).Decode(&dj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	d := dj.Diagnostics
	if d.LowPass != -12 || d.HighPass != 40 || d.Derivative != 7 {
		t.Errorf("filter outputs: %+v", d)
	}
	if d.Squared != 49 || d.Integrated != 320 {
		t.Errorf("energy outputs: %+v", d)
	}
	if d.IntegratedThreshold.Primary != 130 || d.IntegratedThreshold.Secondary != 65 {
		t.Errorf("integrated thresholds: %+v", d.IntegratedThreshold)
	}
	if d.State != "DETECTING" || d.Rhythm != "REGULAR" {
		t.Errorf("states: %q %q", d.State, d.Rhythm)
	}
	if d.MeanRR != 198 || d.MeanPlausibleRR != 201 {
		t.Errorf("RR means: %d %d", d.MeanRR, d.MeanPlausibleRR)
	}
}

func TestDiagEndpointWithoutProvider(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/diag.json")
	if err != nil {
		t.Fatalf("GET /diag.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestHTMLEndpointRoot(t *testing.T) {
	ts, tr := newTestServer(t, nil)
	tr.Update(qrs.StateDetecting, qrs.HeartRateRegular, 62, 60, 5000)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	page := string(body)
	for _, want := range []string{"ECG Monitor", "DETECTING", "REGULAR", "60 bpm"} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestHTMLEndpointIndexHTML(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/index.html")
	if err != nil {
		t.Fatalf("GET /index.html: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/nope")
	if err != nil {
		t.Fatalf("GET /nope: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, tr := newTestServer(t, nil)

	fetch := func() string {
		resp, err := http.Get(ts.URL + "/")
		if err != nil {
			t.Fatalf("GET /: %v", err)
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatal(err)
		}
		return string(body)
	}

	if page := fetch(); !strings.Contains(page, "STARTUP") {
		t.Error("initial page missing STARTUP")
	}

	tr.Update(qrs.StateDetecting, qrs.HeartRateIrregular, 88, 92, 40000)
	page := fetch()
	if !strings.Contains(page, "DETECTING") {
		t.Error("updated page missing DETECTING")
	}
	if !strings.Contains(page, "IRREGULAR") {
		t.Error("updated page missing IRREGULAR")
	}
}
