package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/sweeney/ecg-monitor/internal/qrs"
)

// traceWriter dumps one CSV row per sample: every filter stage output, both
// threshold pairs and the machine state. Meant for offline inspection of a
// recording, not for live use.
type traceWriter struct {
	f *os.File
	w *bufio.Writer
}

func newTraceWriter(path string) (*traceWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create trace: %w", err)
	}
	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "sample,input,low_pass,high_pass,derivative,squared,integrated,thi1,thi2,thf1,thf2,state,beat_delay")
	return &traceWriter{f: f, w: w}, nil
}

func (t *traceWriter) row(n int64, x int16, d qrs.Diagnostics, delay int) {
	fmt.Fprintf(t.w, "%d,%d,%d,%d,%d,%d,%d,%d,%d,%d,%d,%s,%d\n",
		n, x, d.LowPass, d.HighPass, d.Derivative, d.Squared, d.Integrated,
		d.IntegratedThreshold.Primary, d.IntegratedThreshold.Secondary,
		d.BandPassThreshold.Primary, d.BandPassThreshold.Secondary,
		d.State, delay)
}

func (t *traceWriter) Close() error {
	if err := t.w.Flush(); err != nil {
		t.f.Close()
		return err
	}
	return t.f.Close()
}
