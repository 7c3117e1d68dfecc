package ecg

import "math"

// Simulator generates a deterministic ECG-like waveform (not clinical):
// a slow baseline plus gaussian P, QRS and T deflections, with optional
// low-level deterministic noise. Two simulators built with the same
// parameters produce identical sample streams.
type Simulator struct {
	fs    float64
	cycle float64 // cycles per sample
	phase float64 // position inside the current beat, [0, 1)
	amp   float64 // R-wave amplitude in counts
	noise float64 // noise amplitude as a fraction of amp
}

// NewSimulator builds a generator at fs Hz and the given heart rate.
// amplitude is the R-wave height in ADC counts; noise of 0.00-0.05 is
// a reasonable range, 0 gives a clean trace.
func NewSimulator(fs, bpm int, amplitude int16, noise float64) *Simulator {
	return &Simulator{
		fs:    float64(fs),
		cycle: float64(bpm) / 60.0 / float64(fs),
		amp:   float64(amplitude),
		noise: noise,
	}
}

// Next returns the next sample. The error is always nil; it exists to
// satisfy Source.
func (s *Simulator) Next() (int16, error) {
	s.phase += s.cycle
	if s.phase >= 1.0 {
		s.phase -= 1.0
	}
	t := s.phase

	baseline := 0.05 * math.Sin(2*math.Pi*0.33*t)
	p := 0.08 * gauss(t, 0.18, 0.03)
	q := -0.12 * gauss(t, 0.30, 0.01)
	r := 1.00 * gauss(t, 0.32, 0.008)
	sw := -0.25 * gauss(t, 0.35, 0.012)
	tw := 0.25 * gauss(t, 0.60, 0.06)

	// Cheap deterministic noise: a folded sine, same on every run.
	n := s.noise * (2*fract(math.Sin(12345.678*t)*9876.543) - 1)

	v := s.amp * (baseline + p + q + r + sw + tw + n)
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16, nil
	case v < math.MinInt16:
		return math.MinInt16, nil
	}
	return int16(v), nil
}

func gauss(x, mu, sigma float64) float64 {
	z := (x - mu) / sigma
	return math.Exp(-0.5 * z * z)
}

func fract(x float64) float64 { return x - math.Floor(x) }
