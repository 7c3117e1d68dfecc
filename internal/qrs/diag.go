package qrs

// ThresholdState is a read-only view of one adaptive threshold pair.
// Secondary is Primary/2 at every observable point.
type ThresholdState struct {
	Primary   int32
	Secondary int32
	Signal    int32
	Noise     int32
}

// Diagnostics is a point-in-time view of the detector internals, for
// status reporting and trace output. It is a value type; taking one never
// mutates the detector.
type Diagnostics struct {
	LowPass    int16
	HighPass   int16
	Derivative int16
	Squared    uint16
	Integrated uint16

	IntegratedThreshold ThresholdState
	BandPassThreshold   ThresholdState

	State     State
	HeartRate HeartRateState

	// RR means in samples: MeanRR over all recent intervals,
	// MeanPlausibleRR over the plausible-only ones.
	MeanRR          int
	MeanPlausibleRR int
}

// Diagnostics snapshots the current filter outputs, thresholds and RR state.
func (d *Detector) Diagnostics() Diagnostics {
	return Diagnostics{
		LowPass:    d.filters.lpOut,
		HighPass:   d.filters.hpOut,
		Derivative: d.filters.drOut,
		Squared:    d.filters.sqOut,
		Integrated: d.filters.mvOut,
		IntegratedThreshold: ThresholdState{
			Primary:   d.thI.primary,
			Secondary: d.thI.secondary,
			Signal:    d.thI.signal,
			Noise:     d.thI.noise,
		},
		BandPassThreshold: ThresholdState{
			Primary:   d.thBP.primary,
			Secondary: d.thBP.secondary,
			Signal:    d.thBP.signal,
			Noise:     d.thBP.noise,
		},
		State:           d.state,
		HeartRate:       d.rr.state,
		MeanRR:          d.rr.recentMean,
		MeanPlausibleRR: d.rr.selMean,
	}
}

// State returns the current machine state.
func (d *Detector) State() State {
	return d.state
}

// HeartRate returns the current rhythm classification.
func (d *Detector) HeartRate() HeartRateState {
	return d.rr.state
}

// ShortTermBPM derives beats per minute from the all-intervals RR mean for
// the given sampling frequency. Returns 0 if either input is unusable.
func (d *Detector) ShortTermBPM(fs int) int {
	return bpm(d.rr.recentMean, fs)
}

// LongTermBPM derives beats per minute from the plausible-intervals RR mean
// for the given sampling frequency.
func (d *Detector) LongTermBPM(fs int) int {
	return bpm(d.rr.selMean, fs)
}

func bpm(rr, fs int) int {
	if rr <= 0 || fs <= 0 {
		return 0
	}
	return 60 * fs / rr
}
