// Package qrs implements a real-time, single-pass QRS (heartbeat) detector
// over a stream of fixed-point ECG samples, after Pan and Tompkins. It is
// pure logic with no I/O: one sample goes in per call, and a non-zero delay
// comes out when a beat has been recognized that many samples in the past.
// All state is fixed-size and allocated up front, so steady-state processing
// never allocates.
package qrs

// State is the detector's machine state. Transitions only run forward;
// the sole way back to StateStartup is a reset, explicit or emergency.
type State int

const (
	StateStartup State = iota
	StateLearning1
	StateLearning2
	StateDetecting
)

func (s State) String() string {
	switch s {
	case StateStartup:
		return "STARTUP"
	case StateLearning1:
		return "LEARN_1"
	case StateLearning2:
		return "LEARN_2"
	case StateDetecting:
		return "DETECTING"
	default:
		return "UNKNOWN"
	}
}

// searchBack holds the tallest integrated peak classified as noise since the
// last accepted beat, with its companion band-passed and derivative peaks
// and its age at the time it was stored. It is the buffer-free substitute
// for a signal history: when no beat arrives for the missed-beat limit, this
// one candidate is re-examined against the relaxed thresholds.
type searchBack struct {
	peakI  uint16
	peakBP int16
	peakDR int16
	age    int // sinceBeat when the candidate was stored
}

// Detector is one detection pipeline instance. It owns every piece of
// mutable state, so independent streams each get their own Detector. Not
// safe for concurrent use; Process must be called once per sample, in order.
type Detector struct {
	cfg Config

	// Windows converted to sample counts at construction.
	refractory  int
	tWaveWin    int
	learnWin    int
	resetWin    int
	outputDelay int

	filters filterCascade
	peakI   integratedPeaks
	peakBP  absPeaks
	peakDR  absPeaks
	blank   blanking

	state State
	learn learning
	thI   thresholds // integrated-signal pair
	thBP  thresholds // band-passed pair
	rr    rrTracker

	sinceBeat int   // samples since the last accepted beat
	oldPeakDR int16 // derivative peak stored at the previous beat
	sb        searchBack
}

// New builds a detector for the given configuration. The configuration is
// validated up front; a detector is never constructed half-usable.
func New(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Detector{
		cfg:         cfg,
		refractory:  cfg.samples(cfg.RefractoryMs),
		tWaveWin:    cfg.samples(cfg.TWaveMs),
		learnWin:    cfg.samples(cfg.LearnMs),
		resetWin:    cfg.samples(cfg.EmergencyResetMs),
		outputDelay: cfg.outputDelay(),
		filters:     newFilterCascade(cfg),
		rr:          newRRTracker(cfg.RRLen, cfg.samples(cfg.NominalRRMs)),
	}
	d.zero()
	return d, nil
}

// Reset returns the detector to the freshly-initialized state: all delay
// lines zeroed, RR statistics back at their nominal seeds, machine state at
// StateStartup. It reuses the existing buffers, so the emergency self-reset
// inside Process stays allocation-free.
func (d *Detector) Reset() {
	d.zero()
}

func (d *Detector) zero() {
	d.filters.reset()
	d.peakI = integratedPeaks{}
	d.peakBP = absPeaks{}
	d.peakDR = absPeaks{}
	d.blank = blanking{hold: d.refractory}
	d.state = StateStartup
	d.learn = learning{}
	d.thI = thresholds{}
	d.thBP = thresholds{}
	d.rr.reset()
	d.sinceBeat = 0
	d.oldPeakDR = 0
	d.sb = searchBack{}
}

// Process consumes one sample and returns the beat delay: zero for no
// event, or a positive count meaning a beat occurred that many samples
// before the sample just processed. Every sample value is accepted; there
// is no failure path.
func (d *Detector) Process(sample int16) int {
	d.filters.step(sample)
	d.peakBP.step(d.filters.hpOut)
	d.peakDR.step(d.filters.drOut)
	peak := d.blank.step(d.peakI.step(d.filters.mvOut))

	d.sinceBeat++

	delay := 0
	if d.state == StateStartup || d.state == StateLearning1 {
		if peak > 0 {
			d.observeLearning(peak)
		}
	} else {
		delay = d.decide(peak)
	}

	if sb := d.trySearchBack(); sb > 0 {
		delay = sb
	}

	// Emergency reset after prolonged silence. Deliberately evaluated after
	// search-back, using whatever sinceBeat a fired search-back rolled back
	// to; under a sufficiently irregular rhythm the ceiling can win the race
	// and reset before search-back ever triggers.
	if d.sinceBeat > d.resetWin {
		d.Reset()
	}

	return delay
}

// observeLearning runs phase 1: the first nonzero peak seeds the running
// means, further peaks inside the learning window blend into them, and the
// first peak after the window derives the initial thresholds and advances
// to StateLearning2.
func (d *Detector) observeLearning(peak uint16) {
	pkI := int32(peak)
	pkBP := int32(d.peakBP.best)

	d.learn.track(pkI)
	switch {
	case d.state == StateStartup:
		d.state = StateLearning1
		d.learn.seed(pkI, pkBP)
	case d.sinceBeat < d.learnWin:
		d.learn.observe(pkI, pkBP)
	default:
		d.state = StateLearning2
		d.thI.seed(d.learn.maxIntegrated, d.learn.meanIntegrated)
		d.thBP.seed(pkBP, d.learn.meanBandPass)
	}
}

// decide classifies the surfaced integrated peak (possibly zero) against
// both threshold pairs and returns the beat delay, if any.
func (d *Detector) decide(peak uint16) int {
	bp := d.peakBP.best

	if int32(peak) > d.thI.primary && int32(bp) > d.thBP.primary {
		if d.state == StateLearning2 {
			// First beat: accept unconditionally, start RR timing.
			d.thI.update(int32(peak), false)
			d.thBP.update(int32(bp), false)
			d.state = StateDetecting
			return d.acceptBeat(0)
		}

		// A tall peak too close to the previous beat with a slope under a
		// quarter of the stored one is a T wave, not a beat.
		if d.sinceBeat < d.tWaveWin && int32(d.peakDR.best) < int32(d.oldPeakDR)>>2 {
			d.thI.update(int32(peak), true)
			d.thBP.update(int32(bp), true)
			return 0
		}

		d.thI.update(int32(peak), false)
		d.thBP.update(int32(bp), false)
		d.rr.update(d.sinceBeat, &d.thI, &d.thBP)
		d.sb = searchBack{}
		return d.acceptBeat(0)
	}

	if peak > 0 {
		// Below threshold: noise. Remember the tallest such peak outside
		// the T-wave window as the search-back candidate.
		d.thI.update(int32(peak), true)
		d.thBP.update(int32(bp), true)
		if peak > d.sb.peakI && d.sinceBeat >= d.tWaveWin {
			d.sb = searchBack{
				peakI:  peak,
				peakBP: bp,
				peakDR: d.peakDR.best,
				age:    d.sinceBeat,
			}
		}
	}
	return 0
}

// acceptBeat resets the per-beat bookkeeping and returns the emitted delay.
// extra is the retroactive offset a search-back acceptance adds.
func (d *Detector) acceptBeat(extra int) int {
	d.sinceBeat = extra
	d.oldPeakDR = d.peakDR.best
	d.peakDR.best = 0
	d.peakBP.best = 0
	return extra + d.outputDelay + d.refractory
}

// trySearchBack retroactively recovers a missed beat: once the elapsed time
// exceeds the missed-beat limit, the stored candidate is accepted if it
// clears both secondary (half) thresholds. The emitted delay reflects the
// candidate's true position.
func (d *Detector) trySearchBack() int {
	if d.state != StateDetecting || d.sinceBeat <= d.rr.missedLimit {
		return 0
	}
	if int32(d.sb.peakI) <= d.thI.secondary || int32(d.sb.peakBP) <= d.thBP.secondary {
		return 0
	}

	d.thI.update(int32(d.sb.peakI), false)
	d.thBP.update(int32(d.sb.peakBP), false)
	d.rr.update(d.sb.age, &d.thI, &d.thBP)

	age := d.sinceBeat - d.sb.age
	delay := d.acceptBeat(age)
	// The slope reference for the next T-wave test comes from the
	// recovered beat, not from whatever followed it.
	d.oldPeakDR = d.sb.peakDR
	d.sb = searchBack{}
	return delay
}
