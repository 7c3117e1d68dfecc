package qrs

// integratedPeaks reports local maxima in the moving-average output.
// x[n] is a peak when x[n-1] <= x[n] > x[n+1]: a strict maximum with a
// non-strict left side, confirmed one sample late when the falling edge
// arrives.
type integratedPeaks struct {
	prev     uint16
	prevPrev uint16
}

// step returns the detected peak value, or zero for most samples.
func (p *integratedPeaks) step(v uint16) uint16 {
	var peak uint16
	if v <= p.prev && p.prev > p.prevPrev {
		peak = p.prev
	}
	p.prevPrev = p.prev
	p.prev = v
	return peak
}

// absPeaks applies the same local-maximum rule to the magnitude of a signed
// signal and retains the tallest peak seen since the holder was last
// cleared. The band-passed instance feeds the threshold comparison; the
// derivative instance feeds T-wave discrimination.
type absPeaks struct {
	prev     int16
	prevPrev int16
	best     int16
}

func (p *absPeaks) step(v int16) {
	if v < 0 {
		v = -v
	}
	if v <= p.prev && p.prev > p.prevPrev && p.prev > p.best {
		p.best = p.prev
	}
	p.prevPrev = p.prev
	p.prev = v
}

// blanking imposes the refractory window on integrated-signal peaks: once a
// candidate arrives, nothing is surfaced for hold samples, and a taller
// candidate inside the window replaces the held one and restarts it. The
// tallest candidate is emitted when the countdown expires.
type blanking struct {
	hold  int // window length in samples
	count int // remaining countdown, 0 when inactive
	held  uint16
}

// step feeds the raw peak for this sample (zero when none) and returns the
// candidate to surface, or zero.
func (b *blanking) step(peak uint16) uint16 {
	switch {
	case peak == 0 && b.count > 0:
		b.count--
		if b.count == 0 {
			return b.held
		}
	case peak > 0 && b.count == 0:
		b.count = b.hold
		b.held = peak
	case peak > 0:
		if peak > b.held {
			b.count = b.hold
			b.held = peak
		} else {
			b.count--
			if b.count == 0 {
				return b.held
			}
		}
	}
	return 0
}
