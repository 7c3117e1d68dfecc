package qrs

// thresholds is one adaptive threshold pair: running signal and noise level
// estimates and the two detection thresholds blended from them. One pair
// monitors the integrated signal, another the band-passed signal.
//
// Values are carried in int32. The estimates never leave the range of the
// peaks feeding them (at most the moving-average or high-pass ceiling), but
// the blend signal-noise can go negative, and narrowing it before the
// arithmetic shift would corrupt the result.
type thresholds struct {
	signal    int32
	noise     int32
	primary   int32
	secondary int32
}

// seed derives the initial estimates at the end of the learning window:
// the signal level from the tallest observed peak, the noise level from the
// running mean of all peaks.
func (t *thresholds) seed(maxPeak, meanPeak int32) {
	t.signal = maxPeak >> 1
	t.noise = meanPeak >> 3
	t.recompute()
}

// update blends a classified peak into the matching estimate with weight
// 1/8 and recomputes both thresholds.
func (t *thresholds) update(peak int32, isNoise bool) {
	if isNoise {
		t.noise -= t.noise >> 3
		t.noise += peak >> 3
	} else {
		t.signal -= t.signal >> 3
		t.signal += peak >> 3
	}
	t.recompute()
}

// halve is the temporary sensitivity boost applied when the rhythm turns
// irregular. The estimates are left alone; the next update restores the
// usual blend.
func (t *thresholds) halve() {
	t.primary >>= 1
	t.secondary = t.primary >> 1
}

func (t *thresholds) recompute() {
	t.primary = t.noise + (t.signal-t.noise)>>2
	t.secondary = t.primary >> 1
}

// learning accumulates the phase-1 statistics: the tallest integrated peak
// and the exponential running means (weight 1/2) of the integrated and
// band-passed peaks observed during the learning window.
type learning struct {
	maxIntegrated  int32
	meanIntegrated int32
	meanBandPass   int32
}

func (l *learning) seed(peakI, peakBP int32) {
	l.meanIntegrated = peakI
	l.meanBandPass = peakBP
}

func (l *learning) observe(peakI, peakBP int32) {
	l.meanIntegrated = (l.meanIntegrated + peakI) >> 1
	l.meanBandPass = (l.meanBandPass + peakBP) >> 1
}

func (l *learning) track(peakI int32) {
	if peakI > l.maxIntegrated {
		l.maxIntegrated = peakI
	}
}
