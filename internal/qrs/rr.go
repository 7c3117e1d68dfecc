package qrs

// HeartRateState classifies the recent rhythm.
type HeartRateState int

const (
	HeartRateRegular HeartRateState = iota
	HeartRateIrregular
)

func (s HeartRateState) String() string {
	switch s {
	case HeartRateRegular:
		return "REGULAR"
	case HeartRateIrregular:
		return "IRREGULAR"
	default:
		return "UNKNOWN"
	}
}

// rrTracker keeps two rolling means over the most recent beat-to-beat
// intervals: one over every accepted interval and one over only the
// physiologically plausible ones. The plausible mean drives the adaptive
// timing limits; the all-intervals mean takes over the missed-beat limit
// while the rhythm is irregular.
type rrTracker struct {
	all        ring // every interval, in samples
	sel        ring // plausible-only intervals
	allSum     int32
	selSum     int32
	recentMean int // mean over all
	selMean    int // mean over plausible

	lowLimit    int // ~92% of the plausible mean
	highLimit   int // ~116% of the plausible mean
	missedLimit int // ~166%, the search-back trigger

	nominal int // seed interval before any beat
	state   HeartRateState
}

func newRRTracker(n, nominal int) rrTracker {
	t := rrTracker{
		all:     newRing(n),
		sel:     newRing(n),
		nominal: nominal,
	}
	t.reset()
	return t
}

func (t *rrTracker) reset() {
	n := len(t.all.buf)
	t.all.fill(int16(t.nominal))
	t.sel.fill(int16(t.nominal))
	t.allSum = int32(t.nominal) * int32(n)
	t.selSum = t.allSum
	t.recentMean = t.nominal
	t.selMean = t.nominal
	t.lowLimit = t.nominal - 2*t.nominal/25
	t.highLimit = t.nominal + 4*t.nominal/25
	t.missedLimit = t.nominal + 33*t.nominal/50
	t.state = HeartRateRegular
}

// update folds a new accepted interval into the statistics. An interval
// inside the plausibility limits refreshes the plausible mean and all three
// limits and marks the rhythm regular; one outside retargets only the
// missed-beat limit onto the all-intervals mean, halves both primary
// thresholds as a temporary sensitivity boost, and marks it irregular.
func (t *rrTracker) update(interval int, thI, thBP *thresholds) {
	n := len(t.all.buf)

	t.allSum += int32(interval) - int32(t.all.back(n))
	t.all.push(int16(interval))
	t.recentMean = int(t.allSum) / n

	if interval >= t.lowLimit && interval <= t.highLimit {
		t.selSum += int32(interval) - int32(t.sel.back(n))
		t.sel.push(int16(interval))
		t.selMean = int(t.selSum) / n

		t.lowLimit = t.selMean - 2*t.selMean/25
		t.highLimit = t.selMean + 4*t.selMean/25
		t.missedLimit = t.selMean + 33*t.selMean/50
		t.state = HeartRateRegular
		return
	}

	t.missedLimit = t.recentMean + 33*t.recentMean/50
	thI.halve()
	thBP.halve()
	t.state = HeartRateIrregular
}
