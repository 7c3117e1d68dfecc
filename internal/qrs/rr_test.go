package qrs

import "testing"

func newTestTracker() rrTracker {
	return newRRTracker(8, 200) // 8 intervals, nominal 1000ms at 200 Hz
}

func TestRRTrackerNominalSeed(t *testing.T) {
	tr := newTestTracker()

	if tr.recentMean != 200 || tr.selMean != 200 {
		t.Errorf("seed means: got (%d,%d), want (200,200)", tr.recentMean, tr.selMean)
	}
	if tr.lowLimit != 184 {
		t.Errorf("low limit: got %d, want 184", tr.lowLimit)
	}
	if tr.highLimit != 232 {
		t.Errorf("high limit: got %d, want 232", tr.highLimit)
	}
	if tr.missedLimit != 332 {
		t.Errorf("missed limit: got %d, want 332", tr.missedLimit)
	}
	if tr.state != HeartRateRegular {
		t.Errorf("seed state: got %s, want REGULAR", tr.state)
	}
}

func TestRRTrackerPlausibleInterval(t *testing.T) {
	tr := newTestTracker()
	var thI, thBP thresholds
	thI.seed(1000, 100)
	thBP.seed(400, 40)
	primaryBefore := thI.primary

	tr.update(208, &thI, &thBP)

	// Both means move by (208-200)/8 = 1.
	if tr.recentMean != 201 {
		t.Errorf("all-intervals mean: got %d, want 201", tr.recentMean)
	}
	if tr.selMean != 201 {
		t.Errorf("plausible mean: got %d, want 201", tr.selMean)
	}
	// Limits re-derived from the plausible mean.
	if want := 201 - 2*201/25; tr.lowLimit != want {
		t.Errorf("low limit: got %d, want %d", tr.lowLimit, want)
	}
	if want := 201 + 4*201/25; tr.highLimit != want {
		t.Errorf("high limit: got %d, want %d", tr.highLimit, want)
	}
	if want := 201 + 33*201/50; tr.missedLimit != want {
		t.Errorf("missed limit: got %d, want %d", tr.missedLimit, want)
	}
	if tr.state != HeartRateRegular {
		t.Errorf("state: got %s, want REGULAR", tr.state)
	}
	// Thresholds are left alone on a regular beat.
	if thI.primary != primaryBefore {
		t.Errorf("primary threshold changed on regular beat: %d -> %d", primaryBefore, thI.primary)
	}
}

func TestRRTrackerImplausibleInterval(t *testing.T) {
	tr := newTestTracker()
	var thI, thBP thresholds
	thI.seed(1000, 100)
	thBP.seed(400, 40)
	wantThI := thI.primary >> 1
	wantThBP := thBP.primary >> 1

	tr.update(150, &thI, &thBP) // below the 184 low limit

	// The all-intervals mean still absorbs it...
	if want := (200*7 + 150) / 8; tr.recentMean != want {
		t.Errorf("all-intervals mean: got %d, want %d", tr.recentMean, want)
	}
	// ...but the plausible mean and its low/high limits do not move.
	if tr.selMean != 200 {
		t.Errorf("plausible mean: got %d, want 200", tr.selMean)
	}
	if tr.lowLimit != 184 || tr.highLimit != 232 {
		t.Errorf("low/high limits moved on implausible beat: (%d,%d)", tr.lowLimit, tr.highLimit)
	}
	// The missed-beat limit retargets onto the all-intervals mean.
	if want := tr.recentMean + 33*tr.recentMean/50; tr.missedLimit != want {
		t.Errorf("missed limit: got %d, want %d", tr.missedLimit, want)
	}
	if tr.state != HeartRateIrregular {
		t.Errorf("state: got %s, want IRREGULAR", tr.state)
	}
	// Sensitivity boost: both primaries halved, invariant kept.
	if thI.primary != wantThI {
		t.Errorf("integrated primary: got %d, want %d", thI.primary, wantThI)
	}
	if thBP.primary != wantThBP {
		t.Errorf("band-pass primary: got %d, want %d", thBP.primary, wantThBP)
	}
	if thI.secondary != thI.primary>>1 || thBP.secondary != thBP.primary>>1 {
		t.Error("secondary != primary/2 after irregular-beat halving")
	}
}

func TestRRTrackerRingTurnover(t *testing.T) {
	tr := newTestTracker()
	var thI, thBP thresholds

	// Ten identical intervals: after eight, the nominal seeds are fully
	// displaced and both means settle on the new rhythm.
	for i := 0; i < 10; i++ {
		tr.update(220, &thI, &thBP)
	}
	if tr.recentMean != 220 {
		t.Errorf("all-intervals mean: got %d, want 220", tr.recentMean)
	}
	if tr.selMean != 220 {
		t.Errorf("plausible mean: got %d, want 220", tr.selMean)
	}
}

func TestRRTrackerResetRestoresSeed(t *testing.T) {
	tr := newTestTracker()
	var thI, thBP thresholds
	tr.update(150, &thI, &thBP)
	tr.update(300, &thI, &thBP)

	tr.reset()
	fresh := newTestTracker()
	if tr.recentMean != fresh.recentMean || tr.selMean != fresh.selMean ||
		tr.lowLimit != fresh.lowLimit || tr.highLimit != fresh.highLimit ||
		tr.missedLimit != fresh.missedLimit || tr.state != fresh.state {
		t.Error("reset tracker differs from freshly constructed tracker")
	}
}
