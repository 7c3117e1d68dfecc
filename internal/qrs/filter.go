package qrs

import "math"

// filterCascade is the per-sample signal conditioning chain:
// low-pass -> high-pass -> derivative -> squaring -> moving average.
// The recursive filters run in int16 with wraparound, exactly as the
// fixed-point difference equations require; every right shift on a signed
// value is a true arithmetic shift. The two nonlinear stages clamp instead
// of wrapping.
type filterCascade struct {
	form FilterForm

	// Low-pass: y[n] = 2y[n-1] - y[n-2] + x[n] - 2x[n-L/2] + x[n-L],
	// output gained down by 32. Form II keeps x in lpBuf and the output
	// recursion in lpY1/lpY2; form I keeps the recursive intermediate
	// v[n] = x[n] + 2v[n-1] - v[n-2] in lpBuf instead.
	lpBuf      ring
	lpY1, lpY2 int16
	lpOut      int16

	// High-pass: y[n] = y[n-1] + x[n-L]/32 - x[n]/32 + x[n-L/2] - x[n-L/2-1],
	// output halved. Both forms keep x in hpBuf; form II carries the
	// recursion in hpAcc, form I in the equivalent running sum
	// S[n] = sum of the last L values of x/32, with y[n] = x[n-L/2] - S[n].
	hpBuf ring
	hpAcc int16
	hpSum int16
	hpOut int16

	// Derivative: y[n] = (2x[n] + x[n-1] - x[n-3] - 2x[n-4]) / 8.
	drBuf ring
	drOut int16

	// Squaring with input and output clamps.
	sqInLimit  int32
	sqOutLimit uint16
	sqOut      uint16

	// Moving average with a saturating running sum and an output clamp.
	mvBuf   uring
	mvSum   uint16
	mvLimit uint16
	mvOut   uint16
}

func newFilterCascade(cfg Config) filterCascade {
	return filterCascade{
		form:       cfg.Form,
		lpBuf:      newRing(cfg.LowPassLen),
		hpBuf:      newRing(cfg.HighPassLen),
		drBuf:      newRing(cfg.DerivativeLen),
		sqInLimit:  int32(cfg.SquareInLimit),
		sqOutLimit: cfg.SquareOutLimit,
		mvBuf:      newURing(cfg.AverageLen),
		mvLimit:    cfg.AverageLimit,
	}
}

func (f *filterCascade) reset() {
	f.lpBuf.fill(0)
	f.lpY1, f.lpY2 = 0, 0
	f.lpOut = 0
	f.hpBuf.fill(0)
	f.hpAcc, f.hpSum = 0, 0
	f.hpOut = 0
	f.drBuf.fill(0)
	f.drOut = 0
	f.sqOut = 0
	f.mvBuf.fill(0)
	f.mvSum = 0
	f.mvOut = 0
}

// step runs the whole cascade for one sample.
func (f *filterCascade) step(x int16) {
	f.lowPass(x)
	f.highPass(f.lpOut)
	f.derivative(f.hpOut)
	f.square(f.drOut)
	f.average(f.sqOut)
}

func (f *filterCascade) lowPass(x int16) {
	n := len(f.lpBuf.buf)
	half := n / 2

	var y int16
	if f.form == DirectFormI {
		v := x + 2*f.lpBuf.back(1) - f.lpBuf.back(2)
		y = v - 2*f.lpBuf.back(half) + f.lpBuf.back(n)
		f.lpBuf.push(v)
	} else {
		y = 2*f.lpY1 - f.lpY2 + x - 2*f.lpBuf.back(half) + f.lpBuf.back(n)
		f.lpBuf.push(x)
		f.lpY2 = f.lpY1
		f.lpY1 = y
	}
	f.lpOut = y >> 5
}

func (f *filterCascade) highPass(x int16) {
	n := len(f.hpBuf.buf)
	half := n / 2

	var y int16
	if f.form == DirectFormI {
		f.hpSum += x>>5 - f.hpBuf.back(n)>>5
		y = f.hpBuf.back(half) - f.hpSum
	} else {
		f.hpAcc += f.hpBuf.back(n)>>5 - x>>5 + f.hpBuf.back(half) - f.hpBuf.back(half+1)
		y = f.hpAcc
	}
	f.hpBuf.push(x)
	f.hpOut = y >> 1
}

func (f *filterCascade) derivative(x int16) {
	w := f.drBuf.back(1) - f.drBuf.back(3) + 2*(x-f.drBuf.back(4))
	f.drBuf.push(x)
	f.drOut = w >> 3
}

// square clamps the derivative magnitude before squaring and the squared
// value after; both clamps are lossy by design and keep the rest of the
// pipeline inside uint16.
func (f *filterCascade) square(x int16) {
	v := int32(x)
	if v < 0 {
		v = -v
	}
	if v >= f.sqInLimit {
		f.sqOut = f.sqOutLimit
		return
	}
	sq := v * v
	if sq > int32(f.sqOutLimit) {
		f.sqOut = f.sqOutLimit
		return
	}
	f.sqOut = uint16(sq)
}

func (f *filterCascade) average(x uint16) {
	// Saturate the running sum rather than wrapping it.
	if f.mvSum < math.MaxUint16-x {
		f.mvSum += x
	} else {
		f.mvSum = math.MaxUint16
	}

	n := len(f.mvBuf.buf)
	oldest := f.mvBuf.back(n)
	if f.mvSum > oldest {
		f.mvSum -= oldest
	} else {
		f.mvSum = 0
	}
	f.mvBuf.push(x)

	f.mvOut = f.mvSum / uint16(n)
	if f.mvOut > f.mvLimit {
		f.mvOut = f.mvLimit
	}
}
