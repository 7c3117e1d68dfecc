package qrs

// ring is a fixed-capacity delay line of int16 samples. The cursor always
// points at the next write slot, which also holds the oldest element, so
// back(k) addresses the value pushed k samples ago for k in [1, cap].
// All five filters and both RR buffers share this one wraparound invariant.
type ring struct {
	buf []int16
	cur int
}

func newRing(n int) ring {
	return ring{buf: make([]int16, n)}
}

func (r *ring) push(v int16) {
	r.buf[r.cur] = v
	r.cur++
	if r.cur == len(r.buf) {
		r.cur = 0
	}
}

// back returns the value pushed k samples ago. back(cap) is the oldest
// retained value, the one the next push overwrites.
func (r *ring) back(k int) int16 {
	i := r.cur - k
	if i < 0 {
		i += len(r.buf)
	}
	return r.buf[i]
}

// fill overwrites every slot with v and rewinds the cursor. Zero-filling
// is the reset path for the filter delay lines; the RR buffers refill with
// the nominal interval.
func (r *ring) fill(v int16) {
	for i := range r.buf {
		r.buf[i] = v
	}
	r.cur = 0
}

// uring is the unsigned counterpart used by the moving-average stage.
type uring struct {
	buf []uint16
	cur int
}

func newURing(n int) uring {
	return uring{buf: make([]uint16, n)}
}

func (r *uring) push(v uint16) {
	r.buf[r.cur] = v
	r.cur++
	if r.cur == len(r.buf) {
		r.cur = 0
	}
}

func (r *uring) back(k int) uint16 {
	i := r.cur - k
	if i < 0 {
		i += len(r.buf)
	}
	return r.buf[i]
}

func (r *uring) fill(v uint16) {
	for i := range r.buf {
		r.buf[i] = v
	}
	r.cur = 0
}
