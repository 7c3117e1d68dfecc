package qrs

import "testing"

func TestRingBackOrdering(t *testing.T) {
	r := newRing(4)
	for _, v := range []int16{10, 20, 30} {
		r.push(v)
	}

	// back(1) is the most recent push, back(4) the oldest slot (still zero).
	want := map[int]int16{1: 30, 2: 20, 3: 10, 4: 0}
	for k, w := range want {
		if got := r.back(k); got != w {
			t.Errorf("back(%d): got %d, want %d", k, got, w)
		}
	}
}

func TestRingWraparound(t *testing.T) {
	r := newRing(3)
	for v := int16(1); v <= 7; v++ {
		r.push(v)
	}

	// Only 5, 6, 7 survive.
	for k, w := range map[int]int16{1: 7, 2: 6, 3: 5} {
		if got := r.back(k); got != w {
			t.Errorf("back(%d): got %d, want %d", k, got, w)
		}
	}
}

func TestRingCursorInvariant(t *testing.T) {
	r := newRing(5)
	for i := 0; i < 23; i++ {
		r.push(int16(i))
		if r.cur < 0 || r.cur >= 5 {
			t.Fatalf("push %d: cursor %d out of [0,5)", i, r.cur)
		}
	}
}

func TestRingFill(t *testing.T) {
	r := newRing(4)
	r.push(1)
	r.push(2)
	r.fill(9)
	if r.cur != 0 {
		t.Errorf("cursor after fill: got %d, want 0", r.cur)
	}
	for k := 1; k <= 4; k++ {
		if got := r.back(k); got != 9 {
			t.Errorf("back(%d) after fill: got %d, want 9", k, got)
		}
	}
}

func TestURingWraparound(t *testing.T) {
	r := newURing(3)
	for v := uint16(1); v <= 5; v++ {
		r.push(v)
	}
	for k, w := range map[int]uint16{1: 5, 2: 4, 3: 3} {
		if got := r.back(k); got != w {
			t.Errorf("back(%d): got %d, want %d", k, got, w)
		}
	}
}
