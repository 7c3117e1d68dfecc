package qrs

import "fmt"

// FilterForm selects the realization of the recursive low-pass and high-pass
// filters. Both forms compute the same difference equations and produce
// bit-identical output; they differ only in how the recursion state is stored.
type FilterForm int

const (
	// DirectFormI keeps the recursive intermediate in the delay line.
	DirectFormI FilterForm = 1
	// DirectFormII keeps the input history in the delay line and the
	// recursion in scalar accumulators. This is the default.
	DirectFormII FilterForm = 2
)

func (f FilterForm) String() string {
	switch f {
	case DirectFormI:
		return "direct-form-1"
	case DirectFormII:
		return "direct-form-2"
	default:
		return fmt.Sprintf("FilterForm(%d)", int(f))
	}
}

// Config holds the detector parameters. All timing windows are expressed in
// milliseconds and converted once to sample counts for the configured
// sampling rate; the filter coefficients themselves assume the 200 Hz
// nominal rate, so running at a different rate rescales the windows but
// changes the filter passbands.
type Config struct {
	// SamplingRate is the input sample rate in Hz.
	SamplingRate int

	// Delay-line lengths, one per filter stage. LowPassLen and HighPassLen
	// must be even: the difference equations address the half-way tap.
	// DerivativeLen must be 4 (the 5-point stencil is fixed).
	LowPassLen    int
	HighPassLen   int
	DerivativeLen int
	AverageLen    int

	// RRLen is the number of recent beat-to-beat intervals kept in each of
	// the two rolling-mean buffers.
	RRLen int

	// Timing windows in milliseconds.
	RefractoryMs     int // minimum spacing between reported integrated peaks
	TWaveMs          int // window in which a low-slope beat is a T wave
	LearnMs          int // initial threshold learning window
	EmergencyResetMs int // beat silence ceiling before self-reinitialization
	NominalRRMs      int // RR mean seed before any beat has been seen

	// Overflow ceilings for the nonlinear stages.
	SquareInLimit  int16  // derivative magnitudes at or above this saturate
	SquareOutLimit uint16 // ceiling on the squared output
	AverageLimit   uint16 // ceiling on the moving-average output

	Form FilterForm
}

// DefaultConfig returns the nominal 200 Hz configuration.
func DefaultConfig() Config {
	return Config{
		SamplingRate:     200,
		LowPassLen:       12,
		HighPassLen:      32,
		DerivativeLen:    4,
		AverageLen:       30,
		RRLen:            8,
		RefractoryMs:     200,
		TWaveMs:          360,
		LearnMs:          2000,
		EmergencyResetMs: 4000,
		NominalRRMs:      1000,
		SquareInLimit:    256,
		SquareOutLimit:   30000,
		AverageLimit:     32000,
		Form:             DirectFormII,
	}
}

// Validate checks the configuration. A detector cannot recover from a bad
// configuration mid-stream, so this fails fast at construction time.
func (c Config) Validate() error {
	if c.SamplingRate <= 0 {
		return fmt.Errorf("sampling rate must be positive, got %d", c.SamplingRate)
	}
	if c.LowPassLen <= 0 || c.LowPassLen%2 != 0 {
		return fmt.Errorf("low-pass length must be positive and even, got %d", c.LowPassLen)
	}
	if c.HighPassLen <= 0 || c.HighPassLen%2 != 0 {
		return fmt.Errorf("high-pass length must be positive and even, got %d", c.HighPassLen)
	}
	if c.DerivativeLen != 4 {
		return fmt.Errorf("derivative length must be 4, got %d", c.DerivativeLen)
	}
	if c.AverageLen <= 0 {
		return fmt.Errorf("moving-average length must be positive, got %d", c.AverageLen)
	}
	if c.RRLen <= 0 {
		return fmt.Errorf("RR buffer length must be positive, got %d", c.RRLen)
	}
	for _, w := range []struct {
		name string
		ms   int
	}{
		{"refractory", c.RefractoryMs},
		{"t-wave", c.TWaveMs},
		{"learning", c.LearnMs},
		{"emergency reset", c.EmergencyResetMs},
		{"nominal RR", c.NominalRRMs},
	} {
		if w.ms <= 0 {
			return fmt.Errorf("%s window must be positive, got %dms", w.name, w.ms)
		}
		if c.samples(w.ms) == 0 {
			return fmt.Errorf("%s window of %dms is shorter than one sample at %dHz", w.name, w.ms, c.SamplingRate)
		}
	}
	if c.SquareInLimit <= 0 {
		return fmt.Errorf("squaring input limit must be positive, got %d", c.SquareInLimit)
	}
	if c.SquareOutLimit == 0 {
		return fmt.Errorf("squaring output limit must be positive")
	}
	if c.AverageLimit == 0 {
		return fmt.Errorf("moving-average limit must be positive")
	}
	if c.Form != DirectFormI && c.Form != DirectFormII {
		return fmt.Errorf("unknown filter form %d", int(c.Form))
	}
	return nil
}

// samples converts a window in milliseconds to a sample count.
func (c Config) samples(ms int) int {
	return ms * c.SamplingRate / 1000
}

// outputDelay is the total group delay of the filter cascade in samples:
// the sum of the low-pass, high-pass, derivative and moving-average delays.
// 38 samples at the nominal configuration.
func (c Config) outputDelay() int {
	return (c.LowPassLen/2 - 1) + c.HighPassLen/2 + c.DerivativeLen/2 + c.AverageLen/2
}
