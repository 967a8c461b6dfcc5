// internal/search/curve.go
package search

import "errors"

var (
	// ErrAlreadyRecorded indicates a frequency's threshold was already set
	ErrAlreadyRecorded = errors.New("threshold already recorded for frequency")
	// ErrCurveFrozen indicates the curve no longer accepts writes
	ErrCurveFrozen = errors.New("threshold curve is frozen")
	// ErrIndexOutOfRange indicates a frequency index outside the curve
	ErrIndexOutOfRange = errors.New("frequency index out of range")
	// ErrUnresolved indicates an attempt to record a threshold that is not Found or Exhausted
	ErrUnresolved = errors.New("threshold must be found or exhausted")
)

// Status says how a frequency's scan ended.
type Status uint8

const (
	// Unmeasured: the frequency has not been scanned yet
	Unmeasured Status = iota
	// Found: the listener answered "y" at LadderIndex
	Found
	// Exhausted: every rung was tried without a "y"
	Exhausted
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case Exhausted:
		return "exhausted"
	default:
		return "unmeasured"
	}
}

// Threshold is one entry of the curve.
type Threshold struct {
	Status      Status
	LadderIndex int     // rung that was detected; -1 unless Found
	Amplitude   float64 // ladder amplitude; 0 unless Found
}

// Value returns the amplitude used for output: the detected rung, or 0 when
// nothing was detected.
func (t Threshold) Value() float64 {
	if t.Status != Found {
		return 0
	}
	return t.Amplitude
}

// ThresholdCurve holds one threshold per frequency in generation order.
// Each entry is written once; Freeze ends the session's write phase.
type ThresholdCurve struct {
	entries []Threshold
	frozen  bool
}

// NewThresholdCurve creates a curve of n unmeasured entries.
func NewThresholdCurve(n int) *ThresholdCurve {
	entries := make([]Threshold, n)
	for i := range entries {
		entries[i] = Threshold{Status: Unmeasured, LadderIndex: -1}
	}
	return &ThresholdCurve{entries: entries}
}

// Len returns the number of frequencies.
func (c *ThresholdCurve) Len() int { return len(c.entries) }

// At returns the entry for frequency index i.
func (c *ThresholdCurve) At(i int) Threshold { return c.entries[i] }

// Record sets the threshold for frequency index i.
func (c *ThresholdCurve) Record(i int, t Threshold) error {
	if c.frozen {
		return ErrCurveFrozen
	}
	if i < 0 || i >= len(c.entries) {
		return ErrIndexOutOfRange
	}
	if t.Status != Found && t.Status != Exhausted {
		return ErrUnresolved
	}
	if c.entries[i].Status != Unmeasured {
		return ErrAlreadyRecorded
	}
	if t.Status == Exhausted {
		t.LadderIndex = -1
		t.Amplitude = 0
	}
	c.entries[i] = t
	return nil
}

// Freeze stops further writes.
func (c *ThresholdCurve) Freeze() { c.frozen = true }

// Frozen reports whether Freeze has been called.
func (c *ThresholdCurve) Frozen() bool { return c.frozen }

// Complete reports whether every frequency has been resolved.
func (c *ThresholdCurve) Complete() bool {
	for _, e := range c.entries {
		if e.Status == Unmeasured {
			return false
		}
	}
	return true
}

// Amplitudes returns Value() for every entry in generation order.
func (c *ThresholdCurve) Amplitudes() []float64 {
	out := make([]float64, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Value()
	}
	return out
}
