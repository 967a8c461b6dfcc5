// internal/grid/grid.go
// Package grid builds the fixed frequency table and amplitude ladder a
// hearing-threshold session scans, plus the randomized presentation order.
package grid

import (
	"errors"
	"math"
	"math/rand/v2"
)

// ladderSlack extends the upper exponent bound so that a step landing a hair
// below the maximum still counts as inside the ladder.
const ladderSlack = 0.001

// MaxRungs caps the ladder length a design may produce.
const MaxRungs = 1000

var (
	// ErrNoFrequencies indicates the frequency table is empty
	ErrNoFrequencies = errors.New("frequency table is empty")
	// ErrFrequencyOrder indicates the table is not strictly positive and increasing
	ErrFrequencyOrder = errors.New("frequencies must be positive and strictly increasing")
	// ErrExponentRange indicates the minimum exponent is not below the maximum
	ErrExponentRange = errors.New("amplitude min exponent must be less than max exponent")
	// ErrInvalidStep indicates the ladder step is not positive
	ErrInvalidStep = errors.New("amplitude step must be positive")
	// ErrTooManyRungs indicates the step is too small for the exponent range
	ErrTooManyRungs = errors.New("amplitude ladder exceeds the maximum number of rungs")
)

// designTable is the relative frequency design (scaled by designScale to Hz).
var designTable = [...]float64{
	0.0063, 0.0079, 0.0100, 0.0126, 0.0158, 0.0199, 0.0251, 0.0315, 0.0397,
	0.0500, 0.0629, 0.0792, 0.0998, 0.1256, 0.1581, 0.1991, 0.2506, 0.3155, 0.3972,
	0.5000, 0.6295, 0.7924, 0.9976, 1.2559, 1.5811, 1.6, 1.7,
}

const designScale = 1e4

// Design holds the constants both grids are derived from.
type Design struct {
	Frequencies []float64 // Hz, strictly increasing
	MinExponent float64   // log10 of the quietest amplitude
	MaxExponent float64   // log10 of the loudest amplitude
	Step        float64   // decades between ladder rungs
}

// DefaultFrequencies returns the 27-entry reference table in whole Hz.
func DefaultFrequencies() []float64 {
	out := make([]float64, len(designTable))
	for i, f := range designTable {
		out[i] = math.Round(designScale * f)
	}
	return out
}

// DefaultDesign returns the reference design: 27 frequencies and a ladder
// from 0.0001 to ~10 in 0.333-decade steps.
func DefaultDesign() Design {
	return Design{
		Frequencies: DefaultFrequencies(),
		MinExponent: -4,
		MaxExponent: 1,
		Step:        0.333,
	}
}

// Validate checks the design can produce non-empty, ordered grids.
func (d Design) Validate() error {
	if len(d.Frequencies) == 0 {
		return ErrNoFrequencies
	}
	prev := 0.0
	for _, f := range d.Frequencies {
		if !(f > prev) || math.IsInf(f, 0) {
			return ErrFrequencyOrder
		}
		prev = f
	}
	if !(d.MinExponent < d.MaxExponent) || math.IsInf(d.MinExponent, 0) || math.IsInf(d.MaxExponent, 0) {
		return ErrExponentRange
	}
	if !(d.Step > 0) {
		return ErrInvalidStep
	}
	if rungCount(d) > MaxRungs {
		return ErrTooManyRungs
	}
	return nil
}

// FrequencySet is the session's frequency table in generation order.
// Its length is fixed at construction.
type FrequencySet struct {
	values []float64
}

// Len returns the number of frequencies.
func (s FrequencySet) Len() int { return len(s.values) }

// At returns the frequency at generation index i.
func (s FrequencySet) At(i int) float64 { return s.values[i] }

// Values returns a copy of the table in generation order.
func (s FrequencySet) Values() []float64 {
	out := make([]float64, len(s.values))
	copy(out, s.values)
	return out
}

// AmplitudeLadder is the increasing list of amplitudes tried per frequency.
type AmplitudeLadder struct {
	values []float64
}

// Len returns the number of rungs.
func (l AmplitudeLadder) Len() int { return len(l.values) }

// At returns the amplitude at rung k.
func (l AmplitudeLadder) At(k int) float64 { return l.values[k] }

// Values returns a copy of the rungs, quietest first.
func (l AmplitudeLadder) Values() []float64 {
	out := make([]float64, len(l.values))
	copy(out, l.values)
	return out
}

// Contains reports whether a is exactly one of the rungs.
func (l AmplitudeLadder) Contains(a float64) bool {
	for _, v := range l.values {
		if v == a {
			return true
		}
	}
	return false
}

// Generate builds the frequency set and amplitude ladder from d.
// The same design always yields bit-identical grids.
func Generate(d Design) (FrequencySet, AmplitudeLadder, error) {
	if err := d.Validate(); err != nil {
		return FrequencySet{}, AmplitudeLadder{}, err
	}

	freqs := make([]float64, len(d.Frequencies))
	copy(freqs, d.Frequencies)

	return FrequencySet{values: freqs}, AmplitudeLadder{values: ladder(d)}, nil
}

// ladder computes 10^(min + i*step) for every i whose exponent stays within
// max (plus slack).
func ladder(d Design) []float64 {
	limit := d.MaxExponent + ladderSlack
	n := int(rungCount(d))
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		exp := d.MinExponent + float64(i)*d.Step
		if exp >= limit {
			break
		}
		out = append(out, math.Pow(10, exp))
	}
	return out
}

// rungCount is an upper bound on the rungs ladder produces, at least 1.
func rungCount(d Design) float64 {
	return math.Max(1, math.Ceil((d.MaxExponent+ladderSlack-d.MinExponent)/d.Step))
}

// TestOrder returns a random permutation of [0, n) drawn from rng.
// The permutation only decides presentation order; storage order is untouched.
func TestOrder(n int, rng *rand.Rand) []int {
	return rng.Perm(n)
}

// NewRand returns a deterministic generator for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
