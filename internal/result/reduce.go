// internal/result/reduce.go
// Package result turns a finished threshold curve into the (frequency, power)
// table and writes it out.
package result

import (
	"errors"
	"fmt"

	"github.com/ColonelBlimp/audiogram/internal/grid"
	"github.com/ColonelBlimp/audiogram/internal/search"
)

// ErrLengthMismatch indicates the frequency set and power curve differ in length
var ErrLengthMismatch = errors.New("frequency set and power curve lengths differ")

// PowerCurve is amplitude² per frequency index, generation order.
type PowerCurve []float64

// Reduce squares every threshold. Frequencies with no detection give 0.
func Reduce(curve *search.ThresholdCurve) PowerCurve {
	out := make(PowerCurve, curve.Len())
	for i := range out {
		a := curve.At(i).Value()
		out[i] = a * a
	}
	return out
}

// Row is one persisted (frequency, power) pair.
type Row struct {
	Frequency float64 // Hz
	Power     float64 // threshold amplitude squared
}

// Table pairs frequencies with powers in the frequency set's generation order.
func Table(freqs grid.FrequencySet, power PowerCurve) ([]Row, error) {
	if freqs.Len() != len(power) {
		return nil, fmt.Errorf("%w: %d frequencies, %d powers", ErrLengthMismatch, freqs.Len(), len(power))
	}
	rows := make([]Row, len(power))
	for i, p := range power {
		rows[i] = Row{Frequency: freqs.At(i), Power: p}
	}
	return rows, nil
}
