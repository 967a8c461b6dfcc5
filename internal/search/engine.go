// internal/search/engine.go
// Package search runs the ascending threshold scan: for each frequency in a
// randomized order, play increasing amplitudes until the listener hears one.
package search

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/ColonelBlimp/audiogram/internal/grid"
)

var (
	// ErrPlayerRequired indicates a Player instance is required
	ErrPlayerRequired = errors.New("player is required")
	// ErrSynthesizerRequired indicates a Synthesizer instance is required
	ErrSynthesizerRequired = errors.New("synthesizer is required")
	// ErrResponsesRequired indicates a ResponseSource instance is required
	ErrResponsesRequired = errors.New("response source is required")
	// ErrInvalidOrder indicates the test order is not a permutation of the frequency indices
	ErrInvalidOrder = errors.New("test order must be a permutation of frequency indices")
	// ErrAlreadyRun indicates Run was called twice on one engine
	ErrAlreadyRun = errors.New("engine already ran")
)

// Player is the audio output the engine drives. Play must not block for the
// length of the buffer.
type Player interface {
	Play(samples []float32, sampleRate int) error
	Stop() error
}

// Synthesizer produces the waveform for one trial.
type Synthesizer interface {
	Tone(frequency, amplitude float64) ([]float32, error)
	SampleRate() int
}

// Trial is one played tone and the valid answer that ended it.
type Trial struct {
	Position       int // 0-based position in the test order
	FrequencyIndex int // index into the frequency set (generation order)
	Frequency      float64
	LadderIndex    int
	Amplitude      float64
	Response       Response
	Invalid        int // rejected lines before the valid answer
}

// EngineConfig wires the engine's collaborators.
type EngineConfig struct {
	Frequencies grid.FrequencySet
	Ladder      grid.AmplitudeLadder
	Order       []int // permutation of frequency indices, see grid.TestOrder
	Synth       Synthesizer
	Player      Player
	Responses   ResponseSource
	// Out receives listener-facing progress text; nil discards it.
	Out    io.Writer
	Logger zerolog.Logger
}

// Engine runs one session's scans on a single goroutine.
type Engine struct {
	config EngineConfig
	curve  *ThresholdCurve
	trials []Trial
	ran    bool
}

// NewEngine validates cfg and returns an engine ready to Run.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Player == nil {
		return nil, ErrPlayerRequired
	}
	if cfg.Synth == nil {
		return nil, ErrSynthesizerRequired
	}
	if cfg.Responses == nil {
		return nil, ErrResponsesRequired
	}
	if !isPermutation(cfg.Order, cfg.Frequencies.Len()) {
		return nil, ErrInvalidOrder
	}
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}

	return &Engine{
		config: cfg,
		curve:  NewThresholdCurve(cfg.Frequencies.Len()),
	}, nil
}

func isPermutation(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make([]bool, n)
	for _, i := range order {
		if i < 0 || i >= n || seen[i] {
			return false
		}
		seen[i] = true
	}
	return true
}

// Run scans every frequency in test order and returns the frozen curve.
// Any error aborts the session; the partial curve is not returned.
func (e *Engine) Run(ctx context.Context) (*ThresholdCurve, error) {
	if e.ran {
		return nil, ErrAlreadyRun
	}
	e.ran = true

	total := len(e.config.Order)
	for pos, fIdx := range e.config.Order {
		fmt.Fprintf(e.config.Out, "\nNow playing random frequency %d/%d\n", pos+1, total)

		t, err := e.scan(ctx, pos, fIdx)
		if err != nil {
			return nil, err
		}
		if err := e.curve.Record(fIdx, t); err != nil {
			return nil, fmt.Errorf("record frequency %d: %w", fIdx, err)
		}

		e.config.Logger.Debug().
			Int("position", pos+1).
			Float64("frequency_hz", e.config.Frequencies.At(fIdx)).
			Stringer("status", t.Status).
			Float64("amplitude", t.Value()).
			Msg("frequency resolved")
	}

	e.curve.Freeze()
	return e.curve, nil
}

// scan runs one frequency from the quietest rung until FOUND or EXHAUSTED.
func (e *Engine) scan(ctx context.Context, pos, fIdx int) (Threshold, error) {
	freq := e.config.Frequencies.At(fIdx)
	ladder := e.config.Ladder

	state := StartScan(ladder.Len())
	for !state.Done() {
		trial, err := e.trial(ctx, pos, fIdx, freq, state.Index)
		if err != nil {
			return Threshold{}, err
		}
		e.trials = append(e.trials, trial)
		state = state.Advance(trial.Response, ladder.Len())
	}

	return state.Threshold(ladder.At), nil
}

// trial plays one rung and blocks until a valid answer arrives. Invalid
// lines leave the tone playing and are asked again.
func (e *Engine) trial(ctx context.Context, pos, fIdx int, freq float64, k int) (Trial, error) {
	amp := e.config.Ladder.At(k)
	t := Trial{Position: pos, FrequencyIndex: fIdx, Frequency: freq, LadderIndex: k, Amplitude: amp}

	samples, err := e.config.Synth.Tone(freq, amp)
	if err != nil {
		return t, fmt.Errorf("synthesize %.1f Hz at %g: %w", freq, amp, err)
	}
	if err := e.config.Player.Play(samples, e.config.Synth.SampleRate()); err != nil {
		return t, fmt.Errorf("play %.1f Hz at %g: %w", freq, amp, err)
	}

	for {
		r, err := e.config.Responses.NextResponse(ctx)
		if err != nil {
			_ = e.config.Player.Stop()
			return t, fmt.Errorf("await response: %w", err)
		}
		if r == Invalid {
			t.Invalid++
			continue
		}

		if err := e.config.Player.Stop(); err != nil {
			return t, fmt.Errorf("stop %.1f Hz at %g: %w", freq, amp, err)
		}
		t.Response = r

		e.config.Logger.Debug().
			Float64("frequency_hz", freq).
			Int("rung", k).
			Float64("amplitude", amp).
			Stringer("response", r).
			Int("invalid", t.Invalid).
			Msg("trial")
		return t, nil
	}
}

// Trials returns every completed trial in the order it was played.
func (e *Engine) Trials() []Trial {
	out := make([]Trial, len(e.trials))
	copy(out, e.trials)
	return out
}

// Order returns the test order the engine follows.
func (e *Engine) Order() []int {
	out := make([]int, len(e.config.Order))
	copy(out, e.config.Order)
	return out
}
