// internal/session/session.go
// Package session runs one complete hearing-threshold test and hands the
// finished table to its sinks. Nothing is written unless every frequency
// has been resolved.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ColonelBlimp/audiogram/internal/grid"
	"github.com/ColonelBlimp/audiogram/internal/result"
	"github.com/ColonelBlimp/audiogram/internal/search"
)

var (
	// ErrAborted wraps any failure before the search completed
	ErrAborted = errors.New("session aborted")
)

// Result is a finished session.
type Result struct {
	ID          uuid.UUID
	StartedAt   time.Time
	FinishedAt  time.Time
	Seed        uint64
	Order       []int
	Frequencies grid.FrequencySet
	Ladder      grid.AmplitudeLadder
	Curve       *search.ThresholdCurve
	Power       result.PowerCurve
	Rows        []result.Row
}

// Sink consumes a finished Result.
type Sink interface {
	Name() string
	Write(ctx context.Context, res *Result) error
}

// Config wires a Runner.
type Config struct {
	Design    grid.Design
	Seed      uint64 // 0 derives a seed from the clock
	Synth     search.Synthesizer
	Player    search.Player
	Responses search.ResponseSource
	// Sinks must all succeed; the first failure is returned.
	Sinks []Sink
	// OptionalSinks run after Sinks; failures are logged only.
	OptionalSinks []Sink
	Out           io.Writer
	Logger        zerolog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Runner executes a session.
type Runner struct {
	config Config
}

// NewRunner validates the grid design and returns a Runner.
func NewRunner(cfg Config) (*Runner, error) {
	if err := cfg.Design.Validate(); err != nil {
		return nil, fmt.Errorf("grid design: %w", err)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	return &Runner{config: cfg}, nil
}

// Run scans every frequency, reduces the curve and writes the sinks.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	cfg := r.config
	log := cfg.Logger

	freqs, ladder, err := grid.Generate(cfg.Design)
	if err != nil {
		return nil, fmt.Errorf("generate grid: %w", err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(cfg.Now().UnixNano())
	}
	order := grid.TestOrder(freqs.Len(), grid.NewRand(seed))

	engine, err := search.NewEngine(search.EngineConfig{
		Frequencies: freqs,
		Ladder:      ladder,
		Order:       order,
		Synth:       cfg.Synth,
		Player:      cfg.Player,
		Responses:   cfg.Responses,
		Out:         cfg.Out,
		Logger:      log,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("frequencies", freqs.Len()).
		Int("rungs", ladder.Len()).
		Uint64("seed", seed).
		Msg("session started")

	started := cfg.Now()
	curve, err := engine.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAborted, err)
	}

	power := result.Reduce(curve)
	rows, err := result.Table(freqs, power)
	if err != nil {
		return nil, err
	}

	res := &Result{
		ID:          uuid.New(),
		StartedAt:   started,
		FinishedAt:  cfg.Now(),
		Seed:        seed,
		Order:       order,
		Frequencies: freqs,
		Ladder:      ladder,
		Curve:       curve,
		Power:       power,
		Rows:        rows,
	}

	log.Info().
		Str("session_id", res.ID.String()).
		Int("trials", len(engine.Trials())).
		Dur("elapsed", res.FinishedAt.Sub(res.StartedAt)).
		Msg("session finished")

	for _, s := range cfg.Sinks {
		if err := s.Write(ctx, res); err != nil {
			return res, fmt.Errorf("%s: %w", s.Name(), err)
		}
	}
	for _, s := range cfg.OptionalSinks {
		if err := s.Write(ctx, res); err != nil {
			log.Warn().Err(err).Str("sink", s.Name()).Msg("optional output failed")
		}
	}

	return res, nil
}

// Detected counts frequencies with a measured threshold.
func (r *Result) Detected() int {
	n := 0
	for i := 0; i < r.Curve.Len(); i++ {
		if r.Curve.At(i).Status == search.Found {
			n++
		}
	}
	return n
}
