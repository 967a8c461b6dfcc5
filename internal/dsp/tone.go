// internal/dsp/tone.go
package dsp

import (
	"errors"
	"math"
	"time"
)

var (
	// ErrInvalidSampleRate indicates sample rate must be positive
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	// ErrInvalidDuration indicates the tone duration must be positive
	ErrInvalidDuration = errors.New("tone duration must be positive")
	// ErrInvalidFrequency indicates frequency must be positive and less than Nyquist frequency
	ErrInvalidFrequency = errors.New("tone frequency must be positive and less than Nyquist frequency")
	// ErrInvalidAmplitude indicates amplitude must be positive
	ErrInvalidAmplitude = errors.New("tone amplitude must be positive")
)

// ToneConfig holds the fixed playback parameters shared by every trial.
// All values should come from the application config file.
type ToneConfig struct {
	// SampleRate in Hz (from config: sample_rate)
	SampleRate int
	// Duration of each tone (from config: tone_duration)
	Duration time.Duration
}

// ToneGenerator synthesizes the sine bursts played during a session.
type ToneGenerator struct {
	config     ToneConfig
	numSamples int
}

// NewToneGenerator validates cfg and precomputes the per-tone sample count.
func NewToneGenerator(cfg ToneConfig) (*ToneGenerator, error) {
	if cfg.SampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	if cfg.Duration <= 0 {
		return nil, ErrInvalidDuration
	}

	n := int(math.Floor(float64(cfg.SampleRate) * cfg.Duration.Seconds()))
	if n < 1 {
		return nil, ErrInvalidDuration
	}

	return &ToneGenerator{config: cfg, numSamples: n}, nil
}

// Tone returns amplitude * sin(2*pi*frequency*t) sampled at t = i/fs for
// i in [0, floor(fs*duration)).
//
// Amplitude is used as-is. Ladder rungs above 1.0 exceed the float range of
// most output devices and will clip there.
func (g *ToneGenerator) Tone(frequency, amplitude float64) ([]float32, error) {
	if frequency <= 0 || frequency >= float64(g.config.SampleRate)/2 {
		return nil, ErrInvalidFrequency
	}
	if amplitude <= 0 || math.IsInf(amplitude, 0) || math.IsNaN(amplitude) {
		return nil, ErrInvalidAmplitude
	}

	samples := make([]float32, g.numSamples)
	step := 2 * math.Pi * frequency / float64(g.config.SampleRate)
	for i := range samples {
		samples[i] = float32(amplitude * math.Sin(step*float64(i)))
	}
	return samples, nil
}

// NumSamples returns the number of samples every tone contains.
func (g *ToneGenerator) NumSamples() int {
	return g.numSamples
}

// SampleRate returns the configured sample rate in Hz.
func (g *ToneGenerator) SampleRate() int {
	return g.config.SampleRate
}

// Config returns the current configuration (for testing and inspection)
func (g *ToneGenerator) Config() ToneConfig {
	return g.config
}
