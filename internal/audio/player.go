// internal/audio/player.go
package audio

import (
	"errors"
	"fmt"
)

var (
	ErrNotInitialized = errors.New("audio output not initialized")
	ErrAlreadyPlaying = errors.New("audio output already playing")
	ErrNotPlaying     = errors.New("audio output not playing")
	ErrEmptyBuffer    = errors.New("audio buffer is empty")
	ErrUnknownBackend = errors.New("unknown audio backend")
)

// Backend names accepted in the config file (audio_backend).
const (
	BackendMalgo  = "malgo"
	BackendOto    = "oto"
	BackendSilent = "silent"
)

// Backends lists every supported backend name.
var Backends = []string{BackendMalgo, BackendOto, BackendSilent}

// Config holds audio output configuration
type Config struct {
	Backend     string // malgo, oto or silent
	DeviceIndex int    // -1 for default device (malgo only)
	SampleRate  uint32 // e.g., 44100
}

// DefaultConfig returns the reference playback settings.
func DefaultConfig() Config {
	return Config{
		Backend:     BackendMalgo,
		DeviceIndex: -1,
		SampleRate:  44100,
	}
}

// Player plays one mono float32 buffer at a time.
//
// Play returns as soon as the device is running; the buffer drains in the
// background and the device outputs silence once it is exhausted. Stop
// silences the device immediately. A second Play before Stop fails with
// ErrAlreadyPlaying.
type Player interface {
	Init() error
	Play(samples []float32, sampleRate int) error
	Stop() error
	Close() error
	IsPlaying() bool
}

// New returns an uninitialized player for cfg.Backend.
func New(cfg Config) (Player, error) {
	switch cfg.Backend {
	case BackendMalgo, "":
		return NewMalgoPlayer(cfg), nil
	case BackendOto:
		return NewOtoPlayer(cfg), nil
	case BackendSilent:
		return NewSilentPlayer(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
