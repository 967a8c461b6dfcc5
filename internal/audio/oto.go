// internal/audio/oto.go
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// ErrSampleRateMismatch indicates a buffer rate differs from the oto context rate.
// oto allows one context per process, so its rate is fixed at Init.
var ErrSampleRateMismatch = errors.New("sample rate differs from audio context")

// OtoPlayer plays tones through ebitengine/oto
type OtoPlayer struct {
	config  Config
	ctx     *oto.Context
	player  *oto.Player
	playing bool
	mu      sync.Mutex
}

// NewOtoPlayer creates a new oto-backed player
func NewOtoPlayer(cfg Config) *OtoPlayer {
	return &OtoPlayer{config: cfg}
}

// Init creates the oto context and waits until the driver is ready.
func (p *OtoPlayer) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctx != nil {
		return nil
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   int(p.config.SampleRate),
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return fmt.Errorf("init audio context: %w", err)
	}
	<-ready

	p.ctx = ctx
	return nil
}

// Play queues samples on a new oto player and starts it.
func (p *OtoPlayer) Play(samples []float32, sampleRate int) error {
	if len(samples) == 0 {
		return ErrEmptyBuffer
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctx == nil {
		return ErrNotInitialized
	}
	if p.playing {
		return ErrAlreadyPlaying
	}
	if sampleRate != int(p.config.SampleRate) {
		return fmt.Errorf("%w: got %d, context %d", ErrSampleRateMismatch, sampleRate, p.config.SampleRate)
	}

	p.player = p.ctx.NewPlayer(bytes.NewReader(float32ToBytes(samples)))
	p.player.Play()
	p.playing = true

	return nil
}

// Stop pauses and discards the current player.
func (p *OtoPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.playing {
		return ErrNotPlaying
	}

	var err error
	if p.player != nil {
		p.player.Pause()
		if closeErr := p.player.Close(); closeErr != nil {
			err = fmt.Errorf("close player: %w", closeErr)
		}
		p.player = nil
	}

	p.playing = false
	return err
}

// Close stops any active player. The oto context lives until process exit.
func (p *OtoPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.player != nil {
		p.player.Pause()
		_ = p.player.Close()
		p.player = nil
	}
	p.playing = false

	if p.ctx != nil {
		if err := p.ctx.Suspend(); err != nil {
			return fmt.Errorf("suspend context: %w", err)
		}
	}
	return nil
}

// IsPlaying returns true while a player is open for the current tone
func (p *OtoPlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}
