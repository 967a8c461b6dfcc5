// internal/audio/silent.go
package audio

import "sync"

// SilentPlayer keeps the Player state machine without touching a device.
// Useful for dry runs and for machines with no audio output.
type SilentPlayer struct {
	mu          sync.Mutex
	initialized bool
	playing     bool
	played      int
}

// NewSilentPlayer creates a player that never produces sound.
func NewSilentPlayer() *SilentPlayer {
	return &SilentPlayer{}
}

func (p *SilentPlayer) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.initialized = true
	return nil
}

func (p *SilentPlayer) Play(samples []float32, sampleRate int) error {
	if len(samples) == 0 {
		return ErrEmptyBuffer
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return ErrNotInitialized
	}
	if p.playing {
		return ErrAlreadyPlaying
	}
	p.playing = true
	p.played++
	return nil
}

func (p *SilentPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.playing {
		return ErrNotPlaying
	}
	p.playing = false
	return nil
}

func (p *SilentPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
	p.initialized = false
	return nil
}

func (p *SilentPlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Played returns how many buffers have been started.
func (p *SilentPlayer) Played() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.played
}
