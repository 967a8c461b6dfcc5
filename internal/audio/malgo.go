// internal/audio/malgo.go
package audio

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

// DeviceInfo describes one playback device as shown by `audiogram devices`.
type DeviceInfo struct {
	Index     int
	Name      string
	IsDefault bool
}

// MalgoPlayer plays tones through miniaudio
type MalgoPlayer struct {
	config  Config
	ctx     *malgo.AllocatedContext
	device  *malgo.Device
	stream  *toneStream
	playing bool
	mu      sync.Mutex
}

// NewMalgoPlayer creates a new miniaudio-backed player
func NewMalgoPlayer(cfg Config) *MalgoPlayer {
	return &MalgoPlayer{config: cfg}
}

// Init initializes the audio backend
func (p *MalgoPlayer) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctx != nil {
		return nil
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("init audio context: %w", err)
	}
	p.ctx = ctx

	return nil
}

// ListDevices returns available playback devices
func (p *MalgoPlayer) ListDevices() ([]DeviceInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctx == nil {
		return nil, ErrNotInitialized
	}

	infos, err := p.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}

	out := make([]DeviceInfo, len(infos))
	for i, info := range infos {
		out[i] = DeviceInfo{Index: i, Name: info.Name(), IsDefault: info.IsDefault != 0}
	}
	return out, nil
}

// Play starts a device that drains samples and then outputs silence.
// It returns without waiting for the buffer to finish.
func (p *MalgoPlayer) Play(samples []float32, sampleRate int) error {
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

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = 1

	// Select specific device if requested
	if p.config.DeviceIndex >= 0 {
		infos, err := p.ctx.Devices(malgo.Playback)
		if err != nil {
			return fmt.Errorf("enumerate devices: %w", err)
		}
		if p.config.DeviceIndex >= len(infos) {
			return fmt.Errorf("device index %d out of range (have %d devices)",
				p.config.DeviceIndex, len(infos))
		}
		deviceConfig.Playback.DeviceID = infos[p.config.DeviceIndex].ID.Pointer()
	}

	stream := newToneStream(samples)
	onSendFrames := func(outputSamples, inputSamples []byte, frameCount uint32) {
		if stream.done() {
			clear(outputSamples)
			return
		}
		stream.fill(outputSamples)
	}

	device, err := malgo.InitDevice(p.ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onSendFrames,
	})
	if err != nil {
		return fmt.Errorf("init device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("start device: %w", err)
	}

	p.device = device
	p.stream = stream
	p.playing = true

	return nil
}

// Stop silences and releases the playback device
func (p *MalgoPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.playing {
		return ErrNotPlaying
	}

	var err error
	if p.device != nil {
		if stopErr := p.device.Stop(); stopErr != nil {
			err = fmt.Errorf("stop device: %w", stopErr)
		}
		p.device.Uninit()
		p.device = nil
	}

	p.stream = nil
	p.playing = false
	return err
}

// Close releases all audio resources
func (p *MalgoPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.playing && p.device != nil {
		_ = p.device.Stop()
		p.device.Uninit()
		p.device = nil
		p.stream = nil
		p.playing = false
	}

	if p.ctx != nil {
		if err := p.ctx.Uninit(); err != nil {
			return fmt.Errorf("uninit context: %w", err)
		}
		p.ctx.Free()
		p.ctx = nil
	}

	return nil
}

// IsPlaying returns true while a device is open for the current tone
func (p *MalgoPlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// ListDevices opens a temporary miniaudio context and enumerates playback devices.
func ListDevices() ([]DeviceInfo, error) {
	p := NewMalgoPlayer(DefaultConfig())
	if err := p.Init(); err != nil {
		return nil, err
	}
	defer p.Close()

	return p.ListDevices()
}
