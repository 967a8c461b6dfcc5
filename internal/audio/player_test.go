package audio

import (
	"errors"
	"math"
	"sync"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Backend != BackendMalgo {
		t.Errorf("DefaultConfig().Backend = %q, want %q", cfg.Backend, BackendMalgo)
	}
	if cfg.DeviceIndex != -1 {
		t.Errorf("DefaultConfig().DeviceIndex = %d, want -1", cfg.DeviceIndex)
	}
	if cfg.SampleRate != 44100 {
		t.Errorf("DefaultConfig().SampleRate = %d, want 44100", cfg.SampleRate)
	}
}

func TestNew_Backends(t *testing.T) {
	tests := []struct {
		backend string
		check   func(Player) bool
	}{
		{BackendMalgo, func(p Player) bool { _, ok := p.(*MalgoPlayer); return ok }},
		{"", func(p Player) bool { _, ok := p.(*MalgoPlayer); return ok }},
		{BackendOto, func(p Player) bool { _, ok := p.(*OtoPlayer); return ok }},
		{BackendSilent, func(p Player) bool { _, ok := p.(*SilentPlayer); return ok }},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Backend = tt.backend
			p, err := New(cfg)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if !tt.check(p) {
				t.Errorf("New(%q) returned %T", tt.backend, p)
			}
		})
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = "pulse"

	_, err := New(cfg)
	if !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("New() error = %v, want ErrUnknownBackend", err)
	}
}

func TestMalgoPlayer_InitialState(t *testing.T) {
	p := NewMalgoPlayer(DefaultConfig())

	if p.IsPlaying() {
		t.Error("IsPlaying() = true for new player, want false")
	}
	if _, err := p.ListDevices(); err != ErrNotInitialized {
		t.Errorf("ListDevices() error = %v, want ErrNotInitialized", err)
	}
	if err := p.Play([]float32{0.1}, 44100); err != ErrNotInitialized {
		t.Errorf("Play() error = %v, want ErrNotInitialized", err)
	}
	if err := p.Stop(); err != ErrNotPlaying {
		t.Errorf("Stop() error = %v, want ErrNotPlaying", err)
	}
}

func TestMalgoPlayer_Play_EmptyBuffer(t *testing.T) {
	p := NewMalgoPlayer(DefaultConfig())

	if err := p.Play(nil, 44100); err != ErrEmptyBuffer {
		t.Errorf("Play(nil) error = %v, want ErrEmptyBuffer", err)
	}
}

func TestMalgoPlayer_Close_NotInitialized(t *testing.T) {
	p := NewMalgoPlayer(DefaultConfig())

	if err := p.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
}

func TestOtoPlayer_InitialState(t *testing.T) {
	p := NewOtoPlayer(DefaultConfig())

	if p.IsPlaying() {
		t.Error("IsPlaying() = true for new player, want false")
	}
	if err := p.Play([]float32{0.1}, 44100); err != ErrNotInitialized {
		t.Errorf("Play() error = %v, want ErrNotInitialized", err)
	}
	if err := p.Stop(); err != ErrNotPlaying {
		t.Errorf("Stop() error = %v, want ErrNotPlaying", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
}

func TestSilentPlayer_Lifecycle(t *testing.T) {
	p := NewSilentPlayer()

	if err := p.Play([]float32{1}, 44100); err != ErrNotInitialized {
		t.Fatalf("Play() before Init error = %v, want ErrNotInitialized", err)
	}
	if err := p.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := p.Play(nil, 44100); err != ErrEmptyBuffer {
		t.Errorf("Play(nil) error = %v, want ErrEmptyBuffer", err)
	}
	if err := p.Play([]float32{1}, 44100); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if !p.IsPlaying() {
		t.Error("IsPlaying() = false after Play()")
	}
	if err := p.Play([]float32{1}, 44100); err != ErrAlreadyPlaying {
		t.Errorf("second Play() error = %v, want ErrAlreadyPlaying", err)
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := p.Stop(); err != ErrNotPlaying {
		t.Errorf("second Stop() error = %v, want ErrNotPlaying", err)
	}
	if p.Played() != 1 {
		t.Errorf("Played() = %d, want 1", p.Played())
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestFloat32ToBytes(t *testing.T) {
	// 0.0 = 0x00000000, 1.0 = 0x3F800000, -1.0 = 0xBF800000
	got := float32ToBytes([]float32{0, 1, -1})
	want := []byte{
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x80, 0x3F,
		0x00, 0x00, 0x80, 0xBF,
	}

	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("byte %d = %#x, want %#x", i, got[i], want[i])
		}
	}
}

func TestFloat32ToBytes_Empty(t *testing.T) {
	if got := float32ToBytes(nil); len(got) != 0 {
		t.Errorf("float32ToBytes(nil) length = %d, want 0", len(got))
	}
}

func TestPutFloat32s_Truncates(t *testing.T) {
	dst := make([]byte, 6) // room for one sample plus two stray bytes

	n := putFloat32s(dst, []float32{1, 2, 3})
	if n != 1 {
		t.Errorf("putFloat32s() = %d, want 1", n)
	}
}

func TestPutFloat32s_SpecialValues(t *testing.T) {
	src := []float32{float32(math.Inf(1)), float32(math.Inf(-1)), 10}
	dst := make([]byte, 12)

	putFloat32s(dst, src)

	for i, v := range src {
		bits := uint32(dst[i*4]) | uint32(dst[i*4+1])<<8 | uint32(dst[i*4+2])<<16 | uint32(dst[i*4+3])<<24
		if math.Float32frombits(bits) != v {
			t.Errorf("sample %d round-trip = %v, want %v", i, math.Float32frombits(bits), v)
		}
	}
}

func TestToneStream_FillThenSilence(t *testing.T) {
	s := newToneStream([]float32{0.5, -0.5, 0.25})

	first := make([]byte, 8)
	s.fill(first)
	if s.done() {
		t.Fatal("done() = true after partial fill")
	}

	second := make([]byte, 12)
	for i := range second {
		second[i] = 0xFF
	}
	s.fill(second)

	if !s.done() {
		t.Error("done() = false after buffer drained")
	}
	bits := uint32(second[0]) | uint32(second[1])<<8 | uint32(second[2])<<16 | uint32(second[3])<<24
	if math.Float32frombits(bits) != 0.25 {
		t.Errorf("first sample of second fill = %v, want 0.25", math.Float32frombits(bits))
	}
	for i := 4; i < len(second); i++ {
		if second[i] != 0 {
			t.Fatalf("byte %d after buffer end = %#x, want 0", i, second[i])
		}
	}
}

func TestToneStream_ConcurrentFill(t *testing.T) {
	samples := make([]float32, 4096)
	s := newToneStream(samples)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf := make([]byte, 512)
			for j := 0; j < 16; j++ {
				s.fill(buf)
			}
		}()
	}
	wg.Wait()

	if !s.done() {
		t.Error("done() = false after concurrent drain")
	}
}

func TestErrors(t *testing.T) {
	errs := []error{ErrNotInitialized, ErrAlreadyPlaying, ErrNotPlaying, ErrEmptyBuffer, ErrUnknownBackend, ErrSampleRateMismatch}
	for _, err := range errs {
		if err.Error() == "" {
			t.Errorf("%v has empty message", err)
		}
	}
}
