// internal/audio/pcm.go
package audio

import (
	"encoding/binary"
	"math"
	"sync"
)

// float32ToBytes encodes samples as little-endian IEEE 754 float32.
func float32ToBytes(samples []float32) []byte {
	out := make([]byte, len(samples)*4)
	putFloat32s(out, samples)
	return out
}

// putFloat32s writes as many samples as fit in dst and returns how many it wrote.
func putFloat32s(dst []byte, src []float32) int {
	n := len(dst) / 4
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(src[i]))
	}
	return n
}

// toneStream feeds a fixed buffer to a device callback, then silence.
type toneStream struct {
	mu      sync.Mutex
	samples []float32
	pos     int
}

func newToneStream(samples []float32) *toneStream {
	return &toneStream{samples: samples}
}

// fill writes the next frames into out (mono float32) and zeroes the remainder.
func (s *toneStream) fill(out []byte) {
	s.mu.Lock()
	written := putFloat32s(out, s.samples[s.pos:])
	s.pos += written
	s.mu.Unlock()

	clear(out[written*4:])
}

// done reports whether every sample has been handed to the device.
func (s *toneStream) done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos >= len(s.samples)
}
