package audio

import (
	"math"
	"sync"

	math32 "github.com/chewxy/math32"
)

// Meter tracks the peak absolute sample value of a stream between reads.
type Meter struct {
	mu   sync.Mutex
	peak float32
}

// Observe folds a frame into the current peak.
func (m *Meter) Observe(frame []float32) {
	var peak float32
	for _, s := range frame {
		if a := math32.Abs(s); a > peak {
			peak = a
		}
	}

	m.mu.Lock()
	if peak > m.peak {
		m.peak = peak
	}
	m.mu.Unlock()
}

// MaxAmplitude returns the peak since the previous call on a 16 bit scale, [0, 32767], and
// starts a new measurement window.
func (m *Meter) MaxAmplitude() int {
	m.mu.Lock()
	peak := m.peak
	m.peak = 0
	m.mu.Unlock()

	v := int(peak*math.MaxInt16 + 0.5)
	if v > math.MaxInt16 {
		v = math.MaxInt16
	}
	return v
}

// Reset discards the current measurement window.
func (m *Meter) Reset() {
	m.mu.Lock()
	m.peak = 0
	m.mu.Unlock()
}
