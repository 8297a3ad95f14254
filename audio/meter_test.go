package audio

import "testing"

func TestMeter(t *testing.T) {
	var m Meter
	if a := m.MaxAmplitude(); a != 0 {
		t.Fatal("expected 0 from an empty meter, got", a)
	}

	m.Observe([]float32{0.1, -0.5, 0.25})
	m.Observe([]float32{0.2})
	if a := m.MaxAmplitude(); a != 16384 {
		t.Fatal("expected 16384, got", a)
	}
	if a := m.MaxAmplitude(); a != 0 {
		t.Fatal("reading should start a new window, got", a)
	}

	m.Observe([]float32{1.5})
	if a := m.MaxAmplitude(); a != 32767 {
		t.Fatal("expected clipping at 32767, got", a)
	}

	m.Observe([]float32{-1})
	m.Reset()
	if a := m.MaxAmplitude(); a != 0 {
		t.Fatal("expected 0 after reset, got", a)
	}
}
