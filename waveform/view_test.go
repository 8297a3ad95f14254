package waveform

import (
	"sync/atomic"
	"testing"
	"time"
)

type recordingCanvas struct {
	lines []Line
}

func (c *recordingCanvas) DrawLine(l Line) { c.lines = append(c.lines, l) }

func sequence(values ...int) AmplitudeFunc {
	i := 0
	return func() int {
		v := values[i%len(values)]
		i++
		return v
	}
}

func TestTickPrependsAmplitudes(t *testing.T) {
	v := New()
	v.SetAmplitudeSource(sequence(1, 2, 3))
	for i := 0; i < 3; i++ {
		v.Tick()
	}
	got := v.Amplitudes()
	want := []int{3, 2, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatal("expected newest first", want, got)
		}
	}
}

func TestNilSourceReadsZero(t *testing.T) {
	v := New()
	v.Tick()
	if a := v.Amplitudes(); len(a) != 1 || a[0] != 0 {
		t.Fatal(a)
	}
}

func TestLinesGeometry(t *testing.T) {
	v := New()
	v.SetSize(100, 200)
	v.SetAmplitudeSource(sequence(MaxAmplitude, 0))
	v.Tick()
	v.Tick()

	lines := v.Lines()
	if len(lines) != 2 {
		t.Fatal("expected 2 lines, got", len(lines))
	}

	// newest (0) is drawn at the right edge
	if lines[0].X != 85 || lines[0].Y0 != 100 || lines[0].Y1 != 100 || lines[0].Level != 0 {
		t.Fatalf("unexpected first line %+v", lines[0])
	}
	// full amplitude fills 80% of the height, centered
	if lines[1].X != 70 || lines[1].Y0 != 20 || lines[1].Y1 != 180 || lines[1].Level != 1 {
		t.Fatalf("unexpected second line %+v", lines[1])
	}
}

func TestLinesClipLeftEdge(t *testing.T) {
	v := New()
	v.SetSize(50, 10)
	for i := 0; i < 10; i++ {
		v.Tick()
	}
	// offsets 35, 20, 5 fit; -10 does not
	if n := len(v.Lines()); n != 3 {
		t.Fatal("expected 3 visible lines, got", n)
	}
}

func TestReplayRevealsOldestFirst(t *testing.T) {
	v := New()
	v.SetSize(1000, 100)
	v.SetAmplitudeSource(sequence(100, 200, 300, 400))
	for i := 0; i < 4; i++ {
		v.Tick()
	}
	v.Stop()

	v.Start(true)
	v.Stop()
	// Stop rewinds the replay
	if p := v.ReplayPosition(); p != 0 {
		t.Fatal("expected replay position 0 after stop, got", p)
	}

	if !v.Replaying() {
		t.Fatal("expected replay mode")
	}
	if n := len(v.Lines()); n != 0 {
		t.Fatal("nothing should be revealed before the first tick, got", n)
	}
	v.Tick()
	v.Tick()
	lines := v.Lines()
	if len(lines) != 2 {
		t.Fatal("expected 2 revealed lines, got", len(lines))
	}
	// the most recent of the two revealed samples (200) is at the right edge
	if want := float32(200) / MaxAmplitude; lines[0].Level != want {
		t.Fatal("unexpected level", lines[0].Level, want)
	}
	if len(v.Amplitudes()) != 4 {
		t.Fatal("replay must not add samples")
	}

	for i := 0; i < 10; i++ {
		v.Tick()
	}
	if n := len(v.Lines()); n != 4 {
		t.Fatal("replay position is clamped to the history, got", n)
	}
}

func TestClear(t *testing.T) {
	v := New()
	var invalidated int32
	v.OnInvalidate(func() { atomic.AddInt32(&invalidated, 1) })
	v.Tick()
	v.Clear()
	if len(v.Amplitudes()) != 0 {
		t.Fatal("expected empty history")
	}
	if atomic.LoadInt32(&invalidated) != 2 {
		t.Fatal("expected two invalidations, got", invalidated)
	}
}

func TestDraw(t *testing.T) {
	v := New()
	v.SetSize(100, 100)
	v.Tick()
	v.Tick()
	c := new(recordingCanvas)
	v.Draw(c)
	if len(c.lines) != 2 {
		t.Fatal(c.lines)
	}
}

func TestPollingLoop(t *testing.T) {
	v := New()
	v.interval = time.Millisecond
	var polls int32
	v.SetAmplitudeSource(func() int {
		atomic.AddInt32(&polls, 1)
		return 10
	})

	v.Start(false)
	if !v.Running() {
		t.Fatal("expected the view to be running")
	}
	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&polls) < 6 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	v.Stop()
	if v.Running() {
		t.Fatal("expected the view to be stopped")
	}

	n := len(v.Amplitudes())
	if n < 5 {
		t.Fatal("expected at least 5 samples, got", n)
	}
	time.Sleep(10 * time.Millisecond)
	if m := len(v.Amplitudes()); m != n {
		t.Fatal("history changed after Stop", n, m)
	}
}

func TestRestartRunsSingleLoop(t *testing.T) {
	v := New()
	v.interval = time.Hour
	var polls int32
	v.SetAmplitudeSource(func() int {
		atomic.AddInt32(&polls, 1)
		return 1
	})
	v.Start(false)
	v.Start(false)
	time.Sleep(20 * time.Millisecond)
	v.Stop()
	// each Start ticks once immediately; the canceled loop must not record
	if n := len(v.Amplitudes()); n < 1 || n > 2 {
		t.Fatal("unexpected history length", n)
	}
}
