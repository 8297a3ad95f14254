// Package waveform renders a scrolling bar history of audio amplitude.
//
// A View polls an amplitude source every Interval while recording and keeps every sample,
// newest first. Bars are laid out from the right edge towards the left, LineSpace apart,
// and centered vertically. When replaying, no new samples are taken; instead the history
// is revealed from the oldest sample onward, one bar per tick.
package waveform

import (
	"context"
	"sync"
	"time"

	math32 "github.com/chewxy/math32"
	"github.com/golang/glog"
)

const (
	// LineWidth is the stroke width of a bar.
	LineWidth = 10
	// LineSpace is the horizontal distance between bars.
	LineSpace = 15
	// MaxAmplitude is the amplitude that maps to a full height bar.
	MaxAmplitude = 32767
	// Interval between two polls of the amplitude source.
	Interval = 20 * time.Millisecond

	fillRatio = 0.8
)

// AmplitudeFunc reports the current amplitude, in [0, MaxAmplitude].
type AmplitudeFunc func() int

// Line is a single vertical bar at X spanning Y0 to Y1. Level is the bar's amplitude
// relative to MaxAmplitude.
type Line struct {
	X, Y0, Y1 float32
	Level     float32
}

// Canvas is a surface bars can be drawn on.
type Canvas interface {
	DrawLine(Line)
}

// View holds the amplitude history and drives the polling loop.
type View struct {
	mu sync.Mutex

	width  int
	height int

	amplitudes     []int
	replaying      bool
	replayPosition int

	source     AmplitudeFunc
	invalidate func()
	interval   time.Duration

	cancel context.CancelFunc
	ctx    context.Context
}

// New returns an empty View.
func New() *View {
	return &View{interval: Interval}
}

// SetSize updates the drawing area.
func (v *View) SetSize(w, h int) {
	v.mu.Lock()
	v.width, v.height = w, h
	v.mu.Unlock()
}

// Size returns the drawing area.
func (v *View) Size() (int, int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.width, v.height
}

// SetAmplitudeSource sets the function polled while recording. A nil source reads as 0.
func (v *View) SetAmplitudeSource(f AmplitudeFunc) {
	v.mu.Lock()
	v.source = f
	v.mu.Unlock()
}

// OnInvalidate registers f to be called whenever the view needs to be redrawn. f is called
// without any View lock held, possibly from the polling goroutine.
func (v *View) OnInvalidate(f func()) {
	v.mu.Lock()
	v.invalidate = f
	v.mu.Unlock()
}

// Start begins polling. With replaying set the existing history is played back instead of
// being extended. Starting a running view restarts its loop.
func (v *View) Start(replaying bool) {
	v.mu.Lock()
	if v.cancel != nil {
		v.cancel()
	}
	v.replaying = replaying
	ctx, cancel := context.WithCancel(context.Background())
	v.ctx, v.cancel = ctx, cancel
	interval := v.interval
	v.mu.Unlock()

	glog.V(2).Infof("waveform: start visualizing (replaying=%v)", replaying)
	go v.loop(ctx, interval)
}

// Stop ends polling and rewinds the replay position.
func (v *View) Stop() {
	v.mu.Lock()
	v.replayPosition = 0
	if v.cancel != nil {
		v.cancel()
		v.cancel, v.ctx = nil, nil
	}
	v.mu.Unlock()
}

// Running reports whether the polling loop is active.
func (v *View) Running() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cancel != nil
}

// Replaying reports the mode of the last Start.
func (v *View) Replaying() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.replaying
}

// Clear drops the whole history.
func (v *View) Clear() {
	v.mu.Lock()
	v.amplitudes = nil
	inv := v.invalidate
	v.mu.Unlock()

	if inv != nil {
		inv()
	}
}

// Tick runs a single step of the polling loop.
func (v *View) Tick() {
	v.step(nil)
}

func (v *View) loop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if !v.step(ctx) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// step polls or advances the replay, then invalidates. With a non-nil ctx the step is
// dropped once ctx is no longer the view's current loop.
func (v *View) step(ctx context.Context) bool {
	v.mu.Lock()
	replaying, source := v.replaying, v.source
	v.mu.Unlock()

	// The source is called unlocked: it usually takes locks of its own.
	amplitude := 0
	if !replaying && source != nil {
		amplitude = source()
	}

	v.mu.Lock()
	if ctx != nil && (ctx.Err() != nil || v.ctx != ctx) {
		v.mu.Unlock()
		return false
	}
	if v.replaying {
		v.replayPosition++
	} else {
		v.amplitudes = append(v.amplitudes, 0)
		copy(v.amplitudes[1:], v.amplitudes)
		v.amplitudes[0] = amplitude
	}
	inv := v.invalidate
	v.mu.Unlock()

	if glog.V(3) {
		glog.Infof("waveform: amplitude=%d replaying=%v", amplitude, replaying)
	}
	if inv != nil {
		inv()
	}
	return true
}

// Amplitudes returns a copy of the history, newest first.
func (v *View) Amplitudes() []int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]int(nil), v.amplitudes...)
}

// ReplayPosition is the number of history entries revealed so far while replaying.
func (v *View) ReplayPosition() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.replayPosition
}

// Lines computes the bars for the current state, right to left.
func (v *View) Lines() []Line {
	v.mu.Lock()
	defer v.mu.Unlock()

	amplitudes := v.amplitudes
	if v.replaying {
		pos := v.replayPosition
		if pos > len(amplitudes) {
			pos = len(amplitudes)
		}
		amplitudes = amplitudes[len(amplitudes)-pos:]
	}

	height := float32(v.height)
	centerY := height / 2
	offsetX := float32(v.width)

	lines := make([]Line, 0, len(amplitudes))
	for _, amplitude := range amplitudes {
		level := float32(amplitude) / MaxAmplitude
		length := level * height * fillRatio

		offsetX -= LineSpace
		// everything further left is off screen
		if offsetX < 0 {
			break
		}

		lines = append(lines, Line{
			X:     offsetX,
			Y0:    centerY - length/2,
			Y1:    centerY + length/2,
			Level: math32.Min(1, math32.Abs(level)),
		})
	}
	return lines
}

// Draw paints the current bars onto c.
func (v *View) Draw(c Canvas) {
	for _, l := range v.Lines() {
		c.DrawLine(l)
	}
}
