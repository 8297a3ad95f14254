// Package app coordinates recording and playback of a single scratch recording.
//
// The Controller walks a four state lifecycle driven by two buttons. The record button
// (Press) starts recording, stops it, plays the result back and stops playback, depending
// on the current state. The reset button (Reset) discards the visualization and returns
// to the idle state; it is only enabled once something has been recorded.
package app

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
)

// ErrResetDisabled is returned by Reset while the reset button is disabled.
var ErrResetDisabled = errors.New("app: reset is disabled while idle or recording")

// Capturer records the microphone into a file.
type Capturer interface {
	Start(path string) error
	Stop() error
	// MaxAmplitude is the peak absolute sample since the previous call, on a 16 bit scale.
	MaxAmplitude() int
}

// Player plays a recorded file. onComplete is called once the file has played to its end,
// from any goroutine, possibly before Start has returned.
type Player interface {
	Start(path string, onComplete func()) error
	Stop() error
}

// Visualizer animates the waveform.
type Visualizer interface {
	Start(replaying bool)
	Stop()
	Clear()
}

// Config is used to create a Controller.
type Config struct {
	// Path of the scratch recording.
	Path       string
	Capturer   Capturer
	Player     Player
	Visualizer Visualizer
	// Clock drives the count-up timer; nil means time.Now.
	Clock func() time.Time
}

// Controller owns the recorder lifecycle.
type Controller struct {
	path       string
	capturer   Capturer
	player     Player
	visualizer Visualizer
	count      *CountUp

	recording atomic.Bool
	starting  atomic.Int64

	mu        sync.Mutex
	state     State
	playing   bool
	playGen   int
	session   uuid.UUID
	listeners []func(State)
}

// NewController returns a Controller in the BeforeRecording state.
func NewController(cfg *Config) *Controller {
	return &Controller{
		path:       cfg.Path,
		capturer:   cfg.Capturer,
		player:     cfg.Player,
		visualizer: cfg.Visualizer,
		count:      NewCountUp(cfg.Clock),
		state:      BeforeRecording,
	}
}

// Subscribe registers f to be told about every state change. f is immediately called with
// the current state. Listeners run without the controller lock held.
func (c *Controller) Subscribe(f func(State)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, f)
	s := c.state
	c.mu.Unlock()
	f(s)
}

// AmplitudeSource returns the function the visualizer polls: the capturer's amplitude
// while recording and 0 otherwise.
func (c *Controller) AmplitudeSource() func() int {
	return func() int {
		if !c.recording.Load() {
			return 0
		}
		return c.capturer.MaxAmplitude()
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ResetEnabled reports whether Reset may be called.
func (c *Controller) ResetEnabled() bool {
	return c.State().ResetEnabled()
}

// Elapsed is the value of the count-up timer.
func (c *Controller) Elapsed() time.Duration {
	return c.count.Elapsed()
}

// Session identifies the current recording. It is empty until the first recording starts.
func (c *Controller) Session() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == uuid.Nil {
		return ""
	}
	return c.session.String()
}

// Press is the record button.
func (c *Controller) Press() error {
	c.mu.Lock()
	var err error
	switch c.state {
	case BeforeRecording:
		err = c.startRecording()
	case OnRecording:
		c.stopRecording()
	case AfterRecording:
		err = c.startPlaying()
	case OnPlaying:
		c.stopPlaying()
	}
	s := c.state
	c.mu.Unlock()

	if err != nil {
		return err
	}
	c.publish(s)
	return nil
}

// Reset is the reset button.
func (c *Controller) Reset() error {
	c.mu.Lock()
	if !c.state.ResetEnabled() {
		c.mu.Unlock()
		return ErrResetDisabled
	}
	c.stopPlaying()
	c.visualizer.Clear()
	c.count.Clear()
	c.state = BeforeRecording
	c.mu.Unlock()

	glog.V(1).Info("recording discarded")
	c.publish(BeforeRecording)
	return nil
}

// Close releases the capture and playback devices.
func (c *Controller) Close() {
	c.mu.Lock()
	prev := c.state
	switch prev {
	case OnRecording:
		c.stopRecording()
	case OnPlaying:
		c.stopPlaying()
	}
	c.visualizer.Stop()
	s := c.state
	c.mu.Unlock()

	if s != prev {
		c.publish(s)
	}
}

func (c *Controller) startRecording() error {
	if err := c.capturer.Start(c.path); err != nil {
		return fmt.Errorf("start recording: %w", err)
	}
	c.session = uuid.New()
	c.recording.Store(true)
	c.visualizer.Start(false)
	c.count.Start()
	c.state = OnRecording
	glog.Infof("recording session %s into %s", c.session, c.path)
	return nil
}

func (c *Controller) stopRecording() {
	c.recording.Store(false)
	if err := c.capturer.Stop(); err != nil {
		glog.Errorf("stop recording: %v", err)
	}
	c.visualizer.Stop()
	c.count.Stop()
	c.state = AfterRecording
	glog.Infof("recording session %s stopped after %s", c.session, c.count)
}

func (c *Controller) startPlaying() error {
	c.playGen++
	gen := c.playGen
	// A player may report completion from inside Start, while c.mu is held.
	c.starting.Store(int64(gen))
	err := c.player.Start(c.path, func() {
		if c.starting.Load() == int64(gen) {
			go c.complete(gen)
			return
		}
		c.complete(gen)
	})
	c.starting.Store(0)
	if err != nil {
		return fmt.Errorf("start playing: %w", err)
	}
	c.playing = true
	c.visualizer.Start(true)
	c.count.Start()
	c.state = OnPlaying
	glog.V(1).Infof("playing %s", c.path)
	return nil
}

// stopPlaying is safe to call when nothing is playing.
func (c *Controller) stopPlaying() {
	c.playGen++
	if c.playing {
		if err := c.player.Stop(); err != nil {
			glog.Errorf("stop playing: %v", err)
		}
		c.playing = false
	}
	c.visualizer.Stop()
	c.count.Stop()
	c.state = AfterRecording
}

// complete handles the end of playback generation gen.
func (c *Controller) complete(gen int) {
	c.mu.Lock()
	if gen != c.playGen || c.state != OnPlaying {
		c.mu.Unlock()
		glog.V(2).Infof("ignoring stale playback completion %d", gen)
		return
	}
	c.stopPlaying()
	s := c.state
	c.mu.Unlock()

	glog.V(1).Info("playback finished")
	c.publish(s)
}

func (c *Controller) publish(s State) {
	c.mu.Lock()
	listeners := append([]func(State){}, c.listeners...)
	c.mu.Unlock()
	for _, f := range listeners {
		f(s)
	}
}
