package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/golang/glog"

	"github.com/peragwin/recorder/audio/scratch"
)

var (
	// ErrNotRecording is returned by Stop when no capture is active.
	ErrNotRecording = errors.New("audio: not recording")
	// ErrBusy is returned by Start when a capture is already active.
	ErrBusy = errors.New("audio: already recording")
)

// Recorder captures the default input device into a scratch file while metering the
// peak amplitude of the incoming audio.
type Recorder struct {
	cfg *Config

	// openSource is NewSource; tests swap it for a synthetic source.
	openSource func(context.Context, *Config) (<-chan []float32, <-chan error, error)

	meter Meter

	mu        sync.Mutex
	active    bool
	path      string
	cancel    context.CancelFunc
	finished  chan error
	watched   chan struct{}
	streamErr error
	summary   *scratch.Summary
}

// NewRecorder returns a Recorder capturing with the given stream configuration.
func NewRecorder(cfg *Config) *Recorder {
	return &Recorder{cfg: cfg, openSource: NewSource}
}

// Start opens the input device and begins capturing into path, truncating any previous
// recording there. When the device cannot be opened the previous recording is left alone.
func (r *Recorder) Start(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active {
		return ErrBusy
	}

	ctx, cancel := context.WithCancel(context.Background())
	source, errc, err := r.openSource(ctx, r.cfg)
	if err != nil {
		cancel()
		return fmt.Errorf("open capture device: %w", err)
	}

	w, err := scratch.Create(path, int(r.cfg.SampleRate), r.cfg.Channels)
	if err != nil {
		// the source goroutine exits and releases the device once ctx is done
		cancel()
		return err
	}

	outs := StreamMultiplier(ctx.Done(), source, 2)

	finished := make(chan error, 1)
	go func() {
		var werr error
		for frame := range outs[0] {
			if werr != nil {
				continue
			}
			if werr = w.Write(frame); werr != nil {
				glog.Errorf("recorder: %v", werr)
			}
		}
		if err := w.Close(); werr == nil {
			werr = err
		}
		finished <- werr
	}()

	go func() {
		for frame := range outs[1] {
			r.meter.Observe(frame)
		}
	}()

	watched := make(chan struct{})
	go func() {
		defer close(watched)
		select {
		case err := <-errc:
			if err == nil {
				return
			}
			glog.Errorf("recorder: capture stream failed: %v", err)
			r.mu.Lock()
			r.streamErr = err
			r.mu.Unlock()
			cancel()
		case <-ctx.Done():
		}
	}()

	r.meter.Reset()
	r.active = true
	r.path = path
	r.cancel = cancel
	r.finished = finished
	r.watched = watched
	r.streamErr = nil
	r.summary = nil
	glog.Infof("recorder: capturing %v Hz x %d into %s", r.cfg.SampleRate, r.cfg.Channels, path)
	return nil
}

// Stop ends the capture and waits for the scratch file to be finalized.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return ErrNotRecording
	}
	r.active = false
	cancel, finished, watched := r.cancel, r.finished, r.watched
	r.mu.Unlock()

	cancel()
	werr := <-finished
	<-watched
	r.meter.Reset()

	r.mu.Lock()
	streamErr, path := r.streamErr, r.path
	r.mu.Unlock()
	if streamErr != nil {
		return fmt.Errorf("capture failed: %w", streamErr)
	}
	if werr != nil {
		return werr
	}
	if _, err := r.Summarize(path); err != nil {
		glog.Warningf("recorder: could not summarize %s: %v", path, err)
	}
	return nil
}

// MaxAmplitude returns the peak absolute amplitude since the previous call, or 0 when
// not capturing.
func (r *Recorder) MaxAmplitude() int {
	r.mu.Lock()
	active := r.active
	r.mu.Unlock()
	if !active {
		return 0
	}
	return r.meter.MaxAmplitude()
}

// Summarize loads the recording at path, remembers its summary and returns it.
func (r *Recorder) Summarize(path string) (scratch.Summary, error) {
	rec, err := scratch.Load(path)
	if err != nil {
		return scratch.Summary{}, err
	}
	s := scratch.Summarize(rec)
	r.mu.Lock()
	r.summary = &s
	r.mu.Unlock()
	glog.Infof("recorder: %s: %v", path, s)
	return s, nil
}

// LastSummary returns the summary of the most recent finished recording, or nil.
func (r *Recorder) LastSummary() *scratch.Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.summary == nil {
		return nil
	}
	s := *r.summary
	return &s
}
