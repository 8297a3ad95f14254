package audio

import (
	"context"
	"fmt"

	"github.com/golang/glog"
	"github.com/gordonklaus/portaudio"
)

// Config represents a config that is used to open a new Stream.
type Config struct {
	// BlockSize refers to the number of frames in each block
	BlockSize int
	// Channels is the number of channels
	Channels int
	// SampleRate is the sample rate (Fs).
	SampleRate float64
}

func (c *Config) samplesPerBlock() int {
	return c.BlockSize * c.Channels
}

// NewSource initializes portaudio and opens and starts the default input stream before
// returning, so a missing or busy device is reported by the returned error. Frames are then
// delivered on the first channel, every frame a fresh slice of interleaved samples. The frame
// channel is closed when ctx is done or the stream fails; a read failure is sent on the
// error channel.
func NewSource(ctx context.Context, cfg *Config) (<-chan []float32, <-chan error, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, nil, fmt.Errorf("error initializing portaudio: %w", err)
	}

	in := make([]float32, cfg.samplesPerBlock())
	stream, err := portaudio.OpenDefaultStream(
		cfg.Channels, 0, cfg.SampleRate, cfg.BlockSize, in)
	if err != nil {
		portaudio.Terminate()
		return nil, nil, fmt.Errorf("error opening input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, nil, fmt.Errorf("error starting input stream: %w", err)
	}

	out := make(chan []float32)
	errc := make(chan error, 1)
	done := ctx.Done()

	go func() {
		defer close(out)
		defer portaudio.Terminate()
		defer stream.Close()
		defer stream.Stop()

		for {
			select {
			case <-done:
				return
			default:
			}

			if err := stream.Read(); err != nil {
				if err == portaudio.InputOverflowed {
					glog.V(2).Info("input overflowed, samples were lost")
				} else {
					errc <- fmt.Errorf("error reading from stream: %w", err)
					return
				}
			}

			frame := make([]float32, len(in))
			copy(frame, in)
			select {
			case out <- frame:
			case <-done:
				return
			}
		}
	}()

	return out, errc, nil
}

// NewSink opens and starts the default output device before returning, then plays every
// frame received on in. The returned channel carries at most one error and is closed once
// playback has finished: either in was closed and the queued audio drained, or ctx was
// canceled.
func NewSink(ctx context.Context, cfg *Config, in <-chan []float32) (<-chan error, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("error initializing portaudio: %w", err)
	}

	out := make([]float32, cfg.samplesPerBlock())
	stream, err := portaudio.OpenDefaultStream(
		0, cfg.Channels, cfg.SampleRate, cfg.BlockSize, out)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("error opening output stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("error starting output stream: %w", err)
	}

	errc := make(chan error, 1)
	done := ctx.Done()

	go func() {
		defer close(errc)
		defer portaudio.Terminate()
		defer stream.Close()

		for {
			select {
			case <-done:
				stream.Abort()
				return
			case frame, ok := <-in:
				if !ok {
					// Stop blocks until the queued buffers have been played.
					if err := stream.Stop(); err != nil {
						errc <- fmt.Errorf("error stopping output stream: %w", err)
					}
					return
				}
				n := copy(out, frame)
				for i := n; i < len(out); i++ {
					out[i] = 0
				}
				if err := stream.Write(); err != nil {
					if err == portaudio.OutputUnderflowed {
						glog.V(2).Info("output underflowed")
						continue
					}
					stream.Abort()
					errc <- fmt.Errorf("error writing to stream: %w", err)
					return
				}
			}
		}
	}()

	return errc, nil
}
