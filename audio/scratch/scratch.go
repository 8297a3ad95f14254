// Package scratch reads and writes the single scratch recording kept by the recorder.
// Recordings are stored as 16 bit PCM WAV files.
package scratch

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/golang/glog"
)

const (
	bitDepth  = 16
	pcmFormat = 1
	maxInt16  = float32(math.MaxInt16)
)

// ErrInvalidFile is returned by Load when the scratch file is not a readable WAV file.
var ErrInvalidFile = errors.New("scratch: not a valid wav file")

// Writer encodes float32 frames into a WAV file. The file is only complete once
// Close has returned.
type Writer struct {
	Path string

	fp      *os.File
	encoder *wav.Encoder
	buf     *goaudio.IntBuffer
	samples int
}

// Create truncates (or creates) the file at path and prepares it for writing.
func Create(path string, sampleRate, channels int) (*Writer, error) {
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("scratch: bad format %d Hz x %d", sampleRate, channels)
	}
	fp, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("scratch: create %s: %w", path, err)
	}
	return &Writer{
		Path:    path,
		fp:      fp,
		encoder: wav.NewEncoder(fp, sampleRate, bitDepth, channels, pcmFormat),
		buf: &goaudio.IntBuffer{
			Format: &goaudio.Format{
				SampleRate:  sampleRate,
				NumChannels: channels,
			},
			SourceBitDepth: bitDepth,
		},
	}, nil
}

// Write appends interleaved samples in [-1, 1]. Out of range samples are clipped.
func (w *Writer) Write(frame []float32) error {
	if cap(w.buf.Data) < len(frame) {
		w.buf.Data = make([]int, len(frame))
	}
	w.buf.Data = w.buf.Data[:len(frame)]
	for i, s := range frame {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		w.buf.Data[i] = int(s * maxInt16)
	}
	if err := w.encoder.Write(w.buf); err != nil {
		return fmt.Errorf("scratch: write: %w", err)
	}
	w.samples += len(frame)
	return nil
}

// Samples is the number of samples written so far.
func (w *Writer) Samples() int { return w.samples }

// Close finalizes the WAV header and closes the file. A file nothing was written to still
// gets a header, so it loads as an empty recording.
func (w *Writer) Close() error {
	var err error
	if w.samples == 0 {
		// the encoder only writes its header along with the first buffer
		w.buf.Data = w.buf.Data[:0]
		err = w.encoder.Write(w.buf)
	}
	if cerr := w.encoder.Close(); err == nil {
		err = cerr
	}
	if serr := w.fp.Sync(); err == nil {
		err = serr
	}
	if cerr := w.fp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("scratch: close %s: %w", w.Path, err)
	}
	glog.V(2).Infof("scratch: wrote %d samples to %s", w.samples, w.Path)
	return nil
}

// Recording is a decoded scratch file.
type Recording struct {
	SampleRate int
	Channels   int
	// Samples are interleaved and scaled to [-1, 1].
	Samples []float32
}

// Duration of the recording.
func (r *Recording) Duration() time.Duration {
	if r.SampleRate <= 0 || r.Channels <= 0 {
		return 0
	}
	frames := len(r.Samples) / r.Channels
	return time.Duration(frames) * time.Second / time.Duration(r.SampleRate)
}

// Load decodes the whole scratch file into memory.
func Load(path string) (*Recording, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scratch: open %s: %w", path, err)
	}
	defer fp.Close()

	// IsValidFile would reject an empty recording, so check the header by hand.
	decoder := wav.NewDecoder(fp)
	decoder.ReadInfo()
	if err := decoder.Err(); err != nil || decoder.NumChans < 1 || decoder.SampleRate == 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFile, path)
	}
	depth := int(decoder.BitDepth)
	if depth <= 0 || depth > 32 {
		return nil, fmt.Errorf("%w: bit depth %d", ErrInvalidFile, depth)
	}
	rec := &Recording{
		SampleRate: int(decoder.SampleRate),
		Channels:   int(decoder.NumChans),
	}

	if err := decoder.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFile, path, err)
	}
	if decoder.PCMLen() == 0 {
		return rec, nil
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("scratch: decode %s: %w", path, err)
	}

	scale := float32(int64(1) << uint(depth-1))
	samples := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float32(v) / scale
	}

	rec.Samples = samples
	return rec, nil
}
