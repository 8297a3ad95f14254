package scratch

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
)

// Summary describes a finished recording.
type Summary struct {
	Duration time.Duration
	Peak     float64
	RMS      float64
}

func (s Summary) String() string {
	return fmt.Sprintf("%v peak=%.3f rms=%.3f", s.Duration.Round(time.Millisecond), s.Peak, s.RMS)
}

// Summarize computes the duration, peak and RMS level of a recording.
func Summarize(r *Recording) Summary {
	sum := Summary{Duration: r.Duration()}
	if len(r.Samples) == 0 {
		return sum
	}
	x := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		x[i] = float64(s)
	}
	sum.Peak = math.Max(floats.Max(x), -floats.Min(x))
	sum.RMS = math.Sqrt(floats.Dot(x, x) / float64(len(x)))
	return sum
}
