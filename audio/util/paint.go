package util

import (
	"image/color"

	"github.com/hsluv/hsluv-go"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// DefaultHue is the HSLuv hue of the default bar color, a purple.
const DefaultHue = 270.0

// Paint describes how bars are stroked.
type Paint struct {
	Width float64
	Base  colorful.Color
	Map   ColorMap
	// Graded colors bars by level through Map; otherwise every bar uses Base.
	Graded bool
}

// HuePaint returns a paint of the given width whose base color has the HSLuv hue h at a
// fixed saturation and lightness, so every hue reads equally bright.
func HuePaint(h, width float64) *Paint {
	base := mustParseHex(hsluv.HsluvToHex(h, 75, 45))
	return &Paint{
		Width:  width,
		Base:   base,
		Map:    NewBarColorMap(base),
		Graded: true,
	}
}

// ColorFor returns the stroke color of a bar at level in [0,1].
func (p *Paint) ColorFor(level float32) color.Color {
	if !p.Graded || len(p.Map) == 0 {
		return p.Base
	}
	return p.Map.At(float64(level))
}

// RGB255 returns the stroke color of a bar at level as 8 bit components.
func (p *Paint) RGB255(level float32) (r, g, b uint8) {
	if !p.Graded || len(p.Map) == 0 {
		return p.Base.RGB255()
	}
	return p.Map.At(float64(level)).RGB255()
}
