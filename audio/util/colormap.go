package util

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

// ColorMap is a gradient given by keypoints sorted by Pos, each Pos in [0,1].
type ColorMap []struct {
	Col colorful.Color
	Pos float64
}

// At returns the HCL blend of the two keypoints around t. Values past either end take the
// color of the nearest keypoint.
func (g ColorMap) At(t float64) colorful.Color {
	if len(g) == 0 {
		return colorful.Color{}
	}
	if t <= g[0].Pos {
		return g[0].Col
	}
	for i := 0; i < len(g)-1; i++ {
		c1 := g[i]
		c2 := g[i+1]
		if c1.Pos <= t && t <= c2.Pos {
			if c2.Pos == c1.Pos {
				return c2.Col
			}
			t := (t - c1.Pos) / (c2.Pos - c1.Pos)
			return c1.Col.BlendHcl(c2.Col, t).Clamped()
		}
	}
	return g[len(g)-1].Col
}

func mustParseHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic("MustParseHex: " + err.Error())
	}
	return c
}

// NewBarColorMap fades from a dim version of base for quiet bars to base itself, and
// towards white for bars near full scale.
func NewBarColorMap(base colorful.Color) ColorMap {
	h, c, l := base.Hcl()
	quiet := colorful.Hcl(h, c*0.6, l*0.7).Clamped()
	return ColorMap{
		{quiet, 0.0},
		{base, 0.6},
		{base.BlendHcl(mustParseHex("#ffffff"), 0.5).Clamped(), 1.0},
	}
}
