// Package snapshot exports the current waveform as a PNG image.
package snapshot

import (
	"fmt"
	"image/color"
	"io"
	"os"

	"github.com/golang/glog"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/peragwin/recorder/audio/util"
	"github.com/peragwin/recorder/waveform"
)

// Background of exported images.
var Background = color.White

// One vg point per image pixel, so view coordinates map straight onto pixels.
const dpi = 72

// canvas adapts a vgimg canvas to waveform.Canvas. vg's origin is the bottom left corner.
type canvas struct {
	c      *vgimg.Canvas
	paint  *util.Paint
	height float32
}

func (c *canvas) DrawLine(l waveform.Line) {
	c.c.SetColor(c.paint.ColorFor(l.Level))
	var p vg.Path
	p.Move(vg.Point{X: vg.Length(l.X), Y: vg.Length(c.height - l.Y0)})
	p.Line(vg.Point{X: vg.Length(l.X), Y: vg.Length(c.height - l.Y1)})
	c.c.Stroke(p)
}

// Write draws view at its current size and encodes it as PNG to w.
func Write(w io.Writer, view *waveform.View, paint *util.Paint) error {
	width, height := view.Size()
	if width <= 0 || height <= 0 {
		return fmt.Errorf("snapshot: view has no size (%dx%d)", width, height)
	}

	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(width), vg.Length(height)),
		vgimg.UseDPI(dpi),
		vgimg.UseBackgroundColor(Background),
	)
	c.SetLineWidth(vg.Length(paint.Width))
	view.Draw(&canvas{c: c, paint: paint, height: float32(height)})

	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(w); err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	return nil
}

// Save writes a snapshot of view to path.
func Save(path string, view *waveform.View, paint *util.Paint) error {
	fp, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := Write(fp, view, paint); err != nil {
		fp.Close()
		return err
	}
	if err := fp.Close(); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	glog.Infof("snapshot: saved %s", path)
	return nil
}
