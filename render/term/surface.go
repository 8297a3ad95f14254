// Package term draws the recorder in a terminal and turns keys and clicks into button
// presses.
package term

import (
	"github.com/gdamore/tcell/v2"

	"github.com/peragwin/recorder/audio/util"
	"github.com/peragwin/recorder/waveform"
)

const (
	barRune = '█'
	dotRune = '·'
)

// Surface maps the waveform's virtual pixels onto a rectangle of terminal cells. Each
// column is waveform.LineSpace pixels wide, so every bar gets a column of its own.
type Surface struct {
	screen     tcell.Screen
	paint      *util.Paint
	x, y       int
	cols, rows int
	cellHeight int
}

// NewSurface covers cols x rows cells with top left corner (x, y).
func NewSurface(screen tcell.Screen, paint *util.Paint, x, y, cols, rows, cellHeight int) *Surface {
	if cellHeight <= 0 {
		cellHeight = 1
	}
	return &Surface{
		screen: screen, paint: paint,
		x: x, y: y, cols: cols, rows: rows,
		cellHeight: cellHeight,
	}
}

// PixelSize is the size, in virtual pixels, the waveform view should draw at.
func (s *Surface) PixelSize() (int, int) {
	return s.cols * waveform.LineSpace, s.rows * s.cellHeight
}

// DrawLine fills the cells covered by l. Bars shorter than half a cell are drawn as a
// dot on the center row, like the round cap of an empty bar.
func (s *Surface) DrawLine(l waveform.Line) {
	col := int(l.X) / waveform.LineSpace
	if col < 0 || col >= s.cols {
		return
	}
	r, g, b := s.paint.RGB255(l.Level)
	style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(r), int32(g), int32(b)))

	ch := float32(s.cellHeight)
	if l.Y1-l.Y0 < ch/2 {
		row := int((l.Y0 + l.Y1) / 2 / ch)
		s.set(col, row, dotRune, style)
		return
	}
	top := int(l.Y0 / ch)
	bottom := int((l.Y1 - 1) / ch)
	for row := top; row <= bottom; row++ {
		s.set(col, row, barRune, style)
	}
}

func (s *Surface) set(col, row int, r rune, style tcell.Style) {
	if row < 0 || row >= s.rows {
		return
	}
	s.screen.SetContent(s.x+col, s.y+row, r, nil, style)
}
