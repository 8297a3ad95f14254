package term

import (
	"context"
	"errors"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/golang/glog"

	"github.com/peragwin/recorder/app"
	"github.com/peragwin/recorder/audio/util"
	"github.com/peragwin/recorder/waveform"
)

// Buttons is the part of the controller the terminal drives.
type Buttons interface {
	Press() error
	Reset() error
	State() app.State
	ResetEnabled() bool
	Elapsed() time.Duration
}

// Options configure a UI.
type Options struct {
	Paint *util.Paint
	// CellHeight is the number of virtual pixels per terminal row.
	CellHeight int
	// Snapshot is called when the snapshot key is pressed. May be nil.
	Snapshot func() error
}

type button struct {
	x, y, w int
}

func (b button) contains(x, y int) bool {
	return y == b.y && x >= b.x && x < b.x+b.w
}

// UI is the terminal front end.
type UI struct {
	screen  tcell.Screen
	buttons Buttons
	view    *waveform.View
	opts    Options

	surface *Surface
	record  button
	reset   button
	status  string
}

// New returns a UI drawing on an initialized screen.
func New(screen tcell.Screen, buttons Buttons, view *waveform.View, opts Options) *UI {
	if opts.Paint == nil {
		opts.Paint = util.HuePaint(util.DefaultHue, waveform.LineWidth)
	}
	if opts.CellHeight <= 0 {
		opts.CellHeight = 30
	}
	u := &UI{screen: screen, buttons: buttons, view: view, opts: opts}
	u.layout()
	return u
}

// Invalidate schedules a redraw on the UI goroutine. It is safe to call from any goroutine.
func (u *UI) Invalidate() {
	if err := u.screen.PostEvent(tcell.NewEventInterrupt(nil)); err != nil {
		glog.V(3).Infof("term: dropped redraw: %v", err)
	}
}

// Run handles events until the user quits or ctx is canceled.
func (u *UI) Run(ctx context.Context) error {
	u.screen.EnableMouse()
	u.Draw()

	go func() {
		<-ctx.Done()
		u.screen.PostEvent(tcell.NewEventInterrupt(ctx))
	}()

	for {
		ev := u.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if u.HandleEvent(ev) {
			return nil
		}
	}
}

// layout places the waveform between the timer row and the button row and resizes the
// view to match.
func (u *UI) layout() {
	w, h := u.screen.Size()
	rows := h - 3
	if rows < 1 {
		rows = 1
	}
	u.surface = NewSurface(u.screen, u.opts.Paint, 0, 1, w, rows, u.opts.CellHeight)
	u.view.SetSize(u.surface.PixelSize())

	const recordWidth, resetWidth = 10, 9
	total := recordWidth + 2 + resetWidth
	x := (w - total) / 2
	if x < 0 {
		x = 0
	}
	u.record = button{x: x, y: h - 1, w: recordWidth}
	u.reset = button{x: x + recordWidth + 2, y: h - 1, w: resetWidth}
}

// HandleEvent applies a single event and redraws. It reports whether the UI should quit.
func (u *UI) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		u.layout()
		u.screen.Sync()
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return true
		case tcell.KeyEnter:
			u.press()
		case tcell.KeyRune:
			switch ev.Rune() {
			case ' ':
				u.press()
			case 'r', 'R':
				u.doReset()
			case 's', 'S':
				u.snapshot()
			case 'q', 'Q':
				return true
			}
		}
	case *tcell.EventMouse:
		if ev.Buttons()&tcell.Button1 != 0 {
			x, y := ev.Position()
			switch {
			case u.record.contains(x, y):
				u.press()
			case u.reset.contains(x, y):
				u.doReset()
			}
		}
	}
	u.Draw()
	return false
}

func (u *UI) press() {
	if err := u.buttons.Press(); err != nil {
		glog.Errorf("term: %v", err)
		u.status = err.Error()
		return
	}
	u.status = ""
}

func (u *UI) doReset() {
	if err := u.buttons.Reset(); err != nil {
		if !errors.Is(err, app.ErrResetDisabled) {
			glog.Errorf("term: %v", err)
		}
		return
	}
	u.status = ""
}

func (u *UI) snapshot() {
	if u.opts.Snapshot == nil {
		return
	}
	if err := u.opts.Snapshot(); err != nil {
		glog.Errorf("term: %v", err)
		u.status = err.Error()
		return
	}
	u.status = "snapshot saved"
}

// RecordLabel is the record button's face for state s.
func RecordLabel(s app.State) string {
	switch s {
	case app.OnRecording, app.OnPlaying:
		return "■ STOP"
	case app.AfterRecording:
		return "▶ PLAY"
	default:
		return "● REC"
	}
}

// Draw renders the whole screen.
func (u *UI) Draw() {
	u.screen.Clear()
	w, _ := u.screen.Size()

	state := u.buttons.State()
	timer := app.FormatElapsed(u.buttons.Elapsed())
	u.text((w-len(timer))/2, 0, timer, tcell.StyleDefault.Bold(true))

	u.view.Draw(u.surface)

	recStyle := tcell.StyleDefault.Reverse(true)
	if state == app.OnRecording {
		recStyle = recStyle.Foreground(tcell.ColorRed)
	}
	u.text(u.record.x, u.record.y, pad(RecordLabel(state), u.record.w), recStyle)

	resetStyle := tcell.StyleDefault.Reverse(true)
	if !u.buttons.ResetEnabled() {
		resetStyle = tcell.StyleDefault.Dim(true)
	}
	u.text(u.reset.x, u.reset.y, pad("↺ RESET", u.reset.w), resetStyle)

	if u.status != "" {
		_, h := u.screen.Size()
		u.text(0, h-2, u.status, tcell.StyleDefault.Foreground(tcell.ColorYellow))
	}
	u.screen.Show()
}

func (u *UI) text(x, y int, s string, style tcell.Style) {
	for _, r := range s {
		u.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// pad centers s in a field of n runes.
func pad(s string, n int) string {
	r := []rune(s)
	if len(r) >= n {
		return s
	}
	left := (n - len(r)) / 2
	out := make([]rune, 0, n)
	for i := 0; i < left; i++ {
		out = append(out, ' ')
	}
	out = append(out, r...)
	for len(out) < n {
		out = append(out, ' ')
	}
	return string(out)
}
