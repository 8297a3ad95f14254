// Recorder records from the default microphone into a scratch file while drawing a
// scrolling bar waveform of its loudness, then plays the recording back with the same
// waveform replayed in sync.
//
// Space or Enter presses the record button, r resets, s saves a PNG of the waveform and
// q or Esc quits. With -headless there is no terminal UI and the recorder is driven
// through the GraphQL endpoint at http_addr.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/golang/glog"

	"github.com/peragwin/recorder/app"
	"github.com/peragwin/recorder/audio"
	"github.com/peragwin/recorder/audio/util"
	"github.com/peragwin/recorder/config"
	"github.com/peragwin/recorder/control"
	"github.com/peragwin/recorder/render/snapshot"
	"github.com/peragwin/recorder/render/term"
	"github.com/peragwin/recorder/waveform"
)

var (
	configPath = flag.String("config", "", "path of a config file (yaml, json or toml)")
	devices    = flag.Bool("devices", false, "list audio devices and exit")
	headless   = flag.Bool("headless", false, "run without the terminal UI; requires -http_addr")

	_ = flag.Float64("sample_rate", 44100, "capture sample rate")
	_ = flag.Int("channels", 1, "number of capture channels")
	_ = flag.Int("block_size", 512, "frames per audio buffer")
	_ = flag.String("scratch_path", "", "where the recording is kept")
	_ = flag.Float64("bar_hue", util.DefaultHue, "hue of the waveform bars in degrees")
	_ = flag.String("http_addr", "", "serve the GraphQL control API on this address")
	_ = flag.String("snapshot_path", "waveform.png", "where s saves the waveform")
	_ = flag.Int("cell_height", 30, "virtual pixels per terminal row")
)

// overrides collects the config flags set explicitly on the command line.
func overrides() map[string]interface{} {
	keys := make(map[string]bool)
	for _, k := range config.Keys {
		keys[k] = true
	}
	out := make(map[string]interface{})
	flag.Visit(func(f *flag.Flag) {
		if keys[f.Name] {
			out[f.Name] = f.Value.(flag.Getter).Get()
		}
	})
	return out
}

func main() {
	flag.Parse()
	defer glog.Flush()

	if *devices {
		if err := audio.PrintDevices(); err != nil {
			glog.Exit(err)
		}
		return
	}

	cfg, err := config.Load(*configPath, overrides())
	if err != nil {
		glog.Exit(err)
	}
	if err := run(cfg); err != nil {
		glog.Flush()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec := audio.NewRecorder(&audio.Config{
		BlockSize:  cfg.BlockSize,
		SampleRate: cfg.SampleRate,
		Channels:   cfg.Channels,
	})
	view := waveform.New()
	ctrl := app.NewController(&app.Config{
		Path:       cfg.ScratchPath,
		Capturer:   rec,
		Player:     audio.NewFilePlayer(cfg.BlockSize),
		Visualizer: view,
	})
	defer ctrl.Close()
	view.SetAmplitudeSource(ctrl.AmplitudeSource())

	var mu sync.Mutex
	prev := app.BeforeRecording
	ctrl.Subscribe(func(s app.State) {
		glog.Infof("state: %v (session %s)", s, ctrl.Session())
		mu.Lock()
		defer mu.Unlock()
		if prev == app.OnRecording && s == app.AfterRecording {
			if sum := rec.LastSummary(); sum != nil {
				glog.Infof("recorded %v", sum)
			}
		}
		prev = s
	})

	if cfg.HTTPAddr != "" {
		srv, err := control.New(ctrl, view.Amplitudes, rec.LastSummary)
		if err != nil {
			return err
		}
		hs := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Handler()}
		go func() {
			glog.Infof("control: listening on %s", cfg.HTTPAddr)
			if err := hs.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				glog.Errorf("control: %v", err)
				stop()
			}
		}()
		defer hs.Close()
	}

	paint := util.HuePaint(cfg.BarHue, waveform.LineWidth)

	if *headless {
		if cfg.HTTPAddr == "" {
			return fmt.Errorf("-headless needs http_addr to be set")
		}
		view.SetSize(640, 240)
		<-ctx.Done()
		return nil
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	ui := term.New(screen, ctrl, view, term.Options{
		Paint:      paint,
		CellHeight: cfg.CellHeight,
		Snapshot: func() error {
			if err := snapshot.Save(cfg.SnapshotPath, view, paint); err != nil {
				return err
			}
			glog.Infof("saved %s", cfg.SnapshotPath)
			return nil
		},
	})
	view.OnInvalidate(ui.Invalidate)
	ctrl.Subscribe(func(app.State) { ui.Invalidate() })

	if err := ui.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
