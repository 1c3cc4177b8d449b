package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/spinweave/audio"
	"github.com/lixenwraith/spinweave/core"
	"github.com/lixenwraith/spinweave/engine"
	"github.com/lixenwraith/spinweave/event"
	"github.com/lixenwraith/spinweave/glyph"
	"github.com/lixenwraith/spinweave/motion"
	"github.com/lixenwraith/spinweave/render"
	"github.com/lixenwraith/spinweave/status"
	"github.com/lixenwraith/spinweave/trail"
)

func main() {
	word := flag.String("word", "FLOW", "letter word the demo sequence spells")
	beats := flag.Int("beats", 8, "beat count of the demo sequence")
	bpm := flag.Float64("bpm", 90, "playback tempo")
	mute := flag.Bool("mute", false, "disable metronome ticks")
	debug := flag.Bool("debug", false, "write debug log to logs/spinweave.log")
	snapshot := flag.String("snapshot", "", "render one frame to a PNG file and exit")
	flag.Parse()

	if *beats < 1 || *bpm <= 0 {
		fmt.Fprintln(os.Stderr, "beats must be >= 1 and bpm > 0")
		os.Exit(1)
	}

	logFile := setupLogging(*debug)
	if logFile != nil {
		defer logFile.Close()
	}

	if *snapshot != "" {
		if err := writeSnapshot(*snapshot, *word, *beats); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := run(*word, *beats, *bpm, *mute); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(word string, beats int, bpm float64, mute bool) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}

	// The terminal must be restored on any exit path, panics included
	defer func() {
		if r := recover(); r != nil {
			screen.Fini()
			core.HandleCrash(r)
			panic(r)
		}
		screen.Fini()
	}()

	screen.HideCursor()
	w, h := screen.Size()

	clock := engine.NewMonotonicTimeProvider()
	signals := event.NewQueue()
	metrics := status.NewRegistry()
	metronome := audio.NewMetronome()
	metronome.SetMuted(mute)

	renderer := render.NewTerminalRenderer(screen)
	eng := engine.NewEngine(engine.Deps{
		LoadRenderer: func(ctx context.Context) (render.Renderer, error) {
			return renderer, nil
		},
		Calculator: motion.NewCalculator(),
		Capturer:   trail.NewCapturer(),
		Textures:   glyph.NewGenerator(),
		Visibility: engine.NewVisibilityState(),
		Scheduler:  engine.NewTickerScheduler(clock),
		Clock:      clock,
		Signals:    signals,
		Metrics:    metrics,
		Metronome:  metronome,
	})
	defer eng.Dispose()

	if err := eng.Initialize(context.Background(), render.Size{Width: w, Height: h}); err != nil {
		return fmt.Errorf("engine init: %w", err)
	}

	seq := motion.DemoSequence(word, beats)
	beatDurationMs := 60_000.0 / bpm

	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	core.Go(func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				close(quit)
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	})

	props := engine.UpdateProps{
		Sequence:       seq,
		BeatDurationMs: beatDurationMs,
		SettingsLoaded: true,
		IsPlaying:      true,
		GridVisible:    true,
		GridMode:       "standard",
		BluePropType:   core.PropTypeStaff,
		RedPropType:    core.PropTypeStaff,
		Trail:          core.DefaultTrailSettings(),
		Visibility:     render.AllVisible(),
		CanvasSize:     render.Size{Width: w, Height: h},
	}

	start := clock.Now()
	pausedAt := 0.0
	sigScratch := make([]event.Signal, 0, 32)
	ticker := time.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()
	statusTicker := time.NewTicker(5 * time.Second)
	defer statusTicker.Stop()

	for {
		select {
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				w, h = ev.Size()
				props.CanvasSize = render.Size{Width: w, Height: h}
				eng.Resize(props.CanvasSize)
			case *tcell.EventKey:
				switch {
				case ev.Key() == tcell.KeyEscape || ev.Rune() == 'q':
					drainSignals(signals, sigScratch)
					return nil
				case ev.Rune() == ' ':
					if props.IsPlaying {
						pausedAt = props.CurrentBeat
					} else {
						start = clock.Now().Add(-time.Duration(pausedAt * beatDurationMs * float64(time.Millisecond)))
					}
					props.IsPlaying = !props.IsPlaying
				case ev.Rune() == 'g':
					props.GridVisible = !props.GridVisible
				case ev.Rune() == 't':
					props.Trail.Enabled = !props.Trail.Enabled
					props.ExternalTrailAuthority = true
				case ev.Rune() == 'm':
					mute = !mute
					metronome.SetMuted(mute)
				case ev.Rune() == 'p':
					props.BluePropType = (props.BluePropType + 1) % 4
					props.RedPropType = props.BluePropType
				}
			}
		case <-quit:
			return nil
		case <-statusTicker.C:
			logMetrics(metrics)
		case <-ticker.C:
			if props.IsPlaying {
				elapsedMs := float64(clock.Now().Sub(start)) / float64(time.Millisecond)
				total := float64(len(seq.Beats))
				beat := elapsedMs / beatDurationMs
				for beat >= total {
					beat -= total
					start = start.Add(time.Duration(total * beatDurationMs * float64(time.Millisecond)))
				}
				props.CurrentBeat = beat
				props.BeatIndex = int(beat)
			}
			eng.Update(props)
			props.ExternalTrailAuthority = false
			sigScratch = drainSignals(signals, sigScratch)
		}
	}
}

// writeSnapshot renders the first frame of the demo sequence off-screen and
// saves it as a PNG
func writeSnapshot(path, word string, beats int) error {
	ctx := context.Background()
	size := render.Size{Width: 950, Height: 950}

	renderer := render.NewImageRenderer()
	if err := renderer.Initialize(ctx, size, 1.0); err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}
	defer renderer.Destroy()

	calc := motion.NewCalculator()
	if !calc.InitializeWithDomainData(motion.DemoSequence(word, beats)) {
		return fmt.Errorf("empty demo sequence")
	}
	blue, red := calc.StateAt(0.5)

	scene := render.SceneDescriptor{
		ShowGrid:    true,
		GridVisible: true,
		ShowProps:   true,
		CanvasSize:  size,
		Scale:       1.0,
	}
	scene.Props[core.PropBlue] = &blue
	scene.Props[core.PropRed] = &red

	if err := renderer.RenderScene(&scene); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return imaging.Save(renderer.GrabFrame(), path)
}

// logMetrics writes the engine counters to the debug log
func logMetrics(metrics *status.Registry) {
	metrics.Ints.Range(func(key string, v *atomic.Int64) {
		log.Printf("metric %s=%d", key, v.Load())
	})
	metrics.Floats.Range(func(key string, v *status.AtomicFloat) {
		log.Printf("metric %s=%.1f", key, v.Load())
	})
}

// drainSignals logs pending engine signals and releases pooled payloads.
// The scratch slice is reused across ticks; the caller keeps the returned one.
func drainSignals(q *event.Queue, scratch []event.Signal) []event.Signal {
	sigs := q.ConsumeInto(scratch)
	for _, s := range sigs {
		if s.Payload != nil {
			log.Printf("signal %s: %s: %s", s.Type, s.Payload.Op, s.Payload.Err)
			event.ReleaseErrorPayload(s.Payload)
			continue
		}
		log.Printf("signal %s a=%d b=%d", s.Type, s.A, s.B)
	}
	return sigs
}
