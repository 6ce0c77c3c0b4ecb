package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/iburimskiy/signal-network/internal/config"
	"github.com/iburimskiy/signal-network/internal/game"
	"github.com/iburimskiy/signal-network/internal/logging"
	"github.com/iburimskiy/signal-network/internal/metrics"
	"github.com/iburimskiy/signal-network/internal/network"
	"github.com/iburimskiy/signal-network/internal/render"
	"github.com/iburimskiy/signal-network/internal/scheduler"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	headless   bool
	frames     int
	out        string
}

func run(args []string) error {
	cfg, opts, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	log := logging.New(cfg.Log)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	collector, err := metrics.NewCollector(prometheus.NewRegistry())
	if err != nil {
		return err
	}
	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, log, cfg.MetricsAddr, collector)
	}

	bg, err := cfg.Background()
	if err != nil {
		return err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	renderer := render.New(bg)
	sched := scheduler.New(scheduler.Options{
		Lines:    cfg.LineCount,
		Manager:  network.NewManager(cfg.Params(), rand.New(rand.NewPCG(seed, seed>>1|1))),
		Renderer: renderer,
		Logger:   log,
		Metrics:  collector,
	})

	log.Info(ctx, "starting",
		logging.Int("lines", cfg.LineCount),
		logging.Int("density", cfg.SignalDensity),
		logging.Float("speed", cfg.SpeedMultiplier),
		logging.String("background", cfg.BackgroundColor),
		logging.Any("seed", seed),
		logging.Any("headless", opts.headless),
	)

	if opts.headless {
		return runHeadless(ctx, log, sched, cfg.Window.Width, cfg.Window.Height, opts)
	}

	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowTitle(cfg.Window.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	g := game.New(sched, renderer, log)
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	sched.Stop()
	return nil
}

func parseFlags(args []string) (*config.Config, options, error) {
	var opts options
	flagSet := pflag.NewFlagSet("signal-network", pflag.ContinueOnError)
	flagSet.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	flagSet.BoolVar(&opts.headless, "headless", false, "render off-screen instead of opening a window")
	flagSet.IntVar(&opts.frames, "frames", 600, "frames to simulate in headless mode")
	flagSet.StringVar(&opts.out, "out", "signals.png", "PNG written by headless mode")
	lines := flagSet.Int("lines", config.DefaultLineCount, "number of curves")
	density := flagSet.Int("density", config.DefaultSignalDensity, "target concurrent signal count")
	speed := flagSet.Float64("speed", config.DefaultSpeedMultiplier, "signal speed multiplier")
	background := flagSet.String("background", config.DefaultBackground, "background colour as #rrggbb")
	seed := flagSet.Uint64("seed", 0, "random seed (0 seeds from the clock)")
	width := flagSet.Int("width", config.WindowWidth, "window or image width")
	height := flagSet.Int("height", config.WindowHeight, "window or image height")
	metricsAddr := flagSet.String("metrics-addr", "", "serve Prometheus metrics on this address")
	logLevel := flagSet.String("log-level", "info", "debug, info, warn or error")
	logFormat := flagSet.String("log-format", "text", "text or json")

	if err := flagSet.Parse(args); err != nil {
		return nil, opts, err
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return nil, opts, fmt.Errorf("unexpected argument: %s", extra[0])
	}

	cfg := config.Default()
	if opts.configPath == "" {
		opts.configPath = os.Getenv("SIGNAL_NETWORK_CONFIG")
	}
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, opts, err
		}
		cfg = loaded
	}

	// Flags given explicitly win over the file.
	flagSet.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "lines":
			cfg.LineCount = *lines
		case "density":
			cfg.SignalDensity = *density
		case "speed":
			cfg.SpeedMultiplier = *speed
		case "background":
			cfg.BackgroundColor = *background
		case "seed":
			cfg.Seed = *seed
		case "width":
			cfg.Window.Width = *width
		case "height":
			cfg.Window.Height = *height
		case "metrics-addr":
			cfg.MetricsAddr = *metricsAddr
		case "log-level":
			cfg.Log.Level = *logLevel
		case "log-format":
			cfg.Log.Format = *logFormat
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, opts, err
	}
	if opts.headless && opts.frames < 0 {
		return nil, opts, fmt.Errorf("--frames must be >= 0, got %d", opts.frames)
	}
	return cfg, opts, nil
}

// runHeadless drives the scheduler in a plain loop against an in-memory
// surface and writes the last frame as PNG.
func runHeadless(ctx context.Context, log logging.Logger, sched *scheduler.Scheduler, width, height int, opts options) error {
	surface := render.NewRaster(width, height)
	if surface == nil {
		return fmt.Errorf("invalid headless size %dx%d", width, height)
	}
	start := time.Now()
	for i := 0; i <= opts.frames; i++ {
		sched.Tick(width, height, surface)
	}
	sched.Stop()

	f, err := os.Create(opts.out)
	if err != nil {
		return err
	}
	if err := surface.WritePNG(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Info(ctx, "headless render complete",
		logging.String("out", opts.out),
		logging.Int("frames", opts.frames),
		logging.String("elapsed", time.Since(start).String()),
	)
	return nil
}

// serveMetrics serves /metrics on addr until ctx is done.
func serveMetrics(ctx context.Context, log logging.Logger, addr string, collector *metrics.Collector) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn(shutdownCtx, "metrics server shutdown", logging.Err(err))
		}
	}()

	log.Info(ctx, "serving metrics", logging.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error(ctx, "metrics server stopped", logging.Err(err))
		return
	}
	<-stopped
}
