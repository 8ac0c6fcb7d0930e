package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/handsign/internal/app"
	"github.com/ayusman/handsign/internal/capture"
	"github.com/ayusman/handsign/internal/config"
	"github.com/ayusman/handsign/internal/detector"
	"github.com/ayusman/handsign/internal/gesture"
	"github.com/ayusman/handsign/internal/overlay"
	"github.com/ayusman/handsign/internal/server"
)

const (
	flagConfig      = "config"
	flagSource      = "source"
	flagModel       = "model"
	flagFramework   = "framework"
	flagThreshold   = "threshold"
	flagMaxHands    = "max-num-hands"
	flagSelfie      = "selfie"
	flagRenderer    = "renderer"
	flagAddr        = "addr"
	flagDisplay     = "display"
	flagStaticDir   = "static-dir"
	flagLogLevel    = "log-level"
	flagDevelopment = "dev"
)

// UI toolkits behind the display window require the main OS thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "handsign: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "handsign",
		Usage: "classify hand signs from a camera and draw the hand skeleton",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: flagConfig, Aliases: []string{"c"}, Usage: "YAML config file"},
			&cli.StringFlag{Name: flagSource, Usage: "camera index or video file"},
			&cli.StringFlag{Name: flagModel, Usage: "model URL or path"},
			&cli.StringFlag{Name: flagFramework, Usage: "model framework (onnx, tensorflow)"},
			&cli.Float64Flag{Name: flagThreshold, Usage: "minimum probability to show a label"},
			&cli.IntFlag{Name: flagMaxHands, Usage: "maximum number of hands to detect"},
			&cli.BoolFlag{Name: flagSelfie, Usage: "mirror the input"},
			&cli.StringFlag{Name: flagRenderer, Usage: "canvas backend (opencv, vector)"},
			&cli.StringFlag{Name: flagAddr, Usage: "HTTP listen address, empty to disable"},
			&cli.BoolFlag{Name: flagDisplay, Usage: "show the overlay in a window"},
			&cli.StringFlag{Name: flagStaticDir, Usage: "directory of static web files"},
			&cli.StringFlag{Name: flagLogLevel, Usage: "debug, info, warn or error"},
			&cli.BoolFlag{Name: flagDevelopment, Usage: "human readable logs"},
		},
		Action: run,
	}
}

// loadConfig reads the config file, if any, then applies flags that were set.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String(flagConfig); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}

	if c.IsSet(flagSource) {
		cfg.Source = c.String(flagSource)
	}
	if c.IsSet(flagModel) {
		cfg.Model.Location = c.String(flagModel)
	}
	if c.IsSet(flagFramework) {
		cfg.Model.Framework = c.String(flagFramework)
	}
	if c.IsSet(flagThreshold) {
		cfg.Threshold = c.Float64(flagThreshold)
	}
	if c.IsSet(flagMaxHands) {
		cfg.Detector.MaxNumHands = c.Int(flagMaxHands)
	}
	if c.IsSet(flagSelfie) {
		cfg.Detector.SelfieMode = c.Bool(flagSelfie)
	}
	if c.IsSet(flagRenderer) {
		cfg.Renderer.Kind = c.String(flagRenderer)
	}
	if c.IsSet(flagAddr) {
		cfg.Server.Addr = c.String(flagAddr)
	}
	if c.IsSet(flagDisplay) {
		cfg.Display = c.Bool(flagDisplay)
	}
	if c.IsSet(flagLogLevel) {
		cfg.Log.Level = c.String(flagLogLevel)
	}
	if c.IsSet(flagDevelopment) {
		cfg.Log.Development = c.Bool(flagDevelopment)
	}

	return cfg, cfg.Validate()
}

func newLogger(cfg config.Log) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level
	return zcfg.Build()
}

func newCanvas(cfg config.Config) (overlay.Canvas, error) {
	w, h := cfg.Viewport.Width, cfg.Viewport.Height
	if cfg.Renderer.Kind == config.RendererVector {
		return overlay.NewVectorCanvas(w, h)
	}
	return overlay.NewMatCanvas(w, h), nil
}

func newDetector(opts detector.Options, logger *zap.SugaredLogger) (detector.Detector, error) {
	d, err := detector.NewMediaPipeDetector(opts, logger)
	if errors.Is(err, detector.ErrServiceNotFound) {
		logger.Warnw("landmark service not found, no hands will be detected", "error", err)
		return detector.NewMockDetector(), nil
	}
	return d, err
}

func run(c *cli.Context) (err error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	base, err := newLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer base.Sync()
	logger := base.Sugar()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	framework := cfg.Model.Framework
	if framework == "" {
		if framework, err = gesture.FrameworkFor(cfg.Model.Location); err != nil {
			return err
		}
	}
	pending := gesture.LoadAsync(ctx, gesture.NewLoader(logger).Func(cfg.Model.Location, framework))

	cam := capture.NewCamera(cfg.Source)
	if err := cam.Open(); err != nil {
		return fmt.Errorf("open source %q: %w", cfg.Source, err)
	}
	defer func() { err = multierr.Append(err, cam.Close()) }()

	det, err := newDetector(cfg.Detector, logger)
	if err != nil {
		return fmt.Errorf("create detector: %w", err)
	}
	defer func() { err = multierr.Append(err, det.Close()) }()

	palette, err := cfg.Palette()
	if err != nil {
		return err
	}
	canvas, err := newCanvas(cfg)
	if err != nil {
		return fmt.Errorf("create canvas: %w", err)
	}
	renderer := overlay.NewRenderer(palette)
	renderer.FontSize = cfg.Renderer.FontSize
	renderer.LineWidth = cfg.Renderer.LineWidth

	clk := clock.New()
	session := detector.NewSession(cam, det, cfg.Detector, logger, clk)

	var (
		sinks  []app.Sink
		window *app.WindowSink
		frames *server.FrameStore
		events *server.EventHub
	)
	if cfg.Display {
		window = app.NewWindowSink("handsign")
		sinks = append(sinks, window)
	}
	if cfg.Server.Addr != "" {
		frames = server.NewFrameStore(logger)
		events = server.NewEventHub(logger)
		sinks = append(sinks, frames, events)
	}

	coordinator := app.New(app.Config{
		Model:          pending,
		Canvas:         canvas,
		Renderer:       renderer,
		Threshold:      cfg.Threshold,
		ViewportWidth:  cfg.Viewport.Width,
		ViewportHeight: cfg.Viewport.Height,
		Logger:         logger,
		Clock:          clk,
		Sinks:          sinks,
	})
	defer func() { err = multierr.Append(err, coordinator.Close()) }()

	logger.Infow("starting",
		"session", coordinator.SessionID(),
		"source", cfg.Source,
		"model", cfg.Model.Location,
		"renderer", cfg.Renderer.Kind,
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// The source ending stops everything else.
		defer cancel()
		return coordinator.Run(ctx, session)
	})
	g.Go(func() error {
		select {
		case <-coordinator.Ready():
		case <-ctx.Done():
			return nil
		}
		return session.Run(ctx)
	})
	if cfg.Server.Addr != "" {
		staticDir := c.String(flagStaticDir)
		if staticDir == "" {
			staticDir = findWebDir()
		}
		srv := server.New(server.Config{
			StaticDir: staticDir,
			Status:    coordinator,
			Frames:    frames,
			Events:    events,
			Options:   session,
			Viewport:  coordinator,
			Logger:    logger,
			Clock:     clk,
		})
		g.Go(func() error {
			return srv.ListenAndServe(ctx, cfg.Server.Addr)
		})
	}

	if window == nil {
		return g.Wait()
	}

	// The window loop keeps the main thread; closing the window stops the rest.
	werr := window.Run(ctx)
	cancel()
	return multierr.Append(g.Wait(), werr)
}

// findWebDir searches for the web directory next to the working directory
// and in ~/.handsign/web. It returns "" if none exists.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	homeWebDir := filepath.Join(homeDir, ".handsign", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}
	return ""
}
