// Package config holds the statically validated settings for handsign.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/ayusman/handsign/internal/detector"
	"github.com/ayusman/handsign/internal/gesture"
	"github.com/ayusman/handsign/internal/overlay"
)

// Renderer kinds.
const (
	RendererOpenCV = "opencv"
	RendererVector = "vector"
)

// DefaultModelLocation is where the served model artifact is expected.
const DefaultModelLocation = "http://localhost:3000/saved_model/model.onnx"

// Config is the complete application configuration.
type Config struct {
	// Source is a capture device index ("0") or a video file/stream path.
	Source    string           `yaml:"source"`
	Detector  detector.Options `yaml:"detector"`
	Model     Model            `yaml:"model"`
	Threshold float64          `yaml:"threshold"`
	Viewport  Viewport         `yaml:"viewport"`
	Renderer  Renderer         `yaml:"renderer"`
	Server    Server           `yaml:"server"`
	Display   bool             `yaml:"display"`
	Log       Log              `yaml:"log"`
}

// Model locates the classifier artifact.
type Model struct {
	Location string `yaml:"location"`
	// Framework is "onnx" or "tensorflow"; empty infers it from Location.
	Framework string `yaml:"framework"`
}

// Viewport is the display area the surface is fitted into.
type Viewport struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Renderer selects the canvas backend and drawing style.
type Renderer struct {
	Kind      string  `yaml:"kind"`
	FontSize  float64 `yaml:"fontSize"`
	LineWidth int     `yaml:"lineWidth"`
	Colors    Colors  `yaml:"colors"`
}

// Colors are hex strings. Primary/Secondary are the right hand's connector
// and fill colors; left hands swap them.
type Colors struct {
	Primary   string `yaml:"primary"`
	Secondary string `yaml:"secondary"`
	Ink       string `yaml:"ink"`
	Accent    string `yaml:"accent"`
}

// Server configures the HTTP surface. An empty Addr disables it.
type Server struct {
	Addr string `yaml:"addr"`
}

// Log configures the zap logger.
type Log struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Source:    "0",
		Detector:  detector.DefaultOptions(),
		Model:     Model{Location: DefaultModelLocation},
		Threshold: gesture.DefaultThreshold,
		Viewport:  Viewport{Width: 1280, Height: 720},
		Renderer: Renderer{
			Kind:      RendererOpenCV,
			FontSize:  overlay.DefaultFontSize,
			LineWidth: overlay.DefaultLineWidth,
			Colors: Colors{
				Primary:   overlay.DefaultPrimary,
				Secondary: overlay.DefaultSecondary,
				Ink:       overlay.DefaultInk,
				Accent:    overlay.DefaultAccent,
			},
		},
		Server:  Server{Addr: ":8080"},
		Display: true,
		Log:     Log{Level: "info"},
	}
}

// Load reads a YAML file over the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var err error

	if c.Source == "" {
		err = multierr.Append(err, errors.New("source must not be empty"))
	}
	if verr := c.Detector.Validate(); verr != nil {
		err = multierr.Append(err, fmt.Errorf("detector: %w", verr))
	}
	if c.Model.Location == "" {
		err = multierr.Append(err, errors.New("model.location must not be empty"))
	}
	if c.Model.Framework != "" && c.Model.Framework != gesture.FrameworkONNX && c.Model.Framework != gesture.FrameworkTensorflow {
		err = multierr.Append(err, fmt.Errorf("model.framework %q is not supported", c.Model.Framework))
	}
	if c.Threshold < 0 || c.Threshold >= 1 {
		err = multierr.Append(err, fmt.Errorf("threshold must be in [0, 1), got %f", c.Threshold))
	}
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		err = multierr.Append(err, fmt.Errorf("viewport must be positive, got %dx%d", c.Viewport.Width, c.Viewport.Height))
	}
	if c.Renderer.Kind != RendererOpenCV && c.Renderer.Kind != RendererVector {
		err = multierr.Append(err, fmt.Errorf("renderer.kind must be %q or %q, got %q", RendererOpenCV, RendererVector, c.Renderer.Kind))
	}
	if c.Renderer.FontSize <= 0 {
		err = multierr.Append(err, fmt.Errorf("renderer.fontSize must be positive, got %f", c.Renderer.FontSize))
	}
	if c.Renderer.LineWidth <= 0 {
		err = multierr.Append(err, fmt.Errorf("renderer.lineWidth must be positive, got %d", c.Renderer.LineWidth))
	}
	if _, perr := c.Palette(); perr != nil {
		err = multierr.Append(err, perr)
	}
	if _, lerr := zapcore.ParseLevel(c.Log.Level); lerr != nil {
		err = multierr.Append(err, fmt.Errorf("log.level: %w", lerr))
	}

	return err
}

// Palette parses the configured colors.
func (c Config) Palette() (overlay.Palette, error) {
	col := c.Renderer.Colors
	return overlay.ParsePalette(col.Primary, col.Secondary, col.Ink, col.Accent)
}
