// Package app coordinates the per-frame pipeline: detection results in,
// skeleton overlay and gated classification label out.
package app

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ayusman/handsign/internal/detector"
	"github.com/ayusman/handsign/internal/gesture"
	"github.com/ayusman/handsign/internal/overlay"
)

// State is the coordinator lifecycle state.
type State int32

const (
	// StateIdle waits for the model to load; no frames are consumed.
	StateIdle State = iota
	// StateReady processes one detection result at a time.
	StateReady
	// StateFailed is terminal: the model could not be loaded.
	StateFailed
	// StateClosed is terminal: the coordinator has been torn down.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ErrNotReady is returned when a frame is processed before the model is loaded.
var ErrNotReady = errors.New("pipeline is not ready")

// Stream is the detector side of the pipeline: one result at a time, acked
// once processed.
type Stream interface {
	Results() <-chan detector.Result
	Ack()
}

// Config holds the coordinator's collaborators.
type Config struct {
	Model     *gesture.PendingModel
	Canvas    overlay.Canvas
	Renderer  *overlay.Renderer
	Threshold float64
	// ViewportWidth and ViewportHeight bound the drawing surface.
	ViewportWidth  int
	ViewportHeight int
	Logger         *zap.SugaredLogger
	Clock          clock.Clock
	Sinks          []Sink
}

// surfaceKey is the input to a surface resize; the surface is only resized
// when it changes.
type surfaceKey struct {
	sourceWidth, sourceHeight     int
	viewportWidth, viewportHeight int
}

// sessionContext is the mutable state owned by one detection session. It is
// created with the coordinator and released by Close.
type sessionContext struct {
	id      string
	canvas  overlay.Canvas
	fps     *FPSMeter
	surface surfaceKey
}

// Coordinator sequences every frame through extraction, classification and
// rendering.
type Coordinator struct {
	config     Config
	logger     *zap.SugaredLogger
	session    *sessionContext
	classifier *gesture.Classifier
	state      atomic.Int32
	ready      chan struct{}

	frames     atomic.Uint64
	classified atomic.Uint64

	// mu guards viewport and the classifier hand-off.
	mu       sync.Mutex
	viewport surfaceKey
}

// New creates a coordinator in the idle state.
func New(config Config) *Coordinator {
	if config.Clock == nil {
		config.Clock = clock.New()
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop().Sugar()
	}
	if config.Renderer == nil {
		config.Renderer = overlay.NewRenderer(overlay.DefaultPalette())
	}

	id := uuid.NewString()
	c := &Coordinator{
		config: config,
		logger: config.Logger.With("session", id),
		session: &sessionContext{
			id:     id,
			canvas: config.Canvas,
			fps:    NewFPSMeter(config.Clock, time.Second),
		},
		ready: make(chan struct{}),
		viewport: surfaceKey{
			viewportWidth:  config.ViewportWidth,
			viewportHeight: config.ViewportHeight,
		},
	}
	c.state.Store(int32(StateIdle))
	return c
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Ready is closed once the model has loaded.
func (c *Coordinator) Ready() <-chan struct{} {
	return c.ready
}

// SessionID identifies this detection session in logs and published events.
func (c *Coordinator) SessionID() string {
	return c.session.id
}

// SetViewport changes the viewport; the surface is refitted on the next frame.
func (c *Coordinator) SetViewport(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewport.viewportWidth, c.viewport.viewportHeight = width, height
}

// Viewport returns the current viewport size.
func (c *Coordinator) Viewport() (width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewport.viewportWidth, c.viewport.viewportHeight
}

// Stats is a snapshot of pipeline counters.
type Stats struct {
	SessionID  string  `json:"session"`
	State      string  `json:"state"`
	Frames     uint64  `json:"frames"`
	Classified uint64  `json:"classified"`
	FPS        float64 `json:"fps"`
}

// Stats returns current counters. Safe to call from any goroutine.
func (c *Coordinator) Stats() Stats {
	return Stats{
		SessionID:  c.session.id,
		State:      c.State().String(),
		Frames:     c.frames.Load(),
		Classified: c.classified.Load(),
		FPS:        c.session.fps.FPS(),
	}
}

// Close releases the canvas, the model and any sink that holds resources.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	prev := State(c.state.Swap(int32(StateClosed)))
	classifier := c.classifier
	c.mu.Unlock()
	if prev == StateClosed {
		return nil
	}

	var err error
	if c.session.canvas != nil {
		err = multierr.Append(err, c.session.canvas.Close())
	}
	err = multierr.Append(err, classifier.Close())
	for _, s := range c.config.Sinks {
		if closer, ok := s.(io.Closer); ok {
			err = multierr.Append(err, closer.Close())
		}
	}

	c.logger.Infow("pipeline closed", "frames", c.frames.Load(), "classified", c.classified.Load())
	return err
}
