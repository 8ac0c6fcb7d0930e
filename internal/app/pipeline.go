package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/handsign/internal/detector"
	"github.com/ayusman/handsign/internal/gesture"
	"github.com/ayusman/handsign/internal/overlay"
)

// Event describes a processed frame.
type Event struct {
	SessionID  string    `json:"session"`
	Sequence   uint64    `json:"sequence"`
	CapturedAt time.Time `json:"capturedAt"`
	Hands      int       `json:"hands"`
	// Classification is set only when the frame passed the gate.
	Classification *gesture.Classification `json:"classification,omitempty"`
}

// Sink receives every composed frame. It is called on the pipeline
// goroutine and must not retain the canvas.
type Sink interface {
	Frame(ev Event, canvas overlay.Canvas)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ev Event, canvas overlay.Canvas)

func (f SinkFunc) Frame(ev Event, canvas overlay.Canvas) { f(ev, canvas) }

// Run waits for the model, then processes results from stream until ctx is
// cancelled or the stream closes. A model load failure is returned and leaves
// the coordinator in StateFailed.
func (c *Coordinator) Run(ctx context.Context, stream Stream) error {
	ready, err := c.awaitModel(ctx)
	if !ready {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			drain(stream)
			return nil
		case res, ok := <-stream.Results():
			if !ok {
				return nil
			}
			if _, err := c.ProcessFrame(&res); err != nil {
				c.logger.Warnw("frame not processed", "sequence", res.Sequence, "error", err)
			}
			res.Close()
			stream.Ack()
		}
	}
}

// drain releases results already queued on stream without processing them.
func drain(stream Stream) {
	for {
		select {
		case res, ok := <-stream.Results():
			if !ok {
				return
			}
			res.Close()
		default:
			return
		}
	}
}

// awaitModel reports whether the coordinator became ready. Cancellation
// while waiting is not an error.
func (c *Coordinator) awaitModel(ctx context.Context) (bool, error) {
	c.logger.Info("waiting for model")

	classifier, err := c.config.Model.Wait(ctx)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return false, nil
		}
		c.state.CompareAndSwap(int32(StateIdle), int32(StateFailed))
		c.logger.Errorw("model load failed", "error", err)
		return false, fmt.Errorf("load model: %w", err)
	}

	c.mu.Lock()
	if !c.state.CompareAndSwap(int32(StateIdle), int32(StateReady)) {
		c.mu.Unlock()
		// Closed while loading.
		_ = classifier.Close()
		return false, ErrNotReady
	}
	c.classifier = classifier
	c.mu.Unlock()
	close(c.ready)
	c.logger.Info("pipeline ready")
	return true, nil
}

// ProcessFrame runs one detection result through the pipeline and returns
// the event published to sinks. The caller keeps ownership of res.
func (c *Coordinator) ProcessFrame(res *detector.Result) (Event, error) {
	if c.State() != StateReady {
		return Event{}, ErrNotReady
	}

	ev := Event{
		SessionID:  c.session.id,
		Sequence:   res.Sequence,
		CapturedAt: res.CapturedAt,
		Hands:      len(res.Hands),
	}

	c.fitSurface(res)

	frame := overlay.Frame{Image: res.Image, Hands: res.Hands}
	if label, ok := c.classify(res); ok {
		frame.Label = &label
		ev.Classification = &label
	}

	c.config.Renderer.Render(c.session.canvas, frame)

	for _, s := range c.config.Sinks {
		s.Frame(ev, c.session.canvas)
	}

	c.frames.Add(1)
	c.session.fps.Tick()

	return ev, nil
}

// classify returns a label only for frames with exactly one hand's worth of
// features and a probability above the threshold.
func (c *Coordinator) classify(res *detector.Result) (gesture.Classification, bool) {
	fv := gesture.Extract(res.Hands)
	if !fv.Ready() {
		return gesture.Classification{}, false
	}

	label, err := c.classifier.Classify(fv)
	if err != nil {
		c.logger.Warnw("classification failed", "sequence", res.Sequence, "error", err)
		return gesture.Classification{}, false
	}
	if !label.Actionable(c.config.Threshold) {
		return gesture.Classification{}, false
	}

	c.classified.Add(1)
	c.logger.Infow("classified", "class", label.ClassIndex, "probability", label.Probability, "sequence", res.Sequence)
	return label, true
}

// fitSurface resizes the canvas when the source size or viewport changed
// since the last frame.
func (c *Coordinator) fitSurface(res *detector.Result) {
	width, height := res.Size()
	if width == 0 || height == 0 {
		return
	}

	c.mu.Lock()
	key := c.viewport
	c.mu.Unlock()
	key.sourceWidth, key.sourceHeight = width, height

	if key == c.session.surface {
		return
	}
	c.session.surface = key

	aspect := float64(height) / float64(width)
	w, h := overlay.FitSurface(key.viewportWidth, key.viewportHeight, aspect)
	c.session.canvas.Resize(w, h)
	c.logger.Infow("surface resized", "width", w, "height", h, "source", fmt.Sprintf("%dx%d", width, height))
}
