package detector

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// ReadRetryDelay is how long the session waits after a failed frame read.
const ReadRetryDelay = 100 * time.Millisecond

// FrameSource delivers successive video frames. The caller closes each frame.
// io.EOF marks the end of a finite source such as a video file.
type FrameSource interface {
	ReadFrame() (*gocv.Mat, error)
}

// Session runs detection over a frame source and hands results to a single
// consumer. The result channel has capacity one and the next frame is not
// read until the consumer calls Ack, so at most one Result is ever in flight.
type Session struct {
	source   FrameSource
	detector Detector
	logger   *zap.SugaredLogger
	clock    clock.Clock

	results chan Result
	acks    chan struct{}

	mu      sync.Mutex
	options Options
	seq     uint64
}

// NewSession creates a detection session. A nil clock means the wall clock.
func NewSession(source FrameSource, d Detector, opts Options, logger *zap.SugaredLogger, clk clock.Clock) *Session {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Session{
		source:   source,
		detector: d,
		logger:   logger,
		clock:    clk,
		results:  make(chan Result, 1),
		acks:     make(chan struct{}, 1),
		options:  opts,
	}
}

// Results returns the detection stream. It is closed when Run returns; a
// result still queued at that point is released first.
func (s *Session) Results() <-chan Result {
	return s.results
}

// Ack tells the session the last result has been fully processed.
func (s *Session) Ack() {
	select {
	case s.acks <- struct{}{}:
	default:
	}
}

// Options returns the current detector options.
func (s *Session) Options() Options {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.options
}

// SetOptions validates and applies new detector options. Detectors that are
// not Configurable only pick up the selfie setting, which the session applies.
func (s *Session) SetOptions(opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	if c, ok := s.detector.(Configurable); ok {
		if err := c.SetOptions(opts); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.options = opts
	s.mu.Unlock()
	return nil
}

// Run reads, detects and publishes frames until ctx is cancelled or the
// source is exhausted. Frames the detector fails on are dropped.
func (s *Session) Run(ctx context.Context) error {
	defer s.finish()

	for {
		if ctx.Err() != nil {
			return nil
		}

		frame, err := s.source.ReadFrame()
		if errors.Is(err, io.EOF) {
			s.logger.Info("frame source exhausted")
			return nil
		}
		if err != nil {
			s.logger.Warnw("error reading frame", "error", err)
			select {
			case <-s.clock.After(ReadRetryDelay):
				continue
			case <-ctx.Done():
				return nil
			}
		}

		if s.Options().SelfieMode {
			gocv.Flip(*frame, frame, 1)
		}

		hands, err := s.detector.Detect(frame)
		if err != nil {
			s.logger.Warnw("error detecting hands", "error", err)
			frame.Close()
			continue
		}

		s.seq++
		res := Result{
			Image:      frame,
			Hands:      hands,
			Sequence:   s.seq,
			CapturedAt: s.clock.Now(),
		}

		select {
		case s.results <- res:
		case <-ctx.Done():
			res.Close()
			return nil
		}

		select {
		case <-s.acks:
		case <-ctx.Done():
			return nil
		}
	}
}

// finish releases a result nobody received, then closes the stream.
func (s *Session) finish() {
	select {
	case res := <-s.results:
		res.Close()
	default:
	}
	close(s.results)
}
