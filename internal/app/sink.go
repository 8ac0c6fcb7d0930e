package app

import (
	"context"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/handsign/internal/overlay"
)

// WindowPoll is how often the window event loop runs without new frames.
const WindowPoll = 30 * time.Millisecond

// WindowSink shows composed frames in a native window. Frame only queues a
// copy of the canvas; Run owns the window and must be called from the
// goroutine locked to the main OS thread. Frames the window has not shown
// yet are replaced by newer ones.
type WindowSink struct {
	title  string
	frames chan *gocv.Mat

	mu     sync.Mutex
	closed bool
}

// NewWindowSink creates a sink for a window with the given title. The
// window itself is opened by Run.
func NewWindowSink(title string) *WindowSink {
	return &WindowSink{
		title:  title,
		frames: make(chan *gocv.Mat, 1),
	}
}

// Frame queues a copy of the canvas for display. It never blocks.
func (s *WindowSink) Frame(_ Event, canvas overlay.Canvas) {
	mat := canvas.Mat()
	if mat == nil || mat.Empty() {
		return
	}
	frame := mat.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		frame.Close()
		return
	}

	select {
	case stale := <-s.frames:
		stale.Close()
	default:
	}
	s.frames <- &frame
}

// Pending returns how many frames wait to be shown.
func (s *WindowSink) Pending() int {
	return len(s.frames)
}

// Run opens the window and shows queued frames until ctx is cancelled or
// the user presses Esc or q.
func (s *WindowSink) Run(ctx context.Context) error {
	window := gocv.NewWindow(s.title)
	defer window.Close()

	ticker := time.NewTicker(WindowPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case frame := <-s.frames:
			window.IMShow(*frame)
			frame.Close()
		case <-ticker.C:
		}

		switch window.WaitKey(1) {
		case 27, 'q':
			return nil
		}
	}
}

// Close releases any queued frame. Later frames are discarded.
func (s *WindowSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	select {
	case stale := <-s.frames:
		stale.Close()
	default:
	}
	return nil
}
