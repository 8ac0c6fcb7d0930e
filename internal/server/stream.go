package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/handsign/internal/app"
	"github.com/ayusman/handsign/internal/overlay"
)

// FrameStore keeps the latest composed overlay as JPEG. It is an app.Sink;
// frames are only encoded while someone is watching.
type FrameStore struct {
	mu      sync.Mutex
	jpeg    []byte
	seq     uint64
	updated chan struct{}
	viewers atomic.Int32
	logger  *zap.SugaredLogger
}

// NewFrameStore creates an empty FrameStore.
func NewFrameStore(logger *zap.SugaredLogger) *FrameStore {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &FrameStore{updated: make(chan struct{}), logger: logger}
}

// Frame encodes the canvas when there are viewers.
func (s *FrameStore) Frame(_ app.Event, canvas overlay.Canvas) {
	if s.viewers.Load() == 0 {
		return
	}
	data, err := overlay.Encode(canvas, gocv.JPEGFileExt)
	if err != nil {
		s.logger.Warnw("failed to encode frame", "error", err)
		return
	}
	if data == nil {
		return
	}
	s.Publish(data)
}

// Publish stores data as the latest frame and wakes waiting viewers.
func (s *FrameStore) Publish(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jpeg = data
	s.seq++
	close(s.updated)
	s.updated = make(chan struct{})
}

// Next blocks until a frame newer than after is available.
func (s *FrameStore) Next(ctx context.Context, after uint64) ([]byte, uint64, error) {
	for {
		s.mu.Lock()
		if s.seq > after {
			data, seq := s.jpeg, s.seq
			s.mu.Unlock()
			return data, seq, nil
		}
		updated := s.updated
		s.mu.Unlock()

		select {
		case <-updated:
		case <-ctx.Done():
			return nil, after, ctx.Err()
		}
	}
}

// Viewers returns the number of connected stream clients.
func (s *FrameStore) Viewers() int {
	return int(s.viewers.Load())
}

// StreamHandler serves the composed overlay as MJPEG.
type StreamHandler struct {
	frames *FrameStore
	logger *zap.SugaredLogger
}

// NewStreamHandler creates a new StreamHandler over frames.
func NewStreamHandler(frames *FrameStore, logger *zap.SugaredLogger) *StreamHandler {
	return &StreamHandler{frames: frames, logger: logger}
}

// ServeHTTP streams MJPEG frames to connected clients.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.frames.viewers.Add(1)
	defer h.frames.viewers.Add(-1)

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var seq uint64
	for {
		data, next, err := h.frames.Next(r.Context(), seq)
		if err != nil {
			return
		}
		seq = next

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(data))
		if _, err := w.Write(data); err != nil {
			h.logger.Debugw("stream client gone", "error", err)
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
