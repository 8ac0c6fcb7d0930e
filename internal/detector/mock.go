package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu      sync.Mutex
	frames  [][]Hand
	hands   []Hand
	err     error
	options Options
	calls   int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{options: DefaultOptions()}
}

// SetHands sets the hands that will be returned by every Detect call.
func (m *MockDetector) SetHands(hands []Hand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// QueueFrames sets per-call results; once drained Detect falls back to SetHands.
func (m *MockDetector) QueueFrames(frames ...[]Hand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = append(m.frames, frames...)
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetOptions records the options.
func (m *MockDetector) SetOptions(opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.options = opts
	return nil
}

// Options returns the last options set.
func (m *MockDetector) Options() Options {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.options
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error, capped at MaxNumHands.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]Hand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	hands := m.hands
	if len(m.frames) > 0 {
		hands = m.frames[0]
		m.frames = m.frames[1:]
	}
	if limit := m.options.MaxNumHands; limit > 0 && len(hands) > limit {
		hands = hands[:limit]
	}
	return hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// OpenPalm returns a preset open palm with all fingers extended. World
// landmarks are the image landmarks re-centred on the wrist and scaled to
// roughly metric units, which is how the landmark model reports them.
func OpenPalm(side Handedness) Hand {
	hand := Hand{
		Handedness: side,
		Score:      0.95,
	}

	hand.Landmarks[Wrist] = Landmark{X: 0.5, Y: 0.8, Z: 0.0}

	hand.Landmarks[ThumbCMC] = Landmark{X: 0.55, Y: 0.75, Z: -0.02}
	hand.Landmarks[ThumbMCP] = Landmark{X: 0.62, Y: 0.70, Z: -0.03}
	hand.Landmarks[ThumbIP] = Landmark{X: 0.68, Y: 0.65, Z: -0.04}
	hand.Landmarks[ThumbTip] = Landmark{X: 0.73, Y: 0.60, Z: -0.05}

	hand.Landmarks[IndexMCP] = Landmark{X: 0.55, Y: 0.68, Z: 0.0}
	hand.Landmarks[IndexPIP] = Landmark{X: 0.57, Y: 0.55, Z: -0.02}
	hand.Landmarks[IndexDIP] = Landmark{X: 0.58, Y: 0.45, Z: -0.03}
	hand.Landmarks[IndexTip] = Landmark{X: 0.58, Y: 0.35, Z: -0.04}

	hand.Landmarks[MiddleMCP] = Landmark{X: 0.50, Y: 0.66, Z: 0.0}
	hand.Landmarks[MiddlePIP] = Landmark{X: 0.50, Y: 0.52, Z: -0.02}
	hand.Landmarks[MiddleDIP] = Landmark{X: 0.50, Y: 0.40, Z: -0.03}
	hand.Landmarks[MiddleTip] = Landmark{X: 0.50, Y: 0.28, Z: -0.04}

	hand.Landmarks[RingMCP] = Landmark{X: 0.45, Y: 0.68, Z: 0.0}
	hand.Landmarks[RingPIP] = Landmark{X: 0.43, Y: 0.55, Z: -0.02}
	hand.Landmarks[RingDIP] = Landmark{X: 0.42, Y: 0.45, Z: -0.03}
	hand.Landmarks[RingTip] = Landmark{X: 0.42, Y: 0.35, Z: -0.04}

	hand.Landmarks[PinkyMCP] = Landmark{X: 0.40, Y: 0.70, Z: 0.0}
	hand.Landmarks[PinkyPIP] = Landmark{X: 0.37, Y: 0.60, Z: -0.01}
	hand.Landmarks[PinkyDIP] = Landmark{X: 0.35, Y: 0.50, Z: -0.02}
	hand.Landmarks[PinkyTip] = Landmark{X: 0.34, Y: 0.42, Z: -0.03}

	if side == Left {
		for i := range hand.Landmarks {
			hand.Landmarks[i].X = 1 - hand.Landmarks[i].X
		}
	}

	wrist := hand.Landmarks[Wrist]
	for i, l := range hand.Landmarks {
		hand.WorldLandmarks[i] = Landmark{
			X: (l.X - wrist.X) * 0.2,
			Y: (l.Y - wrist.Y) * 0.2,
			Z: l.Z * 0.2,
		}
	}

	return hand
}
