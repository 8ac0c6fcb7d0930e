package gesture

import "sync"

// MockModel is a test implementation of the Model interface that returns
// fixed scores and records every input it sees.
type MockModel struct {
	mu     sync.Mutex
	scores []float32
	err    error
	inputs [][]float32
	shapes [][]int
	closed bool
}

// NewMockModel creates a MockModel returning scores.
func NewMockModel(scores ...float32) *MockModel {
	return &MockModel{scores: scores}
}

// SetScores replaces the scores returned by Predict.
func (m *MockModel) SetScores(scores ...float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores = scores
}

// SetError makes Predict fail with err.
func (m *MockModel) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockModel) Predict(input []float32, shape []int) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.inputs = append(m.inputs, append([]float32(nil), input...))
	m.shapes = append(m.shapes, append([]int(nil), shape...))
	if m.err != nil {
		return nil, m.err
	}
	return append([]float32(nil), m.scores...), nil
}

// Calls returns how many times Predict ran.
func (m *MockModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inputs)
}

// LastInput returns the most recent input and shape.
func (m *MockModel) LastInput() ([]float32, []int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.inputs) == 0 {
		return nil, nil
	}
	return m.inputs[len(m.inputs)-1], m.shapes[len(m.shapes)-1]
}

func (m *MockModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockModel) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
