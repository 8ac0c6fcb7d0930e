package app

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// FPSMeter counts ticks over a sliding window.
type FPSMeter struct {
	mu     sync.Mutex
	clock  clock.Clock
	window time.Duration
	ticks  []time.Time
}

// NewFPSMeter creates a meter averaging over window.
func NewFPSMeter(clk clock.Clock, window time.Duration) *FPSMeter {
	return &FPSMeter{clock: clk, window: window}
}

// Tick records one frame.
func (m *FPSMeter) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	m.ticks = append(m.ticks, now)
	m.trim(now)
}

// FPS returns frames per second over the window ending now.
func (m *FPSMeter) FPS() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.trim(m.clock.Now())
	return float64(len(m.ticks)) / m.window.Seconds()
}

func (m *FPSMeter) trim(now time.Time) {
	cutoff := now.Add(-m.window)
	i := 0
	for i < len(m.ticks) && !m.ticks[i].After(cutoff) {
		i++
	}
	m.ticks = m.ticks[i:]
}
