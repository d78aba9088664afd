package tracking

import "time"

// FPSMeter keeps the running mean of per-frame rates, 1/processTime.
type FPSMeter struct {
	sum   float64
	count int
}

// Add records one frame and returns the updated average. Non-positive
// durations are ignored.
func (m *FPSMeter) Add(processTime time.Duration) float64 {
	if processTime > 0 {
		m.sum += 1 / processTime.Seconds()
		m.count++
	}
	return m.Average()
}

// Average returns the mean rate, 0 before any frame was recorded.
func (m *FPSMeter) Average() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}

// Count returns the number of recorded frames.
func (m *FPSMeter) Count() int { return m.count }

// Reset forgets all frames.
func (m *FPSMeter) Reset() { *m = FPSMeter{} }
