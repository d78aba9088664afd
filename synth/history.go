package synth

// History is a bounded FIFO of recent values whose mean smooths a control signal.
// Pushing onto a full history evicts the oldest value.
type History struct {
	buf   []float64
	start int
	n     int
}

// NewHistory creates a history holding at most capacity values.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{buf: make([]float64, capacity)}
}

// Push appends v, dropping the oldest value when full.
func (h *History) Push(v float64) {
	if h.n < len(h.buf) {
		h.buf[(h.start+h.n)%len(h.buf)] = v
		h.n++
		return
	}
	h.buf[h.start] = v
	h.start = (h.start + 1) % len(h.buf)
}

// Mean returns the arithmetic mean of the retained values, or 0 when empty.
func (h *History) Mean() float64 {
	if h.n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < h.n; i++ {
		sum += h.buf[(h.start+i)%len(h.buf)]
	}
	return sum / float64(h.n)
}

// Clear drops all values.
func (h *History) Clear() {
	h.start = 0
	h.n = 0
}

// Len returns the number of retained values.
func (h *History) Len() int { return h.n }

// Cap returns the configured capacity.
func (h *History) Cap() int { return len(h.buf) }

// Values returns the retained values, oldest first.
func (h *History) Values() []float64 {
	out := make([]float64, h.n)
	for i := range out {
		out[i] = h.buf[(h.start+i)%len(h.buf)]
	}
	return out
}
