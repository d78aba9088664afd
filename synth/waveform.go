package synth

import (
	"fmt"
	"strings"
)

// WaveType selects the oscillator waveform.
type WaveType int

const (
	Sine WaveType = iota
	Square
	Saw
	Triangle
)

var waveTypeNames = [...]string{"sine", "square", "saw", "triangle"}

// WaveTypes lists all waveforms in switching order.
func WaveTypes() []WaveType {
	return []WaveType{Sine, Square, Saw, Triangle}
}

func (w WaveType) String() string {
	if w < 0 || int(w) >= len(waveTypeNames) {
		return fmt.Sprintf("WaveType(%d)", int(w))
	}
	return waveTypeNames[w]
}

// Valid reports whether w is one of the defined waveforms.
func (w WaveType) Valid() bool {
	return w >= 0 && int(w) < len(waveTypeNames)
}

// Next returns the following waveform, wrapping from Triangle to Sine.
func (w WaveType) Next() WaveType {
	if !w.Valid() {
		return Sine
	}
	return WaveType((int(w) + 1) % len(waveTypeNames))
}

// ParseWaveType parses a case-insensitive waveform name.
func ParseWaveType(s string) (WaveType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "sawtooth" {
		name = "saw"
	}
	for i, n := range waveTypeNames {
		if n == name {
			return WaveType(i), nil
		}
	}
	return Sine, fmt.Errorf("%w: %q", ErrUnknownWaveType, s)
}

func (w WaveType) MarshalText() ([]byte, error) {
	if !w.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownWaveType, int(w))
	}
	return []byte(w.String()), nil
}

func (w *WaveType) UnmarshalText(text []byte) error {
	v, err := ParseWaveType(string(text))
	if err != nil {
		return err
	}
	*w = v
	return nil
}
