// Package tracking turns per-frame hand measurements into synthesizer control.
//
// Landmark detection happens elsewhere; this package receives its result as a
// HandFrame per video frame.
package tracking

import "math"

// HandFrame is one frame of normalized hand measurements, each in [0,1] with
// y = 0 at the top. A nil field means the hand was not detected.
type HandFrame struct {
	RightHandY     *float64 `json:"right_hand_y,omitempty"`
	LeftHandX      *float64 `json:"left_hand_x,omitempty"`
	LeftHandY      *float64 `json:"left_hand_y,omitempty"`
	RightHandPinch *float64 `json:"right_hand_pinch,omitempty"` // thumb to index tip distance
	WaveGesture    bool     `json:"wave_gesture,omitempty"`     // waveform switch requested this frame
}

// Sanitized returns a copy with NaN and infinite measurements removed.
func (f HandFrame) Sanitized() HandFrame {
	f.RightHandY = finite(f.RightHandY)
	f.LeftHandX = finite(f.LeftHandX)
	f.LeftHandY = finite(f.LeftHandY)
	f.RightHandPinch = finite(f.RightHandPinch)
	return f
}

func finite(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}

func float(v float64) *float64 { return &v }
