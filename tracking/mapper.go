package tracking

import (
	dspcore "github.com/cwbudde/algo-dsp/dsp/core"

	"github.com/cwbudde/algo-theremin/synth"
)

// Mapper converts hand measurements into synthesizer inputs.
type Mapper struct {
	// LeftZoneLimit is the left-hand x at which volume saturates.
	LeftZoneLimit float64

	// Pinch distances in [PinchMin, PinchMax] map linearly to vibrato depth
	// VibratoBase..VibratoBase+VibratoSpan.
	PinchMin    float64
	PinchMax    float64
	VibratoBase float64
	VibratoSpan float64

	// Left-hand y maps to DelayTop - y*DelaySpan seconds.
	DelayTop  float64
	DelaySpan float64
}

// NewDefaultMapper returns the standard gesture layout.
func NewDefaultMapper() Mapper {
	return Mapper{
		LeftZoneLimit: 0.5,
		PinchMin:      0.02,
		PinchMax:      0.15,
		VibratoBase:   0.001,
		VibratoSpan:   0.02,
		DelayTop:      0.8,
		DelaySpan:     0.7,
	}
}

// Volume maps left-hand x to the volume control input; nil stays nil.
func (m Mapper) Volume(leftX *float64) *float64 {
	if leftX == nil {
		return nil
	}
	if m.LeftZoneLimit <= 0 || *leftX > m.LeftZoneLimit {
		return float(1)
	}
	return float(*leftX / m.LeftZoneLimit)
}

// VibratoDepth maps a pinch distance to a vibrato depth; nil stays nil.
func (m Mapper) VibratoDepth(pinch *float64) *float64 {
	if pinch == nil {
		return nil
	}
	norm := 0.0
	if span := m.PinchMax - m.PinchMin; span > 0 {
		norm = dspcore.Clamp((*pinch-m.PinchMin)/span, 0, 1)
	}
	return float(m.VibratoBase + norm*m.VibratoSpan)
}

// DelaySeconds maps left-hand y to a delay time; nil stays nil. Raising the
// hand lengthens the echo.
func (m Mapper) DelaySeconds(leftY *float64) *float64 {
	if leftY == nil {
		return nil
	}
	return float(m.DelayTop - *leftY*m.DelaySpan)
}

// Controls is the mapped result of one frame.
type Controls struct {
	RightY *float64              `json:"right_y,omitempty"`
	LeftX  *float64              `json:"left_x,omitempty"`
	Update synth.ParameterUpdate `json:"update"`
}

// Map applies the mapping to a whole frame. Non-finite measurements count as
// absent.
func (m Mapper) Map(f HandFrame) Controls {
	f = f.Sanitized()
	return Controls{
		RightY: f.RightHandY,
		LeftX:  m.Volume(f.LeftHandX),
		Update: synth.ParameterUpdate{
			VibratoDepth: m.VibratoDepth(f.RightHandPinch),
			DelaySeconds: m.DelaySeconds(f.LeftHandY),
		},
	}
}
