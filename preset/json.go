package preset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/cwbudde/algo-theremin/synth"
)

// File is the JSON schema for theremin presets. Absent fields keep their defaults.
type File struct {
	SampleRate    *int      `json:"sample_rate"`
	MinFrequency  *float64  `json:"min_frequency"`
	MaxFrequency  *float64  `json:"max_frequency"`
	WaveType      string    `json:"wave_type"`
	BufferSize    *int      `json:"buffer_size"`
	VibratoRate   *float64  `json:"vibrato_rate"`
	VibratoDepth  *float64  `json:"vibrato_depth"`
	DelaySeconds  *float64  `json:"delay_seconds"`
	DelayFeedback *float64  `json:"delay_feedback"`
	DelayMix      *float64  `json:"delay_mix"`
	ReverbEnabled *bool     `json:"reverb_enabled"`
	OutputGain    *float64  `json:"output_gain"`
	Harmonics     []float64 `json:"harmonics"`
}

// LoadJSON loads a preset JSON file and applies it on top of default params.
func LoadJSON(path string) (*synth.Params, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse preset %s: %w", path, err)
	}

	p := synth.NewDefaultParams()
	if err := ApplyFile(p, &f); err != nil {
		return nil, fmt.Errorf("preset %s: %w", path, err)
	}
	return p, nil
}

// ApplyFile applies a parsed preset file onto an existing params object.
func ApplyFile(dst *synth.Params, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination params")
	}
	if f == nil {
		return nil
	}

	if f.SampleRate != nil {
		if *f.SampleRate <= 0 {
			return fmt.Errorf("sample_rate must be > 0")
		}
		dst.SampleRate = *f.SampleRate
	}
	if f.MinFrequency != nil {
		if *f.MinFrequency <= 0 {
			return fmt.Errorf("min_frequency must be > 0")
		}
		dst.MinFrequency = *f.MinFrequency
	}
	if f.MaxFrequency != nil {
		dst.MaxFrequency = *f.MaxFrequency
	}
	if dst.MaxFrequency <= dst.MinFrequency {
		return fmt.Errorf("max_frequency must be > min_frequency (%g <= %g)", dst.MaxFrequency, dst.MinFrequency)
	}
	if w := strings.TrimSpace(f.WaveType); w != "" {
		wt, err := synth.ParseWaveType(w)
		if err != nil {
			return fmt.Errorf("wave_type: %w", err)
		}
		dst.WaveType = wt
	}
	if f.BufferSize != nil {
		if *f.BufferSize <= 0 {
			return fmt.Errorf("buffer_size must be > 0")
		}
		dst.BufferSize = *f.BufferSize
	}
	if f.VibratoRate != nil {
		if *f.VibratoRate < 0 {
			return fmt.Errorf("vibrato_rate must be >= 0")
		}
		dst.VibratoRate = *f.VibratoRate
	}
	if f.VibratoDepth != nil {
		if *f.VibratoDepth < 0 || *f.VibratoDepth > synth.MaxVibratoDepth {
			return fmt.Errorf("vibrato_depth must be in [0,%g]", synth.MaxVibratoDepth)
		}
		dst.VibratoDepth = *f.VibratoDepth
	}
	if f.DelaySeconds != nil {
		if *f.DelaySeconds < 0 || *f.DelaySeconds > 2 {
			return fmt.Errorf("delay_seconds must be in [0,2]")
		}
		dst.DelaySeconds = *f.DelaySeconds
	}
	if f.DelayFeedback != nil {
		if *f.DelayFeedback < 0 || *f.DelayFeedback > 1 {
			return fmt.Errorf("delay_feedback must be in [0,1]")
		}
		dst.DelayFeedback = *f.DelayFeedback
	}
	if f.DelayMix != nil {
		if *f.DelayMix < 0 || *f.DelayMix > 1 {
			return fmt.Errorf("delay_mix must be in [0,1]")
		}
		dst.DelayMix = *f.DelayMix
	}
	if f.ReverbEnabled != nil {
		dst.ReverbEnabled = *f.ReverbEnabled
	}
	if f.OutputGain != nil {
		if *f.OutputGain <= 0 {
			return fmt.Errorf("output_gain must be > 0")
		}
		dst.OutputGain = *f.OutputGain
	}
	if f.Harmonics != nil {
		if len(f.Harmonics) == 0 {
			return fmt.Errorf("harmonics must not be empty")
		}
		for i, a := range f.Harmonics {
			if a < 0 {
				return fmt.Errorf("harmonics[%d] must be >= 0", i)
			}
		}
		dst.Harmonics = append([]float64(nil), f.Harmonics...)
	}
	return dst.Validate()
}
