package synth

import "errors"

var (
	// ErrStreamOpen is returned by Start when the output stream cannot be opened.
	ErrStreamOpen = errors.New("open audio stream")
	// ErrInvalidParams is returned for construction-time configuration that cannot be used.
	ErrInvalidParams = errors.New("invalid synth params")
	// ErrUnknownWaveType is returned when parsing an unrecognized waveform name.
	ErrUnknownWaveType = errors.New("unknown wave type")
)
