// Package output connects a pull-based audio Source to an output stream.
//
// A Device opens Streams; each Stream pulls fixed-size mono float32 chunks from
// its Source on the driver's schedule until it is closed.
package output

import "errors"

var (
	// ErrUnavailable reports that the audio backend cannot be used in this build or environment.
	ErrUnavailable = errors.New("audio output unavailable")
	// ErrClosed reports use of a device after Close.
	ErrClosed = errors.New("audio device closed")
	// ErrBusy reports an Open on a device that only supports one stream at a time.
	ErrBusy = errors.New("audio device busy")
)

// Source produces audio. Process must fill all of dst and must not block.
type Source interface {
	Process(dst []float32)
}

// StreamConfig describes the PCM format requested from a Device.
type StreamConfig struct {
	SampleRate int
	ChunkSize  int
}

// Stream is an open output stream.
type Stream interface {
	Close() error
}

// Device opens output streams and owns device-level resources.
type Device interface {
	Open(src Source, cfg StreamConfig) (Stream, error)
	Close() error
}
