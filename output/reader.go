package output

import (
	"encoding/binary"
	"math"
)

// sourceReader adapts a Source to io.Reader producing float32 little-endian mono PCM.
type sourceReader struct {
	src Source
	buf []float32 // pre-allocated; grows only if the driver asks for a larger chunk
}

func newSourceReader(src Source, chunkSize int) *sourceReader {
	if chunkSize < 1 {
		chunkSize = 1
	}
	return &sourceReader{src: src, buf: make([]float32, chunkSize)}
}

func (r *sourceReader) Read(p []byte) (int, error) {
	n := len(p) / 4
	if n == 0 {
		return 0, nil
	}
	if n > len(r.buf) {
		r.buf = make([]float32, n)
	}
	samples := r.buf[:n]
	r.src.Process(samples)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	return n * 4, nil
}
