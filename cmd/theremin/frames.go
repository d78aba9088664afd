package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cwbudde/algo-theremin/tracking"
)

// scanFrames calls fn for each JSON HandFrame line in r. Blank lines and lines
// starting with '#' are skipped.
func scanFrames(r io.Reader, fn func(tracking.HandFrame) error) error {
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var f tracking.HandFrame
		if err := json.Unmarshal([]byte(text), &f); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := fn(f); err != nil {
			return err
		}
	}
	return sc.Err()
}

// readFrames collects all frames from r.
func readFrames(r io.Reader) ([]tracking.HandFrame, error) {
	var frames []tracking.HandFrame
	err := scanFrames(r, func(f tracking.HandFrame) error {
		frames = append(frames, f)
		return nil
	})
	return frames, err
}

// sweepFrames scripts a glide from the bottom of the pitch range to the top
// with the left hand held at leftX.
func sweepFrames(n int, leftX float64) []tracking.HandFrame {
	frames := make([]tracking.HandFrame, n)
	for i := range frames {
		y := 1.0
		if n > 1 {
			y = 1 - float64(i)/float64(n-1)
		}
		x := leftX
		frames[i] = tracking.HandFrame{RightHandY: &y, LeftHandX: &x}
	}
	return frames
}
