package synth

import (
	"math"
	"strconv"

	"github.com/cwbudde/algo-approx"
)

// NoNote is returned by NoteName for non-positive frequencies.
const NoNote = "N/A"

const (
	a4Frequency = 440.0
	a4Note      = 69
	a4Index     = 9 // position of A in noteNames
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName maps a frequency to the nearest equal-tempered note, e.g. 440 -> "A4".
func NoteName(frequency float64) string {
	if !(frequency > 0) || math.IsInf(frequency, 0) {
		return NoNote
	}
	semitones := int(math.Round(12 * math.Log2(frequency/a4Frequency)))
	pos := a4Index + semitones
	return noteNames[floorMod(pos, 12)] + strconv.Itoa(4+floorDiv(pos, 12))
}

// NoteFrequency converts a MIDI note number to its equal-tempered frequency.
func NoteFrequency(note int) float64 {
	const ln2 = 0.69314718055994530942
	exponent := float32(note-a4Note) / 12.0
	return a4Frequency * float64(approx.FastExp(exponent*ln2))
}

// GuideNote is a natural note inside the playable range together with the
// normalized hand height that produces it.
type GuideNote struct {
	Name      string  `json:"name"`
	Frequency float64 `json:"frequency"`
	Position  float64 `json:"position"` // right-hand Y in [0,1]; 0 is the top
}

// GuideNotes lists the natural notes (no sharps) between minHz and maxHz, low to high.
func GuideNotes(minHz, maxHz float64) []GuideNote {
	if !(minHz > 0) || maxHz <= minHz {
		return nil
	}
	logMin, logMax := math.Log(minHz), math.Log(maxHz)
	lo := int(math.Ceil(a4Note + 12*math.Log2(minHz/a4Frequency)))
	hi := int(math.Floor(a4Note + 12*math.Log2(maxHz/a4Frequency)))

	var out []GuideNote
	for n := lo; n <= hi; n++ {
		name := noteNames[floorMod(n, 12)]
		if len(name) != 1 {
			continue
		}
		f := NoteFrequency(n)
		if f < minHz || f > maxHz {
			continue
		}
		out = append(out, GuideNote{
			Name:      name + strconv.Itoa(floorDiv(n, 12)-1),
			Frequency: f,
			Position:  1 - (math.Log(f)-logMin)/(logMax-logMin),
		})
	}
	return out
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}
